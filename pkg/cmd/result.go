package cmd

// Outcome is what happened to one dispatched line.
type Outcome int

const (
	// OutcomeNotFound means no command is bound to the token.
	OutcomeNotFound Outcome = iota
	// OutcomeEmpty means the line was empty.
	OutcomeEmpty
	// OutcomeDenied means the actor lacks the command's permission.
	OutcomeDenied
	// OutcomeUsage means the arguments did not match the grammar and usage
	// was sent to the actor.
	OutcomeUsage
	// OutcomeSuccess means the handler returned without error.
	OutcomeSuccess
	// OutcomeFailed means the handler returned an error or panicked.
	OutcomeFailed
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeNotFound:
		return "not_found"
	case OutcomeEmpty:
		return "empty"
	case OutcomeDenied:
		return "denied"
	case OutcomeUsage:
		return "usage"
	case OutcomeSuccess:
		return "success"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result reports a dispatch.
type Result struct {
	Outcome Outcome
	// Command is the primary alias of the resolved command, if any.
	Command string
	// Err is set for every outcome except OutcomeSuccess and OutcomeNotFound.
	Err error
}

// Handled reports whether the line was consumed. Hosts use it to suppress
// their default handling of the text.
func (r Result) Handled() bool {
	switch r.Outcome {
	case OutcomeUsage, OutcomeSuccess, OutcomeFailed:
		return true
	default:
		return false
	}
}
