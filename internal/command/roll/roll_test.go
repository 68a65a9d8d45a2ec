package roll

import (
	"errors"
	"sync"
	"testing"

	"github.com/keshon/chatcmd/internal/command/commandtest"
	"github.com/keshon/chatcmd/pkg/cmd"
)

// maxSource makes every die land on its highest face.
type maxSource struct{}

func (maxSource) Uint64() uint64 { return ^uint64(0) }

func TestEvaluate(t *testing.T) {
	r := NewRoller(maxSource{})
	tests := []struct {
		formula string
		calc    string
		total   int
	}{
		{"2d6+1d4*2-3", "2d6[6,6] + 1d4[4] * 2 - 3", 17},
		{"d20", "d20[20]", 20},
		{"2 D 6", "2d6[6,6]", 12},
		{"-5+10", "- 5 + 10", 5},
		{"10/3", "10 / 3", 3},
		{"3*4-2*5", "3 * 4 - 2 * 5", 2},
	}
	for _, tt := range tests {
		out, err := r.Evaluate(tt.formula)
		if err != nil {
			t.Errorf("Evaluate(%q): %v", tt.formula, err)
			continue
		}
		if out.Calculation != tt.calc || out.Total != tt.total {
			t.Errorf("Evaluate(%q) = %q = %d, want %q = %d", tt.formula, out.Calculation, out.Total, tt.calc, tt.total)
		}
	}
}

func TestEvaluateErrors(t *testing.T) {
	r := NewRoller(maxSource{})
	tests := []struct {
		formula string
		parse   bool
	}{
		{"", true},
		{"2x3", true},
		{"1+", true},
		{"*2", true},
		{"1+*2", true},
		{"1/0", false},
		{"2d1", false},
		{"0d6", false},
		{"101d6", false},
		{"1d1001", false},
	}
	for _, tt := range tests {
		_, err := r.Evaluate(tt.formula)
		if err == nil {
			t.Errorf("Evaluate(%q) should fail", tt.formula)
			continue
		}
		if got := errors.Is(err, ErrFormula); got != tt.parse {
			t.Errorf("Evaluate(%q) = %v, parse error %v, want %v", tt.formula, err, got, tt.parse)
		}
	}
}

func TestRollCommand(t *testing.T) {
	alice := commandtest.NewActor("Alice")
	h := commandtest.New(t, nil, SourceWith(maxSource{}))

	if res := h.Run(alice, "r 2d6"); res.Outcome != cmd.OutcomeSuccess {
		t.Fatalf("outcome = %v (%v)", res.Outcome, res.Err)
	}
	msgs := alice.Messages()
	if len(msgs) != 2 || msgs[0] != "Alice rolled 2d6" || msgs[1] != "2d6[6,6] = 12" {
		t.Errorf("got %q", msgs)
	}

	alice.Reset()
	if res := h.Run(alice, "dice lots"); res.Outcome != cmd.OutcomeUsage {
		t.Errorf("outcome = %v", res.Outcome)
	}

	alice.Reset()
	h.Run(alice, "roll 1/0")
	if alice.Last() != "can't divide by zero" {
		t.Errorf("got %q", alice.Last())
	}
}

func TestConcurrentRolls(t *testing.T) {
	r := NewRoller(nil)
	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := r.Evaluate("10d6")
			if err != nil {
				errs <- err
				return
			}
			if out.Total < 10 || out.Total > 60 {
				errs <- errors.New("total out of range")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
