// Package roll evaluates dice formulas like 2d20+1d6-2.
package roll

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/keshon/chatcmd/pkg/chat"
	"github.com/keshon/chatcmd/pkg/cmd"
)

var (
	tokenRegex = regexp.MustCompile(`(?i)(\d*d\d+|\d+|[+\-*/])`)
	diceRegex  = regexp.MustCompile(`(?i)^(\d*)d(\d+)$`)
	validOps   = map[string]bool{"+": true, "-": true, "*": true, "/": true}
)

const (
	maxDice  = 100
	maxSides = 1000
)

var ErrFormula = errors.New("can't parse formula")

type term struct {
	value int
	desc  string
	op    string
}

// Outcome is an evaluated formula.
type Outcome struct {
	Formula     string
	Calculation string
	Total       int
}

// Roller owns the random source. It is safe for concurrent use.
type Roller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRoller uses src, or a time-seeded PCG when src is nil.
func NewRoller(src rand.Source) *Roller {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>1|1)
	}
	return &Roller{rng: rand.New(src)}
}

// Source declares the roll command.
func Source() cmd.Source {
	return SourceWith(nil)
}

// SourceWith declares the roll command with a fixed random source.
func SourceWith(src rand.Source) cmd.Source {
	return cmd.Source{
		Name: "roll",
		New:  func() (any, error) { return NewRoller(src), nil },
		Commands: []cmd.Declaration{
			{
				Aliases:     []string{"roll", "r", "dice"},
				Usage:       "<formula>",
				Pattern:     `[0-9dD+\-*/ ]+`,
				Description: "Roll dice like 2d20+1d6-2",
				Method:      cmd.Bind((*Roller).Roll),
			},
		},
	}
}

func (r *Roller) Roll(ctx context.Context, inv *cmd.Invocation) error {
	out, err := r.Evaluate(inv.Message)
	if err != nil {
		inv.Reply(chat.Format("&c%s", err.Error()))
		return nil
	}
	inv.Reply(chat.Format("&6%s rolled &f%s", inv.Actor.Name(), out.Formula))
	inv.Reply(chat.Format("&7%s = &e%d", out.Calculation, out.Total))
	return nil
}

// Evaluate rolls formula. Multiplication and division bind tighter than
// addition and subtraction; division truncates.
func (r *Roller) Evaluate(formula string) (Outcome, error) {
	formula = strings.ReplaceAll(formula, " ", "")

	tokens := tokenRegex.FindAllString(formula, -1)
	if len(tokens) == 0 || strings.Join(tokens, "") != formula {
		return Outcome{}, fmt.Errorf("%w. Try something like 2d6+1d4*2-3", ErrFormula)
	}

	var terms []term
	currentOp := "+"
	expectValue := true

	for _, token := range tokens {
		if validOps[token] {
			if expectValue && !(len(terms) == 0 && (token == "+" || token == "-")) {
				return Outcome{}, fmt.Errorf("%w: unexpected %s", ErrFormula, token)
			}
			currentOp = token
			expectValue = true
			continue
		}

		val, desc, err := r.evaluateToken(token)
		if err != nil {
			return Outcome{}, fmt.Errorf("failed to evaluate %s: %w", token, err)
		}
		terms = append(terms, term{value: val, desc: desc, op: currentOp})
		expectValue = false
	}
	if expectValue {
		return Outcome{}, fmt.Errorf("%w: formula ends with an operator", ErrFormula)
	}

	var merged []term
	for _, t := range terms {
		if t.op != "*" && t.op != "/" {
			merged = append(merged, t)
			continue
		}
		prev := merged[len(merged)-1]
		merged = merged[:len(merged)-1]

		var newVal int
		switch t.op {
		case "*":
			newVal = prev.value * t.value
		case "/":
			if t.value == 0 {
				return Outcome{}, errors.New("can't divide by zero")
			}
			newVal = prev.value / t.value
		}
		merged = append(merged, term{
			value: newVal,
			desc:  fmt.Sprintf("%s %s %s", prev.desc, t.op, t.desc),
			op:    prev.op,
		})
	}

	total := 0
	var details []string
	for i, t := range merged {
		if i > 0 || t.op == "-" {
			details = append(details, t.op)
		}
		details = append(details, t.desc)

		if t.op == "-" {
			total -= t.value
		} else {
			total += t.value
		}
	}

	return Outcome{Formula: formula, Calculation: strings.Join(details, " "), Total: total}, nil
}

func (r *Roller) evaluateToken(token string) (int, string, error) {
	m := diceRegex.FindStringSubmatch(token)
	if m == nil {
		num, err := strconv.Atoi(token)
		if err != nil {
			return 0, "", fmt.Errorf("not a number or dice")
		}
		return num, strconv.Itoa(num), nil
	}

	count := 1
	if m[1] != "" {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			return 0, "", fmt.Errorf("invalid dice count")
		}
		count = n
	}
	sides, err := strconv.Atoi(m[2])
	if err != nil || sides < 2 {
		return 0, "", fmt.Errorf("invalid dice sides")
	}
	if count > maxDice || sides > maxSides {
		return 0, "", fmt.Errorf("too big. max %d dice, %d sides", maxDice, maxSides)
	}

	rolls := make([]string, count)
	sum := 0
	r.mu.Lock()
	for i := range rolls {
		v := r.rng.IntN(sides) + 1
		sum += v
		rolls[i] = strconv.Itoa(v)
	}
	r.mu.Unlock()

	return sum, fmt.Sprintf("%s[%s]", strings.ToLower(token), strings.Join(rolls, ",")), nil
}
