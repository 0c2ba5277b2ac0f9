package engine

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// calcCallRe matches the calculate mini-language: sum(a, b), age(dob),
// expr(quantity * unit_price). Anything that doesn't match is a literal.
var calcCallRe = regexp.MustCompile(`^\s*(sum|age|expr)\((.*)\)\s*$`)

// ExprEvaluator evaluates expr() calculations with expr-lang.
// Compiled programs are cached by expression string.
type ExprEvaluator struct {
	mu    sync.Mutex
	cache map[string]*vm.Program
}

func NewExprEvaluator() *ExprEvaluator {
	return &ExprEvaluator{cache: make(map[string]*vm.Program)}
}

func (e *ExprEvaluator) Evaluate(expression string, env map[string]any) (any, error) {
	e.mu.Lock()
	prog, ok := e.cache[expression]
	e.mu.Unlock()

	if !ok {
		var err error
		prog, err = expr.Compile(expression)
		if err != nil {
			return nil, fmt.Errorf("compile expression: %w", err)
		}
		e.mu.Lock()
		e.cache[expression] = prog
		e.mu.Unlock()
	}

	result, err := expr.Run(prog, env)
	if err != nil {
		return nil, fmt.Errorf("evaluate expression: %w", err)
	}
	return result, nil
}

// calculate resolves a calculate action's value against the answers.
// Unresolvable references and failed expressions degrade to defined
// fallbacks; this function never errors.
func (e *Evaluator) calculate(value string, answers AnswerMap) any {
	m := calcCallRe.FindStringSubmatch(value)
	if m == nil {
		return value // literal fallback
	}

	fn, rawArgs := m[1], m[2]
	switch fn {
	case "sum":
		total := 0.0
		for _, arg := range splitArgs(rawArgs) {
			if n, ok := coerceFloat(answers[arg]); ok {
				total += n
			}
		}
		return total

	case "age":
		args := splitArgs(rawArgs)
		if len(args) != 1 {
			return float64(0)
		}
		return wholeYearsSince(coerceString(answers[args[0]]), e.now())

	case "expr":
		env := make(map[string]any, len(answers))
		for k, v := range answers {
			env[k] = v
		}
		result, err := e.expr.Evaluate(rawArgs, env)
		if err != nil {
			return value // authoring mistake: fall back to the literal
		}
		return result
	}

	return value
}

func splitArgs(raw string) []string {
	var args []string
	for _, p := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			args = append(args, trimmed)
		}
	}
	return args
}

// wholeYearsSince parses a date-valued answer and returns complete years
// elapsed up to now. Unparsable input yields 0.
func wholeYearsSince(s string, now time.Time) float64 {
	var born time.Time
	var err error
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		born, err = time.Parse(layout, s)
		if err == nil {
			break
		}
	}
	if err != nil {
		return 0
	}

	years := now.Year() - born.Year()
	anniversary := born.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	if years < 0 {
		return 0
	}
	return float64(years)
}
