package filters

import (
	"errors"
	"fmt"

	"github.com/knetic/govaluate"

	"github.com/anas-shakeel/go-chromakey/internal/bmp"
	"github.com/anas-shakeel/go-chromakey/internal/logging"
)

// A Rule decides whether a base pixel is part of the key colour and should be
// taken from the overlay.
type Rule interface {
	Name() string
	Match(p bmp.Pixel) bool
}

// ExactKey matches one colour exactly.
type ExactKey struct {
	Blue, Green, Red byte
}

func (k ExactKey) Name() string { return "exact" }

func (k ExactKey) Match(p bmp.Pixel) bool {
	return p.R == k.Red && p.B == k.Blue && p.G == k.Green
}

// Tolerance matches pixels that are strongly green: green above MinGreen,
// blue and red below their maxima. All bounds are strict.
type Tolerance struct {
	MinGreen, MaxBlue, MaxRed byte
}

func (t Tolerance) Name() string { return "tolerance" }

func (t Tolerance) Match(p bmp.Pixel) bool {
	return p.G > t.MinGreen && p.B < t.MaxBlue && p.R < t.MaxRed
}

// Returns the built-in green screen rules, exact key first.
func DefaultRules() []Rule {
	return []Rule{
		ExactKey{Blue: 4, Green: 255, Red: 2},
		Tolerance{MinGreen: 220, MaxBlue: 60, MaxRed: 60},
	}
}

// ExprRule matches pixels with a boolean expression over the variables red,
// green and blue, e.g. "green > 200 && red < 80".
type ExprRule struct {
	name     string
	expr     *govaluate.EvaluableExpression
	failures int
}

// NewExprRule compiles expression. Only the variables red, green and blue may
// appear in it.
func NewExprRule(name, expression string) (*ExprRule, error) {
	if expression == "" {
		return nil, errors.New("invalid rule: empty expression")
	}
	expr, err := govaluate.NewEvaluableExpression(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid rule %q: %w", name, err)
	}
	for _, v := range expr.Vars() {
		switch v {
		case "red", "green", "blue":
		default:
			return nil, fmt.Errorf("invalid rule %q: unknown variable %q", name, v)
		}
	}

	// Make sure the expression yields a boolean before it meets real pixels
	rule := &ExprRule{name: name, expr: expr}
	if _, err := rule.eval(bmp.Pixel{}); err != nil {
		return nil, err
	}
	return rule, nil
}

func (r *ExprRule) Name() string { return r.name }

// Match reports false when the expression cannot be evaluated or does not
// yield a boolean for p. The first such failure is logged; all are counted.
func (r *ExprRule) Match(p bmp.Pixel) bool {
	ok, err := r.eval(p)
	if err != nil {
		if r.failures == 0 {
			logging.Warn("key rule failed, treating pixels as no match", "rule", r.name, "pixel", p.String(), "error", err)
		}
		r.failures++
		return false
	}
	return ok
}

// Failures is the number of pixels the expression could not decide.
func (r *ExprRule) Failures() int { return r.failures }

func (r *ExprRule) eval(p bmp.Pixel) (bool, error) {
	result, err := r.expr.Evaluate(map[string]interface{}{
		"red":   float64(p.R),
		"green": float64(p.G),
		"blue":  float64(p.B),
	})
	if err != nil {
		return false, fmt.Errorf("rule %q: %w", r.name, err)
	}
	ok, isBool := result.(bool)
	if !isBool {
		return false, fmt.Errorf("rule %q: expression yields %T, not bool", r.name, result)
	}
	return ok, nil
}
