// Package alert evaluates threshold rules against the statistics of a
// finished run.
package alert

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Stat names a rule expression can reference.
const (
	StatReturnPct          = "return_pct"
	StatBenchmarkReturnPct = "benchmark_return_pct"
	StatExcessReturnPct    = "excess_return_pct"
	StatMaxDrawdownPct     = "max_drawdown_pct"
	StatSharpeRatio        = "sharpe_ratio"
	StatWinRate            = "win_rate"
	StatTrades             = "trades"
)

// "stat op value"
var exprPattern = regexp.MustCompile(`^(\w+)\s*(>=|<=|==|!=|>|<)\s*(-?[\d.]+)$`)

// Rule defines an alert rule, e.g. Expr "max_drawdown_pct > 20".
type Rule struct {
	Name     string `mapstructure:"name"`
	Expr     string `mapstructure:"expr"`
	Severity string `mapstructure:"severity"`
	Message  string `mapstructure:"message"`
}

type condition struct {
	stat      string
	op        string
	threshold float64
}

func (r *Rule) parse() (condition, error) {
	matches := exprPattern.FindStringSubmatch(strings.TrimSpace(r.Expr))
	if len(matches) != 4 {
		return condition{}, fmt.Errorf("rule %q: cannot parse expression %q", r.Name, r.Expr)
	}
	threshold, err := strconv.ParseFloat(matches[3], 64)
	if err != nil {
		return condition{}, fmt.Errorf("rule %q: bad threshold: %w", r.Name, err)
	}
	return condition{stat: matches[1], op: matches[2], threshold: threshold}, nil
}

// Validate checks that the rule is named and its expression parses.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("alert rule needs a name")
	}
	_, err := r.parse()
	return err
}

// Evaluate reports whether the rule holds for stats. A stat missing from
// stats never triggers.
func (r *Rule) Evaluate(stats map[string]float64) bool {
	c, err := r.parse()
	if err != nil {
		return false
	}

	value, exists := stats[c.stat]
	if !exists {
		return false
	}

	switch c.op {
	case ">":
		return value > c.threshold
	case "<":
		return value < c.threshold
	case ">=":
		return value >= c.threshold
	case "<=":
		return value <= c.threshold
	case "==":
		return value == c.threshold
	case "!=":
		return value != c.threshold
	default:
		return false
	}
}

// FormatMessage formats the alert message with the value that fired it.
func (r *Rule) FormatMessage(stats map[string]float64) string {
	msg := fmt.Sprintf("[%s] %s: %s", strings.ToUpper(r.Severity), r.Name, r.Message)
	if c, err := r.parse(); err == nil {
		if v, ok := stats[c.stat]; ok {
			msg += fmt.Sprintf(" (%s=%.2f)", c.stat, v)
		}
	}
	return msg
}
