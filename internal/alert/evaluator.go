package alert

import (
	"sync"
	"time"
)

// Evaluator checks runs against a rule set. A rule that fired for a key
// stays quiet for that key until the cooldown passes.
type Evaluator struct {
	rules    []Rule
	cooldown time.Duration

	// rule name + key -> last fired
	lastFired map[string]time.Time

	// For testing: allow time advancement
	now func() time.Time

	mu sync.Mutex
}

// NewEvaluator creates an evaluator for rules. A zero cooldown reports
// every match.
func NewEvaluator(rules []Rule, cooldown time.Duration) *Evaluator {
	return &Evaluator{
		rules:     rules,
		cooldown:  cooldown,
		lastFired: make(map[string]time.Time),
		now:       time.Now,
	}
}

// Len returns the number of rules.
func (e *Evaluator) Len() int {
	return len(e.rules)
}

// Check returns the messages of the rules that fire for stats. key
// identifies the run being checked, usually symbol and preset.
func (e *Evaluator) Check(key string, stats map[string]float64) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	var fired []string
	for i := range e.rules {
		rule := &e.rules[i]
		if !rule.Evaluate(stats) {
			continue
		}

		id := rule.Name + "/" + key
		if last, ok := e.lastFired[id]; ok && e.cooldown > 0 && now.Sub(last) < e.cooldown {
			continue
		}

		fired = append(fired, rule.FormatMessage(stats))
		e.lastFired[id] = now
	}
	return fired
}

// advanceTime is for testing - advances the internal clock.
func (e *Evaluator) advanceTime(d time.Duration) {
	oldNow := e.now
	e.now = func() time.Time {
		return oldNow().Add(d)
	}
}
