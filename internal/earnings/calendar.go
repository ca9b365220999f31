// Package earnings loads earnings report dates and surprise figures used by
// the blackout and post-earnings drift rules.
package earnings

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/ThomasGit2000/trading-bot/internal/core"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// fileFormat is the on-disk layout of a calendar:
//
//	lookahead: true
//	symbols:
//	  NIO:
//	    - date: 2025-11-25
//	      surprise_pct: 27.4
type fileFormat struct {
	Lookahead bool                   `yaml:"lookahead"`
	Symbols   map[string][]fileEvent `yaml:"symbols"`
}

type fileEvent struct {
	Date        string   `yaml:"date"`
	SurprisePct *float64 `yaml:"surprise_pct"`
}

// Calendar maps symbols to their earnings events. A calendar is read-only
// once built and safe for concurrent use.
type Calendar struct {
	// Lookahead marks calendars holding surprise figures that were not known
	// on every bar date they are applied to.
	Lookahead bool
	events    map[string][]core.EarningsEvent
}

// Events returns the events of symbol, oldest first. Lookups are case-insensitive.
func (c *Calendar) Events(symbol string) []core.EarningsEvent {
	if c == nil {
		return nil
	}
	return c.events[strings.ToUpper(symbol)]
}

// Symbols returns the number of symbols with at least one event.
func (c *Calendar) Symbols() int {
	if c == nil {
		return 0
	}
	return len(c.events)
}

// Load reads a calendar file.
func Load(path string, logger *zap.Logger) (*Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("reading earnings calendar: %w", err))
	}
	return Parse(data, logger)
}

// Parse decodes a YAML calendar. Events with malformed dates are skipped.
func Parse(data []byte, logger *zap.Logger) (*Calendar, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("parsing earnings calendar: %w", err))
	}

	cal := &Calendar{
		Lookahead: f.Lookahead,
		events:    make(map[string][]core.EarningsEvent, len(f.Symbols)),
	}
	for symbol, entries := range f.Symbols {
		key := strings.ToUpper(symbol)
		for _, e := range entries {
			date, err := time.Parse(dateLayout, strings.TrimSpace(e.Date))
			if err != nil {
				logger.Warn("skipping earnings event with bad date",
					zap.String("symbol", key),
					zap.String("date", e.Date),
				)
				continue
			}
			cal.events[key] = append(cal.events[key], core.EarningsEvent{
				Date:        date,
				SurprisePct: e.SurprisePct,
			})
		}
	}
	for _, list := range cal.events {
		sortByDate(list)
	}

	if cal.Lookahead {
		logger.Warn("earnings calendar contains figures published after some backtest dates")
	}
	return cal, nil
}

// New builds a calendar from in-memory events.
func New(events map[string][]core.EarningsEvent, lookahead bool) *Calendar {
	cal := &Calendar{Lookahead: lookahead, events: make(map[string][]core.EarningsEvent, len(events))}
	for symbol, list := range events {
		key := strings.ToUpper(symbol)
		cal.events[key] = append(cal.events[key], list...)
	}
	for _, list := range cal.events {
		sortByDate(list)
	}
	return cal
}

func sortByDate(events []core.EarningsEvent) {
	slices.SortStableFunc(events, func(a, b core.EarningsEvent) int {
		return a.Date.Compare(b.Date)
	})
}

// Sample returns the built-in NIO calendar. Its surprise
// figures are known only after each report, so it is flagged as lookahead.
func Sample() *Calendar {
	type row struct {
		date     string
		surprise float64
	}
	rows := []row{
		{"2025-11-25", 27.4},
		{"2025-09-09", 15.2},
		{"2025-06-10", 8.5},
		{"2025-03-04", -5.3},
		{"2024-12-10", 12.1},
		{"2024-09-10", -8.7},
		{"2024-06-06", 22.3},
		{"2024-03-05", 5.8},
	}

	events := make([]core.EarningsEvent, 0, len(rows))
	for _, r := range rows {
		date, _ := time.Parse(dateLayout, r.date)
		surprise := r.surprise
		events = append(events, core.EarningsEvent{Date: date, SurprisePct: &surprise})
	}
	return New(map[string][]core.EarningsEvent{"NIO": events}, true)
}
