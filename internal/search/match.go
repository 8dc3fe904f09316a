// Package search filters the catalog by a free-text query and tracks the query lifecycle.
package search

import (
	"strings"

	"github.com/kstbyev/investflow/pkg/model"
)

// Result is the outcome of a match. Active is false when the query was empty after
// normalization; an active result with no instruments means nothing matched.
type Result struct {
	Active      bool
	Query       string
	Instruments []model.Instrument
}

// Idle reports whether no search is in progress.
func (r Result) Idle() bool { return !r.Active }

// Matcher matches instruments against queries using a fixed folding mode.
type Matcher struct {
	folding Folding
}

func NewMatcher(f Folding) *Matcher {
	return &Matcher{folding: f}
}

func (m *Matcher) Folding() Folding { return m.folding }

// Normalize applies the matcher's folding mode.
func (m *Matcher) Normalize(s string) string {
	return NormalizeWith(s, m.folding)
}

// Match returns the instruments whose company name or ticker contains the normalized query,
// in input order.
func (m *Matcher) Match(query string, instruments []model.Instrument) Result {
	q := m.Normalize(query)
	if q == "" {
		return Result{}
	}
	out := make([]model.Instrument, 0)
	for _, inst := range instruments {
		if strings.Contains(m.Normalize(inst.CompanyName), q) || strings.Contains(m.Normalize(inst.Ticker), q) {
			out = append(out, inst)
		}
	}
	return Result{Active: true, Query: q, Instruments: out}
}

// Match uses ASCII folding.
func Match(query string, instruments []model.Instrument) Result {
	return NewMatcher(FoldASCII).Match(query, instruments)
}
