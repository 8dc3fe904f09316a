package search

import (
	"strings"
	"sync"

	"github.com/kstbyev/investflow/pkg/model"
)

// State is the query lifecycle of a Session.
type State int

const (
	Idle State = iota
	Searching
)

func (s State) String() string {
	if s == Searching {
		return "searching"
	}
	return "idle"
}

// MaxRecent caps the recent searches list.
const MaxRecent = 10

// PopularRequests is the fixed list of suggested queries.
var PopularRequests = []string{
	"Apple", "Amazon", "Google", "Tesla", "Microsoft",
	"First Solar", "Alibaba", "Facebook", "Mastercard",
}

// DefaultRecent seeds the recent searches of a new Session.
var DefaultRecent = []string{
	"Nvidia", "Nokia", "Yandex", "GM", "Microsoft",
	"Baidu", "Intel", "AMD", "Visa", "Bank of America",
}

// Suggestions are the tags shown while no search is active.
type Suggestions struct {
	Popular []string `json:"popular"`
	Recent  []string `json:"recent"`
}

// Session tracks one user's query and the results recomputed on every change.
type Session struct {
	mu      sync.Mutex
	matcher *Matcher
	state   State
	result  Result
	recent  []string
}

// NewSession starts Idle. A nil recent list uses DefaultRecent.
func NewSession(m *Matcher, recent []string) *Session {
	if m == nil {
		m = NewMatcher(FoldASCII)
	}
	if recent == nil {
		recent = DefaultRecent
	}
	s := &Session{matcher: m}
	for i := len(recent) - 1; i >= 0; i-- {
		s.rememberLocked(recent[i])
	}
	return s
}

// SetQuery recomputes the result for q. An empty query returns the session to Idle.
func (s *Session) SetQuery(q string, instruments []model.Instrument) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = s.matcher.Match(q, instruments)
	if s.result.Active {
		s.state = Searching
	} else {
		s.state = Idle
	}
	return s.result
}

// ApplySuggestion runs a search with the text of a suggestion tag.
func (s *Session) ApplySuggestion(tag string, instruments []model.Instrument) Result {
	return s.SetQuery(tag, instruments)
}

// Clear drops the query and returns to Idle.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Idle
	s.result = Result{}
}

// Select picks ticker from the current results. The query is recorded in recent searches
// and the session returns to Idle. It reports false if ticker is not among the results.
// Only the ticker is returned; the result snapshot may predate a favorite toggle.
func (s *Session) Select(ticker string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Searching {
		return "", false
	}
	found := false
	for _, inst := range s.result.Instruments {
		if inst.Ticker == ticker {
			found = true
			break
		}
	}
	if !found {
		return "", false
	}
	s.rememberLocked(s.result.Query)
	s.state = Idle
	s.result = Result{}
	return ticker, true
}

// Remember records q at the front of recent searches.
func (s *Session) Remember(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rememberLocked(q)
}

func (s *Session) rememberLocked(q string) {
	q = strings.Join(strings.Fields(q), " ")
	if q == "" {
		return
	}
	out := make([]string, 0, MaxRecent)
	out = append(out, q)
	for _, r := range s.recent {
		if strings.EqualFold(r, q) {
			continue
		}
		if len(out) == MaxRecent {
			break
		}
		out = append(out, r)
	}
	s.recent = out
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the most recent result; zero when Idle.
func (s *Session) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Suggestions returns copies of the popular and recent tag lists.
func (s *Session) Suggestions() Suggestions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Suggestions{
		Popular: append([]string(nil), PopularRequests...),
		Recent:  append([]string(nil), s.recent...),
	}
}
