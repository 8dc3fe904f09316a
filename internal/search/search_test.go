package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kstbyev/investflow/pkg/model"
)

var instruments = []model.Instrument{
	{Ticker: "AAPL", CompanyName: "Apple Inc."},
	{Ticker: "GOOGL", CompanyName: "Alphabet Inc."},
	{Ticker: "MSFT", CompanyName: "Microsoft Corporation"},
	{Ticker: "AMZN", CompanyName: "Amazon.com Inc."},
	{Ticker: "BAC", CompanyName: "Bank   of America"},
	{Ticker: "MÜLL", CompanyName: "Müller Straße AG"},
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"":                    "",
		"   ":                 "",
		"  Apple  Inc. ":      "apple inc.",
		"BANK\tof\n\nAMERICA": "bank of america",
		"ÄPFEL":               "Äpfel",
	}
	for in, want := range tests {
		assert.Equal(t, want, Normalize(in), "%q", in)
	}
}

func TestNormalizeUnicode(t *testing.T) {
	assert.Equal(t, "äpfel", NormalizeWith("ÄPFEL", FoldUnicode))
	assert.Equal(t, "müller strasse ag", NormalizeWith(" Müller  Straße AG", FoldUnicode))
	assert.Equal(t, "apple inc.", NormalizeWith("Apple Inc.", FoldUnicode))
}

func TestMatch_EmptyQueryIsIdle(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		r := Match(q, instruments)
		assert.False(t, r.Active)
		assert.True(t, r.Idle())
		assert.Nil(t, r.Instruments)
	}
}

func TestMatch_NoResultsIsActive(t *testing.T) {
	r := Match("zzz-no-match", instruments)
	assert.True(t, r.Active)
	assert.False(t, r.Idle())
	require.NotNil(t, r.Instruments)
	assert.Empty(t, r.Instruments)
	assert.Equal(t, "zzz-no-match", r.Query)
}

func TestMatch_CaseAndWhitespaceInsensitive(t *testing.T) {
	r := Match("apple inc", instruments)
	assert.Equal(t, []string{"AAPL"}, model.Tickers(r.Instruments))

	r = Match("  APPLE   INC  ", instruments)
	assert.Equal(t, []string{"AAPL"}, model.Tickers(r.Instruments))

	r = Match("bank of", instruments)
	assert.Equal(t, []string{"BAC"}, model.Tickers(r.Instruments))
}

func TestMatch_TickerOrName(t *testing.T) {
	assert.Equal(t, []string{"MSFT"}, model.Tickers(Match("msft", instruments).Instruments))
	assert.Equal(t, []string{"AMZN"}, model.Tickers(Match("amazon", instruments).Instruments))
}

func TestMatch_StableOrder(t *testing.T) {
	r := Match("inc", instruments)
	assert.Equal(t, []string{"AAPL", "GOOGL", "AMZN"}, model.Tickers(r.Instruments))

	r = Match("a", instruments)
	assert.Equal(t, []string{"AAPL", "GOOGL", "MSFT", "AMZN", "BAC", "MÜLL"}, model.Tickers(r.Instruments))
}

func TestMatch_NonASCIIFolding(t *testing.T) {
	// Greek capital alpha does not fold to Latin a in either mode.
	assert.Empty(t, Match("  ΑPPLE  ", instruments).Instruments)
	assert.Empty(t, NewMatcher(FoldUnicode).Match("  ΑPPLE  ", instruments).Instruments)

	assert.Empty(t, Match("MÜLLER", instruments).Instruments)
	assert.Equal(t, []string{"MÜLL"}, model.Tickers(NewMatcher(FoldUnicode).Match("MÜLLER", instruments).Instruments))
	assert.Equal(t, []string{"MÜLL"}, model.Tickers(NewMatcher(FoldUnicode).Match("strasse", instruments).Instruments))
}

func TestParseFolding(t *testing.T) {
	f, err := ParseFolding("Unicode")
	require.NoError(t, err)
	assert.Equal(t, FoldUnicode, f)

	f, err = ParseFolding("")
	require.NoError(t, err)
	assert.Equal(t, FoldASCII, f)

	_, err = ParseFolding("turkish")
	assert.Error(t, err)
}

func TestSession_Lifecycle(t *testing.T) {
	s := NewSession(nil, nil)
	assert.Equal(t, Idle, s.State())

	r := s.SetQuery("a", instruments)
	assert.Equal(t, Searching, s.State())
	assert.True(t, r.Active)

	r = s.SetQuery("ap", instruments)
	assert.Equal(t, []string{"AAPL"}, model.Tickers(r.Instruments))
	assert.Equal(t, r, s.Result())

	s.SetQuery("  ", instruments)
	assert.Equal(t, Idle, s.State())

	s.SetQuery("zzz", instruments)
	assert.Equal(t, Searching, s.State(), "no results is still searching")

	s.Clear()
	assert.Equal(t, Idle, s.State())
	assert.False(t, s.Result().Active)
}

func TestSession_SelectRecordsRecent(t *testing.T) {
	s := NewSession(NewMatcher(FoldASCII), []string{"Intel", "AMD"})

	s.SetQuery(" Micro  ", instruments)
	picked, ok := s.Select("MSFT")
	require.True(t, ok)
	assert.Equal(t, "MSFT", picked)
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, []string{"micro", "Intel", "AMD"}, s.Suggestions().Recent)

	_, ok = s.Select("MSFT")
	assert.False(t, ok, "nothing to select while idle")

	s.SetQuery("apple", instruments)
	_, ok = s.Select("MSFT")
	assert.False(t, ok, "ticker not among results")
	assert.Equal(t, Searching, s.State())
}

func TestSession_RecentDedupAndCap(t *testing.T) {
	s := NewSession(nil, nil)
	assert.Equal(t, DefaultRecent, s.Suggestions().Recent)

	s.Remember("microsoft")
	recent := s.Suggestions().Recent
	assert.Len(t, recent, MaxRecent)
	assert.Equal(t, "microsoft", recent[0])
	assert.Equal(t, 1, countFold(recent, "microsoft"))

	s.Remember("Apple")
	recent = s.Suggestions().Recent
	assert.Len(t, recent, MaxRecent)
	assert.Equal(t, []string{"Apple", "microsoft", "Nvidia"}, recent[:3])
	assert.NotContains(t, recent, "Bank of America")

	s.Remember("   ")
	assert.Equal(t, recent, s.Suggestions().Recent)
}

func TestSession_ApplySuggestion(t *testing.T) {
	s := NewSession(nil, nil)
	sug := s.Suggestions()
	assert.Equal(t, PopularRequests, sug.Popular)

	r := s.ApplySuggestion("Amazon", instruments)
	assert.Equal(t, Searching, s.State())
	assert.Equal(t, []string{"AMZN"}, model.Tickers(r.Instruments))
}

func TestSession_SuggestionsAreCopies(t *testing.T) {
	s := NewSession(nil, nil)
	sug := s.Suggestions()
	sug.Popular[0] = "changed"
	sug.Recent[0] = "changed"
	assert.Equal(t, "Apple", s.Suggestions().Popular[0])
	assert.Equal(t, "Nvidia", s.Suggestions().Recent[0])
}

func countFold(list []string, s string) int {
	n := 0
	for _, v := range list {
		if Normalize(v) == Normalize(s) {
			n++
		}
	}
	return n
}
