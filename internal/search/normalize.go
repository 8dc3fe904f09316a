package search

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Folding selects how letter case is removed before matching.
type Folding int

const (
	// FoldASCII lowers A-Z only and leaves every other rune untouched.
	FoldASCII Folding = iota
	// FoldUnicode applies full Unicode case folding.
	FoldUnicode
)

func (f Folding) String() string {
	if f == FoldUnicode {
		return "unicode"
	}
	return "ascii"
}

// ParseFolding accepts "ascii" and "unicode". Empty means FoldASCII.
func ParseFolding(s string) (Folding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ascii":
		return FoldASCII, nil
	case "unicode":
		return FoldUnicode, nil
	default:
		return FoldASCII, fmt.Errorf("unknown folding %q", s)
	}
}

// Normalize trims s, collapses whitespace runs to a single space and folds case with FoldASCII.
func Normalize(s string) string {
	return NormalizeWith(s, FoldASCII)
}

// NormalizeWith is Normalize with an explicit folding mode.
func NormalizeWith(s string, f Folding) string {
	s = strings.Join(strings.Fields(s), " ")
	if f == FoldUnicode {
		// Casers carry state; one per call keeps this safe for concurrent use.
		return cases.Fold().String(s)
	}
	return asciiLower(s)
}

func asciiLower(s string) string {
	hasUpper := false
	for i := 0; i < len(s); i++ {
		if c := s[i]; 'A' <= c && c <= 'Z' {
			hasUpper = true
			break
		}
	}
	if !hasUpper {
		return s
	}
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
