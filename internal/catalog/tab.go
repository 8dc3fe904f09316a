package catalog

import (
	"fmt"
	"strings"
)

// Tab selects a catalog view.
type Tab int

const (
	TabAll Tab = iota
	TabFavorites
)

func (t Tab) String() string {
	switch t {
	case TabAll:
		return "all"
	case TabFavorites:
		return "favorites"
	default:
		return fmt.Sprintf("tab(%d)", int(t))
	}
}

// ParseTab accepts "all", "favorites" and "favourites", case-insensitively. Empty means TabAll.
func ParseTab(s string) (Tab, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return TabAll, nil
	case "favorites", "favourites":
		return TabFavorites, nil
	default:
		return TabAll, fmt.Errorf("unknown tab %q", s)
	}
}
