// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SportType is the activity category an athlete logs.
type SportType string

// Known sport types.
const (
	SportRunning    SportType = "running"
	SportBasketball SportType = "basketball"
	SportSoccer     SportType = "soccer"
	SportTennis     SportType = "tennis"
	SportGym        SportType = "gym"
	SportSwimming   SportType = "swimming"
	SportOther      SportType = "other"
)

// SportAll is the filter value that matches every sport. It is not a valid SportType.
const SportAll = "all"

var allSports = []SportType{
	SportRunning, SportBasketball, SportSoccer, SportTennis, SportGym, SportSwimming, SportOther,
}

var titleCaser = cases.Title(language.English)

// AllSports returns every known sport in display order.
func AllSports() []SportType {
	out := make([]SportType, len(allSports))
	copy(out, allSports)
	return out
}

// ParseSportType parses a sport name case-insensitively.
func ParseSportType(s string) (SportType, error) {
	st := SportType(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown sport type %q", s)
	}
	return st, nil
}

// Valid reports whether s is a known sport type.
func (s SportType) Valid() bool {
	for _, known := range allSports {
		if s == known {
			return true
		}
	}
	return false
}

// Label returns the display label, e.g. "Running".
func (s SportType) Label() string {
	return titleCaser.String(string(s))
}

// SportFilter is one entry of the sport filter bar.
type SportFilter struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// SportFilters lists "All Sports" followed by each sport.
func SportFilters() []SportFilter {
	out := make([]SportFilter, 0, len(allSports)+1)
	out = append(out, SportFilter{Label: "All Sports", Value: SportAll})
	for _, s := range allSports {
		out = append(out, SportFilter{Label: s.Label(), Value: string(s)})
	}
	return out
}

// MatchesSport reports whether a filter value ("all" or a sport) admits s.
func MatchesSport(filter string, s SportType) bool {
	filter = strings.ToLower(strings.TrimSpace(filter))
	return filter == "" || filter == SportAll || SportType(filter) == s
}
