package entities

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// LeaderboardGroup selects the key readings are grouped by
type LeaderboardGroup string

const (
	GroupByMasjid LeaderboardGroup = "masjid"
	GroupByChild  LeaderboardGroup = "child"
)

// ParseLeaderboardGroup parses a groupBy query value; empty means masjid
func ParseLeaderboardGroup(s string) (LeaderboardGroup, error) {
	switch LeaderboardGroup(strings.ToLower(strings.TrimSpace(s))) {
	case "", GroupByMasjid:
		return GroupByMasjid, nil
	case GroupByChild:
		return GroupByChild, nil
	}
	return "", fmt.Errorf("unknown leaderboard grouping %q", s)
}

// LeaderboardEntry summarizes reading activity for one group
type LeaderboardEntry struct {
	Masjid         string    `json:"masjid,omitempty" bson:"masjid,omitempty"`
	ChildName      string    `json:"childName,omitempty" bson:"childName,omitempty"`
	TotalReadings  int       `json:"totalReadings" bson:"totalReadings"`
	UniqueChildren int       `json:"uniqueChildren,omitempty" bson:"uniqueChildren,omitempty"`
	Submissions    int       `json:"submissions" bson:"submissions"`
	LastReading    time.Time `json:"lastReading" bson:"lastReading"`
}

// Key returns the grouping value of the entry
func (e LeaderboardEntry) Key() string {
	if e.Masjid != "" {
		return e.Masjid
	}
	return e.ChildName
}

// SortLeaderboard orders entries by total readings, then most recent reading,
// then key. The Mongo pipeline sorts on the same keys.
func SortLeaderboard(entries []LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.TotalReadings != b.TotalReadings {
			return a.TotalReadings > b.TotalReadings
		}
		if !a.LastReading.Equal(b.LastReading) {
			return a.LastReading.After(b.LastReading)
		}
		return a.Key() < b.Key()
	})
}

// Stats is the global aggregate over all readings
type Stats struct {
	TotalReadings  int              `json:"totalReadings"`
	TotalChildren  int              `json:"totalChildren"`
	TotalMasjids   int              `json:"totalMasjids"`
	ReadingsByType map[Category]int `json:"readingsByType"`
}

// NewStats returns empty stats with a non-nil histogram
func NewStats() *Stats {
	return &Stats{ReadingsByType: make(map[Category]int)}
}
