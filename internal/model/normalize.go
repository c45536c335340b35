package model

import (
	"fmt"
	"strings"
	"time"
)

// DefaultEstHours is assigned when a roadmap item carries no usable estimate.
const DefaultEstHours = 8

// Slugify derives a URL-safe id from a title: lowercase, runs of
// non-alphanumerics collapsed to single dashes, edges trimmed.
// An empty result becomes "item".
func Slugify(s string) string {
	var b strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "item"
	}
	return out
}

// RawRoadmapItem is an untrusted roadmap entry as produced by the AI
// generator or a backup import. Every field may be missing or malformed.
type RawRoadmapItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Status      string   `json:"status"`
	EstHours    float64  `json:"estHours"`
	Prereqs     []string `json:"prereqs"`
	CompletedAt *string  `json:"completedAt"`
	XPAwarded   bool     `json:"xpAwarded"`
}

// NormalizeRoadmap converts untrusted roadmap items into a valid node list.
//
// Guarantees, for any input:
//   - every node has a non-empty unique id (slug-derived, suffixed -1, -2, ...
//     on collision)
//   - every status is one of the three valid values (default not-started)
//   - every estHours is positive (default 8)
//
// It never fails; malformed fields are coerced, never rejected.
func NormalizeRoadmap(items []RawRoadmapItem) []RoadmapNode {
	used := make(map[string]bool, len(items))
	nodes := make([]RoadmapNode, 0, len(items))

	for idx, it := range items {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			title = fmt.Sprintf("Item %d", idx+1)
		}

		id := strings.TrimSpace(it.ID)
		if id == "" {
			id = Slugify(title)
		}
		base := id
		for k := 1; used[id]; k++ {
			id = fmt.Sprintf("%s-%d", base, k)
		}
		used[id] = true

		status := NodeStatus(it.Status)
		if !status.IsValid() {
			status = StatusNotStarted
		}

		est := it.EstHours
		if !(est > 0) { // also catches NaN
			est = DefaultEstHours
		}

		var completedAt *time.Time
		if it.CompletedAt != nil {
			if t, err := time.Parse(time.RFC3339, *it.CompletedAt); err == nil {
				completedAt = &t
			}
		}

		nodes = append(nodes, RoadmapNode{
			ID:          id,
			Title:       title,
			Status:      status,
			EstHours:    est,
			CompletedAt: completedAt,
			XPAwarded:   it.XPAwarded,
			Prereqs:     append([]string(nil), it.Prereqs...),
		})
	}

	return nodes
}
