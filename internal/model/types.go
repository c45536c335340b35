// Package model defines the learning-tracker document and the rules that
// keep it consistent: roadmap completion gating, at-most-once XP awards,
// idempotent achievement unlocks, and daily streak accounting.
//
// Everything in this package is pure: no I/O, no clocks other than the
// timestamps passed in by callers. Mutation entry points live in the store
// package, which owns the canonical Document.
package model

import "time"

// NodeStatus is the completion lifecycle state of a roadmap node.
type NodeStatus string

const (
	StatusNotStarted NodeStatus = "not-started"
	StatusInProgress NodeStatus = "in-progress"
	StatusDone       NodeStatus = "done"
)

// IsValid reports whether s is one of the three lifecycle states.
func (s NodeStatus) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

// RoadmapNode is a single roadmap topic.
//
// Once Status reaches done the node is immutable except through an explicit
// reset. XPAwarded transitions false -> true exactly once per node and never
// back, including across resets.
type RoadmapNode struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Status      NodeStatus `json:"status"`
	EstHours    float64    `json:"estHours"`
	CompletedAt *time.Time `json:"completedAt"`
	XPAwarded   bool       `json:"xpAwarded"`
	Prereqs     []string   `json:"prereqs,omitempty"`
}

// ResourceKind classifies a learning resource link.
type ResourceKind string

const (
	ResourceDoc   ResourceKind = "doc"
	ResourceVideo ResourceKind = "video"
	ResourceRepo  ResourceKind = "repo"
)

// Resource is a reference link attached to a node's details.
type Resource struct {
	ID    string       `json:"id"`
	Kind  ResourceKind `json:"kind"`
	Title string       `json:"title"`
	URL   string       `json:"url"`
}

// NodeTask is one checklist item inside a node's details. Distinct from the
// global daily Task list.
type NodeTask struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Rubric is the grading rubric for a node challenge. All fields are optional;
// the grader applies defaults for absent values.
type Rubric struct {
	MinSentences   *int     `json:"min_sentences,omitempty"`
	RequireExample *bool    `json:"require_example,omitempty"`
	KeyPoints      []string `json:"key_points,omitempty"`
}

// Challenge is the AI-graded exercise gating a node's completion.
// Requirements and Rubric start empty and are filled lazily by the
// challenge-spec generator; absence is not an error.
type Challenge struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Passed       bool     `json:"passed"`
	Requirements []string `json:"requirements,omitempty"`
	Rubric       *Rubric  `json:"rubric,omitempty"`
}

// NodeDetails holds the per-node resources, checklist, and challenge.
// Created lazily the first time a node is opened.
type NodeDetails struct {
	Resources []Resource `json:"resources"`
	Tasks     []NodeTask `json:"tasks"`
	Challenge Challenge  `json:"challenge"`
}

// Task is an entry in the global daily-task list.
type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	RelatedNodeID string     `json:"relatedNodeId,omitempty"`
	Done          bool       `json:"done"`
	Created       time.Time  `json:"created"`
	DueAt         *time.Time `json:"dueAt,omitempty"`
}

// Achievement is an earned badge. IDs are unique within a document; unlocking
// is idempotent keyed by ID.
type Achievement struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Detail   string    `json:"detail"`
	EarnedAt time.Time `json:"earnedAt"`
}

// Settings holds freely mergeable user preferences.
type Settings struct {
	AssistantModel string `json:"assistantModel"`
	Theme          string `json:"theme"`
}

// DefaultAssistantModel is used when settings carry no model.
const DefaultAssistantModel = "claude-3-5-haiku-latest"

// DefaultSettings returns the settings applied to a fresh document.
func DefaultSettings() Settings {
	return Settings{AssistantModel: DefaultAssistantModel, Theme: "dark"}
}

// SyncMetadata records what the sync engine last knew about the remote copy.
// Version is the last known remote document version and is used only for
// staleness detection, never for conflict rejection.
type SyncMetadata struct {
	Version         int64      `json:"version"`
	LastPushAt      *time.Time `json:"lastPushAt,omitempty"`
	LastPullAt      *time.Time `json:"lastPullAt,omitempty"`
	ServerUpdatedAt *time.Time `json:"serverUpdatedAt,omitempty"`
}

// Document is the single mutable state document: everything the tracker
// knows about one user. The store owns the canonical instance; the sync
// engine moves whole Documents, never individual fields.
type Document struct {
	Theme         string                  `json:"theme"`
	Roadmap       []RoadmapNode           `json:"roadmap"`
	NodeDetails   map[string]*NodeDetails `json:"nodeDetails"`
	Tasks         []Task                  `json:"tasks"`
	Streak        int                     `json:"streak"`
	LastCompleted string                  `json:"lastCompleted,omitempty"`
	XP            int                     `json:"xp"`
	Achievements  []Achievement           `json:"achievements"`
	Settings      Settings                `json:"settings"`
}

// NewDocument returns an empty document with defaults applied.
func NewDocument() Document {
	return Document{
		Theme:        "dark",
		Roadmap:      []RoadmapNode{},
		NodeDetails:  map[string]*NodeDetails{},
		Tasks:        []Task{},
		Achievements: []Achievement{},
		Settings:     DefaultSettings(),
	}
}

// Clone returns a deep copy of the document. Export hands callers a clone so
// no external reference can reach the store's canonical instance.
func (d *Document) Clone() Document {
	out := *d

	out.Roadmap = make([]RoadmapNode, len(d.Roadmap))
	for i, n := range d.Roadmap {
		out.Roadmap[i] = n
		if n.CompletedAt != nil {
			t := *n.CompletedAt
			out.Roadmap[i].CompletedAt = &t
		}
		out.Roadmap[i].Prereqs = append([]string(nil), n.Prereqs...)
	}

	out.NodeDetails = make(map[string]*NodeDetails, len(d.NodeDetails))
	for id, det := range d.NodeDetails {
		if det == nil {
			continue
		}
		c := NodeDetails{
			Resources: append([]Resource(nil), det.Resources...),
			Tasks:     append([]NodeTask(nil), det.Tasks...),
			Challenge: det.Challenge,
		}
		c.Challenge.Requirements = append([]string(nil), det.Challenge.Requirements...)
		if det.Challenge.Rubric != nil {
			r := *det.Challenge.Rubric
			r.KeyPoints = append([]string(nil), det.Challenge.Rubric.KeyPoints...)
			if det.Challenge.Rubric.MinSentences != nil {
				v := *det.Challenge.Rubric.MinSentences
				r.MinSentences = &v
			}
			if det.Challenge.Rubric.RequireExample != nil {
				v := *det.Challenge.Rubric.RequireExample
				r.RequireExample = &v
			}
			c.Challenge.Rubric = &r
		}
		out.NodeDetails[id] = &c
	}

	out.Tasks = make([]Task, len(d.Tasks))
	for i, t := range d.Tasks {
		out.Tasks[i] = t
		if t.DueAt != nil {
			due := *t.DueAt
			out.Tasks[i].DueAt = &due
		}
	}

	out.Achievements = append([]Achievement(nil), d.Achievements...)
	return out
}

// HasAchievement reports whether the achievement id is already unlocked.
func (d *Document) HasAchievement(id string) bool {
	for _, a := range d.Achievements {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Unlock appends an achievement unless its id is already present.
// Returns true if the achievement was newly added.
func (d *Document) Unlock(id, title, detail string, now time.Time) bool {
	if d.HasAchievement(id) {
		return false
	}
	d.Achievements = append(d.Achievements, Achievement{
		ID:       id,
		Title:    title,
		Detail:   detail,
		EarnedAt: now,
	})
	return true
}

// Node returns a pointer to the roadmap node with the given id, or nil.
func (d *Document) Node(id string) *RoadmapNode {
	for i := range d.Roadmap {
		if d.Roadmap[i].ID == id {
			return &d.Roadmap[i]
		}
	}
	return nil
}

// DateKey formats a timestamp as the calendar-day key used for streak
// accounting. Two completions on the same local day share a key.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
