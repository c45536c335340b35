package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/skilltrail/skilltrail/internal/model"
)

const roadmapSystem = `You are an AI curriculum planner. Output STRICT JSON ONLY with this shape:
{
  "items": [
    { "id": "slug", "title": "string", "status": "not-started|in-progress|done", "estHours": number, "prereqs": string[] }
  ]
}`

// RoadmapRequest describes the roadmap to generate.
type RoadmapRequest struct {
	// Topics is a comma-separated list; the first two topics also seed the
	// fallback roadmap's core and advanced items.
	Topics string
	Level  string
	Weeks  int
	Model  string
}

func (r *RoadmapRequest) applyDefaults() {
	if r.Level == "" {
		r.Level = "beginner"
	}
	if r.Weeks <= 0 {
		r.Weeks = 6
	}
	if r.Model == "" {
		r.Model = model.DefaultAssistantModel
	}
}

// GenerateRoadmap asks the model for a roadmap. The items come back raw;
// the store normalizes them on import. A disabled client, an API failure,
// or an unparseable reply all fall back to FallbackRoadmap; generation
// never fails outright.
func (c *Client) GenerateRoadmap(ctx context.Context, req RoadmapRequest) []model.RawRoadmapItem {
	req.applyDefaults()

	if !c.enabled {
		return FallbackRoadmap(req.Topics)
	}

	user := fmt.Sprintf(`Create a %d-week learning roadmap for level=%s.
Topics: %s.
Constraints:
- ~6-10 items
- Fill "prereqs" with ids of required previous items
- Reasonable "estHours" (3-25)
- status must be "not-started" for all items`, req.Weeks, req.Level, req.Topics)

	text, err := c.complete(ctx, req.Model, roadmapSystem, user, 0.4)
	if err != nil {
		c.logger.Printf("Roadmap generation failed, using fallback: %v", err)
		return FallbackRoadmap(req.Topics)
	}

	var reply struct {
		Items []model.RawRoadmapItem `json:"items"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &reply); err != nil || len(reply.Items) == 0 {
		c.logger.Printf("Roadmap reply unparseable, using fallback")
		return FallbackRoadmap(req.Topics)
	}

	return reply.Items
}

// FallbackRoadmap returns the deterministic five-item roadmap used when no
// API key is configured or generation fails. The first two comma-separated
// topics name the core and advanced items.
func FallbackRoadmap(topics string) []model.RawRoadmapItem {
	parts := strings.Split(topics, ",")
	topic := func(i int, def string) string {
		if i < len(parts) {
			if t := strings.TrimSpace(parts[i]); t != "" {
				return t
			}
		}
		return def
	}

	return []model.RawRoadmapItem{
		{ID: "foundations", Title: "Math & Python Foundations", EstHours: 12},
		{ID: "ml-basics", Title: "ML Basics", EstHours: 16, Prereqs: []string{"foundations"}},
		{ID: "topic-core", Title: "Core: " + topic(0, "Topic"), EstHours: 18, Prereqs: []string{"ml-basics"}},
		{ID: "topic-advanced", Title: "Advanced: " + topic(1, "Advanced Topic"), EstHours: 20, Prereqs: []string{"topic-core"}},
		{ID: "project", Title: "Capstone Project", EstHours: 24, Prereqs: []string{"topic-advanced"}},
	}
}
