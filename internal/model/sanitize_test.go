package model

import "testing"

func TestDocumentFromJSONRejectsNonObjects(t *testing.T) {
	for _, bad := range []string{"", "null", "42", `"hi"`, "[1,2]", "{truncated"} {
		if _, ok := DocumentFromJSON([]byte(bad)); ok {
			t.Errorf("DocumentFromJSON(%q) should fail", bad)
		}
	}
}

func TestDocumentFromJSONSurvivesPartialGarbage(t *testing.T) {
	// xp has the wrong type, one achievement is duplicated, and the
	// roadmap contains a colliding id. Everything else should come
	// through intact.
	raw := `{
		"theme": "neon",
		"xp": "lots",
		"streak": -3,
		"roadmap": [
			{"id": "a", "title": "A", "status": "done", "estHours": 5},
			{"id": "a", "title": "A2", "status": "??", "estHours": 0}
		],
		"achievements": [
			{"id": "first-node", "title": "First Steps", "detail": "x"},
			{"id": "first-node", "title": "First Steps", "detail": "y"}
		],
		"tasks": [{"id": "t1", "title": "read", "done": true}]
	}`

	doc, ok := DocumentFromJSON([]byte(raw))
	if !ok {
		t.Fatal("object input should parse")
	}

	if doc.Theme != "dark" {
		t.Errorf("unknown theme should coerce to dark, got %q", doc.Theme)
	}
	if doc.XP != 0 {
		t.Errorf("malformed xp should default to 0, got %d", doc.XP)
	}
	if doc.Streak != 0 {
		t.Errorf("negative streak should clamp to 0, got %d", doc.Streak)
	}

	if len(doc.Roadmap) != 2 {
		t.Fatalf("expected 2 roadmap nodes, got %d", len(doc.Roadmap))
	}
	if doc.Roadmap[0].ID == doc.Roadmap[1].ID {
		t.Error("duplicate roadmap ids should be disambiguated")
	}
	if doc.Roadmap[1].Status != StatusNotStarted {
		t.Errorf("bad status should coerce, got %q", doc.Roadmap[1].Status)
	}

	if len(doc.Achievements) != 1 {
		t.Errorf("duplicate achievements should dedupe to 1, got %d", len(doc.Achievements))
	}

	if len(doc.Tasks) != 1 || !doc.Tasks[0].Done {
		t.Error("well-formed tasks should survive")
	}

	if doc.NodeDetails == nil {
		t.Error("missing nodeDetails should become an empty map")
	}
	if doc.Settings.AssistantModel == "" {
		t.Error("missing settings should get defaults")
	}
}
