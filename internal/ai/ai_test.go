package ai

import (
	"context"
	"io"
	"log"
	"testing"
)

func newDisabledClient(t *testing.T) *Client {
	t.Helper()
	return New("", log.New(io.Discard, "", 0))
}

func TestDisabledClientUsesFallbackRoadmap(t *testing.T) {
	c := newDisabledClient(t)
	if c.Enabled() {
		t.Fatal("client without a key should be disabled")
	}

	items := c.GenerateRoadmap(context.Background(), RoadmapRequest{
		Topics: "transformers, diffusion models",
	})
	if len(items) != 5 {
		t.Fatalf("fallback roadmap should have 5 items, got %d", len(items))
	}
	if items[2].Title != "Core: transformers" {
		t.Errorf("core item = %q", items[2].Title)
	}
	if items[3].Title != "Advanced: diffusion models" {
		t.Errorf("advanced item = %q", items[3].Title)
	}
	if items[4].ID != "project" || len(items[4].Prereqs) != 1 {
		t.Errorf("capstone should depend on the advanced item: %+v", items[4])
	}
}

func TestFallbackRoadmapDefaultsMissingTopics(t *testing.T) {
	items := FallbackRoadmap("")
	if items[2].Title != "Core: Topic" {
		t.Errorf("core item = %q", items[2].Title)
	}
	if items[3].Title != "Advanced: Advanced Topic" {
		t.Errorf("advanced item = %q", items[3].Title)
	}
}

func TestDisabledClientGradingFails(t *testing.T) {
	c := newDisabledClient(t)
	if _, err := c.GradeChallenge(context.Background(), GradeRequest{
		NodeID: "n", Title: "N", Answer: "some answer",
	}); err == nil {
		t.Error("grading without a key should error, never silently pass")
	}
}

func TestDisabledClientSpecIsGeneric(t *testing.T) {
	c := newDisabledClient(t)
	res, err := c.GenerateChallengeSpec(context.Background(), SpecRequest{Title: "N"})
	if err != nil {
		t.Fatalf("spec: %v", err)
	}
	if len(res.Requirements) != 2 {
		t.Errorf("generic spec should have 2 requirements, got %d", len(res.Requirements))
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n[1,2]\n```", `[1,2]`},
		{"Here you go:\n{\"a\":1}\nHope that helps!", `{"a":1}`},
		{"no json here", "no json here"},
	}
	for _, c := range cases {
		if got := extractJSON(c.in); got != c.want {
			t.Errorf("extractJSON(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
