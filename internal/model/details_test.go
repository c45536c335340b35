package model

import (
	"strings"
	"testing"
)

func TestDefaultDetailsFor(t *testing.T) {
	det := DefaultDetailsFor("Deep Learning")

	if len(det.Resources) != 3 {
		t.Fatalf("expected 3 resources, got %d", len(det.Resources))
	}
	for _, r := range det.Resources {
		if !strings.Contains(r.URL, "Deep") && !strings.Contains(r.URL, "Deep+Learning") && !strings.Contains(r.URL, "Deep%20Learning") {
			t.Errorf("resource URL should embed the escaped title: %s", r.URL)
		}
	}

	if len(det.Tasks) != 3 {
		t.Fatalf("expected 3 checklist tasks, got %d", len(det.Tasks))
	}
	for _, task := range det.Tasks {
		if task.Done {
			t.Errorf("task %s should start undone", task.ID)
		}
	}

	if det.Challenge.ID != "c1" {
		t.Errorf("challenge id = %q, want c1", det.Challenge.ID)
	}
	if det.Challenge.Passed {
		t.Error("challenge should start unpassed")
	}
}

func TestEligible(t *testing.T) {
	if Eligible(nil) {
		t.Error("nil details should not be eligible")
	}

	det := DefaultDetailsFor("X")
	if Eligible(det) {
		t.Error("fresh details should not be eligible")
	}

	for i := range det.Tasks {
		det.Tasks[i].Done = true
	}
	if Eligible(det) {
		t.Error("all tasks done but challenge unpassed should not be eligible")
	}

	det.Challenge.Passed = true
	if !Eligible(det) {
		t.Error("all tasks done and challenge passed should be eligible")
	}

	// An empty checklist with a passed challenge counts as eligible.
	empty := &NodeDetails{Challenge: Challenge{Passed: true}}
	if !Eligible(empty) {
		t.Error("empty checklist with passed challenge should be eligible")
	}
}
