package model

import (
	"testing"
	"time"
)

func TestLevelFromXP(t *testing.T) {
	cases := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{199, 1},
		{200, 2},
		{499, 2},
		{500, 3},
		{5399, 9},
		{5400, 10},
		{100000, 10},
		{-50, 1},
	}
	for _, c := range cases {
		if got := LevelFromXP(c.xp); got != c.want {
			t.Errorf("LevelFromXP(%d) = %d, want %d", c.xp, got, c.want)
		}
	}
}

func TestLevelInfoFor(t *testing.T) {
	info := LevelInfoFor(300)
	if info.Level != 2 {
		t.Fatalf("level = %d, want 2", info.Level)
	}
	if info.Title != RankTitles[1] {
		t.Errorf("title = %q, want %q", info.Title, RankTitles[1])
	}
	if info.Cur != 200 || info.Next != 500 {
		t.Errorf("bounds = [%d, %d], want [200, 500]", info.Cur, info.Next)
	}
	want := float64(300-200) / float64(500-200)
	if info.Pct != want {
		t.Errorf("pct = %v, want %v", info.Pct, want)
	}
}

func TestLevelInfoForMaxLevel(t *testing.T) {
	info := LevelInfoFor(99999)
	if info.Level != 10 {
		t.Fatalf("level = %d, want 10", info.Level)
	}
	if info.Pct < 0 || info.Pct > 1 {
		t.Errorf("pct out of range: %v", info.Pct)
	}
}

func TestUnlockIsIdempotent(t *testing.T) {
	doc := NewDocument()
	when, err := time.Parse(time.RFC3339, "2026-02-01T09:00:00Z")
	if err != nil {
		t.Fatalf("bad test timestamp: %v", err)
	}
	if !doc.Unlock("first-node", "First Steps", "Completed your first roadmap node.", when) {
		t.Fatal("first unlock should report true")
	}
	if doc.Unlock("first-node", "First Steps", "Completed your first roadmap node.", when) {
		t.Fatal("second unlock of same id should report false")
	}
	if len(doc.Achievements) != 1 {
		t.Fatalf("expected 1 achievement, got %d", len(doc.Achievements))
	}
}
