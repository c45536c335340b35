package model

// LevelThresholds is the ascending XP table: LevelThresholds[i] is the total
// XP required to be at level i+1. Ten levels; XP past the last threshold
// stays at level 10.
var LevelThresholds = []int{0, 200, 500, 900, 1400, 2000, 2700, 3500, 4400, 5400}

// RankTitles names each level, index 0 = level 1.
var RankTitles = []string{
	"Newcomer", "Apprentice", "Junior Tinkerer", "Prompt Explorer",
	"Model Wrangler", "AI Builder", "Systems Thinker", "Optimization Guru",
	"Research Adept", "AI Specialist",
}

// LevelFromXP returns the level (1..10) for a total XP amount.
func LevelFromXP(xp int) int {
	lvl := 1
	for i, threshold := range LevelThresholds {
		if xp >= threshold {
			lvl = i + 1
		}
	}
	if lvl > len(LevelThresholds) {
		lvl = len(LevelThresholds)
	}
	return lvl
}

// LevelInfo is a derived summary of a user's XP standing, for display.
type LevelInfo struct {
	XP    int
	Level int
	Title string
	// Cur and Next are the XP thresholds bounding the current level.
	Cur  int
	Next int
	// Pct is progress toward the next level, in [0,1].
	Pct float64
}

// LevelInfoFor computes the level summary for a total XP amount.
func LevelInfoFor(xp int) LevelInfo {
	if xp < 0 {
		xp = 0
	}
	lvl := LevelFromXP(xp)

	idx := lvl
	if idx > len(LevelThresholds)-1 {
		idx = len(LevelThresholds) - 1
	}
	cur := LevelThresholds[idx-1]
	next := LevelThresholds[idx]

	title := RankTitles[len(RankTitles)-1]
	if lvl-1 < len(RankTitles) {
		title = RankTitles[lvl-1]
	}

	denom := next - cur
	if denom < 1 {
		denom = 1
	}
	pct := float64(xp-cur) / float64(denom)
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}

	return LevelInfo{XP: xp, Level: lvl, Title: title, Cur: cur, Next: next, Pct: pct}
}
