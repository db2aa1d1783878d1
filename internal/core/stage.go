package core

import (
	"fmt"
	"math/bits"
)

// Stage is a discrete growth phase derived from points against a bloom threshold.
type Stage int

const (
	StageSeed Stage = iota
	StageSprout
	StageSapling
	StageBud
	StageBloomed
)

// stageInfo describes one row of the growth table. NextAtPercent is the
// percentage of the threshold at which the plant leaves this stage; the
// terminal row has none.
type stageInfo struct {
	Name          string
	Asset         string
	Placeholder   string
	NextAtPercent int
}

// stageTable is ordered by Stage. Breakpoints, names and asset keys all
// come from here so the stage count stays consistent.
var stageTable = []stageInfo{
	StageSeed:    {Name: "Seed", Asset: "seed.png", Placeholder: "🌰", NextAtPercent: 20},
	StageSprout:  {Name: "Sprout", Asset: "sprout.png", Placeholder: "🌱", NextAtPercent: 40},
	StageSapling: {Name: "Sapling", Asset: "sapling.png", Placeholder: "🌿", NextAtPercent: 70},
	StageBud:     {Name: "Budding", Asset: "bud.png", Placeholder: "🌺", NextAtPercent: 100},
	StageBloomed: {Name: "Bloomed", Asset: "bloomed.png", Placeholder: "🌸"},
}

// TerminalStage is the bloomed stage.
const TerminalStage = StageBloomed

// StageCount is the number of stages in the growth table.
func StageCount() int {
	return len(stageTable)
}

func (s Stage) info() stageInfo {
	if s < 0 || int(s) >= len(stageTable) {
		return stageTable[StageSeed]
	}
	return stageTable[s]
}

// Name returns the display name of the stage.
func (s Stage) Name() string { return s.info().Name }

// Asset returns the image filename used for the stage.
func (s Stage) Asset() string { return s.info().Asset }

// Placeholder returns the glyph shown when no image is available.
func (s Stage) Placeholder() string { return s.info().Placeholder }

func (s Stage) String() string { return s.Name() }

// StageOf maps accumulated points and a bloom threshold to a growth stage.
func StageOf(currentPoints, maxPoints int) (Stage, error) {
	if maxPoints <= 0 {
		return StageSeed, fmt.Errorf("stage: max points %d: %w", maxPoints, ErrInvalidThreshold)
	}
	if currentPoints <= 0 {
		return StageSeed, nil
	}
	if currentPoints >= maxPoints {
		return TerminalStage, nil
	}

	// currentPoints/maxPoints < pct/100, kept in integers.
	for i, st := range stageTable[:TerminalStage] {
		if mulLess(currentPoints, 100, st.NextAtPercent, maxPoints) {
			return Stage(i), nil
		}
	}
	return TerminalStage, nil
}

// Progress returns the rounded percentage complete, clamped to [0, 100].
func Progress(currentPoints, maxPoints int) (int, error) {
	if maxPoints <= 0 {
		return 0, fmt.Errorf("progress: max points %d: %w", maxPoints, ErrInvalidThreshold)
	}
	if currentPoints <= 0 {
		return 0, nil
	}
	if currentPoints >= maxPoints {
		return 100, nil
	}
	// Round half up: (200*current + max) / (2*max).
	hi, lo := bits.Mul64(uint64(currentPoints), 200)
	lo, carry := bits.Add64(lo, uint64(maxPoints), 0)
	q, _ := bits.Div64(hi+carry, lo, 2*uint64(maxPoints))
	pct := int(q)
	if pct > 100 {
		pct = 100
	}
	return pct, nil
}

// PointsToNextStage returns how many points are still needed to leave the
// current stage. It is 0 once the plant has bloomed.
func PointsToNextStage(currentPoints, maxPoints int) (int, error) {
	stage, err := StageOf(currentPoints, maxPoints)
	if err != nil {
		return 0, fmt.Errorf("points to next stage: %w", err)
	}
	if stage == TerminalStage {
		return 0, nil
	}
	if currentPoints < 0 {
		currentPoints = 0
	}
	pct := stageTable[stage].NextAtPercent
	threshold := ceilPercent(pct, maxPoints)
	return threshold - currentPoints, nil
}

// mulLess reports whether a*b < c*d for non-negative operands, without
// overflowing.
func mulLess(a, b, c, d int) bool {
	h1, l1 := bits.Mul64(uint64(a), uint64(b))
	h2, l2 := bits.Mul64(uint64(c), uint64(d))
	return h1 < h2 || (h1 == h2 && l1 < l2)
}

// ceilPercent returns ceil(pct*maxPoints/100) for pct in [0, 100].
func ceilPercent(pct, maxPoints int) int {
	hi, lo := bits.Mul64(uint64(pct), uint64(maxPoints))
	lo, carry := bits.Add64(lo, 99, 0)
	q, _ := bits.Div64(hi+carry, lo, 100)
	return int(q)
}
