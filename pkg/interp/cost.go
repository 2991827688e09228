package interp

import (
	"fmt"
	"math"

	"blocode/pkg/lang"
)

// BaseCost is the charge of each command kind on a block covering the whole
// canvas.
var BaseCost = map[lang.Kind]int{
	lang.KindCutLine:  7,
	lang.KindCutPoint: 10,
	lang.KindColor:    5,
	lang.KindSwap:     3,
	lang.KindMerge:    1,
	lang.KindComment:  0,
}

// Cost is round(base * canvasArea / blockArea), halves rounded up.
func Cost(kind lang.Kind, canvasArea, blockArea int) int {
	if blockArea <= 0 {
		return 0
	}
	return int(math.Round(float64(BaseCost[kind]) * float64(canvasArea) / float64(blockArea)))
}

// MergeCost picks which of the two per-block costs a merge is charged.
type MergeCost string

const (
	MergeCostMin MergeCost = "min"
	MergeCostMax MergeCost = "max"
)

// ParseMergeCost accepts "min", "max" or "" (min).
func ParseMergeCost(s string) (MergeCost, error) {
	switch MergeCost(s) {
	case "", MergeCostMin:
		return MergeCostMin, nil
	case MergeCostMax:
		return MergeCostMax, nil
	}
	return "", fmt.Errorf("unknown merge cost policy %q (want %q or %q)", s, MergeCostMin, MergeCostMax)
}

func (p MergeCost) pick(a, b int) int {
	if p == MergeCostMax {
		return max(a, b)
	}
	return min(a, b)
}
