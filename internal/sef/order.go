package sef

import (
	"regexp"
	"slices"
	"strconv"
)

// logicalOrder ranks the part and chapter names a serial novel typically uses.
var logicalOrder = []string{"前編", "中編", "後編", "序章", "第1章", "第2章", "第3章", "第4章", "第5章", "終章"}

var firstNumberRe = regexp.MustCompile(`[0-9]+`)

const (
	numberedRankBase = 1000
	unrankedRank     = 9999
)

// OrderLogically returns the chapters stably sorted by title rank: known part
// names first, then titles by their first number, then everything else in
// original order. The input slice is not modified.
func OrderLogically(chapters []Chapter) []Chapter {
	out := slices.Clone(chapters)
	slices.SortStableFunc(out, func(a, b Chapter) int {
		return titleRank(a.Title) - titleRank(b.Title)
	})
	return out
}

func titleRank(title string) int {
	if i := slices.Index(logicalOrder, title); i >= 0 {
		return i
	}
	if m := firstNumberRe.FindString(title); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n < unrankedRank-numberedRankBase {
			return numberedRankBase + n
		}
	}
	return unrankedRank
}
