package sef

import (
	"strings"
	"unicode"
)

// HierarchyNode is one outline entry.
type HierarchyNode struct {
	Title string `json:"title"`
	Level int    `json:"level"`
}

// spacesPerLevel is how many leading spaces count as one indent level.
const spacesPerLevel = 4

// ParseHierarchy reads one entry per non-blank outline line, in line order.
func ParseHierarchy(plain string) []HierarchyNode {
	var nodes []HierarchyNode
	for _, line := range strings.Split(plain, "\n") {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if line == "" {
			continue
		}
		level := IndentLevel(line)
		title := strings.TrimLeft(line, "\t ")
		if title == "" {
			continue
		}
		nodes = append(nodes, HierarchyNode{Title: title, Level: level})
	}
	return nodes
}

// IndentLevel counts leading indentation: every tab is one level, and every
// fourth leading space is one level. The space count runs across tabs, so
// "  \t  x" is level 2. One to three spare spaces add nothing.
func IndentLevel(line string) int {
	level, spaces := 0, 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\t':
			level++
		case ' ':
			spaces++
			if spaces%spacesPerLevel == 0 {
				level++
			}
		default:
			return level
		}
	}
	return level
}
