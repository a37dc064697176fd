package sef

import "unicode"

// Quality summarizes how clean the decoded text looks. A low printable ratio
// usually means the lead-byte heuristic lost alignment.
type Quality struct {
	PrintableRatio float64 `json:"printable_ratio"`
	ControlRunes   int     `json:"control_runes"`
	PrivateUse     int     `json:"private_use_runes"`
}

func measureQuality(text string) Quality {
	var q Quality
	total, printable := 0, 0
	for _, r := range text {
		total++
		switch {
		case r >= 0xE000 && r <= 0xF8FF:
			q.PrivateUse++
		case r == '\n' || r == '\r' || r == '\t':
			printable++
		case unicode.IsControl(r):
			q.ControlRunes++
		case unicode.IsPrint(r) || r == '　':
			printable++
		}
	}
	if total == 0 {
		q.PrintableRatio = 1
		return q
	}
	q.PrintableRatio = float64(printable) / float64(total)
	return q
}
