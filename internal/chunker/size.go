package chunker

import "unicode/utf8"

// CountChars is the page-size measure: one per rune, so a kana counts the
// same as an ASCII letter.
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}

// runeOffset returns the byte offset of the n-th rune of s, or len(s).
func runeOffset(s string, n int) int {
	for i := range s {
		if n == 0 {
			return i
		}
		n--
	}
	return len(s)
}

// tailRunes returns the last n runes of s. It returns "" when s is not
// longer than n, since the whole page would repeat.
func tailRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	total := CountChars(s)
	if total <= n {
		return ""
	}
	return s[runeOffset(s, total-n):]
}
