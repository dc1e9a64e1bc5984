package tui

import "strings"

const digitRows = 5

var bigGlyphs = map[rune][digitRows]string{
	'0': {"███", "█ █", "█ █", "█ █", "███"},
	'1': {" █ ", "██ ", " █ ", " █ ", "███"},
	'2': {"███", "  █", "███", "█  ", "███"},
	'3': {"███", "  █", "███", "  █", "███"},
	'4': {"█ █", "█ █", "███", "  █", "  █"},
	'5': {"███", "█  ", "███", "  █", "███"},
	'6': {"███", "█  ", "███", "█ █", "███"},
	'7': {"███", "  █", "  █", "  █", "  █"},
	'8': {"███", "█ █", "███", "█ █", "███"},
	'9': {"███", "█ █", "███", "  █", "███"},
	':': {" ", "█", " ", "█", " "},
}

// bigText renders s in block digits. It reports false when s holds a rune
// the font lacks.
func bigText(s string) ([]string, bool) {
	if s == "" {
		return nil, false
	}
	var rows [digitRows]strings.Builder
	for i, r := range s {
		glyph, ok := bigGlyphs[r]
		if !ok {
			return nil, false
		}
		for row := range rows {
			if i > 0 {
				rows[row].WriteByte(' ')
			}
			rows[row].WriteString(glyph[row])
		}
	}
	out := make([]string, digitRows)
	for i := range rows {
		out[i] = rows[i].String()
	}
	return out, true
}
