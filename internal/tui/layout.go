package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

type rect struct {
	x, y, w, h int
}

func (r rect) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

// fitLine pads or cuts a styled line to exactly width columns.
func fitLine(line string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(line) > width {
		line = ansi.Truncate(line, width, "")
	}
	return padLine(line, width)
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}

// spliceRow draws block over the background row between columns at.x and
// at.x+at.w. bg renders background cells [from, to).
func spliceRow(bg func(from, to int) string, cols int, block string, at rect) string {
	if at.x >= cols || at.x+at.w <= 0 {
		return bg(0, cols)
	}
	left := at.x
	width := at.w
	if left < 0 {
		block = ansi.Cut(block, -left, at.w)
		width += left
		left = 0
	}
	if left+width > cols {
		width = cols - left
	}
	var b strings.Builder
	b.WriteString(bg(0, left))
	b.WriteString(fitLine(block, width))
	b.WriteString(bg(left+width, cols))
	return b.String()
}

func blankCells(from, to int) string {
	if to <= from {
		return ""
	}
	return strings.Repeat(" ", to-from)
}
