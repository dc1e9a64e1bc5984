package starfield

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Half-block glyphs; each terminal cell holds two vertical sub-pixels.
const (
	blockUpper = '▀'
	blockLower = '▄'
	blockEmpty = ' '
)

// grayLevels is the number of visible brightness steps. Sub-pixels dimmer
// than half a step render as empty so trails fade out completely.
const grayLevels = 6

var grayPalette = buildGrayPalette()

func buildGrayPalette() []lipgloss.Color {
	palette := make([]lipgloss.Color, grayLevels+1)
	palette[0] = lipgloss.Color("#000000")
	const lo, hi = 0x3A, 0xFF
	for i := 1; i <= grayLevels; i++ {
		v := lo + (hi-lo)*(i-1)/(grayLevels-1)
		palette[i] = lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", v, v, v))
	}
	return palette
}

// Canvas is an intensity raster rendered with half-block characters.
type Canvas struct {
	cols      int
	rows      int
	subHeight int
	pixels    []float64 // [y * cols + x], 0 = black, 1 = white

	styles map[[2]int]lipgloss.Style
}

// NewCanvas creates a canvas covering cols x rows terminal cells.
func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{styles: map[[2]int]lipgloss.Style{}}
	c.Resize(cols, rows)
	return c
}

// Resize reallocates the raster. Like resizing an HTML canvas, it clears it.
func (c *Canvas) Resize(cols, rows int) {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	c.cols = cols
	c.rows = rows
	c.subHeight = rows * 2
	c.pixels = make([]float64, c.cols*c.subHeight)
}

// Cols returns the width in terminal cells (and sub-pixels).
func (c *Canvas) Cols() int {
	return c.cols
}

// Rows returns the height in terminal cells.
func (c *Canvas) Rows() int {
	return c.rows
}

// PixelSize returns the drawable size in sub-pixels.
func (c *Canvas) PixelSize() (width, height int) {
	return c.cols, c.subHeight
}

// Clear blanks every sub-pixel.
func (c *Canvas) Clear() {
	clear(c.pixels)
}

// Intensity returns the value of one sub-pixel, or 0 outside the raster.
func (c *Canvas) Intensity(x, y int) float64 {
	if x < 0 || x >= c.cols || y < 0 || y >= c.subHeight {
		return 0
	}
	return c.pixels[y*c.cols+x]
}

// Fade composites black at the given alpha over the whole raster.
func (c *Canvas) Fade(alpha float64) {
	keep := 1 - clamp01(alpha)
	for i := range c.pixels {
		c.pixels[i] *= keep
	}
}

// FillCircle composites a white disc at the given alpha. Sub-pixels whose
// centre lies inside the radius are covered; a disc smaller than one
// sub-pixel still lights the sub-pixel containing its centre.
func (c *Canvas) FillCircle(x, y, radius, alpha float64) {
	alpha = clamp01(alpha)
	if alpha == 0 || c.cols == 0 || c.subHeight == 0 {
		return
	}
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return
	}
	covered := false
	x0 := int(math.Floor(x - radius))
	x1 := int(math.Ceil(x + radius))
	y0 := int(math.Floor(y - radius))
	y1 := int(math.Ceil(y + radius))
	r2 := radius * radius
	for py := y0; py <= y1; py++ {
		dy := float64(py) + 0.5 - y
		for px := x0; px <= x1; px++ {
			dx := float64(px) + 0.5 - x
			if dx*dx+dy*dy > r2 {
				continue
			}
			if c.blend(px, py, alpha) {
				covered = true
			}
		}
	}
	if !covered {
		c.blend(int(math.Floor(x)), int(math.Floor(y)), alpha)
	}
}

func (c *Canvas) blend(x, y int, alpha float64) bool {
	if x < 0 || x >= c.cols || y < 0 || y >= c.subHeight {
		return false
	}
	i := y*c.cols + x
	c.pixels[i] = c.pixels[i]*(1-alpha) + alpha
	return true
}

// Row renders one terminal row.
func (c *Canvas) Row(row int) string {
	return c.RowSegment(row, 0, c.cols)
}

// RowSegment renders cells [from, to) of a terminal row. Every cell is
// exactly one column wide.
func (c *Canvas) RowSegment(row, from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > c.cols {
		to = c.cols
	}
	if row < 0 || row >= c.rows || from >= to {
		if to > from {
			return strings.Repeat(" ", to-from)
		}
		return ""
	}
	var b strings.Builder
	b.Grow((to - from) * 4)
	top := row * 2 * c.cols
	bottom := top + c.cols
	for col := from; col < to; col++ {
		b.WriteString(c.cell(level(c.pixels[top+col]), level(c.pixels[bottom+col])))
	}
	return b.String()
}

// Render returns the whole raster as newline-separated rows.
func (c *Canvas) Render() string {
	lines := make([]string, c.rows)
	for row := range lines {
		lines[row] = c.Row(row)
	}
	return strings.Join(lines, "\n")
}

func (c *Canvas) cell(top, bottom int) string {
	if top == 0 && bottom == 0 {
		return string(blockEmpty)
	}
	key := [2]int{top, bottom}
	style, ok := c.styles[key]
	if !ok {
		switch {
		case bottom == 0:
			style = lipgloss.NewStyle().Foreground(grayPalette[top])
		case top == 0:
			style = lipgloss.NewStyle().Foreground(grayPalette[bottom])
		default:
			style = lipgloss.NewStyle().Foreground(grayPalette[top]).Background(grayPalette[bottom])
		}
		c.styles[key] = style
	}
	if top == 0 {
		return style.Render(string(blockLower))
	}
	return style.Render(string(blockUpper))
}

func level(v float64) int {
	l := int(math.Round(clamp01(v) * grayLevels))
	if l < 0 {
		return 0
	}
	if l > grayLevels {
		return grayLevels
	}
	return l
}
