package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const halfBlock = "▀"

// Viewport places a frame on the terminal. Each cell shows two image pixels
// stacked vertically. Width and Height are the size of the displayed image;
// anything past Cols or Rows*2 is cropped at the right and bottom.
type Viewport struct {
	Cols, Rows                int
	Width, Height             int
	SourceWidth, SourceHeight int
}

// Fit sizes a source frame for a cols by rows terminal area. At zoom 1 the
// frame fills the area keeping its aspect ratio; larger zooms crop.
func Fit(sourceW, sourceH, cols, rows int, zoom float64) Viewport {
	vp := Viewport{Cols: cols, Rows: rows, SourceWidth: sourceW, SourceHeight: sourceH}
	if sourceW <= 0 || sourceH <= 0 || cols <= 0 || rows <= 0 {
		return vp
	}

	scale := math.Min(float64(cols)/float64(sourceW), float64(rows*2)/float64(sourceH)) * zoom
	vp.Width = max(1, int(math.Round(float64(sourceW)*scale)))
	vp.Height = max(1, int(math.Round(float64(sourceH)*scale)))
	return vp
}

// VisibleCols is the number of terminal columns the image covers
func (vp Viewport) VisibleCols() int {
	return min(vp.Width, vp.Cols)
}

// VisibleRows is the number of terminal rows the image covers
func (vp Viewport) VisibleRows() int {
	return min((vp.Height+1)/2, vp.Rows)
}

// CellToPixel maps a terminal cell inside the viewport to a source pixel.
// ok is false for cells outside the displayed image.
func (vp Viewport) CellToPixel(col, row int) (x, y int, ok bool) {
	if col < 0 || row < 0 || col >= vp.VisibleCols() || row >= vp.VisibleRows() {
		return 0, 0, false
	}

	// centre of the upper half of the cell
	px := float64(col) + 0.5
	py := float64(row*2) + 0.5

	x = int(px * float64(vp.SourceWidth) / float64(vp.Width))
	y = int(py * float64(vp.SourceHeight) / float64(vp.Height))
	return min(x, vp.SourceWidth-1), min(y, vp.SourceHeight-1), true
}

// Terminal encodes the visible part of img as rows of coloured half blocks.
// img is expected to be vp.Width by vp.Height.
func Terminal(img *image.RGBA, vp Viewport) string {
	cols, rows := vp.VisibleCols(), vp.VisibleRows()
	if cols == 0 || rows == 0 {
		return ""
	}

	b := img.Bounds()
	pixel := func(x, y int) color.RGBA {
		p := image.Pt(b.Min.X+x, b.Min.Y+y)
		if !p.In(b) {
			return color.RGBA{A: 255}
		}
		return img.RGBAAt(p.X, p.Y)
	}

	lines := make([]string, rows)
	for row := 0; row < rows; row++ {
		var line strings.Builder
		col := 0
		for col < cols {
			top, bottom := pixel(col, row*2), pixel(col, row*2+1)

			// merge runs of identical cells into one styled span
			run := 1
			for col+run < cols && pixel(col+run, row*2) == top && pixel(col+run, row*2+1) == bottom {
				run++
			}

			style := lipgloss.NewStyle().
				Foreground(hexColor(top)).
				Background(hexColor(bottom))
			line.WriteString(style.Render(strings.Repeat(halfBlock, run)))
			col += run
		}
		lines[row] = line.String()
	}
	return strings.Join(lines, "\n")
}

func hexColor(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}
