package plot

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// minPanelSize is the smallest panel go-chart can lay out with axes and a legend
const minPanelSize = 120

var (
	gridColor   = drawing.ColorFromHex("e0e0e0")
	borderColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	titleColor  = color.RGBA{R: 90, G: 90, B: 90, A: 255}
)

// RenderPNG draws the grid as one width by height PNG. Panels with data
// get a go-chart line plot with a legend; empty panels only get their
// title. Every panel shares the same axis ranges.
func RenderPNG(g Grid, width, height int, w io.Writer) error {
	rows, cols := len(g.FlowLevels), len(g.Sections)
	if rows == 0 || cols == 0 {
		return fmt.Errorf("grid has no panels")
	}
	if width/cols < minPanelSize || height/rows < minPanelSize {
		return fmt.Errorf("image %dx%d is too small for a %dx%d grid", width, height, rows, cols)
	}

	xRange, yRange := sharedRanges(g)

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			rect := image.Rect(j*width/cols, i*height/rows, (j+1)*width/cols, (i+1)*height/rows)
			cell := g.Cell(i, j)

			if cell.Empty {
				drawEmptyPanel(canvas, rect, cell.Title())
				continue
			}

			panel, err := renderPanel(cell, rect.Dx(), rect.Dy(), xRange, yRange)
			if err != nil {
				return fmt.Errorf("failed to render %s: %w", cell.Title(), err)
			}
			draw.Draw(canvas, rect, panel, panel.Bounds().Min, draw.Src)
		}
	}

	if err := png.Encode(w, canvas); err != nil {
		return fmt.Errorf("failed to encode plot: %w", err)
	}
	return nil
}

// renderPanel renders one cell with go-chart and decodes it for composition
func renderPanel(cell Cell, width, height int, xRange, yRange *chart.ContinuousRange) (image.Image, error) {
	series := make([]chart.Series, 0, len(cell.Series))
	for i, s := range cell.Series {
		col := chart.GetDefaultColor(i)
		series = append(series, chart.ContinuousSeries{
			Name:    s.Run,
			XValues: s.X,
			YValues: s.Y,
			Style: chart.Style{
				StrokeColor: col,
				StrokeWidth: 2,
				DotColor:    col,
				DotWidth:    3,
			},
		})
	}

	grid := chart.Style{StrokeColor: gridColor, StrokeWidth: 1}
	ch := chart.Chart{
		Title:      cell.Title(),
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 30, Left: 16, Right: 12, Bottom: 12}},
		XAxis: chart.XAxis{
			Name:           "X Position",
			Range:          xRange,
			GridMajorStyle: grid,
			GridMinorStyle: chart.Style{Hidden: true},
		},
		YAxis: chart.YAxis{
			Name:           "Y Position",
			Range:          yRange,
			GridMajorStyle: grid,
			GridMinorStyle: chart.Style{Hidden: true},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}

// sharedRanges pads the data extent so single points and flat runs still
// get a usable axis
func sharedRanges(g Grid) (*chart.ContinuousRange, *chart.ContinuousRange) {
	minX, maxX, minY, maxY, ok := g.Bounds()
	if !ok {
		return &chart.ContinuousRange{Min: 0, Max: 1}, &chart.ContinuousRange{Min: 0, Max: 1}
	}
	return padRange(minX, maxX), padRange(minY, maxY)
}

func padRange(lo, hi float64) *chart.ContinuousRange {
	if hi == lo {
		return &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	pad := (hi - lo) * 0.05
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

// drawEmptyPanel outlines rect and centres title in it
func drawEmptyPanel(dst *image.RGBA, rect image.Rectangle, title string) {
	border := image.NewUniform(borderColor)
	inner := rect.Inset(4)
	for _, edge := range []image.Rectangle{
		image.Rect(inner.Min.X, inner.Min.Y, inner.Max.X, inner.Min.Y+1),
		image.Rect(inner.Min.X, inner.Max.Y-1, inner.Max.X, inner.Max.Y),
		image.Rect(inner.Min.X, inner.Min.Y, inner.Min.X+1, inner.Max.Y),
		image.Rect(inner.Max.X-1, inner.Min.Y, inner.Max.X, inner.Max.Y),
	} {
		draw.Draw(dst, edge, border, image.Point{}, draw.Src)
	}

	face := basicfont.Face7x13
	dr := &font.Drawer{Dst: dst, Src: image.NewUniform(titleColor), Face: face}
	tw := dr.MeasureString(title).Ceil()
	x := rect.Min.X + max(8, (rect.Dx()-tw)/2)
	y := rect.Min.Y + rect.Dy()/2 + face.Metrics().Ascent.Ceil()/2
	dr.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	dr.DrawString(title)
}
