package plot

import (
	"fmt"
	"math"

	"github.com/yildizm/FlowTrack/internal/record"
)

// Reasons a cell is left empty
const (
	ReasonNoRuns = "no runs selected"
	ReasonNoData = "no data"
)

// Series is the trajectory of one run, in file order
type Series struct {
	Run string
	X   []float64
	Y   []float64
}

// Cell is one panel of the grid
type Cell struct {
	Section   string
	FlowLevel float64
	Series    []Series
	Empty     bool
	Reason    string
}

// Title is the panel heading
func (c Cell) Title() string {
	where := fmt.Sprintf("%s, %s", c.Section, flowTitle(c.FlowLevel))
	switch c.Reason {
	case ReasonNoRuns:
		return "No runs selected for " + where
	case ReasonNoData:
		return "No data for " + where
	}
	return where
}

// Grid holds one row per flow level and one column per section
type Grid struct {
	Sections   []string
	FlowLevels []float64
	Cells      [][]Cell
}

// Cell returns the panel for a flow level row and a section column
func (g Grid) Cell(row, col int) Cell {
	return g.Cells[row][col]
}

// Bounds returns the data extent shared by every panel. ok is false when
// the grid holds no points at all.
func (g Grid) Bounds() (minX, maxX, minY, maxY float64, ok bool) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, row := range g.Cells {
		for _, cell := range row {
			for _, s := range cell.Series {
				for i := range s.X {
					minX, maxX = math.Min(minX, s.X[i]), math.Max(maxX, s.X[i])
					minY, maxY = math.Min(minY, s.Y[i]), math.Max(maxY, s.Y[i])
					ok = true
				}
			}
		}
	}
	return minX, maxX, minY, maxY, ok
}

type cellKey struct {
	section string
	flow    float64
}

// BuildGrid groups rows into panels. sel picks the runs of each panel; a
// nil sel takes every run found in the data, in order of appearance.
func BuildGrid(rows []record.Row, sel Selection, sections []string, flows []float64) Grid {
	// runs per panel in order of first appearance, and points per run
	order := make(map[cellKey][]string)
	points := make(map[cellKey]map[string]*Series)
	for _, r := range rows {
		key := cellKey{r.Section, r.FlowLevel}
		if points[key] == nil {
			points[key] = make(map[string]*Series)
		}
		s, ok := points[key][r.Run]
		if !ok {
			s = &Series{Run: r.Run}
			points[key][r.Run] = s
			order[key] = append(order[key], r.Run)
		}
		s.X = append(s.X, r.X)
		s.Y = append(s.Y, r.Y)
	}

	grid := Grid{
		Sections:   append([]string(nil), sections...),
		FlowLevels: append([]float64(nil), flows...),
		Cells:      make([][]Cell, len(flows)),
	}

	for i, flow := range flows {
		grid.Cells[i] = make([]Cell, len(sections))
		for j, section := range sections {
			key := cellKey{section, flow}
			cell := Cell{Section: section, FlowLevel: flow}

			runs := order[key]
			if sel != nil {
				runs = sel.Runs(section, flow)
				if len(runs) == 0 {
					cell.Empty, cell.Reason = true, ReasonNoRuns
					grid.Cells[i][j] = cell
					continue
				}
			}

			for _, run := range runs {
				if s, ok := points[key][run]; ok {
					cell.Series = append(cell.Series, *s)
				}
			}
			if len(cell.Series) == 0 {
				cell.Empty, cell.Reason = true, ReasonNoData
			}
			grid.Cells[i][j] = cell
		}
	}
	return grid
}
