package mesh

import (
	"fmt"

	"github.com/Faultbox/geoidmesh/internal/geodesy"
)

// BuildRow evaluates one row of count vertices at approxLat degrees with
// buffer indices starting at firstIndex. A count below 2 yields a single
// pole vertex at longitude 0.
func BuildRow(model geodesy.Model, rowIndex int, approxLat float64, count int, shift float64, firstIndex uint32) (Row, error) {
	if count < 2 {
		count = 1
	}

	row := Row{
		Index:          rowIndex,
		ApproxLatitude: approxLat,
		Vertices:       make([]Vertex, 0, count),
	}

	for col := 0; col < count; col++ {
		lon := RowLongitude(col, count)
		pt, err := model.Surface(approxLat, lon, shift)
		if err != nil {
			return Row{}, fmt.Errorf("row %d column %d: %w", rowIndex, col, err)
		}
		row.Vertices = append(row.Vertices, Vertex{
			Index:        firstIndex + uint32(col),
			SurfacePoint: pt,
		})
	}

	return row, nil
}

// indices returns the buffer indices of the row in column order.
func (r Row) indices() []uint32 {
	out := make([]uint32, len(r.Vertices))
	for i, v := range r.Vertices {
		out[i] = v.Index
	}
	return out
}
