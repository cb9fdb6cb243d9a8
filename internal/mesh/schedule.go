package mesh

// FirstRingVertexes is the vertex count of the ring next to each pole.
const FirstRingVertexes = 4

// RowVertexCount returns how many vertices row rowIndex of totalRows holds.
// The two pole rows hold one vertex. Rings start at 4 next to each pole and
// double per row away from it until maxPerRow, so the schedule mirrors around
// the equator.
func RowVertexCount(rowIndex, totalRows, maxPerRow int) int {
	if rowIndex <= 0 || rowIndex >= totalRows-1 {
		return 1
	}
	d := min(rowIndex, totalRows-1-rowIndex)

	n := FirstRingVertexes
	for i := 1; i < d && n < maxPerRow; i++ {
		n *= 2
	}
	return min(n, maxPerRow)
}

// RowLatitude returns the approximate latitude of a row in degrees, from
// +90 at row 0 down to -90 at the last row.
func RowLatitude(rowIndex, totalRows int) float64 {
	if totalRows < 2 {
		return 90
	}
	return 90 - float64(rowIndex)*180/float64(totalRows-1)
}

// RowLongitude returns the longitude of column col in a ring of n vertices.
// Columns run from -180 to +180 inclusive, so the seam appears twice.
func RowLongitude(col, n int) float64 {
	if n < 2 {
		return 0
	}
	return -180 + float64(col)*360/float64(n-1)
}
