package formats

// World layout constants for terrain tiles.
const (
	TileSize  = float32(533.33333)
	ChunkSize = TileSize / 16
	UnitSize  = ChunkSize / 8
	// ZeroPoint is the world-space origin offset applied to stored chunk positions.
	ZeroPoint = 32 * TileSize
)

// Vertex grid layout: 17 rows alternating 9 outer and 8 inner vertices.
const (
	GridRows     = 17
	OuterColumns = 9
	InnerColumns = 8
	VertexCount  = 9*9 + 8*8
)

// RowWidth returns the number of vertices in the given row.
func RowWidth(row int) int {
	if row%2 == 1 {
		return InnerColumns
	}
	return OuterColumns
}

// VertexIndex maps a (column, row) grid coordinate to a flat vertex index.
// Even rows hold columns 0-8, odd rows hold columns 0-7 shifted by half a unit.
func VertexIndex(column, row int) int {
	return ((row+1)/2)*OuterColumns + (row/2)*InnerColumns + column
}

// VertexRowColumn is the inverse of VertexIndex.
func VertexRowColumn(index int) (row, column int) {
	pair := index / (OuterColumns + InnerColumns)
	rest := index % (OuterColumns + InnerColumns)
	if rest < OuterColumns {
		return pair * 2, rest
	}
	return pair*2 + 1, rest - OuterColumns
}

// VertexOffset returns the chunk-local X/Z offset of a grid vertex.
func VertexOffset(column, row int) (x, z float32) {
	x = float32(column) * UnitSize
	z = float32(row) * 0.5 * UnitSize
	if row%2 == 1 {
		x += UnitSize * 0.5
	}
	return x, z
}
