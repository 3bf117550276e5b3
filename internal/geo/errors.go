package geo

import "errors"

var (
	// ErrEmptyGrid indicates a grid file without cells.
	ErrEmptyGrid = errors.New("geo: grid has no cells")

	// ErrGridIndex indicates grid indexes that are not exactly 0..N-1.
	ErrGridIndex = errors.New("geo: grid indexes are not contiguous from 0")

	// ErrCellVertices indicates a cell with too few or too many corners.
	ErrCellVertices = errors.New("geo: cell must have 5 or 6 vertices")
)
