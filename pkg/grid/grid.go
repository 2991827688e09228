// Package grid converts between the coordinate systems used by blocode.
//
// Canvas coordinates have their origin at the bottom-left corner with y
// growing upward. Image buffers (image.NRGBA, PNG files, screens) have their
// origin at the top-left with y growing downward, and store pixels row-major.
package grid

// GetGridCoords returns the column and row of a row-major flat index.
func GetGridCoords(index, cols int) (x, y int) {
	return index % cols, index / cols
}

// Index is the inverse of GetGridCoords.
func Index(x, y, cols int) int {
	return y*cols + x
}

// FlipY maps a canvas row to the image row that displays it, or back.
func FlipY(y, height int) int {
	return height - 1 - y
}

// RowSpan returns the half-open range of image rows [top, bottom) covered
// by the canvas rows [y, y+h) in a surface that is height rows tall.
func RowSpan(y, h, height int) (top, bottom int) {
	return height - y - h, height - y
}
