package raster

import "fmt"

// Grid is a row-major 2D array.
type Grid[T any] struct {
	Height int `msgpack:"height"`
	Width  int `msgpack:"width"`
	Values []T `msgpack:"values"`
}

func NewGrid[T any](height, width int) Grid[T] {
	return Grid[T]{Height: height, Width: width, Values: make([]T, height*width)}
}

// FromRows copies a slice of equally sized rows into a grid.
func FromRows[T any](rows [][]T) (Grid[T], error) {
	if len(rows) == 0 {
		return Grid[T]{}, nil
	}
	g := NewGrid[T](len(rows), len(rows[0]))
	for y, row := range rows {
		if len(row) != g.Width {
			return Grid[T]{}, fmt.Errorf("row %d has %d columns, expected %d", y, len(row), g.Width)
		}
		copy(g.Values[y*g.Width:], row)
	}
	return g, nil
}

func (g Grid[T]) Index(y, x int) int {
	return y*g.Width + x
}

func (g Grid[T]) At(y, x int) T {
	return g.Values[y*g.Width+x]
}

func (g Grid[T]) Set(y, x int, v T) {
	g.Values[y*g.Width+x] = v
}

func (g Grid[T]) SameShape(h, w int) bool {
	return g.Height == h && g.Width == w
}

func (g Grid[T]) Rows() [][]T {
	rows := make([][]T, g.Height)
	for y := range rows {
		rows[y] = append([]T(nil), g.Values[y*g.Width:(y+1)*g.Width]...)
	}
	return rows
}

func (g Grid[T]) Clone() Grid[T] {
	return Grid[T]{Height: g.Height, Width: g.Width, Values: append([]T(nil), g.Values...)}
}

func Not(g Grid[bool]) Grid[bool] {
	out := NewGrid[bool](g.Height, g.Width)
	for i, v := range g.Values {
		out.Values[i] = !v
	}
	return out
}

func ToFloat(g Grid[bool]) Grid[float64] {
	out := NewGrid[float64](g.Height, g.Width)
	for i, v := range g.Values {
		if v {
			out.Values[i] = 1
		}
	}
	return out
}

// Count returns the number of true cells.
func Count(g Grid[bool]) int {
	n := 0
	for _, v := range g.Values {
		if v {
			n++
		}
	}
	return n
}
