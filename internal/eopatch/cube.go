package eopatch

import (
	"fmt"

	"github.com/forest-guardian/water-guardian-cli/internal/raster"
)

type Number interface {
	~uint8 | ~float32 | ~float64
}

// Shape is ordered time, height, width, channels.
type Shape struct {
	Time     int `msgpack:"time"`
	Height   int `msgpack:"height"`
	Width    int `msgpack:"width"`
	Channels int `msgpack:"channels"`
}

func (s Shape) FrameSize() int {
	return s.Height * s.Width * s.Channels
}

func (s Shape) Size() int {
	return s.Time * s.FrameSize()
}

func (s Shape) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", s.Time, s.Height, s.Width, s.Channels)
}

// Cube is a row-major [time][y][x][channel] array.
type Cube[T Number] struct {
	Shape  Shape `msgpack:"shape"`
	Values []T   `msgpack:"values"`
}

func NewCube[T Number](shape Shape) Cube[T] {
	return Cube[T]{Shape: shape, Values: make([]T, shape.Size())}
}

// NewScalarCube holds one row of channels per timestamp.
func NewScalarCube[T Number](time, channels int) Cube[T] {
	return NewCube[T](Shape{Time: time, Height: 1, Width: 1, Channels: channels})
}

func (c Cube[T]) Index(t, y, x, ch int) int {
	s := c.Shape
	return ((t*s.Height+y)*s.Width+x)*s.Channels + ch
}

func (c Cube[T]) At(t, y, x, ch int) T {
	return c.Values[c.Index(t, y, x, ch)]
}

func (c Cube[T]) Set(t, y, x, ch int, v T) {
	c.Values[c.Index(t, y, x, ch)] = v
}

// Frame returns a copy of the values of timestamp t.
func (c Cube[T]) Frame(t int) []T {
	n := c.Shape.FrameSize()
	return append([]T(nil), c.Values[t*n:(t+1)*n]...)
}

// Channel extracts one channel of one timestamp as a grid.
func (c Cube[T]) Channel(t, ch int) raster.Grid[T] {
	g := raster.NewGrid[T](c.Shape.Height, c.Shape.Width)
	for y := 0; y < c.Shape.Height; y++ {
		for x := 0; x < c.Shape.Width; x++ {
			g.Values[y*g.Width+x] = c.At(t, y, x, ch)
		}
	}
	return g
}

func (c Cube[T]) Clone() Cube[T] {
	return Cube[T]{Shape: c.Shape, Values: append([]T(nil), c.Values...)}
}

// Select keeps the timestamps for which keep returns true, in order.
func (c Cube[T]) Select(keep func(t int) bool) Cube[T] {
	n := c.Shape.FrameSize()
	shape := c.Shape
	shape.Time = 0
	values := make([]T, 0, len(c.Values))
	for t := 0; t < c.Shape.Time; t++ {
		if keep(t) {
			values = append(values, c.Values[t*n:(t+1)*n]...)
			shape.Time++
		}
	}
	return Cube[T]{Shape: shape, Values: values}
}

func (c Cube[T]) validate() error {
	if len(c.Values) != c.Shape.Size() {
		return fmt.Errorf("shape %s needs %d values, got %d", c.Shape, c.Shape.Size(), len(c.Values))
	}
	return nil
}
