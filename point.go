package glrcore

// Point is a row/column position in source text.
type Point struct {
	Row    uint32
	Column uint32
}

// Range is a span of source text expressed both in bytes and in points.
type Range struct {
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
}

func pointAdd(a, b Point) Point {
	if b.Row > 0 {
		return Point{Row: a.Row + b.Row, Column: b.Column}
	}
	return Point{Row: a.Row, Column: a.Column + b.Column}
}

func pointSub(a, b Point) Point {
	if a.Row > b.Row {
		return Point{Row: a.Row - b.Row, Column: a.Column}
	}
	return Point{Row: 0, Column: a.Column - b.Column}
}
