package srctext

import (
	"fmt"
	"io"
)

// Text is a named piece of program source.
type Text struct {
	Name string
	Body []byte
}

// Location is a human oriented position within a source text.
type Location struct {
	Name string
	Line int
	Col  int
}

func (loc Location) String() string {
	if loc.Name == "" {
		return fmt.Sprintf("%v:%v", loc.Line, loc.Col)
	}
	return fmt.Sprintf("%v:%v:%v", loc.Name, loc.Line, loc.Col)
}

// Locate resolves a byte offset into a 1-based line and column. Offsets out
// of range clamp to the nearest end of the text.
func (t Text) Locate(offset int) Location {
	if offset < 0 {
		offset = 0
	}
	if offset > len(t.Body) {
		offset = len(t.Body)
	}
	line, col := 1, 1
	for _, b := range t.Body[:offset] {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return Location{Name: t.Name, Line: line, Col: col}
}

// Read slurps a reader into a Text, taking the name from the reader when it
// has one (as os.File does).
func Read(r io.Reader) (Text, error) {
	body, err := io.ReadAll(r)
	return Text{Name: nameOf(r), Body: body}, err
}

func nameOf(obj interface{}) string {
	if nom, ok := obj.(interface{ Name() string }); ok {
		return nom.Name()
	}
	return ""
}
