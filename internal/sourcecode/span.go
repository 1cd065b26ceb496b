package sourcecode

import (
	"bytes"
	"fmt"
)

// A Span is a range of byte offsets in a source file, the end is exclusive.
type Span struct {
	Start int32 `json:"start" yaml:"start"`
	End   int32 `json:"end" yaml:"end"`
}

func MakeSpan(start, end int32) Span {
	return Span{Start: start, End: end}
}

func (s Span) Len() int32 {
	return s.End - s.Start
}

func (s Span) IsZero() bool {
	return s.Start == 0 && s.End == 0
}

// Intersects returns true if the two spans share at least one offset, an empty span intersects
// a span that contains its start offset.
func (s Span) Intersects(other Span) bool {
	if other.Len() == 0 {
		return other.Start >= s.Start && other.Start < s.End
	}
	if s.Len() == 0 {
		return s.Start >= other.Start && s.Start < other.End
	}
	return s.Start < other.End && other.Start < s.End
}

// Contains returns true if other is fully inside s.
func (s Span) Contains(other Span) bool {
	return other.Start >= s.Start && other.End <= s.End
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// A PositionRange is a human readable location.
type PositionRange struct {
	SourceName  string `json:"sourceName"`
	StartLine   int32  `json:"line"`      //1-indexed
	StartColumn int32  `json:"column"`    //1-indexed
	EndLine     int32  `json:"endLine"`   //1-indexed
	EndColumn   int32  `json:"endColumn"` //1-indexed
	Span        Span   `json:"span"`
}

func (pos PositionRange) String() string {
	return fmt.Sprintf("%s:%d:%d:", pos.SourceName, pos.StartLine, pos.StartColumn)
}

// A File maps spans to line/column positions.
type File struct {
	Name        string
	lineOffsets []int32
	size        int32
}

func NewFile(name string, content []byte) *File {
	f := &File{Name: name, lineOffsets: []int32{0}, size: int32(len(content))}
	for i, b := range content {
		if b == '\n' {
			f.lineOffsets = append(f.lineOffsets, int32(i+1))
		}
	}
	return f
}

func (f *File) lineColumn(offset int32) (int32, int32) {
	if offset > f.size {
		offset = f.size
	}
	line := 0
	for i, start := range f.lineOffsets {
		if start > offset {
			break
		}
		line = i
	}
	return int32(line + 1), offset - f.lineOffsets[line] + 1
}

// Offset returns the byte offset of a 1-indexed line and column, the result is clamped to the file.
func (f *File) Offset(line, column int32) int32 {
	if line < 1 || column < 1 {
		return 0
	}
	if int(line) > len(f.lineOffsets) {
		return f.size
	}
	return min(f.lineOffsets[line-1]+column-1, f.size)
}

func (f *File) Position(span Span) PositionRange {
	startLine, startCol := f.lineColumn(span.Start)
	endLine, endCol := f.lineColumn(span.End)

	return PositionRange{
		SourceName:  f.Name,
		StartLine:   startLine,
		StartColumn: startCol,
		EndLine:     endLine,
		EndColumn:   endCol,
		Span:        span,
	}
}

type PositionStack []PositionRange

func (stack PositionStack) String() string {
	buff := bytes.NewBuffer(nil)
	for _, pos := range stack {
		buff.WriteString(pos.String())
		buff.WriteRune(' ')
	}
	return buff.String()
}
