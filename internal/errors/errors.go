// Package errors formats tile-span diagnostics with source context, the
// way a text-language compiler would format a line:column error, except
// the "source line" is the ordered tile-id sequence a rule side compiled
// from and the "caret" underlines a tile span instead of a column range.
//
// A position+source-line+caret formatter, adapted from line:column source
// positions to a parser.Span over a tile sequence.
package errors

import (
	"fmt"
	"strings"

	"github.com/humanapp/mindcraft-lang-sub002/internal/parser"
)

// TileError is a single diagnostic with enough context to render a
// caret-annotated line the way a script compiler would, except the line is
// the tile sequence a rule side was parsed from rather than source text.
type TileError struct {
	Code    string
	Message string
	Span    parser.Span
	Tiles   []string // the rule side's tile ids, in order, for rendering
	Side    string   // "When" or "Do", purely for the header
}

// FromDiagnostic builds a TileError from a parser/checker Diagnostic plus
// the tile sequence it was raised against.
func FromDiagnostic(d parser.Diagnostic, side string, tileIDs []string) *TileError {
	return &TileError{Code: d.Code, Message: d.Message, Span: d.Span, Tiles: tileIDs, Side: side}
}

// Error implements the error interface.
func (e *TileError) Error() string { return e.Format(false) }

// Format renders the diagnostic as a header line, the tile sequence, and a
// caret band underlining the affected span — the tile-sequence analogue of
// a compiler's line/column/caret block. If color is true, ANSI codes
// highlight the caret band in red.
func (e *TileError) Format(color bool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s [%s] at tiles [%d,%d)\n", e.Side, e.Code, e.Span.From, e.Span.To)

	rendered := renderTiles(e.Tiles)
	sb.WriteString(rendered.line)
	sb.WriteString("\n")

	sb.WriteString(strings.Repeat(" ", rendered.offsetFor(e.Span.From)))
	if color {
		sb.WriteString("\033[1;31m")
	}
	width := rendered.widthBetween(e.Span.From, e.Span.To)
	if width < 1 {
		width = 1
	}
	sb.WriteString(strings.Repeat("^", width))
	if color {
		sb.WriteString("\033[0m")
	}
	sb.WriteString("\n")

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m")
	}
	return sb.String()
}

// renderedTiles is the space-joined tile-id line plus the byte offsets of
// each tile's start, used to align the caret band under arbitrary-width
// tile ids, unlike a fixed-width-character source line.
type renderedTiles struct {
	line    string
	offsets []int // offsets[i] = byte offset where tile i begins
	widths  []int // widths[i] = len(tile i's rendered text), not counting the separator
}

func renderTiles(ids []string) renderedTiles {
	var sb strings.Builder
	r := renderedTiles{offsets: make([]int, len(ids)), widths: make([]int, len(ids))}
	for i, id := range ids {
		r.offsets[i] = sb.Len()
		sb.WriteString(id)
		r.widths[i] = len(id)
		if i < len(ids)-1 {
			sb.WriteString(" ")
		}
	}
	r.line = sb.String()
	return r
}

func (r renderedTiles) offsetFor(tileIdx int) int {
	if tileIdx < 0 {
		return 0
	}
	if tileIdx >= len(r.offsets) {
		return len(r.line)
	}
	return r.offsets[tileIdx]
}

func (r renderedTiles) widthBetween(from, to int) int {
	if from < 0 || from >= len(r.offsets) {
		return 1
	}
	end := to
	if end > len(r.offsets) {
		end = len(r.offsets)
	}
	if end <= from {
		return r.widths[from]
	}
	lastIdx := end - 1
	return (r.offsets[lastIdx] + r.widths[lastIdx]) - r.offsets[from]
}

// FormatAll formats multiple diagnostics in a single numbered block.
func FormatAll(errs []*TileError, color bool) string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) == 1 {
		return errs[0].Format(color)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d diagnostic(s):\n\n", len(errs))
	for i, e := range errs {
		fmt.Fprintf(&sb, "[%d of %d]\n", i+1, len(errs))
		sb.WriteString(e.Format(color))
		if i < len(errs)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
