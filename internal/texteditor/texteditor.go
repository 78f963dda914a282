// Package texteditor applies a batch of line/column edits to source text in
// a single deterministic pass (spec §4.8 "Seeder" ordering rules), grounded
// in original_source/src/TextEditor.hpp's insert/modify/erase/commit shape
// but generalized to the nonErasable + priority rules spec.md §4.8
// describes (TextEditor.hpp itself only has the simpler commit loop; the
// priority and nonErasable behavior below is this pipeline's own
// generalization of it, as the spec requires).
package texteditor

import "sort"

// Kind distinguishes an insertion from an erasure of an existing span.
type Kind int

const (
	Insert Kind = iota
	Erase
)

// Edit describes one pending change. Line/Col are 1-based; Erase edits also
// set LineEnd/ColEnd (exclusive) to bound the erased span.
type Edit struct {
	Kind        Kind
	Line, Col   int
	LineEnd     int // Erase only
	ColEnd      int // Erase only
	Text        string
	Priority    int  // lower sorts first among edits at the same point
	NonErasable bool // protects this edit's inserted text from a later-applied Erase that would otherwise overlap it
}

// Editor accumulates edits over a fixed piece of text and commits them in
// one pass.
type Editor struct {
	lines [][]rune
	prot  [][]bool // parallel to lines: true where a NonErasable insert wrote
	edits []Edit
}

// New splits text into 1-indexed lines (lines[0] is unused padding) ready
// for editing.
func New(text string) *Editor {
	e := &Editor{}
	e.lines = append(e.lines, nil) // 1-indexed
	start := 0
	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' {
			e.lines = append(e.lines, append([]rune{}, runes[start:i]...))
			start = i + 1
		}
	}
	e.lines = append(e.lines, append([]rune{}, runes[start:]...))
	e.prot = make([][]bool, len(e.lines))
	for i, l := range e.lines {
		e.prot[i] = make([]bool, len(l))
	}
	return e
}

// InsertAt queues an insertion of text immediately before (line, col).
func (e *Editor) InsertAt(line, col int, text string, priority int, nonErasable bool) {
	e.edits = append(e.edits, Edit{Kind: Insert, Line: line, Col: col, Text: text, Priority: priority, NonErasable: nonErasable})
}

// EraseRange queues the erasure (replacement with spaces) of [beginLine,
// beginCol, endLine, endCol).
func (e *Editor) EraseRange(beginLine, beginCol, endLine, endCol int) {
	e.edits = append(e.edits, Edit{Kind: Erase, Line: beginLine, Col: beginCol, LineEnd: endLine, ColEnd: endCol})
}

// Add queues an arbitrary pre-built Edit.
func (e *Editor) Add(ed Edit) {
	e.edits = append(e.edits, ed)
}

// Append queues text to be inserted after the last line of the document
// (Seeder.hpp's InstrumentationTask.line == -1: "append new line at the
// end of the file", used for declaration-tag instrumentation).
func (e *Editor) Append(text string, priority int) {
	last := len(e.lines) - 1
	e.edits = append(e.edits, Edit{Kind: Insert, Line: last, Col: len(e.lines[last]) + 1, Text: text, Priority: priority})
}

// Commit applies all queued edits and returns the resulting text. Edits are
// applied back-to-front ((line,col) descending) so earlier offsets are
// never invalidated by a later one; among edits at the same point, lower
// Priority applies first (outer-left before inner-left). Erasing a span
// blanks every rune in it except ones written by a prior (i.e.
// further-right, already-applied) NonErasable insert.
func (e *Editor) Commit() string {
	sorted := make([]Edit, len(e.edits))
	copy(sorted, e.edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Line != b.Line {
			return a.Line > b.Line
		}
		if a.Col != b.Col {
			return a.Col > b.Col
		}
		return a.Priority < b.Priority
	})

	// Inserts that land at the exact same (line, col) are concatenated in
	// priority order and applied as one splice, so "outer-left before
	// inner-left" is a property of the combined text rather than of two
	// separate splices racing over the same index.
	merged := make([]Edit, 0, len(sorted))
	for i := 0; i < len(sorted); {
		ed := sorted[i]
		if ed.Kind == Insert {
			j := i + 1
			text := ed.Text
			nonErasable := ed.NonErasable
			for j < len(sorted) && sorted[j].Kind == Insert && sorted[j].Line == ed.Line && sorted[j].Col == ed.Col {
				text += sorted[j].Text
				nonErasable = nonErasable || sorted[j].NonErasable
				j++
			}
			ed.Text = text
			ed.NonErasable = nonErasable
			merged = append(merged, ed)
			i = j
			continue
		}
		merged = append(merged, ed)
		i++
	}

	for _, ed := range merged {
		switch ed.Kind {
		case Insert:
			e.applyInsert(ed)
		case Erase:
			e.applyErase(ed)
		}
	}

	e.edits = nil
	var out []rune
	for i, l := range e.lines {
		if i > 1 {
			out = append(out, '\n')
		}
		out = append(out, l...)
	}
	return string(out)
}

func (e *Editor) ensureLine(n int) {
	for len(e.lines) <= n {
		e.lines = append(e.lines, nil)
		e.prot = append(e.prot, nil)
	}
}

func (e *Editor) applyInsert(ed Edit) {
	e.ensureLine(ed.Line)
	line := e.lines[ed.Line]
	prot := e.prot[ed.Line]
	col := ed.Col - 1
	if col < 0 {
		col = 0
	}
	if col > len(line) {
		col = len(line)
	}
	ins := []rune(ed.Text)
	insProt := make([]bool, len(ins))
	if ed.NonErasable {
		for i := range insProt {
			insProt[i] = true
		}
	}
	newLine := make([]rune, 0, len(line)+len(ins))
	newLine = append(newLine, line[:col]...)
	newLine = append(newLine, ins...)
	newLine = append(newLine, line[col:]...)
	newProt := make([]bool, 0, len(prot)+len(insProt))
	newProt = append(newProt, prot[:col]...)
	newProt = append(newProt, insProt...)
	newProt = append(newProt, prot[col:]...)
	e.lines[ed.Line] = newLine
	e.prot[ed.Line] = newProt
}

func (e *Editor) applyErase(ed Edit) {
	e.ensureLine(ed.LineEnd)
	for ln := ed.Line; ln <= ed.LineEnd; ln++ {
		line := e.lines[ln]
		prot := e.prot[ln]
		begin := 0
		end := len(line)
		if ln == ed.Line {
			begin = ed.Col - 1
		}
		if ln == ed.LineEnd {
			end = ed.ColEnd - 1
		}
		if begin < 0 {
			begin = 0
		}
		if end > len(line) {
			end = len(line)
		}
		for i := begin; i < end; i++ {
			if i < len(prot) && prot[i] {
				continue
			}
			line[i] = ' '
		}
	}
}
