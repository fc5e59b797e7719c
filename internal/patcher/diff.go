package patcher

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Op marks how a line differs between two texts.
type Op int

const (
	// OpEqual is a line present in both texts.
	OpEqual Op = iota
	// OpInsert is a line only in the patched text.
	OpInsert
	// OpDelete is a line only in the original text.
	OpDelete
)

// Prefix returns the unified-diff style marker for the op.
func (o Op) Prefix() string {
	switch o {
	case OpInsert:
		return "+"
	case OpDelete:
		return "-"
	default:
		return " "
	}
}

// Line is one line of a line diff.
type Line struct {
	Op   Op
	Text string
}

// Diff computes a line-level diff from before to after.
func Diff(before, after string) []Line {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var result []Line
	for _, d := range diffs {
		op := OpEqual
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = OpInsert
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		case diffmatchpatch.DiffEqual:
			op = OpEqual
		}
		for _, text := range splitLines(d.Text) {
			result = append(result, Line{Op: op, Text: text})
		}
	}
	return result
}

// Stats counts inserted and deleted lines.
func Stats(lines []Line) (inserted, deleted int) {
	for _, l := range lines {
		switch l.Op {
		case OpInsert:
			inserted++
		case OpDelete:
			deleted++
		case OpEqual:
		}
	}
	return inserted, deleted
}

// Format renders lines with +/-/space markers.
func Format(lines []Line) string {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l.Op.Prefix())
		sb.WriteString(l.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
