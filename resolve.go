package main

import "fmt"

// A jumpTable maps every bracket offset in a program to its partner's
// offset, in both directions; non-bracket offsets hold -1. For a `[` at p
// matched with `]` at q, q > p, table[p] == q and table[q] == p.
type jumpTable []int

// resolveJumps scans the program text once, left to right, pairing brackets
// through a stack of pending `[` offsets. It is a pure function of the
// text: no tape, no pointers, same table every time.
//
// A `]` with nothing pending fails at its own offset. Anything left on the
// stack after the scan is an unclosed `[`; the most recently opened one is
// reported.
func resolveJumps(src []byte) (jumpTable, error) {
	table := make(jumpTable, len(src))
	for i := range table {
		table[i] = -1
	}
	var pending []int
	for pos, c := range src {
		switch c {
		case '[':
			pending = append(pending, pos)
		case ']':
			if len(pending) == 0 {
				return nil, BracketError{Pos: pos, Bracket: ']'}
			}
			open := pending[len(pending)-1]
			pending = pending[:len(pending)-1]
			table[open], table[pos] = pos, open
		}
	}
	if len(pending) > 0 {
		return nil, BracketError{Pos: pending[len(pending)-1], Bracket: '['}
	}
	return table, nil
}

// BracketError reports an unmatched bracket in program text, before any of
// it executes.
type BracketError struct {
	Pos     int
	Bracket byte
}

func (err BracketError) Error() string {
	return fmt.Sprintf("unmatched %q at offset %v", err.Bracket, err.Pos)
}
