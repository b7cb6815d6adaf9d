package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_compileProgram(t *testing.T) {
	for _, tc := range []struct {
		name  string
		src   string
		level int
		want  []instr
	}{

		{"empty", "", 1, nil},

		{"coalesced runs", "+++--.", 1, []instr{
			{opAdd, 3, 0},
			{opAdd, -2, 3},
			{opEmit, 1, 5},
		}},

		{"moves", ">>><<", 1, []instr{
			{opMove, 3, 0},
			{opMove, -2, 3},
		}},

		// comment bytes never become code, but they do pin positions
		{"comments split runs", "+ ++", 1, []instr{
			{opAdd, 1, 0},
			{opAdd, 2, 2},
		}},

		{"plain loop", "[+]", 1, []instr{
			{opJumpZ, 3, 0},
			{opAdd, 1, 1},
			{opJumpNZ, 1, 2},
		}},

		{"clear loop at level 1", "[-]", 1, []instr{
			{opJumpZ, 3, 0},
			{opAdd, -1, 1},
			{opJumpNZ, 1, 2},
		}},

		{"clear loop", "[-]", 2, []instr{{opSetZero, 0, 0}}},

		{"clear chain", "[-][-]", 2, []instr{
			{opSetZero, 0, 0},
			{opSetZero, 0, 3},
		}},

		{"scan left", "[<]", 2, []instr{{opScan, -1, 0}}},

		{"scan right by two", "[>>]", 2, []instr{{opScan, 2, 0}}},

		{"move data right", "[->+<]", 2, []instr{{opMoveData, 1, 0}}},

		{"move data left", "[-<+>]", 2, []instr{{opMoveData, -1, 0}}},

		{"move data by two", "[->>+<<]", 2, []instr{{opMoveData, 2, 0}}},

		{"nested clear", "[[-]]", 2, []instr{
			{opJumpZ, 3, 0},
			{opSetZero, 0, 1},
			{opJumpNZ, 1, 4},
		}},

		// [+] terminates by wrapping, or faults under strict cells; a
		// setZero rewrite would lose both, so it stays a loop
		{"inc loop stays a loop", "[+]", 2, []instr{
			{opJumpZ, 3, 0},
			{opAdd, 1, 1},
			{opJumpNZ, 1, 2},
		}},

		{"double dec stays a loop", "[--]", 2, []instr{
			{opJumpZ, 3, 0},
			{opAdd, -2, 1},
			{opJumpNZ, 1, 3},
		}},

		{"comment in body blocks rewrite", "[- ]", 2, []instr{
			{opJumpZ, 3, 0},
			{opAdd, -1, 1},
			{opJumpNZ, 1, 3},
		}},

		// moveData requires the subtract-first shape
		{"inc before dec stays a loop", "[>+<-]", 2, []instr{
			{opJumpZ, 6, 0},
			{opMove, 1, 1},
			{opAdd, 1, 2},
			{opMove, -1, 3},
			{opAdd, -1, 4},
			{opJumpNZ, 1, 5},
		}},

		{"mover", "+++[>+<-]", 1, []instr{
			{opAdd, 3, 0},
			{opJumpZ, 7, 3},
			{opMove, 1, 4},
			{opAdd, 1, 5},
			{opMove, -1, 6},
			{opAdd, -1, 7},
			{opJumpNZ, 2, 8},
		}},

		{"mover rewritten", "+++[->+<]", 2, []instr{
			{opAdd, 3, 0},
			{opMoveData, 1, 3},
		}},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, compileProgram([]byte(tc.src), tc.level))
		})
	}
}
