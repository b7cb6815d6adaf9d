package main

// compileProgram translates source into the coalesced stream run by exec.
// Level 1 coalesces runs of like bytes and resolves brackets into direct
// jumps; level 2 additionally rewrites three bounded loop shapes into
// single operations. The source must already have passed bracket
// resolution.
func compileProgram(src []byte, level int) []instr {
	var code []instr
	var opens []int // code indexes of pending opJumpZ
	for pos := 0; pos < len(src); {
		c := src[pos]
		switch c {
		case '+', '-', '>', '<', '.':
			end := pos + 1
			for end < len(src) && src[end] == c {
				end++
			}
			n := end - pos
			switch c {
			case '+':
				code = append(code, instr{opAdd, n, pos})
			case '-':
				code = append(code, instr{opAdd, -n, pos})
			case '>':
				code = append(code, instr{opMove, n, pos})
			case '<':
				code = append(code, instr{opMove, -n, pos})
			case '.':
				code = append(code, instr{opEmit, n, pos})
			}
			pos = end
			continue
		case '[':
			opens = append(opens, len(code))
			code = append(code, instr{opJumpZ, -1, pos})
		case ']':
			j := opens[len(opens)-1]
			opens = opens[:len(opens)-1]
			if level >= 2 {
				if rewritten := rewriteLoop(code, j, pos); rewritten != nil {
					code = rewritten
					pos++
					continue
				}
			}
			code = append(code, instr{opJumpNZ, j + 1, pos})
			code[j].arg = len(code)
		}
		pos++
	}
	return code
}

// rewriteLoop tries to collapse the loop whose opJumpZ sits at code index
// j, closed by the bracket at source offset closePos, into a setZero,
// scan, or moveData operation. Rewrites apply only when the body is dense
// in the source, with no comment bytes inside, since replayed step
// positions must line up with real source offsets. Returns nil when the
// body has no such shape; notably [+] and [--] stay plain loops, keeping
// their wraparound termination behavior.
func rewriteLoop(code []instr, j, closePos int) []instr {
	open := code[j]
	body := code[j+1:]
	switch len(body) {
	case 1:
		b := body[0]
		switch {
		case b.op == opAdd && b.arg == -1 && b.pos == open.pos+1 &&
			closePos == open.pos+2:
			return append(code[:j], instr{opSetZero, 0, open.pos})
		case b.op == opMove && b.pos == open.pos+1 &&
			closePos == open.pos+1+abs(b.arg):
			return append(code[:j], instr{opScan, b.arg, open.pos})
		}
	case 4:
		d0, m1, d2, m3 := body[0], body[1], body[2], body[3]
		m := abs(m1.arg)
		if d0.op == opAdd && d0.arg == -1 && d0.pos == open.pos+1 &&
			m1.op == opMove && m1.pos == open.pos+2 &&
			d2.op == opAdd && d2.arg == 1 && d2.pos == open.pos+2+m &&
			m3.op == opMove && m3.arg == -m1.arg && m3.pos == open.pos+3+m &&
			closePos == open.pos+3+2*m {
			return append(code[:j], instr{opMoveData, m1.arg, open.pos})
		}
	}
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
