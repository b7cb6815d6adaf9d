package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jcorbin/gobf/internal/flushio"
)

// VM is a minimal tape machine: a data pointer walking an unbounded (or
// limited) tape of cells, driven by an instruction pointer walking the
// program. The program may run in one of two forms. At level 0 the source
// bytes themselves are the instruction stream, decoded one at a time. At
// higher levels a compiled stream of coalesced operations runs instead;
// either way every operation remembers the source offset it came from, so
// faults land on the byte a reader can actually see.
type VM struct {
	logging

	name string // program name for locations, may be empty

	src   []byte    // program text
	jumps jumpTable // bracket partners, aligned to src
	code  []instr   // compiled stream, nil at level 0
	level int

	tape tape
	dp   int // data pointer, a tape cell index
	ip   int // instruction pointer into src or code

	steps     uint64 // primitive operations retired this run
	stepLimit uint64 // fault once steps would pass this, 0 for no limit

	width  uint // cell width in bits
	mask   int  // (1 << width) - 1
	strict bool // fault on cell overflow rather than wrapping
	clamp  bool // absorb moves past the left tape edge rather than faulting

	out  flushio.WriteFlusher
	obuf [1]byte // scratch for emit

	runID uuid.UUID
	ctx   context.Context // only set while running
}

type logging struct {
	logfn func(string, ...interface{})
}

func (log logging) logf(format string, args ...interface{}) {
	if log.logfn != nil {
		log.logfn(format, args...)
	}
}

// Fault causes, reachable through errors.Is on a Run error.
var (
	// ErrTapeEdge means the data pointer tried to move left of cell 0.
	ErrTapeEdge = errors.New("ran off the left edge of the tape")

	// ErrCellRange means a cell increment or decrement would have wrapped
	// while the machine was configured for strict cell arithmetic.
	ErrCellRange = errors.New("cell value out of range")

	// ErrTapeLimit means the data pointer tried to move past the
	// configured maximum tape size.
	ErrTapeLimit = errors.New("out of tape")

	// ErrStepLimit means the machine retired its full step budget without
	// finishing.
	ErrStepLimit = errors.New("step budget exhausted")
)

// MachineError reports an execution fault, pinned to the source offset of
// the faulting operation, with a state snapshot taken at that moment.
type MachineError struct {
	IP    int // source offset of the faulting operation
	DP    int
	Steps uint64
	Cause error
	Snap  *Snapshot
}

func (err *MachineError) Error() string {
	return fmt.Sprintf("%v at offset %v (dp=%v steps=%v)", err.Cause, err.IP, err.DP, err.Steps)
}

func (err *MachineError) Unwrap() error { return err.Cause }

func (err *MachineError) Format(f fmt.State, c rune) {
	fmt.Fprint(f, err.Error())
	if c == 'v' && f.Flag('+') && err.Snap != nil {
		fmt.Fprint(f, "\n")
		dumpSnapshot(err.Snap, f)
	}
}

// machineHalt carries a machine error up through the panic used to stop
// execution; Run unwraps it back into a plain return.
type machineHalt struct{ error }

func (h machineHalt) Error() string { return fmt.Sprintf("halted: %v", h.error) }
func (h machineHalt) Unwrap() error { return h.error }

// halt stops the machine, flushing any buffered output first so that
// partial results survive the failure.
func (vm *VM) halt(err error) {
	vm.flushOut()
	panic(machineHalt{err})
}

func (vm *VM) flushOut() (err error) {
	defer func() { recover() }()
	return vm.out.Flush()
}

// fault halts with a MachineError locating cause at source offset at.
func (vm *VM) fault(cause error, at int) {
	vm.halt(&MachineError{
		IP:    at,
		DP:    vm.dp,
		Steps: vm.steps,
		Cause: cause,
		Snap:  vm.snapshot(at),
	})
}

func (vm *VM) run(ctx context.Context) error {
	vm.reset()
	vm.ctx = ctx
	defer func() { vm.ctx = nil }()
	if vm.logfn != nil {
		vm.logf("run %v: %v bytes, level %v, width %v", vm.runID, len(vm.src), vm.level, vm.width)
	}
	if vm.level == 0 {
		vm.execRaw()
	} else {
		vm.exec()
	}
	return vm.out.Flush()
}

// reset returns the machine to its starting state: a one cell tape of
// zeros, both pointers at 0, and a fresh run id.
func (vm *VM) reset() {
	vm.tape.reset()
	vm.tape.grow(1)
	vm.dp, vm.ip = 0, 0
	vm.steps = 0
	vm.runID = uuid.New()
}

// execRaw interprets source bytes directly; every byte costs a step,
// whether or not it names an operation.
func (vm *VM) execRaw() {
	for vm.ip < len(vm.src) {
		if err := vm.ctx.Err(); err != nil {
			vm.fault(err, vm.ip)
		}
		at := vm.ip
		c := vm.src[at]
		if vm.logfn != nil {
			vm.logf("@%v %q dp=%v cell=%v", at, c, vm.dp, *vm.tape.at(vm.dp))
		}
		vm.tick(at)
		vm.ip++
		switch c {
		case '+':
			vm.bump(1, at)
		case '-':
			vm.bump(-1, at)
		case '>':
			vm.right(at)
		case '<':
			vm.left(at)
		case '.':
			vm.emit()
		case '[':
			if *vm.tape.at(vm.dp) == 0 {
				vm.ip = vm.jumps[at] + 1
			}
		case ']':
			if *vm.tape.at(vm.dp) != 0 {
				vm.ip = vm.jumps[at] + 1
			}
		}
	}
}

// exec runs the compiled stream. Each operation replays the primitive
// steps of the source bytes it stands for whenever a fault could land
// inside it, so positions, step counts, and edge policies come out
// identical to execRaw on the same program.
func (vm *VM) exec() {
	for vm.ip < len(vm.code) {
		if err := vm.ctx.Err(); err != nil {
			vm.fault(err, vm.code[vm.ip].pos)
		}
		i := vm.code[vm.ip]
		if vm.logfn != nil {
			vm.logf("@%v %s %v dp=%v cell=%v", i.pos, opNames[i.op], i.arg, vm.dp, *vm.tape.at(vm.dp))
		}
		vm.ip++
		opTable[i.op](vm, i)
	}
}

// srcAt maps the instruction pointer back to a source offset.
func (vm *VM) srcAt() int {
	if vm.level == 0 {
		if vm.ip > len(vm.src) {
			return len(vm.src)
		}
		return vm.ip
	}
	if vm.ip < len(vm.code) {
		return vm.code[vm.ip].pos
	}
	return len(vm.src)
}

// tick charges one step against the budget, faulting at source offset at
// once the budget is gone; a program needing exactly the budget finishes.
func (vm *VM) tick(at int) {
	if vm.stepLimit != 0 && vm.steps >= vm.stepLimit {
		vm.fault(ErrStepLimit, at)
	}
	vm.steps++
}

// bump adds delta (+1 or -1) to the current cell, wrapping at the cell
// width, or faulting under strict arithmetic.
func (vm *VM) bump(delta, at int) {
	p := vm.tape.at(vm.dp)
	if vm.strict && ((delta > 0 && *p == vm.mask) || (delta < 0 && *p == 0)) {
		vm.fault(ErrCellRange, at)
	}
	*p = (*p + delta) & vm.mask
}

// right moves the data pointer one cell right, growing the tape with a
// fresh zero cell as needed.
func (vm *VM) right(at int) {
	if vm.dp+1 >= vm.tape.size {
		if !vm.tape.grow(vm.dp + 2) {
			vm.fault(ErrTapeLimit, at)
		}
	}
	vm.dp++
}

// left moves the data pointer one cell left; at cell 0 it either stays
// put or faults, per the configured edge policy.
func (vm *VM) left(at int) {
	if vm.dp == 0 {
		if vm.clamp {
			return
		}
		vm.fault(ErrTapeEdge, at)
	}
	vm.dp--
}

// emit writes the low byte of the current cell to the output sink.
func (vm *VM) emit() {
	vm.obuf[0] = byte(*vm.tape.at(vm.dp))
	if _, err := vm.out.Write(vm.obuf[:]); err != nil {
		vm.halt(err)
	}
}

// instr is one compiled operation: an opcode, its argument, and the
// source offset of the first byte it was compiled from.
type instr struct {
	op  opKind
	arg int
	pos int
}

type opKind uint8

const (
	opAdd      opKind = iota // arg: signed cell delta
	opMove                   // arg: signed pointer delta
	opEmit                   // arg: repeat count
	opJumpZ                  // arg: target when cell is zero
	opJumpNZ                 // arg: target when cell is non-zero
	opSetZero                // clear the current cell
	opScan                   // arg: signed pointer stride per iteration
	opMoveData               // arg: signed destination offset
	opMax
)

var (
	opTable [opMax]func(*VM, instr)
	opNames [opMax]string
)

func init() {
	opTable = [opMax]func(*VM, instr){
		opAdd:      (*VM).addOp,
		opMove:     (*VM).moveOp,
		opEmit:     (*VM).emitOp,
		opJumpZ:    (*VM).jumpZOp,
		opJumpNZ:   (*VM).jumpNZOp,
		opSetZero:  (*VM).setZeroOp,
		opScan:     (*VM).scanOp,
		opMoveData: (*VM).moveDataOp,
	}
	opNames = [opMax]string{
		opAdd:      "add",
		opMove:     "move",
		opEmit:     "emit",
		opJumpZ:    "jumpz",
		opJumpNZ:   "jumpnz",
		opSetZero:  "zero",
		opScan:     "scan",
		opMoveData: "mdata",
	}
}

// addOp applies a coalesced run of + or - bytes. When neither strict
// arithmetic nor a step budget can interrupt the run it collapses to one
// masked add; otherwise the run replays unit by unit so a fault lands on
// the exact offending byte.
func (vm *VM) addOp(i instr) {
	n := i.arg
	d, m := 1, n
	if n < 0 {
		d, m = -1, -n
	}
	if !vm.strict && vm.stepLimit == 0 {
		vm.steps += uint64(m)
		p := vm.tape.at(vm.dp)
		*p = (*p + n) & vm.mask
		return
	}
	for j := 0; j < m; j++ {
		at := i.pos + j
		vm.tick(at)
		vm.bump(d, at)
	}
}

// moveOp applies a coalesced run of > or < bytes, collapsing to one
// pointer add when the whole run stays on already grown tape and no step
// budget is in force.
func (vm *VM) moveOp(i instr) {
	n := i.arg
	if vm.stepLimit == 0 {
		if n > 0 && vm.dp+n < vm.tape.size {
			vm.steps += uint64(n)
			vm.dp += n
			return
		}
		if n < 0 && vm.dp+n >= 0 {
			vm.steps += uint64(-n)
			vm.dp += n
			return
		}
	}
	d, m := 1, n
	if n < 0 {
		d, m = -1, -n
	}
	for j := 0; j < m; j++ {
		at := i.pos + j
		vm.tick(at)
		if d > 0 {
			vm.right(at)
		} else {
			vm.left(at)
		}
	}
}

func (vm *VM) emitOp(i instr) {
	for j := 0; j < i.arg; j++ {
		vm.tick(i.pos + j)
		vm.emit()
	}
}

func (vm *VM) jumpZOp(i instr) {
	vm.tick(i.pos)
	if *vm.tape.at(vm.dp) == 0 {
		vm.ip = i.arg
	}
}

func (vm *VM) jumpNZOp(i instr) {
	vm.tick(i.pos)
	if *vm.tape.at(vm.dp) != 0 {
		vm.ip = i.arg
	}
}

// setZeroOp is the [-] idiom. The loop decrements the cell to zero two
// steps at a time, so with no budget in force the whole thing is a store;
// strict arithmetic never trips since the cell is non-zero before every
// decrement.
func (vm *VM) setZeroOp(i instr) {
	vm.tick(i.pos)
	p := vm.tape.at(vm.dp)
	if *p == 0 {
		return
	}
	if vm.stepLimit == 0 {
		vm.steps += uint64(*p) * 2
		*p = 0
		return
	}
	for *p != 0 {
		vm.tick(i.pos + 1)
		vm.bump(-1, i.pos+1)
		vm.tick(i.pos + 2)
	}
}

// scanOp is the [<] / [>] family: stride the pointer until it lands on a
// zero cell. Each stride replays its unit moves, keeping growth, edge
// policy, and budget behavior byte exact. Under a clamped edge a leftward
// scan over a non-zero cell 0 never terminates on its own, which is why
// the loop watches the run context.
func (vm *VM) scanOp(i instr) {
	vm.tick(i.pos)
	if *vm.tape.at(vm.dp) == 0 {
		return
	}
	s := i.arg
	d, m := 1, s
	if s < 0 {
		d, m = -1, -s
	}
	for {
		if err := vm.ctx.Err(); err != nil {
			vm.fault(err, i.pos)
		}
		for k := 0; k < m; k++ {
			at := i.pos + 1 + k
			vm.tick(at)
			if d > 0 {
				vm.right(at)
			} else {
				vm.left(at)
			}
		}
		vm.tick(i.pos + 1 + m)
		if *vm.tape.at(vm.dp) == 0 {
			return
		}
	}
}

// moveDataOp is the [->+<] / [-<+>] family: drain the current cell into
// the one at the signed offset. With no budget, no strict arithmetic, and
// both cells on legal tape it collapses to an add and a store; any other
// case replays the loop so faults and clamped pointer motion come out
// exactly as the source bytes would have produced them.
func (vm *VM) moveDataOp(i instr) {
	vm.tick(i.pos)
	if *vm.tape.at(vm.dp) == 0 {
		return
	}
	n := i.arg
	d, m := 1, n
	if n < 0 {
		d, m = -1, -n
	}
	if vm.stepLimit == 0 && !vm.strict {
		if dst := vm.dp + n; dst >= 0 && (dst < vm.tape.size || vm.tape.grow(dst+1)) {
			p, q := vm.tape.at(vm.dp), vm.tape.at(dst)
			vm.steps += uint64(*p) * uint64(2*m+3)
			*q = (*q + *p) & vm.mask
			*p = 0
			return
		}
	}
	outAt, incAt, backAt, closeAt := i.pos+2, i.pos+2+m, i.pos+3+m, i.pos+3+2*m
	for {
		if err := vm.ctx.Err(); err != nil {
			vm.fault(err, i.pos)
		}
		vm.tick(i.pos + 1)
		vm.bump(-1, i.pos+1)
		for k := 0; k < m; k++ {
			vm.tick(outAt + k)
			if d > 0 {
				vm.right(outAt + k)
			} else {
				vm.left(outAt + k)
			}
		}
		vm.tick(incAt)
		vm.bump(1, incAt)
		for k := 0; k < m; k++ {
			vm.tick(backAt + k)
			if d > 0 {
				vm.left(backAt + k)
			} else {
				vm.right(backAt + k)
			}
		}
		vm.tick(closeAt)
		if *vm.tape.at(vm.dp) == 0 {
			return
		}
	}
}
