package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jcorbin/gobf/internal/panicerr"
	"github.com/jcorbin/gobf/internal/srctext"
)

// New builds a machine for the given program, resolving its brackets up
// front; an unbalanced program never constructs a machine.
func New(program string, opts ...VMOption) (*VM, error) {
	vm := &VM{src: []byte(program)}
	defaultOptions.apply(vm)
	VMOptions(opts...).apply(vm)
	if err := vm.validate(); err != nil {
		return nil, err
	}
	jumps, err := resolveJumps(vm.src)
	if err != nil {
		return nil, vm.locate(err)
	}
	vm.jumps = jumps
	if vm.level > 0 {
		vm.code = compileProgram(vm.src, vm.level)
	}
	return vm, nil
}

// Run executes the program from a fresh machine state; each call is an
// independent run with its own tape and run id.
func (vm *VM) Run(ctx context.Context) error {
	err := panicerr.Recover("VM", func() error {
		return vm.run(ctx)
	})
	var halt machineHalt
	if errors.As(err, &halt) {
		return halt.error
	}
	return err
}

func (vm *VM) validate() error {
	switch vm.width {
	case 8, 16, 32:
	default:
		return fmt.Errorf("unsupported cell width %v", vm.width)
	}
	if vm.level < 0 || vm.level > 2 {
		return fmt.Errorf("unsupported optimization level %v", vm.level)
	}
	if vm.tape.limit < 0 {
		return fmt.Errorf("negative tape limit %v", vm.tape.limit)
	}
	return nil
}

// locate prefixes a bracket error with its line and column.
func (vm *VM) locate(err error) error {
	var be BracketError
	if errors.As(err, &be) {
		text := srctext.Text{Name: vm.name, Body: vm.src}
		return fmt.Errorf("%v: %w", text.Locate(be.Pos), err)
	}
	return err
}

func WithOutput(w io.Writer) VMOption     { return withOutput(w) }
func WithTee(w io.Writer) VMOption        { return withTee(w) }
func WithName(name string) VMOption       { return withName(name) }
func WithCellWidth(bits uint) VMOption    { return withWidth(bits) }
func WithStrictCells() VMOption           { return withStrict() }
func WithClampedEdge() VMOption           { return withClamp() }
func WithTapeLimit(cells int) VMOption    { return withTapeLimit(cells) }
func WithStepLimit(steps uint64) VMOption { return withStepLimit(steps) }
func WithOptLevel(level int) VMOption     { return withLevel(level) }

func WithLogf(logfn func(mess string, args ...interface{})) VMOption { return withLogfn(logfn) }
