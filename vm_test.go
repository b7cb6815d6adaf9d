package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jcorbin/gobf/internal/logio"
)

type vmTestCases []vmTestCase

func (vmts vmTestCases) run(t *testing.T) {
	{
		var exclusive []vmTestCase
		for _, vmt := range vmts {
			if vmt.exclusive {
				exclusive = append(exclusive, vmt)
			}
		}
		if len(exclusive) > 0 {
			vmts = exclusive
		}
	}
	for _, vmt := range vmts {
		if !t.Run(vmt.name, vmt.run) {
			return
		}
	}
}

func vmTest(name string) (vmt vmTestCase) {
	vmt.name = name
	vmt.wantErrAt = -1
	return vmt
}

type vmTestCase struct {
	name    string
	prog    string
	opts    []interface{}
	levels  []int
	expect  []func(t *testing.T, vm *VM)
	timeout time.Duration

	wantOut    *string
	wantErr    error
	wantErrAt  int
	wantNewErr error

	exclusive bool
}

func (vmt vmTestCase) exclusiveTest() vmTestCase {
	vmt.exclusive = true
	return vmt
}

func (vmt vmTestCase) load(prog string) vmTestCase {
	vmt.prog = prog
	return vmt
}

// atLevel pins the case to the given engine levels; by default a case
// runs at every level, so the engines can never drift apart unnoticed.
func (vmt vmTestCase) atLevel(levels ...int) vmTestCase {
	vmt.levels = levels
	return vmt
}

func (vmt vmTestCase) withOptions(opts ...VMOption) vmTestCase {
	for _, opt := range opts {
		vmt.opts = append(vmt.opts, opt)
	}
	return vmt
}

func (vmt vmTestCase) withTimeout(timeout time.Duration) vmTestCase {
	vmt.timeout = timeout
	return vmt
}

func (vmt vmTestCase) withTestOutput() vmTestCase {
	vmt.opts = append(vmt.opts, func(vmt *vmTestCase, t *testing.T) VMOption {
		return WithTee(&logio.Writer{Logf: t.Logf, Prefix: "out: "})
	})
	return vmt
}

func (vmt vmTestCase) expectError(err error) vmTestCase {
	vmt.wantErr = err
	return vmt
}

// expectErrorAt expects the run to fail with err located at the given
// source offset.
func (vmt vmTestCase) expectErrorAt(err error, at int) vmTestCase {
	vmt.wantErr = err
	vmt.wantErrAt = at
	return vmt
}

// expectNewError expects machine construction itself to fail.
func (vmt vmTestCase) expectNewError(err error) vmTestCase {
	vmt.wantNewErr = err
	return vmt
}

func (vmt vmTestCase) expectOutput(output string) vmTestCase {
	vmt.wantOut = &output
	return vmt
}

func (vmt vmTestCase) expectCells(values ...uint32) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		if values == nil {
			values = []uint32{}
		}
		assert.Equal(t, values, vm.Snapshot().Cells, "expected tape cells")
	})
	return vmt
}

func (vmt vmTestCase) expectDP(dp int) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, dp, vm.Snapshot().DP, "expected data pointer")
	})
	return vmt
}

func (vmt vmTestCase) expectSteps(steps uint64) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, steps, vm.Snapshot().Steps, "expected step count")
	})
	return vmt
}

func (vmt vmTestCase) run(t *testing.T) {
	levels := vmt.levels
	if levels == nil {
		levels = []int{0, 1, 2}
	}
	for _, level := range levels {
		level := level
		t.Run(fmt.Sprintf("O%v", level), func(t *testing.T) {
			vmt.runAtLevel(t, level)
		})
	}
}

func (vmt vmTestCase) runAtLevel(t *testing.T, level int) {
	defer func(then time.Time) {
		label := "PASS"
		if t.Failed() {
			label = "FAIL"
		}
		t.Logf("%v\t%v\t%v", label, t.Name(), time.Now().Sub(then))
	}(time.Now())

	if testFails(func(t *testing.T) {
		vmt.runVMTest(context.Background(), t, level, nil)
	}) {
		vmt.runVMTest(context.Background(), t, level, withLogfn(t.Logf))
	}
}

func (vmt vmTestCase) runVMTest(ctx context.Context, t *testing.T, level int, logTo VMOption) {
	vm, err := vmt.buildVM(t, level, logTo)
	if vmt.wantNewErr != nil {
		assert.True(t, errors.Is(err, vmt.wantNewErr),
			"expected construction error: %v\ngot: %+v", vmt.wantNewErr, err)
		return
	}
	if !assert.NoError(t, err, "unexpected construction error") {
		return
	}

	const defaultTimeout = time.Second
	timeout := vmt.timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var out strings.Builder
	if vmt.wantOut != nil {
		WithOutput(&out).apply(vm)
	}

	defer func() {
		if t.Failed() {
			vmt.dumpToTest(t, vm)
		}
	}()

	if err := vm.Run(ctx); vmt.wantErr != nil {
		if assert.True(t, errors.Is(err, vmt.wantErr),
			"expected error: %v\ngot: %+v", vmt.wantErr, err) && vmt.wantErrAt >= 0 {
			var me *MachineError
			if assert.True(t, errors.As(err, &me), "expected a machine error, got: %+v", err) {
				assert.Equal(t, vmt.wantErrAt, me.IP, "expected fault offset")
			}
		}
	} else {
		assert.NoError(t, err, "unexpected machine run error")
	}

	if !t.Failed() {
		if vmt.wantOut != nil {
			assert.Equal(t, *vmt.wantOut, out.String(), "expected output")
		}
		for _, expect := range vmt.expect {
			expect(t, vm)
		}
	}
}

func (vmt vmTestCase) buildVM(t *testing.T, level int, logTo VMOption) (*VM, error) {
	opts := []VMOption{
		WithOutput(io.Discard),
		WithName(t.Name()),
		WithOptLevel(level),
	}
	for _, o := range vmt.opts {
		switch impl := o.(type) {
		case func(vmt *vmTestCase, t *testing.T) VMOption:
			opts = append(opts, impl(&vmt, t))
		case VMOption:
			opts = append(opts, impl)
		default:
			t.Logf("unsupported vmTestCase opt type %T", o)
			t.FailNow()
		}
	}
	if logTo != nil {
		opts = append(opts, logTo)
	}
	return New(vmt.prog, opts...)
}

func (vmt vmTestCase) dumpToTest(t *testing.T, vm *VM) {
	lw := logio.Writer{Logf: t.Logf}
	defer lw.Close()
	dumpSnapshot(vm.Snapshot(), &lw)
}

//// utilities

func testFails(fn func(t *testing.T)) bool {
	var fakeT testing.T
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(&fakeT)
	}()
	<-done
	return fakeT.Failed()
}

func lines(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}
