package main

import (
	"io"
	"os"

	"github.com/jcorbin/gobf/internal/flushio"
)

type VMOption interface{ apply(vm *VM) }

// VMOptions combines options into one, eliding any nils.
func VMOptions(opts ...VMOption) VMOption { return vmOptions(opts) }

type vmOptions []VMOption

func (opts vmOptions) apply(vm *VM) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(vm)
		}
	}
}

var defaultOptions = vmOptions{
	withOutput(os.Stdout),
	withWidth(8),
	withLevel(2),
}

type withLogfn func(mess string, args ...interface{})

func (logfn withLogfn) apply(vm *VM) {
	vm.logfn = logfn
}

type outputOption struct{ io.Writer }
type teeOption struct{ io.Writer }
type nameOption string
type widthOption uint
type strictOption struct{}
type clampOption struct{}
type tapeLimitOption int
type stepLimitOption uint64
type levelOption int

func withOutput(w io.Writer) outputOption        { return outputOption{w} }
func withTee(w io.Writer) teeOption              { return teeOption{w} }
func withName(name string) nameOption            { return nameOption(name) }
func withWidth(bits uint) widthOption            { return widthOption(bits) }
func withStrict() strictOption                   { return strictOption{} }
func withClamp() clampOption                     { return clampOption{} }
func withTapeLimit(cells int) tapeLimitOption    { return tapeLimitOption(cells) }
func withStepLimit(steps uint64) stepLimitOption { return stepLimitOption(steps) }
func withLevel(level int) levelOption            { return levelOption(level) }

func (o outputOption) apply(vm *VM) {
	if vm.out != nil {
		vm.out.Flush()
	}
	vm.out = flushio.NewWriteFlusher(o.Writer)
}

func (o teeOption) apply(vm *VM) {
	vm.out = flushio.WriteFlushers(vm.out, flushio.NewWriteFlusher(o.Writer))
}

func (name nameOption) apply(vm *VM) { vm.name = string(name) }

func (bits widthOption) apply(vm *VM) {
	vm.width = uint(bits)
	vm.mask = 1<<bits - 1
}

func (strictOption) apply(vm *VM) { vm.strict = true }
func (clampOption) apply(vm *VM)  { vm.clamp = true }

func (lim tapeLimitOption) apply(vm *VM) { vm.tape.limit = int(lim) }
func (lim stepLimitOption) apply(vm *VM) { vm.stepLimit = uint64(lim) }
func (level levelOption) apply(vm *VM)   { vm.level = int(level) }
