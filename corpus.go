package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// corpus is a yaml suite of programs with expected results, checked
// against every engine level so the compiled forms can never drift from
// the raw interpreter.
type corpus struct {
	Cases []corpusCase `yaml:"cases"`
}

type corpusCase struct {
	Name    string `yaml:"name"`
	Program string `yaml:"program"`

	Output string   `yaml:"output"`
	Cells  []uint32 `yaml:"cells"`
	DP     *int     `yaml:"dp"`
	Fail   string   `yaml:"fail"`

	Width     uint   `yaml:"width"`
	Clamp     bool   `yaml:"clamp"`
	Strict    bool   `yaml:"strict"`
	StepLimit uint64 `yaml:"step-limit"`
	TapeLimit int    `yaml:"tape-limit"`
}

// failKinds names the fault a failing case must end with.
var failKinds = map[string]error{
	"edge":  ErrTapeEdge,
	"cells": ErrCellRange,
	"tape":  ErrTapeLimit,
	"steps": ErrStepLimit,
}

func loadCorpus(path string) (corpus, error) {
	var c corpus
	f, err := os.Open(path)
	if err != nil {
		return c, fmt.Errorf("corpus: open %s: %w", path, err)
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return c, fmt.Errorf("corpus: parse %s: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return c, fmt.Errorf("corpus: %s: %w", path, err)
	}
	return c, nil
}

func (c corpus) validate() error {
	seen := make(map[string]bool, len(c.Cases))
	for i, cc := range c.Cases {
		if cc.Name == "" {
			return fmt.Errorf("case %v has no name", i)
		}
		if seen[cc.Name] {
			return fmt.Errorf("duplicate case name %q", cc.Name)
		}
		seen[cc.Name] = true
		if cc.Fail != "" {
			if _, ok := failKinds[cc.Fail]; !ok {
				return fmt.Errorf("case %q: unknown fail kind %q", cc.Name, cc.Fail)
			}
		}
	}
	return nil
}

// check runs every case at every level, collecting all failures rather
// than stopping at the first so one bad program cannot mask another.
func (c corpus) check(ctx context.Context, logf func(string, ...interface{})) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))

	var (
		mu       sync.Mutex
		failures []string
	)
	for _, cc := range c.Cases {
		cc := cc
		for level := 0; level <= 2; level++ {
			level := level
			eg.Go(func() error {
				if err := cc.run(ctx, level); err != nil {
					mu.Lock()
					failures = append(failures, fmt.Sprintf("%v @O%v: %v", cc.Name, level, err))
					mu.Unlock()
					if logf != nil {
						logf("FAIL %v @O%v: %v", cc.Name, level, err)
					}
				} else if logf != nil {
					logf("ok %v @O%v", cc.Name, level)
				}
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	if len(failures) > 0 {
		sort.Strings(failures)
		return fmt.Errorf("corpus: %v of %v checks failed:\n  %v",
			len(failures), 3*len(c.Cases), strings.Join(failures, "\n  "))
	}
	return nil
}

func (cc corpusCase) run(ctx context.Context, level int) error {
	var out bytes.Buffer
	opts := []VMOption{
		WithName(cc.Name),
		WithOutput(&out),
		WithOptLevel(level),
	}
	if cc.Width != 0 {
		opts = append(opts, WithCellWidth(cc.Width))
	}
	if cc.Clamp {
		opts = append(opts, WithClampedEdge())
	}
	if cc.Strict {
		opts = append(opts, WithStrictCells())
	}
	if cc.StepLimit != 0 {
		opts = append(opts, WithStepLimit(cc.StepLimit))
	}
	if cc.TapeLimit != 0 {
		opts = append(opts, WithTapeLimit(cc.TapeLimit))
	}

	vm, err := New(cc.Program, opts...)
	if err != nil {
		return err
	}
	err = vm.Run(ctx)

	if cc.Fail != "" {
		if want := failKinds[cc.Fail]; !errors.Is(err, want) {
			return fmt.Errorf("expected %v failure, got %v", cc.Fail, err)
		}
		return nil
	}
	if err != nil {
		return err
	}
	if got := out.String(); got != cc.Output {
		return fmt.Errorf("expected output %q, got %q", cc.Output, got)
	}
	snap := vm.Snapshot()
	if cc.Cells != nil && !equalCells(snap.Cells, cc.Cells) {
		return fmt.Errorf("expected cells %v, got %v", cc.Cells, snap.Cells)
	}
	if cc.DP != nil && snap.DP != *cc.DP {
		return fmt.Errorf("expected dp %v, got %v", *cc.DP, snap.DP)
	}
	return nil
}

func equalCells(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
