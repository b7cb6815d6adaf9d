package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jcorbin/gobf/internal/logio"
	"github.com/jcorbin/gobf/internal/srctext"
)

func main() {
	var (
		expr       string
		width      uint
		strict     bool
		clamp      bool
		tapeLimit  int
		steps      uint64
		level      int
		trace      bool
		timeout    time.Duration
		configPath string
		checkPath  string
		snapPath   string
		dumpPath   string
	)
	flag.StringVar(&expr, "e", "", "program text to run, instead of a file")
	flag.UintVar(&width, "width", 8, "cell width in bits (8, 16, or 32)")
	flag.BoolVar(&strict, "strict", false, "fault on cell wraparound")
	flag.BoolVar(&clamp, "clamp", false, "absorb moves past the left tape edge")
	flag.IntVar(&tapeLimit, "tape-limit", 0, "maximum tape cells, 0 for unlimited")
	flag.Uint64Var(&steps, "steps", 0, "step budget, 0 for unlimited")
	flag.IntVar(&level, "O", 2, "optimization level: 0 raw, 1 coalesced, 2 loop rewrites")
	flag.BoolVar(&trace, "trace", false, "enable trace logging")
	flag.DurationVar(&timeout, "timeout", 0, "specify a time limit")
	flag.StringVar(&configPath, "config", "", "config file (default gobf.toml if present)")
	flag.StringVar(&checkPath, "check", "", "check a yaml program corpus instead of running")
	flag.StringVar(&snapPath, "snapshot", "", "write a machine snapshot here after the run")
	flag.StringVar(&dumpPath, "dump", "", "print a previously written snapshot and exit")
	flag.Parse()

	cfg, err := findConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %+v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.CellWidth = width
		case "strict":
			cfg.StrictCells = strict
		case "clamp":
			cfg.ClampEdge = clamp
		case "tape-limit":
			cfg.TapeLimit = tapeLimit
		case "steps":
			cfg.StepLimit = steps
		case "O":
			cfg.OptLevel = level
		case "trace":
			cfg.Trace = trace
		}
	})
	if err := cfg.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(2)
	}

	logger := setupLogger(cfg.Trace)
	defer logger.Sync()

	ctx := context.Background()
	if timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	switch {
	case dumpPath != "":
		err = dumpSnapshotFile(dumpPath)
	case checkPath != "":
		err = checkCorpus(ctx, checkPath)
	default:
		if expr == "" && flag.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "usage: gobf [flags] prog.bf")
			os.Exit(2)
		}
		if expr != "" && flag.NArg() != 0 {
			fmt.Fprintln(os.Stderr, "pass -e or a program file, not both")
			os.Exit(2)
		}
		err = runProgram(ctx, cfg, expr, snapPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %+v\n", err)
		os.Exit(1)
	}
}

func setupLogger(trace bool) *zap.Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeDuration = zapcore.NanosDurationEncoder
	level := zapcore.InfoLevel
	if trace {
		level = zapcore.DebugLevel
	}
	logger := zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		&zapcore.BufferedWriteSyncer{WS: os.Stderr, FlushInterval: time.Second},
		level,
	))
	zap.ReplaceGlobals(logger)
	zap.RedirectStdLog(logger)
	return logger
}

func runProgram(ctx context.Context, cfg Config, expr, snapPath string) error {
	text, err := sourceText(expr)
	if err != nil {
		return err
	}

	opts := cfg.options()
	opts = append(opts, WithName(text.Name))
	if cfg.Trace {
		opts = append(opts, WithLogf(zap.S().Debugf))
	}

	vm, err := New(string(text.Body), opts...)
	if err != nil {
		return err
	}

	runErr := vm.Run(ctx)

	if snapPath != "" {
		if err := saveSnapshot(vm, snapPath); err != nil {
			if runErr == nil {
				runErr = err
			} else {
				zap.S().Errorf("snapshot not written: %v", err)
			}
		}
	}

	if runErr == nil {
		snap := vm.Snapshot()
		if cfg.Trace {
			lw := logio.Writer{Logf: zap.S().Debugf}
			dumpSnapshot(snap, &lw)
			lw.Close()
		}
		zap.L().Info("program complete",
			zap.Uint64("steps", snap.Steps),
			zap.Stringer("run", snap.RunID))
	}
	return runErr
}

func sourceText(expr string) (srctext.Text, error) {
	if expr != "" {
		return srctext.Text{Name: "<expr>", Body: []byte(expr)}, nil
	}
	f, err := os.Open(flag.Arg(0))
	if err != nil {
		return srctext.Text{}, err
	}
	defer f.Close()
	return srctext.Read(f)
}

func checkCorpus(ctx context.Context, path string) error {
	c, err := loadCorpus(path)
	if err != nil {
		return err
	}
	if err := c.check(ctx, zap.S().Infof); err != nil {
		return err
	}
	zap.L().Info("corpus clean",
		zap.String("corpus", path),
		zap.Int("cases", len(c.Cases)))
	return nil
}

func saveSnapshot(vm *VM, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := writeSnapshot(vm.Snapshot(), f); err != nil {
		return err
	}
	return f.Close()
}

func dumpSnapshotFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	snap, err := readSnapshot(f)
	if err != nil {
		return err
	}
	dumpSnapshot(snap, os.Stdout)
	return nil
}
