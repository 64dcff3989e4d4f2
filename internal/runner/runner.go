// Package runner executes untrusted computation scripts inside a WebAssembly
// sandbox. Each run gets a throwaway workspace directory that is the only
// filesystem the guest can see; there is no network and no ambient host
// access.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/interestIngc/cyphershare/internal/common"
	"github.com/interestIngc/cyphershare/internal/logging"
)

const (
	guestDir   = "/work"
	scriptFile = "script.py"

	// outputRel is where a script leaves its artifact, relative to the
	// workspace root. Anything else the script writes is discarded with the
	// workspace.
	outputRel = "output/result.txt"

	defaultTimeout    = 2 * time.Minute
	memoryLimitPages  = 4096 // 64KiB pages, 256MiB total
	workspaceDirPerm  = 0o700
	workspaceFilePerm = 0o600
)

// Input is one file made available to the script under input/<Name>.
type Input struct {
	Name string
	Data []byte
}

// Result is everything one run produced. A script that crashed or exited
// nonzero still yields a Result; ScriptErr carries the fault.
type Result struct {
	Stdout         string
	Stderr         string
	OutputArtifact []byte
	ScriptErr      error
}

// Seams for tests that exercise the run lifecycle without a real engine
// binary.
var (
	compileEngine = func(ctx context.Context, rt wazero.Runtime, wasm []byte) (wazero.CompiledModule, error) {
		return rt.CompileModule(ctx, wasm)
	}
	runEngine = func(ctx context.Context, rt wazero.Runtime, engine wazero.CompiledModule, workDir string, stdout, stderr io.Writer) error {
		cfg := wazero.NewModuleConfig().
			WithName("").
			WithArgs("engine", path.Join(guestDir, scriptFile)).
			WithStdout(stdout).
			WithStderr(stderr).
			WithFSConfig(wazero.NewFSConfig().WithDirMount(workDir, guestDir))
		mod, err := rt.InstantiateModule(ctx, engine, cfg)
		if err != nil {
			return err
		}
		return mod.Close(ctx)
	}
)

// Runner owns a wazero runtime and a compiled engine module. Runs are
// serialized; a second Run blocks until the first finishes.
type Runner struct {
	mu      sync.Mutex
	log     logging.Logger
	runtime wazero.Runtime
	engine  wazero.CompiledModule
	ready   bool
	timeout time.Duration
}

func New(log logging.Logger) *Runner {
	return &Runner{log: log, timeout: defaultTimeout}
}

// Init builds the sandbox runtime and compiles the engine. It is separate
// from New because the engine binary is large and loading it is deferred
// until the first computation is requested.
func (r *Runner) Init(ctx context.Context, engineWASM []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready {
		return nil
	}

	cfg := wazero.NewRuntimeConfig().
		WithMemoryLimitPages(memoryLimitPages).
		WithCloseOnContextDone(true)
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)

	engine, err := compileEngine(ctx, rt, engineWASM)
	if err != nil {
		_ = rt.Close(ctx)
		return fmt.Errorf("%w: compile engine: %v", common.ErrRunner, err)
	}

	r.runtime = rt
	r.engine = engine
	r.ready = true
	r.log.Info(ctx, "computation engine ready")
	return nil
}

// Ready reports whether Init has completed.
func (r *Runner) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

// Run executes script against inputs and collects whatever the run
// produced. The returned error covers sandbox failures only; faults inside
// the script surface as Result.ScriptErr.
func (r *Runner) Run(ctx context.Context, script []byte, inputs []Input) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.ready {
		return Result{}, fmt.Errorf("%w: computation engine not initialized", common.ErrNotReady)
	}

	dir, err := os.MkdirTemp("", "cyphershare-run-*")
	if err != nil {
		return Result{}, fmt.Errorf("%w: workspace: %v", common.ErrRunner, err)
	}
	defer os.RemoveAll(dir)

	if err := r.populate(dir, script, inputs); err != nil {
		return Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	res := Result{}
	if err := runEngine(ctx, r.runtime, r.engine, dir, &stdout, &stderr); err != nil {
		var exitErr *sys.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 0 {
			res.ScriptErr = err
			r.log.Warn(ctx, "script faulted", "error", err)
		}
	}
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	if artifact, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(outputRel))); err == nil {
		res.OutputArtifact = artifact
	}
	return res, nil
}

func (r *Runner) populate(dir string, script []byte, inputs []Input) error {
	if err := os.WriteFile(filepath.Join(dir, scriptFile), script, workspaceFilePerm); err != nil {
		return fmt.Errorf("%w: write script: %v", common.ErrRunner, err)
	}
	for _, sub := range []string{"input", "output"} {
		if err := os.Mkdir(filepath.Join(dir, sub), workspaceDirPerm); err != nil {
			return fmt.Errorf("%w: workspace layout: %v", common.ErrRunner, err)
		}
	}
	for _, in := range inputs {
		// Base strips any path components a hostile name could smuggle in.
		name := filepath.Base(in.Name)
		if name == "." || name == string(filepath.Separator) {
			return fmt.Errorf("%w: bad input name %q", common.ErrValidation, in.Name)
		}
		if err := os.WriteFile(filepath.Join(dir, "input", name), in.Data, workspaceFilePerm); err != nil {
			return fmt.Errorf("%w: write input %s: %v", common.ErrRunner, name, err)
		}
	}
	return nil
}

// Close tears the runtime down. The runner cannot be reused afterwards.
func (r *Runner) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runtime == nil {
		return nil
	}
	err := r.runtime.Close(ctx)
	r.runtime, r.engine, r.ready = nil, nil, false
	return err
}
