// Package pm runs the yarn executable on behalf of the CLI.
// Every call builds one argument vector, spawns exactly one child process
// wired to the parent's stdio, and reports exactly one Result.
package pm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/kb-labs/yarn/internal/config"
	"github.com/kb-labs/yarn/internal/logger"
)

// Result is the outcome of one invocation.
// A launch failure has Err set and Exited false. A finished process has
// Exited true and its ExitCode; a non-zero code alone is not an error.
// The zero Result means nothing was spawned.
type Result struct {
	Err      error
	Args     []string
	Duration time.Duration
	ExitCode int
	Exited   bool
}

// AsError returns Err, or an *ExitError when the process exited non-zero.
func (r Result) AsError() error {
	if r.Err != nil {
		return r.Err
	}
	if r.Exited && r.ExitCode != 0 {
		return &ExitError{Args: r.Args, Code: r.ExitCode}
	}
	return nil
}

// Callback receives the single Result of an asynchronous invocation.
type Callback func(Result)

// LaunchError reports an executable that could not be started.
type LaunchError struct {
	Err error
	Bin string
	Dir string
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Bin, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// ExitError reports a process that ran and exited with a non-zero code.
type ExitError struct {
	Args []string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("yarn %s: exit status %d", strings.Join(e.Args, " "), e.Code)
}

// Yarn dispatches invocations of the yarn executable.
// The zero value runs "yarn" in the current directory with the process stdio.
type Yarn struct {
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Log     *logger.Logger
	OnSpawn func(args []string) // called with the argument vector just before start
	Bin     string
	Dir     string
}

// New returns a dispatcher bound to the resolved project root in cfg.
func New(cfg *config.Config, log *logger.Logger) *Yarn {
	return &Yarn{
		Bin: Detect(cfg.Bin),
		Dir: cfg.Root,
		Log: log,
	}
}

// Detect returns bin if it is on PATH. Debian packages yarn as "yarnpkg", so
// that name is tried when "yarn" is missing. Otherwise bin is returned as is
// and the launch error surfaces on first use.
func Detect(bin string) string {
	if bin == "" {
		bin = "yarn"
	}
	if _, err := exec.LookPath(bin); err == nil {
		return bin
	}
	if bin == "yarn" {
		if _, err := exec.LookPath("yarnpkg"); err == nil {
			return "yarnpkg"
		}
	}
	return bin
}

// Name returns the executable this dispatcher runs.
func (y *Yarn) Name() string {
	if y.Bin == "" {
		return "yarn"
	}
	return y.Bin
}

// Exec runs yarn with primary followed by extra and waits for it to finish.
func (y *Yarn) Exec(ctx context.Context, primary, extra []string) Result {
	args := make([]string, 0, len(primary)+len(extra))
	args = append(args, primary...)
	args = append(args, extra...)

	bin := y.Name()
	log := y.logger()
	res := Result{Args: args}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = y.Dir
	cmd.Stdin = y.Stdin
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	cmd.Stdout = y.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = y.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if y.OnSpawn != nil {
		y.OnSpawn(args)
	}
	log.Debug("spawn", "bin", bin, "args", strings.Join(args, " "), "dir", y.Dir)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		res.Err = &LaunchError{Bin: bin, Dir: y.Dir, Err: err}
		log.Error("launch failed", "bin", bin, "err", err)
		return res
	}

	err := cmd.Wait()
	res.Duration = time.Since(start)
	if cmd.ProcessState != nil {
		res.Exited = true
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		// A plain non-zero exit is reported through ExitCode only.
		if !exitErr.Exited() {
			res.Err = fmt.Errorf("%s %s: %s", bin, strings.Join(args, " "), exitErr.ProcessState)
		}
	default:
		res.Err = fmt.Errorf("%s: %w", bin, err)
	}

	kv := []any{"args", strings.Join(args, " "), "code", res.ExitCode, "took", res.Duration.Round(time.Millisecond)}
	switch {
	case res.Err != nil:
		log.Error("yarn failed", append(kv, "err", res.Err)...)
	case res.ExitCode != 0:
		log.Warn("yarn exited non-zero", kv...)
	default:
		log.Info("yarn done", kv...)
	}
	return res
}

// Run is the asynchronous form of Exec. cb is called exactly once, from a new goroutine.
func (y *Yarn) Run(ctx context.Context, primary, extra []string, cb Callback) {
	go func() {
		res := y.Exec(ctx, primary, extra)
		if cb != nil {
			cb(res)
		}
	}()
}

// Link symlinks the current project (or the named packages) into the global registry.
func (y *Yarn) Link(ctx context.Context, args []string) Result {
	return y.Exec(ctx, []string{"link"}, args)
}

// Unlink removes a symlink created by Link.
func (y *Yarn) Unlink(ctx context.Context, args []string) Result {
	return y.Exec(ctx, []string{"unlink"}, args)
}

// Add installs packages and records them in package.json.
func (y *Yarn) Add(ctx context.Context, args []string) Result {
	return y.Exec(ctx, []string{"add"}, args)
}

// Install installs every dependency of the project.
func (y *Yarn) Install(ctx context.Context, args []string) Result {
	return y.Exec(ctx, []string{"install"}, args)
}

// Outdated checks for outdated dependencies.
func (y *Yarn) Outdated(ctx context.Context, args []string) Result {
	return y.Exec(ctx, []string{"outdated"}, args)
}

// Upgrade upgrades dependencies within their declared ranges.
func (y *Yarn) Upgrade(ctx context.Context, args []string) Result {
	return y.Exec(ctx, []string{"upgrade"}, args)
}

// Remove uninstalls packages and drops them from package.json.
func (y *Yarn) Remove(ctx context.Context, args []string) Result {
	return y.Exec(ctx, []string{"remove"}, args)
}

// Why explains why a package is installed.
func (y *Yarn) Why(ctx context.Context, args []string) Result {
	return y.Exec(ctx, []string{"why"}, args)
}

func (y *Yarn) logger() *logger.Logger {
	if y.Log == nil {
		return logger.NewDiscard()
	}
	return y.Log
}
