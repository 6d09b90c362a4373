// Package deps installs packages into one dependency category. When no
// names are given it re-installs whatever package.json already lists under
// that category, and does nothing when the section is empty.
package deps

import (
	"context"
	"strings"

	"github.com/kb-labs/yarn/internal/config"
	"github.com/kb-labs/yarn/internal/logger"
	"github.com/kb-labs/yarn/internal/manifest"
	"github.com/kb-labs/yarn/internal/pm"
)

// Dispatcher runs one yarn invocation. *pm.Yarn implements it.
type Dispatcher interface {
	Exec(ctx context.Context, primary, extra []string) pm.Result
}

// Resolver defaults package names from the manifest and hands them to the dispatcher.
// It keeps no state between calls; every defaulting call reads the manifest again.
type Resolver struct {
	Yarn         Dispatcher
	Log          *logger.Logger
	ManifestPath string
}

// New returns a resolver reading the manifest found by cfg.Resolve.
func New(y Dispatcher, cfg *config.Config, log *logger.Logger) *Resolver {
	return &Resolver{Yarn: y, Log: log, ManifestPath: cfg.ManifestPath}
}

// Pending returns the names Install would pass to yarn for cat.
// Explicit names win. Otherwise the manifest section for cat is read; a
// read or parse failure is returned as a *manifest.ReadError.
func (r *Resolver) Pending(cat Category, names []string) ([]string, error) {
	flat := pm.Flatten(names)
	if len(flat) > 0 || cat.Key() == "" {
		return flat, nil
	}

	m, err := manifest.Load(r.ManifestPath)
	if err != nil {
		return nil, err
	}
	return m.Names(cat.Key()), nil
}

// Install resolves names for cat and runs yarn once. When there is nothing
// to install it returns the zero Result without spawning.
func (r *Resolver) Install(ctx context.Context, cat Category, names []string) pm.Result {
	pending, err := r.Pending(cat, names)
	if err != nil {
		r.logger().Error("resolve packages", "category", cat, "err", err)
		return pm.Result{Err: err}
	}
	return r.Apply(ctx, cat, pending)
}

// InstallAsync is the callback form of Install. Resolution happens before it
// returns: a manifest error or an empty list invokes cb synchronously.
// Otherwise yarn runs on a new goroutine and cb fires once when it finishes.
func (r *Resolver) InstallAsync(ctx context.Context, cat Category, names []string, cb pm.Callback) {
	if cb == nil {
		cb = func(pm.Result) {}
	}
	pending, err := r.Pending(cat, names)
	if err != nil {
		r.logger().Error("resolve packages", "category", cat, "err", err)
		cb(pm.Result{Err: err})
		return
	}
	if len(pending) == 0 {
		cb(r.Apply(ctx, cat, nil))
		return
	}
	go func() {
		cb(r.Apply(ctx, cat, pending))
	}()
}

// Apply installs exactly names into cat, without manifest defaulting.
// An empty list is a no-op.
func (r *Resolver) Apply(ctx context.Context, cat Category, names []string) pm.Result {
	if len(names) == 0 {
		r.logger().Info("nothing to install", "category", cat)
		return pm.Result{}
	}

	var extra []string
	if flag := cat.Flag(); flag != "" {
		extra = append(extra, flag)
	}
	extra = append(extra, names...)

	r.logger().Debug("install", "category", cat, "packages", strings.Join(names, " "))
	return r.Yarn.Exec(ctx, cat.Subcommand(), extra)
}

// Dependencies installs into dependencies.
func (r *Resolver) Dependencies(ctx context.Context, names []string) pm.Result {
	return r.Install(ctx, Dependencies, names)
}

// DevDependencies installs into devDependencies (yarn add -D).
func (r *Resolver) DevDependencies(ctx context.Context, names []string) pm.Result {
	return r.Install(ctx, DevDependencies, names)
}

// PeerDependencies installs into peerDependencies (yarn add -P).
func (r *Resolver) PeerDependencies(ctx context.Context, names []string) pm.Result {
	return r.Install(ctx, PeerDependencies, names)
}

// OptionalDependencies installs into optionalDependencies (yarn add -O).
func (r *Resolver) OptionalDependencies(ctx context.Context, names []string) pm.Result {
	return r.Install(ctx, OptionalDependencies, names)
}

// Global installs packages globally (yarn global add). It never reads the manifest.
func (r *Resolver) Global(ctx context.Context, names []string) pm.Result {
	return r.Install(ctx, Global, names)
}

func (r *Resolver) logger() *logger.Logger {
	if r.Log == nil {
		return logger.NewDiscard()
	}
	return r.Log
}
