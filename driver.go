package compat

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Driver runs probing sessions over a catalog, one library at a time.
//
// The catalog and version list are injected so the search and probe logic
// never depend on a particular set of libraries.
type Driver struct {
	eco      Ecosystem
	catalog  []Library
	versions []string
	log      *zap.Logger
	out      io.Writer
	runID    string
}

// NewDriver validates versions and catalog and creates a driver.
//
// Catalog entries without a constraint get the ecosystem default. Progress
// lines are written to out; structured diagnostics go to log.
func NewDriver(eco Ecosystem, catalog []Library, versions []string, log *zap.Logger, out io.Writer) (*Driver, error) {
	if eco == nil {
		return nil, fmt.Errorf("ecosystem is required")
	}
	if err := ValidateVersions(versions); err != nil {
		return nil, err
	}
	libs, err := normalizeCatalog(catalog, eco.DefaultConstraint())
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}

	runID := uuid.NewString()
	return &Driver{
		eco:      eco,
		catalog:  libs,
		versions: append([]string(nil), versions...),
		log:      log.With(zap.String("run_id", runID), zap.String("ecosystem", eco.Name())),
		out:      out,
		runID:    runID,
	}, nil
}

// RunID identifies this driver's run in logs.
func (d *Driver) RunID() string {
	return d.runID
}

// Lookup finds a catalog entry by exact name.
func (d *Driver) Lookup(name string) (Library, bool) {
	for _, lib := range d.catalog {
		if lib.Name == name {
			return lib, true
		}
	}
	return Library{}, false
}

// RunBatch probes the control case and then every catalog entry in order.
//
// A library whose session fails is recorded with its error message and no
// optional fields; the batch continues with the next library. Only a
// cancelled context stops the batch early, in which case the results so far
// are returned together with the context error.
func (d *Driver) RunBatch(ctx context.Context) ([]Result, error) {
	fmt.Fprintln(d.out, "Starting dependency toolchain compatibility experiment")
	fmt.Fprintf(d.out, "Testing %d libraries across %d %s versions\n", len(d.catalog), len(d.versions), d.eco.ToolchainLabel())
	d.log.Info("starting batch", zap.Int("libraries", len(d.catalog)), zap.Int("versions", len(d.versions)))

	results := make([]Result, 0, len(d.catalog)+1)

	fmt.Fprintln(d.out, "\n=== Testing control case (no dependencies) ===")
	control := d.runOne(ctx, nil)
	results = append(results, control)

	for i := range d.catalog {
		if err := ctx.Err(); err != nil {
			d.log.Warn("batch interrupted", zap.Int("completed", len(results)), zap.Error(err))
			return results, err
		}

		lib := d.catalog[i]
		fmt.Fprintf(d.out, "\n=== Testing %s ===\n", lib.Name)
		results = append(results, d.runOne(ctx, &lib))
	}

	d.log.Info("batch finished", zap.Int("results", len(results)))
	return results, nil
}

// RunSingle probes one library by name.
//
// Names missing from the catalog are probed with the ecosystem's default
// constraint after a warning. The returned error is non-nil when the
// session failed outright (scaffold or resolve); finding no compatible
// release is not an error.
func (d *Driver) RunSingle(ctx context.Context, name string) (Result, error) {
	lib, ok := d.Lookup(name)
	if !ok {
		lib = Library{Name: name, Constraint: d.eco.DefaultConstraint()}
		fmt.Fprintf(d.out, "Warning: '%s' not found in predefined list\n", name)
		fmt.Fprintf(d.out, "Testing anyway with version spec '%s'...\n", lib.Constraint)
		d.log.Warn("library not in catalog", zap.String("library", name), zap.String("constraint", lib.Constraint))
	}

	fmt.Fprintf(d.out, "\n=== Testing %s (version spec: %s) ===\n", lib.Name, lib.Constraint)

	result, err := NewSession(d.eco, d.versions, d.log, d.out).Run(ctx, &lib)
	if err != nil {
		d.log.Error("probe failed", zap.String("library", lib.Name), zap.Error(err))
		return errorResult(&lib, err), err
	}

	fmt.Fprintf(d.out, "\nResults for %s:\n", lib.Name)
	fmt.Fprintf(d.out, "  Dependency spec: %s\n", result.DependencySpec)
	fmt.Fprintf(d.out, "  Resolved version: %s\n", ptrString(result.ResolvedVersion))
	fmt.Fprintf(d.out, "  Oldest compatible: %s\n", ptrString(result.OldestCompatible))
	fmt.Fprintf(d.out, "  Latest compatible: %s\n", ptrString(result.LatestCompatible))
	return result, nil
}

// runOne runs a session and converts a failure into an error record.
func (d *Driver) runOne(ctx context.Context, lib *Library) Result {
	result, err := NewSession(d.eco, d.versions, d.log, d.out).Run(ctx, lib)
	if err != nil {
		failed := errorResult(lib, err)
		fmt.Fprintf(d.out, "%s failed: %v\n", failed.Name, err)

		kind, _ := KindOf(err)
		d.log.Error("probe failed",
			zap.String("library", failed.Name),
			zap.Stringer("kind", kind),
			zap.Bool("fatal", kind.Fatal()),
			zap.Error(err))
		return failed
	}

	fmt.Fprintf(d.out, "%s: oldest=%s, latest=%s\n",
		result.Name, ptrString(result.OldestCompatible), ptrString(result.LatestCompatible))
	return result
}

func errorResult(lib *Library, err error) Result {
	result := newResult(lib)
	result.Error = stringPtr(err.Error())
	return result
}
