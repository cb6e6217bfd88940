package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	compat "github.com/contriboss/toolchain-compat"
)

// stubEcosystem builds every library on every release at or above since.
type stubEcosystem struct {
	since      string
	resolveErr error
}

func (s *stubEcosystem) Name() string                     { return "stub" }
func (s *stubEcosystem) ToolchainLabel() string           { return "Stub" }
func (s *stubEcosystem) Versions() []string               { return []string{"1.0.0", "1.1.0", "1.2.0"} }
func (s *stubEcosystem) DefaultCatalog() []compat.Library { return nil }
func (s *stubEcosystem) DefaultConstraint() string        { return "1" }

func (s *stubEcosystem) Scaffold(context.Context, *compat.Library) (*compat.Project, error) {
	return &compat.Project{}, nil
}

func (s *stubEcosystem) Resolve(context.Context, *compat.Project, compat.Library) (string, error) {
	if s.resolveErr != nil {
		return "", s.resolveErr
	}
	return "1.0.3", nil
}

func (s *stubEcosystem) Probe(_ context.Context, _ *compat.Project, version string) (bool, error) {
	return compat.AtLeast(version, s.since), nil
}

func newStubDriver(t *testing.T, eco compat.Ecosystem, catalog []compat.Library, out *bytes.Buffer) *compat.Driver {
	t.Helper()
	driver, err := compat.NewDriver(eco, catalog, eco.Versions(), zap.NewNop(), out)
	require.NoError(t, err)
	return driver
}

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmdTooManyArgs(t *testing.T) {
	_, err := executeRoot(t, "serde", "log")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts at most 1 arg")
}

func TestRootCmdUnknownEcosystem(t *testing.T) {
	_, err := executeRoot(t, "--ecosystem", "ruby", "--skip-tool-check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown ecosystem "ruby"`)
}

func TestRootCmdMissingCatalog(t *testing.T) {
	_, err := executeRoot(t, "--catalog", filepath.Join(t.TempDir(), "catalog.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read catalog")
}

func TestRootCmdCatalogSelectsEcosystem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ecosystem: cobol\n"), 0o644))

	_, err := executeRoot(t, "--catalog", path, "--skip-tool-check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown ecosystem "cobol"`)
}

func TestRunBatchWritesResults(t *testing.T) {
	var out bytes.Buffer
	driver := newStubDriver(t, &stubEcosystem{since: "1.1.0"}, []compat.Library{{Name: "demo", Constraint: "1"}}, &out)
	output := filepath.Join(t.TempDir(), compat.BatchFilename)

	require.NoError(t, runBatch(context.Background(), driver, output, &out))
	assert.Contains(t, out.String(), "=== Results written to "+output+" ===")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var results []compat.Result
	require.NoError(t, json.Unmarshal(data, &results))
	require.Len(t, results, 2)
	assert.Equal(t, compat.ControlName, results[0].Name)
	assert.Equal(t, "demo", results[1].Name)
	require.NotNil(t, results[1].OldestCompatible)
	assert.Equal(t, "1.1.0", *results[1].OldestCompatible)
}

func TestRunBatchInterrupted(t *testing.T) {
	driver := newStubDriver(t, &stubEcosystem{since: "1.0.0"}, []compat.Library{{Name: "demo"}}, &bytes.Buffer{})
	output := filepath.Join(t.TempDir(), compat.BatchFilename)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runBatch(ctx, driver, output, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interrupted after 1 results")

	_, statErr := os.Stat(output)
	assert.NoError(t, statErr, "partial results are still written")
}

func TestRunSingle(t *testing.T) {
	var out bytes.Buffer
	driver := newStubDriver(t, &stubEcosystem{since: "1.2.0"}, nil, &out)
	output := filepath.Join(t.TempDir(), "result-demo.json")

	require.NoError(t, runSingle(context.Background(), driver, "demo", output, &out))
	assert.Contains(t, out.String(), "Testing single library: demo")
	assert.Contains(t, out.String(), "Warning: 'demo' not found in predefined list")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var result compat.Result
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "demo", result.Name)
	assert.Equal(t, "1", result.DependencySpec)
	require.NotNil(t, result.ResolvedVersion)
	assert.Equal(t, "1.0.3", *result.ResolvedVersion)
}

func TestRunSingleFailure(t *testing.T) {
	boom := errors.New("no matching package")
	driver := newStubDriver(t, &stubEcosystem{resolveErr: boom}, nil, &bytes.Buffer{})
	output := filepath.Join(t.TempDir(), "result-demo.json")

	err := runSingle(context.Background(), driver, "demo", output, &bytes.Buffer{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to test demo")

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "no result file on failure")

	assert.Error(t, runSingle(context.Background(), driver, "", output, &bytes.Buffer{}))
}

func TestEnvOr(t *testing.T) {
	t.Setenv("COMPAT_TEST_VALUE", " go ")
	assert.Equal(t, "go", envOr("COMPAT_TEST_VALUE", "rust"))
	assert.Equal(t, "rust", envOr("COMPAT_TEST_UNSET_VALUE", "rust"))
}
