package bench

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DeployTest is the truffle test that deploys the contracts listed in
// config.json and writes the results file.
//
//go:embed truffle/deploy.spec.js
var DeployTest []byte

// Workspace is the Truffle project the benchmark runs in. Everything it
// creates is temporary and removed by Cleanup.
type Workspace struct {
	Root string

	// scratch marks a Root created by NewScratchWorkspace, removed as a
	// whole by Cleanup.
	scratch bool
}

// NewScratchWorkspace creates an empty Truffle project in a temporary
// directory. When project holds a node_modules directory it is linked into
// the scratch project so the project's truffle install is used. Nothing is
// written into project itself.
func NewScratchWorkspace(project string) (Workspace, error) {
	root, err := os.MkdirTemp("", "gascompare-*")
	if err != nil {
		return Workspace{}, fmt.Errorf("failed to create scratch project: %w", err)
	}
	w := Workspace{Root: root, scratch: true}

	modules := filepath.Join(project, "node_modules")
	if fi, err := os.Stat(modules); err == nil && fi.IsDir() {
		if err := os.Symlink(modules, filepath.Join(root, "node_modules")); err != nil {
			_ = w.Cleanup()
			return Workspace{}, fmt.Errorf("failed to link node_modules: %w", err)
		}
	}
	return w, nil
}

func (w Workspace) ContractDir() string    { return filepath.Join(w.Root, "contracts", "testrun") }
func (w Workspace) OutputDir() string      { return filepath.Join(w.Root, "test", "testrun") }
func (w Workspace) ConfigFile() string     { return filepath.Join(w.ContractDir(), "config.json") }
func (w Workspace) DeployTestFile() string { return filepath.Join(w.OutputDir(), "deploy.spec.js") }
func (w Workspace) ResultsFile() string    { return filepath.Join(w.OutputDir(), "test_output.txt") }
func (w Workspace) TruffleOutput() string  { return filepath.Join(w.OutputDir(), "truffle_output.txt") }
func (w Workspace) TruffleConfig() string  { return filepath.Join(w.Root, "truffle-config.js") }
func (w Workspace) TruffleBin() string {
	return filepath.Join(w.Root, "node_modules", ".bin", "truffle")
}

// RunConfig is read by the Truffle test to know what to deploy and call.
type RunConfig struct {
	ContractNames  []string `json:"contract_names"`
	FunctionCall   string   `json:"fn_call,omitempty"`
	OutputFilePath string   `json:"output_file_path"`
}

// Setup creates the test run directories, copies the contracts in, writes
// config.json and the deployment test. The contract order in config.json is the order of
// paths, which is also the column order of the final table.
func (w Workspace) Setup(paths []string, fnCall string) error {
	for _, dir := range []string{w.ContractDir(), w.OutputDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read contract: %w", err)
		}
		dst := filepath.Join(w.ContractDir(), filepath.Base(p))
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return fmt.Errorf("failed to copy contract %s: %w", filepath.Base(p), err)
		}
	}

	rc := RunConfig{
		ContractNames:  paths,
		FunctionCall:   fnCall,
		OutputFilePath: w.ResultsFile(),
	}
	data, err := json.MarshalIndent(rc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run config: %w", err)
	}
	if err := os.WriteFile(w.ConfigFile(), data, 0o644); err != nil {
		return fmt.Errorf("failed to write run config: %w", err)
	}
	if err := os.WriteFile(w.DeployTestFile(), DeployTest, 0o644); err != nil {
		return fmt.Errorf("failed to write deployment test: %w", err)
	}
	return nil
}

// Cleanup removes every file Setup and the run created. A scratch
// workspace is removed entirely; the node_modules link goes with it, the
// linked directory stays.
func (w Workspace) Cleanup() error {
	if w.scratch {
		return os.RemoveAll(w.Root)
	}
	var errs []error
	for _, p := range []string{w.ContractDir(), w.OutputDir(), w.TruffleConfig()} {
		if err := os.RemoveAll(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
