package bench

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "no contracts", mutate: func(c *Config) { c.Contracts = nil }, wantErr: "--contracts"},
		{name: "unknown evm", mutate: func(c *Config) { c.EVMVersion = "cancun" }, wantErr: "invalid evm version"},
		{name: "negative optimizer", mutate: func(c *Config) { c.OptimizerRuns = -1 }, wantErr: "optimizer runs"},
		{name: "bad port", mutate: func(c *Config) { c.Node.Port = 70000 }, wantErr: "node port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Contracts = []string{"a.sol"}
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.json")
	body := `{"contracts": ["A.sol"], "optimizer": 200, "node": {"port": 7545}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	want := Config{
		Contracts:     []string{"A.sol"},
		SolcVersion:   DefaultSolcVersion,
		EVMVersion:    DefaultEVMVersion,
		OptimizerRuns: 200,
		Node:          NodeConfig{Port: 7545},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("LoadConfig mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveContracts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"B.sol", "A.sol", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("contract X {}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := Config{Contracts: []string{"B.sol", "*.sol"}}
	got, err := cfg.ResolveContracts(dir)
	if err != nil {
		t.Fatalf("ResolveContracts failed: %v", err)
	}
	want := []string{filepath.Join(dir, "B.sol"), filepath.Join(dir, "A.sol")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResolveContracts mismatch (-want +got):\n%s", diff)
	}

	cfg = Config{Contracts: []string{"missing.sol"}}
	if _, err := cfg.ResolveContracts(dir); err == nil {
		t.Error("ResolveContracts accepted a pattern with no match")
	}
}

func TestTruffleConfig(t *testing.T) {
	t.Run("truffle vm", func(t *testing.T) {
		cfg := DefaultConfig()
		tc := NewTruffleConfig(cfg)
		if tc.Networks != nil {
			t.Fatal("networks emitted without node options")
		}
		if tc.Compilers.Solc.Settings.Optimizer.Enabled {
			t.Error("optimizer enabled with 0 runs")
		}
	})

	t.Run("external node", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.OptimizerRuns = 200
		cfg.Node = NodeConfig{ID: "4", Websockets: true}
		tc := NewTruffleConfig(cfg)
		if tc.Networks == nil {
			t.Fatal("networks missing with node options")
		}
		want := Network{Host: DefaultNetworkHost, Port: DefaultNetworkPort, NetworkID: 4, Gas: DefaultNetworkGas, Websockets: true}
		if diff := cmp.Diff(want, tc.Networks.Development); diff != "" {
			t.Errorf("network mismatch (-want +got):\n%s", diff)
		}
		if !tc.Compilers.Solc.Settings.Optimizer.Enabled {
			t.Error("optimizer disabled with 200 runs")
		}
	})

	t.Run("render", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "truffle-config.js")
		if err := WriteTruffleConfig(path, NewTruffleConfig(DefaultConfig())); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		body, ok := strings.CutPrefix(string(data), "module.exports = ")
		if !ok {
			t.Fatalf("missing module.exports prefix: %q", data)
		}
		var decoded map[string]any
		if err := json.Unmarshal([]byte(body), &decoded); err != nil {
			t.Fatalf("body is not JSON: %v", err)
		}
		if !strings.Contains(body, `"evmVersion": "petersburg"`) {
			t.Errorf("evmVersion missing from %s", body)
		}
	})
}

func TestNetworkSummary(t *testing.T) {
	n := NewNetwork(NodeConfig{Host: "10.0.0.1"})
	want := "host: 10.0.0.1 | port: 8545 | id: * | ws: no | gas limit: 7000000"
	if got := n.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestWorkspaceSetupAndCleanup(t *testing.T) {
	src := t.TempDir()
	contract := filepath.Join(src, "Token.sol")
	if err := os.WriteFile(contract, []byte("contract Token {}"), 0o644); err != nil {
		t.Fatal(err)
	}

	ws := Workspace{Root: t.TempDir()}
	if err := ws.Setup([]string{contract}, "transfer(1)"); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	copied, err := os.ReadFile(filepath.Join(ws.ContractDir(), "Token.sol"))
	if err != nil || string(copied) != "contract Token {}" {
		t.Fatalf("contract not copied: %q, %v", copied, err)
	}

	data, err := os.ReadFile(ws.ConfigFile())
	if err != nil {
		t.Fatal(err)
	}
	var rc RunConfig
	if err := json.Unmarshal(data, &rc); err != nil {
		t.Fatal(err)
	}
	want := RunConfig{ContractNames: []string{contract}, FunctionCall: "transfer(1)", OutputFilePath: ws.ResultsFile()}
	if diff := cmp.Diff(want, rc); diff != "" {
		t.Errorf("run config mismatch (-want +got):\n%s", diff)
	}

	deployTest, err := os.ReadFile(ws.DeployTestFile())
	if err != nil {
		t.Fatalf("deployment test not written: %v", err)
	}
	for _, want := range []string{"config.json", "output_file_path", "contract_names", "fn_call", "deploymentGas", "usageGas", "bytecode"} {
		if !bytes.Contains(deployTest, []byte(want)) {
			t.Errorf("deployment test does not reference %s", want)
		}
	}

	if err := ws.Cleanup(); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	for _, p := range []string{ws.ContractDir(), ws.OutputDir(), ws.TruffleConfig()} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s still exists after Cleanup", p)
		}
	}
}

func TestScratchWorkspace(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	project := t.TempDir()
	modules := filepath.Join(project, "node_modules", ".bin")
	if err := os.MkdirAll(modules, 0o755); err != nil {
		t.Fatal(err)
	}
	truffle := filepath.Join(modules, "truffle")
	if err := os.WriteFile(truffle, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	userConfig := filepath.Join(project, "truffle-config.js")
	if err := os.WriteFile(userConfig, []byte("module.exports = {};"), 0o644); err != nil {
		t.Fatal(err)
	}

	ws, err := NewScratchWorkspace(project)
	if err != nil {
		t.Fatalf("NewScratchWorkspace failed: %v", err)
	}
	if ws.Root == project || strings.HasPrefix(ws.Root, project+string(filepath.Separator)) {
		t.Fatalf("scratch root %s inside project %s", ws.Root, project)
	}
	if _, err := os.Stat(ws.TruffleBin()); err != nil {
		t.Errorf("project truffle not reachable from scratch project: %v", err)
	}

	if err := WriteTruffleConfig(ws.TruffleConfig(), NewTruffleConfig(DefaultConfig())); err != nil {
		t.Fatal(err)
	}
	if err := ws.Setup(nil, ""); err != nil {
		t.Fatal(err)
	}
	if err := ws.Cleanup(); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}

	if _, err := os.Stat(ws.Root); !os.IsNotExist(err) {
		t.Errorf("scratch root %s still exists", ws.Root)
	}
	if _, err := os.Stat(truffle); err != nil {
		t.Errorf("linked node_modules removed with the scratch project: %v", err)
	}
	if data, err := os.ReadFile(userConfig); err != nil || string(data) != "module.exports = {};" {
		t.Errorf("project truffle-config.js touched: %q, %v", data, err)
	}
}

func TestScratchWorkspaceWithoutModules(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	ws, err := NewScratchWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Cleanup()

	if _, err := os.Lstat(filepath.Join(ws.Root, "node_modules")); !os.IsNotExist(err) {
		t.Errorf("node_modules linked although the project has none")
	}
}
