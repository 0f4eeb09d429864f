// Package bench drives a Truffle test run that deploys several contracts and
// compares their code size and gas usage.
package bench

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	DefaultSolcVersion = "0.5.9"
	DefaultEVMVersion  = "petersburg"

	DefaultNetworkHost = "127.0.0.1"
	DefaultNetworkPort = 8545
	DefaultNetworkID   = "*"
	DefaultNetworkGas  = 7_000_000
)

// EVMVersions lists the EVM versions accepted by --evm.
var EVMVersions = []string{
	"homestead",
	"tangerineWhistle",
	"spuriousDragon",
	"byzantium",
	"constantinople",
	"petersburg",
}

// NodeConfig points Truffle at an external Ethereum node. The zero value
// means the built-in Truffle VM is used.
type NodeConfig struct {
	Host       string `json:"host,omitempty" jsonschema:"title=Host,description=Host or IP address of the Ethereum node"`
	Port       int    `json:"port,omitempty" jsonschema:"title=Port,description=Port of the Ethereum node"`
	ID         string `json:"id,omitempty" jsonschema:"title=Network ID,description=Network id of the Ethereum node"`
	Websockets bool   `json:"websockets,omitempty" jsonschema:"title=Websockets,description=Use websockets to talk to the node"`
	GasLimit   int    `json:"gasLimit,omitempty" jsonschema:"title=Gas Limit,description=Network gas limit"`
}

// IsSet reports whether any node option was given.
func (n NodeConfig) IsSet() bool {
	return n.Host != "" || n.Port != 0 || n.ID != "" || n.Websockets || n.GasLimit != 0
}

// Config represents one benchmark invocation.
type Config struct {
	Contracts      []string   `json:"contracts" jsonschema:"title=Contracts,description=Solidity contract paths or glob patterns"`
	SolcVersion    string     `json:"solc,omitempty" jsonschema:"title=Solc Version,description=Solidity compiler version,default=0.5.9"`
	EVMVersion     string     `json:"evm,omitempty" jsonschema:"title=EVM Version,enum=homestead,enum=tangerineWhistle,enum=spuriousDragon,enum=byzantium,enum=constantinople,enum=petersburg,default=petersburg"`
	OptimizerRuns  int        `json:"optimizer,omitempty" jsonschema:"title=Optimizer Runs,description=Number of optimizer runs; 0 disables the optimizer,minimum=0"`
	FunctionCall   string     `json:"function,omitempty" jsonschema:"title=Function,description=Function to call on every contract e.g. testFn(2)"`
	DisassemblyDir string     `json:"disassemble,omitempty" jsonschema:"title=Disassembly Directory,description=Directory to write contract disassemblies to"`
	Node           NodeConfig `json:"node,omitempty" jsonschema:"title=Node,description=External Ethereum node"`
}

// DefaultConfig returns a Config with the compiler defaults filled in.
func DefaultConfig() Config {
	return Config{
		SolcVersion: DefaultSolcVersion,
		EVMVersion:  DefaultEVMVersion,
	}
}

// LoadConfig reads a JSON config file on top of the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the options Truffle cannot be trusted to reject.
func (c Config) Validate() error {
	var errs []error
	if len(c.Contracts) == 0 {
		errs = append(errs, errors.New("missing required option --contracts"))
	}
	if !slices.Contains(EVMVersions, c.EVMVersion) {
		errs = append(errs, fmt.Errorf("invalid evm version %q, must be one of %s",
			c.EVMVersion, strings.Join(EVMVersions, ", ")))
	}
	if c.OptimizerRuns < 0 {
		errs = append(errs, fmt.Errorf("optimizer runs must not be negative, got %d", c.OptimizerRuns))
	}
	if c.Node.Port < 0 || c.Node.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid node port %d", c.Node.Port))
	}
	return errors.Join(errs...)
}

// ResolveContracts expands glob patterns relative to cwd into absolute
// paths, keeping the order in which the patterns were given.
func (c Config) ResolveContracts(cwd string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	for _, pattern := range c.Contracts {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(cwd, pattern)
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad contract pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no contract matches %s", pattern)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	return paths, nil
}
