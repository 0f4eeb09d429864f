package bench

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// TruffleConfig mirrors the parts of truffle-config.js the benchmark sets.
type TruffleConfig struct {
	Compilers Compilers `json:"compilers"`
	Networks  *Networks `json:"networks,omitempty"`
}

type Compilers struct {
	Solc SolcConfig `json:"solc"`
}

type SolcConfig struct {
	Version  string       `json:"version"`
	Settings SolcSettings `json:"settings"`
}

type SolcSettings struct {
	Optimizer  Optimizer `json:"optimizer"`
	EVMVersion string    `json:"evmVersion"`
}

type Optimizer struct {
	Enabled bool `json:"enabled"`
	Runs    int  `json:"runs"`
}

type Networks struct {
	Development Network `json:"development"`
}

// Network is a truffle network entry. NetworkID is either "*" or a number.
type Network struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	NetworkID  any    `json:"network_id"`
	Gas        int    `json:"gas"`
	Websockets bool   `json:"websockets"`
}

// NewTruffleConfig builds the truffle config for cfg. The development
// network is only emitted when a node option was given.
func NewTruffleConfig(cfg Config) TruffleConfig {
	tc := TruffleConfig{
		Compilers: Compilers{Solc: SolcConfig{
			Version: cfg.SolcVersion,
			Settings: SolcSettings{
				Optimizer:  Optimizer{Enabled: cfg.OptimizerRuns > 0, Runs: cfg.OptimizerRuns},
				EVMVersion: cfg.EVMVersion,
			},
		}},
	}
	if cfg.Node.IsSet() {
		tc.Networks = &Networks{Development: NewNetwork(cfg.Node)}
	}
	return tc
}

// NewNetwork applies the network defaults to the given node options.
func NewNetwork(n NodeConfig) Network {
	net := Network{
		Host:       n.Host,
		Port:       n.Port,
		NetworkID:  DefaultNetworkID,
		Gas:        n.GasLimit,
		Websockets: n.Websockets,
	}
	if net.Host == "" {
		net.Host = DefaultNetworkHost
	}
	if net.Port == 0 {
		net.Port = DefaultNetworkPort
	}
	if net.Gas == 0 {
		net.Gas = DefaultNetworkGas
	}
	if n.ID != "" {
		if id, err := strconv.Atoi(n.ID); err == nil {
			net.NetworkID = id
		}
	}
	return net
}

// Render produces the contents of truffle-config.js.
func (tc TruffleConfig) Render() ([]byte, error) {
	body, err := json.MarshalIndent(tc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal truffle config: %w", err)
	}
	return append([]byte("module.exports = "), body...), nil
}

// WriteTruffleConfig writes truffle-config.js to path.
func WriteTruffleConfig(path string, tc TruffleConfig) error {
	data, err := tc.Render()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write truffle config: %w", err)
	}
	return nil
}

// Summary is the one line description of the node printed before a run.
func (n Network) Summary() string {
	ws := "no"
	if n.Websockets {
		ws = "yes"
	}
	return fmt.Sprintf("host: %s | port: %d | id: %v | ws: %s | gas limit: %d",
		n.Host, n.Port, n.NetworkID, ws, n.Gas)
}
