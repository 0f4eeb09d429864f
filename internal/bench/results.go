package bench

import (
	"encoding/json"
	"fmt"
	"os"
)

// Results is what the Truffle test writes after deploying every contract.
type Results struct {
	ContractNames []string          `json:"contract_names"`
	Codesize      map[string]int    `json:"codesize"`
	DeploymentGas map[string]int    `json:"deploymentGas"`
	UsageGas      map[string]int    `json:"usageGas"`
	Bytecode      map[string]string `json:"bytecode"`
}

// Metric selects one row of the comparison.
type Metric string

const (
	MetricCodesize      Metric = "codesize"
	MetricDeploymentGas Metric = "deploymentGas"
	MetricUsageGas      Metric = "usageGas"
)

// Label is the row title for m.
func (m Metric) Label() string {
	switch m {
	case MetricCodesize:
		return "contract bytecode size"
	case MetricDeploymentGas:
		return "deployment gas cost"
	case MetricUsageGas:
		return "function call gas cost"
	}
	return string(m)
}

// Values returns the metric for every contract in column order. Missing
// entries read as 0.
func (r *Results) Values(m Metric) []int {
	src := r.metric(m)
	out := make([]int, len(r.ContractNames))
	for i, name := range r.ContractNames {
		out[i] = src[name]
	}
	return out
}

func (r *Results) metric(m Metric) map[string]int {
	switch m {
	case MetricCodesize:
		return r.Codesize
	case MetricDeploymentGas:
		return r.DeploymentGas
	case MetricUsageGas:
		return r.UsageGas
	}
	return nil
}

// ReadResults decodes a results file.
func ReadResults(path string) (*Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	var r Results
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse results %s: %w", path, err)
	}
	if len(r.ContractNames) == 0 {
		return nil, fmt.Errorf("results %s contain no contracts", path)
	}
	return &r, nil
}
