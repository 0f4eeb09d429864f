package bench

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestRunnerSuccess(t *testing.T) {
	requireShell(t)

	ws := Workspace{Root: t.TempDir()}
	if err := ws.Setup(nil, ""); err != nil {
		t.Fatal(err)
	}
	results := `{"contract_names":["A"],"codesize":{"A":10},"deploymentGas":{"A":100},"usageGas":{},"bytecode":{"A":"0x00"}}`
	r := &Runner{
		Workspace: ws,
		Command: []string{"sh", "-c",
			"echo compiling; echo deploying; printf '%s' '" + results + "' > \"$OUTPUT_FILE_PATH\""},
	}

	got, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got.Codesize["A"] != 10 || got.Bytecode["A"] != "0x00" {
		t.Errorf("unexpected results: %+v", got)
	}

	out, err := os.ReadFile(ws.TruffleOutput())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "deploying") {
		t.Errorf("truffle stdout not captured: %q", out)
	}
}

func TestRunnerFailure(t *testing.T) {
	requireShell(t)

	ws := Workspace{Root: t.TempDir()}
	if err := ws.Setup(nil, ""); err != nil {
		t.Fatal(err)
	}
	r := &Runner{
		Workspace: ws,
		Command:   []string{"sh", "-c", "echo 'ParserError: Expected pragma'; exit 1"},
	}

	_, err := r.Run(context.Background())
	var te *TruffleError
	if !errors.As(err, &te) {
		t.Fatalf("Run error = %v, want *TruffleError", err)
	}
	if !strings.Contains(te.Output, "ParserError") {
		t.Errorf("TruffleError output = %q, want the compiler error", te.Output)
	}
}

func TestRunnerMissingResults(t *testing.T) {
	requireShell(t)

	ws := Workspace{Root: t.TempDir()}
	if err := ws.Setup(nil, ""); err != nil {
		t.Fatal(err)
	}
	r := &Runner{Workspace: ws, Command: []string{"sh", "-c", "true"}}
	if _, err := r.Run(context.Background()); err == nil {
		t.Fatal("Run succeeded without a results file")
	}
}
