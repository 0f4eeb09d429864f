package cmd

import (
	"fmt"
	"io"
	"os"
	pathpkg "path/filepath"
	"strings"

	"github.com/charmbracelet/x/term"

	"gascompare/internal/bench"
)

// collectBytecodes builds the contract name -> bytecode map the disasm and
// view commands work on. Each arg is one of
//
//	name=0x6080...   inline bytecode with an explicit name
//	path/to/A.bin    file holding hex bytecode, named after the file
//	0x6080...        inline bytecode, named contract<N>
//	-                bytecode read from stdin
//
// and resultsPath, when set, adds the bytecode map of a results file.
func collectBytecodes(args []string, resultsPath string, stdin io.Reader) (map[string]string, error) {
	bytecodes := make(map[string]string)
	add := func(name, code string) error {
		if _, dup := bytecodes[name]; dup {
			return fmt.Errorf("contract %s given more than once", name)
		}
		bytecodes[name] = code
		return nil
	}

	if resultsPath != "" {
		results, err := bench.ReadResults(resultsPath)
		if err != nil {
			return nil, err
		}
		for name, code := range results.Bytecode {
			if err := add(name, code); err != nil {
				return nil, err
			}
		}
	}

	for i, arg := range args {
		name, value, named := strings.Cut(arg, "=")
		if !named {
			name, value = "", arg
		}

		var code string
		switch {
		case value == "-":
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("failed to read stdin: %w", err)
			}
			code = string(data)
			if name == "" {
				name = "stdin"
			}
		case fileExists(value):
			data, err := os.ReadFile(value)
			if err != nil {
				return nil, fmt.Errorf("failed to read bytecode: %w", err)
			}
			code = string(data)
			if name == "" {
				base := pathpkg.Base(value)
				name = strings.TrimSuffix(base, pathpkg.Ext(base))
			}
		default:
			code = value
			if name == "" {
				name = fmt.Sprintf("contract%d", i+1)
			}
		}

		if err := add(name, strings.TrimSpace(code)); err != nil {
			return nil, err
		}
	}

	if len(bytecodes) == 0 {
		return nil, fmt.Errorf("no bytecode given")
	}
	return bytecodes, nil
}

func fileExists(path string) bool {
	if strings.HasPrefix(path, "0x") {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// stdinReader returns stdin when something is piped into it.
func stdinReader() io.Reader {
	if term.IsTerminal(os.Stdin.Fd()) {
		return strings.NewReader("")
	}
	return os.Stdin
}
