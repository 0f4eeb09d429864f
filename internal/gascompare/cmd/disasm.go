package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"gascompare/internal/disasm"
	"gascompare/internal/ui/colorize"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm [name=]<bytecode|file|->...",
	Short: "Disassemble contract bytecode into basic blocks",
	Long: `Disassemble EVM runtime bytecode. Every JUMPDEST starts a new block and
push values that are valid jump destinations are annotated with their
decimal value. With --out one <name>_opcodes.txt file is written per
contract, otherwise the listings are printed.`,
	Example: `
# Print a listing
gascompare disasm 0x5b6004565b

# Write the disassemblies of a results file
gascompare disasm --results test_output.txt --out ./out
  `,
	RunE: func(cmd *cobra.Command, args []string) error {
		resultsPath, _ := cmd.Flags().GetString("results")
		outDir, _ := cmd.Flags().GetString("out")

		bytecodes, err := collectBytecodes(args, resultsPath, stdinReader())
		if err != nil {
			return err
		}
		slog.Debug("Disassembling", "contracts", len(bytecodes), "out", outDir)

		if outDir != "" {
			err := disasm.WriteFiles(cmd.Context(), outDir, bytecodes)
			failed := contractErrorNames(err)
			if err != nil && len(failed) == 0 {
				return err
			}
			written := len(bytecodes) - len(failed)
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d disassemblies to %s\n", written, outDir)
			return err
		}
		return printListings(cmd, bytecodes, useColor())
	},
}

func printListings(cmd *cobra.Command, bytecodes map[string]string, color bool) error {
	listings, err := disasm.DisassembleAll(cmd.Context(), bytecodes)
	w := cmd.OutOrStdout()
	for i, l := range listings {
		if len(bytecodes) > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "== %s ==\n", l.Name)
		}
		writeListing(w, l.Text, color)
	}
	return err
}

func writeListing(w io.Writer, text string, color bool) {
	if color {
		if colored, err := colorize.ColorizeListing(text); err == nil {
			fmt.Fprint(w, colored)
			return
		}
	}
	fmt.Fprintln(w, text)
}

func init() {
	disasmCmd.Flags().StringP("out", "o", "", "Directory to write <name>_opcodes.txt files to")
	disasmCmd.Flags().String("results", "", "Results file whose bytecode map is disassembled")
}
