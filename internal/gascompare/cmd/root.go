package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	pathpkg "path/filepath"
	"runtime/pprof"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"gascompare/internal/bench"
	"gascompare/internal/disasm"
	"gascompare/internal/gascompare/log"
	"gascompare/internal/ui/colorize"
)

func init() {
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	addBenchFlags(rootCmd)

	rootCmd.AddCommand(disasmCmd)
	rootCmd.AddCommand(tableCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(guideCmd)
}

// addBenchFlags defines the benchmark flags read by configFromFlags.
func addBenchFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolP("help", "h", false, "Help")
	f.StringSlice("contracts", nil, "Solidity contract path(s), supports glob")
	f.String("solc", bench.DefaultSolcVersion, "solc version to use")
	f.String("evm", bench.DefaultEVMVersion, "EVM version to use, one of "+strings.Join(bench.EVMVersions, ", "))
	f.Int("optimizer", 0, "Number of optimizer runs, 0 disables the optimizer")
	f.String("function", "", "Function to call, e.g. 'testFn(2)'")
	f.String("disassemble", "", "Directory to write contract disassemblies to")
	f.String("node-host", "", "Host/IP address of ethereum node")
	f.Int("node-port", 0, "Port of ethereum node")
	f.String("node-id", "", "Network id of ethereum node")
	f.Int("node-gas", 0, "Ethereum network gas limit")
	f.Bool("node-websockets", false, "Use websockets of ethereum node")
	f.String("config", "", "JSON config file, flags override its values")
	f.String("project", "", "Directory whose node_modules holds truffle (default: current directory)")
	f.String("cpuprofile", "", "Write CPU profile to file")
	f.String("memprofile", "", "Write memory profile to file")
}

var rootCmd = &cobra.Command{
	Use:   "gascompare",
	Short: "Compare bytecode size and gas cost of Solidity contracts",
	Long: `gascompare deploys several Solidity contracts with truffle and prints a
table comparing their bytecode size, deployment gas and, optionally, the gas
used by one function call. It can also write a basic-block disassembly of
every deployed contract.`,
	Example: `
# Compare two implementations
gascompare --contracts ./contracts/A.sol ./contracts/B.sol

# Call a function and keep the disassemblies
gascompare --contracts './contracts/*.sol' --function 'testFn(2)' --disassemble ./out
  `,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
			os.Setenv("GASCOMPARE_NO_COLOR", "1")
		}
		debug, _ := cmd.Flags().GetBool("debug")
		log.Setup(debug)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Setup CPU profiling if requested
		cpuprofile, _ := cmd.Flags().GetString("cpuprofile")
		if cpuprofile != "" {
			f, err := os.Create(cpuprofile)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %v", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %v", err)
			}
			defer pprof.StopCPUProfile()
		}

		// Setup memory profiling if requested
		memprofile, _ := cmd.Flags().GetString("memprofile")
		if memprofile != "" {
			defer func() {
				f, err := os.Create(memprofile)
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not create memory profile: %v\n", err)
					return
				}
				defer f.Close()
				if err := pprof.WriteHeapProfile(f); err != nil {
					fmt.Fprintf(os.Stderr, "could not write memory profile: %v\n", err)
				}
			}()
		}

		cwd, err := ResolveCwd(cmd)
		if err != nil {
			return err
		}

		// Positional args after --contracts are more contract paths.
		cfg, err := configFromFlags(cmd, args)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		project, _ := cmd.Flags().GetString("project")
		if project == "" {
			project = cwd
		}
		project, err = pathpkg.Abs(project)
		if err != nil {
			return fmt.Errorf("failed to resolve project path: %v", err)
		}

		return runBenchmark(cmd.Context(), cmd.OutOrStdout(), cfg, cwd, project, nil)
	},
}

// configFromFlags layers the optional config file, then every flag the user
// set explicitly, over the defaults.
func configFromFlags(cmd *cobra.Command, args []string) (bench.Config, error) {
	cfg := bench.DefaultConfig()
	flags := cmd.Flags()

	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := bench.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if flags.Changed("contracts") {
		cfg.Contracts, _ = flags.GetStringSlice("contracts")
	}
	cfg.Contracts = append(cfg.Contracts, args...)
	if flags.Changed("solc") {
		cfg.SolcVersion, _ = flags.GetString("solc")
	}
	if flags.Changed("evm") {
		cfg.EVMVersion, _ = flags.GetString("evm")
	}
	if flags.Changed("optimizer") {
		cfg.OptimizerRuns, _ = flags.GetInt("optimizer")
	}
	if flags.Changed("function") {
		cfg.FunctionCall, _ = flags.GetString("function")
	}
	if flags.Changed("disassemble") {
		cfg.DisassemblyDir, _ = flags.GetString("disassemble")
	}
	if flags.Changed("node-host") {
		cfg.Node.Host, _ = flags.GetString("node-host")
	}
	if flags.Changed("node-port") {
		cfg.Node.Port, _ = flags.GetInt("node-port")
	}
	if flags.Changed("node-id") {
		cfg.Node.ID, _ = flags.GetString("node-id")
	}
	if flags.Changed("node-gas") {
		cfg.Node.GasLimit, _ = flags.GetInt("node-gas")
	}
	if flags.Changed("node-websockets") {
		cfg.Node.Websockets, _ = flags.GetBool("node-websockets")
	}
	return cfg, nil
}

// runBenchmark prepares a scratch truffle project using the truffle install
// of project, runs the deployment test with command (nil for truffle test),
// writes the disassemblies and prints the comparison table. The scratch
// project is always removed; project itself is never written to.
func runBenchmark(ctx context.Context, out io.Writer, cfg bench.Config, cwd, project string, command []string) error {
	paths, err := cfg.ResolveContracts(cwd)
	if err != nil {
		return err
	}

	ws, err := bench.NewScratchWorkspace(project)
	if err != nil {
		return err
	}
	runner := &bench.Runner{Workspace: ws, Command: command}
	slog.Debug("Created scratch project", "dir", ws.Root, "project", project)
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to clean up test run", "error", err)
		}
	}()

	tc := bench.NewTruffleConfig(cfg)
	fmt.Fprintf(out, "compiler # solc: %s | evm: %s | optimizer runs: %d\n",
		cfg.SolcVersion, cfg.EVMVersion, cfg.OptimizerRuns)
	if tc.Networks != nil {
		fmt.Fprintf(out, "node     # %s\n", tc.Networks.Development.Summary())
	} else {
		fmt.Fprintln(out, "node     # host: truffle vm")
	}
	if err := bench.WriteTruffleConfig(ws.TruffleConfig(), tc); err != nil {
		return err
	}

	if err := ws.Setup(paths, cfg.FunctionCall); err != nil {
		return err
	}
	if cfg.FunctionCall != "" {
		fmt.Fprintf(out, "> calling function: %s\n", cfg.FunctionCall)
	}

	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = pathpkg.Base(p)
	}
	fmt.Fprintf(out, "> deploying %d contracts: %s\n", len(paths), strings.Join(names, " "))

	results, err := runner.Run(ctx)
	if err != nil {
		var te *bench.TruffleError
		if errors.As(err, &te) {
			fmt.Fprintln(out, "==== TRUFFLE ERROR ====")
			fmt.Fprintln(out, te.Output)
		}
		return err
	}

	var disasmErr error
	if cfg.DisassemblyDir != "" {
		disasmErr = disasm.WriteFiles(ctx, cfg.DisassemblyDir, results.Bytecode)
		if disasmErr != nil {
			slog.Error("Some disassemblies could not be written", "error", disasmErr)
		} else {
			slog.Info("Wrote disassemblies", "dir", cfg.DisassemblyDir, "contracts", len(results.Bytecode))
		}
	}

	fmt.Fprintln(out, bench.RenderTable(results, bench.TableOptions{
		IncludeUsage: cfg.FunctionCall != "",
		Color:        useColor(),
	}))
	return disasmErr
}

// useColor reports whether stdout is a terminal and colour was not disabled.
func useColor() bool {
	return term.IsTerminal(os.Stdout.Fd()) && !colorize.Disabled()
}

func Execute() {
	// Check if output is being piped to bypass fang's markdown rendering
	noFang := !term.IsTerminal(os.Stdout.Fd())
	for _, arg := range os.Args[1:] {
		if arg == "--no-color" {
			noFang = true
			break
		}
	}

	defer log.Close()
	if noFang {
		// Use cobra directly to avoid fang's automatic markdown rendering
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
	} else {
		// Use fang for enhanced CLI experience with markdown rendering
		if err := fang.Execute(
			context.Background(),
			rootCmd,
			fang.WithNotifySignal(os.Interrupt),
		); err != nil {
			os.Exit(1)
		}
	}
}

func ResolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		err := os.Chdir(cwd)
		if err != nil {
			return "", fmt.Errorf("failed to change directory: %v", err)
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %v", err)
	}
	return cwd, nil
}
