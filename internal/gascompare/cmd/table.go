package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"gascompare/internal/bench"
)

var tableCmd = &cobra.Command{
	Use:   "table <results-file>",
	Short: "Print the comparison table of an earlier run",
	Long: `Print the comparison table for a results file written by the deployment
test, without deploying anything. The function call row is shown when the
file holds usage gas figures or --usage is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := bench.ReadResults(args[0])
		if err != nil {
			return err
		}

		usage, _ := cmd.Flags().GetBool("usage")
		fmt.Fprintln(cmd.OutOrStdout(), bench.RenderTable(results, bench.TableOptions{
			IncludeUsage: usage || len(results.UsageGas) > 0,
			Color:        useColor(),
		}))
		return nil
	},
}

func init() {
	tableCmd.Flags().BoolP("usage", "u", false, "Always include the function call gas row")
}
