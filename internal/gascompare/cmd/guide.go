package cmd

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"gascompare/internal/gascompare/styles"
)

//go:embed guide.md
var guideMarkdown string

var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show the usage guide",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !useColor() {
			fmt.Fprint(cmd.OutOrStdout(), guideMarkdown)
			return nil
		}

		width := 80
		if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 && w < width {
			width = w
		}
		rendered, err := styles.RenderMarkdown(guideMarkdown, width)
		if err != nil {
			return fmt.Errorf("failed to render guide: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), rendered)
		return nil
	},
}
