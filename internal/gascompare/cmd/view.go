package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/spf13/cobra"

	"gascompare/internal/disasm"
	"gascompare/internal/ui/colorize"
)

type viewMode int

const (
	viewListing viewMode = iota
	viewContracts
)

type contractItem struct {
	name         string
	instructions int
}

func (i contractItem) Title() string       { return i.name }
func (i contractItem) FilterValue() string { return i.name }

type contractDelegate struct{}

func (d contractDelegate) Height() int                               { return 1 }
func (d contractDelegate) Spacing() int                              { return 0 }
func (d contractDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d contractDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(contractItem)
	if !ok {
		return
	}

	nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	cursor := "  "
	if index == m.Index() {
		nameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
		cursor = "> "
	}
	countStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	fmt.Fprintf(w, "%s%s %s", cursor, nameStyle.Render(i.name),
		countStyle.Render(fmt.Sprintf("(%d instructions)", i.instructions)))
}

type listingsMsg struct {
	listings []disasm.Listing
	err      error
}

func disassembleCmd(ctx context.Context, bytecodes map[string]string) tea.Cmd {
	return func() tea.Msg {
		listings, err := disasm.DisassembleAll(ctx, bytecodes)
		return listingsMsg{listings: listings, err: err}
	}
}

type model struct {
	viewport      viewport.Model
	contractsList list.Model
	spinner       spinner.Model
	mode          viewMode

	ctx       context.Context
	bytecodes map[string]string
	listings  []disasm.Listing
	current   int
	failed    []string
	loading   bool
	color     bool

	width  int
	height int
}

// NewModel builds the listing browser for bytecodes.
func NewModel(ctx context.Context, bytecodes map[string]string, color bool) model {
	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(24)

	contractsList := list.New([]list.Item{}, contractDelegate{}, 80, 24)
	contractsList.SetShowStatusBar(false)
	contractsList.SetFilteringEnabled(true)
	contractsList.Title = "Contracts"
	contractsList.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		MarginLeft(2)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))

	m := model{
		viewport:      vp,
		contractsList: contractsList,
		spinner:       s,
		mode:          viewListing,
		ctx:           ctx,
		bytecodes:     bytecodes,
		loading:       true,
		color:         color,
		width:         80,
		height:        24,
	}
	m.updateContent()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		disassembleCmd(m.ctx, m.bytecodes),
		m.spinner.Tick,
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case listingsMsg:
		m.setListings(msg.listings, msg.err)
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		m.updateContent()
		return m, cmd

	case tea.WindowSizeMsg:
		if msg.Width != m.width || msg.Height != m.height {
			m.width = msg.Width
			m.height = msg.Height
			m.viewport.SetWidth(msg.Width)
			m.viewport.SetHeight(msg.Height - 2)
			m.contractsList.SetWidth(msg.Width)
			m.contractsList.SetHeight(msg.Height - 2)
		}

	case tea.KeyMsg:
		if m.mode == viewContracts && m.contractsList.FilterState() == list.Filtering {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			break
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.selectContract(m.current + 1)
			return m, nil
		case "shift+tab":
			m.selectContract(m.current - 1)
			return m, nil
		case "c":
			if len(m.listings) > 0 {
				m.mode = viewContracts
			}
			return m, nil
		case "esc":
			if m.mode == viewContracts {
				m.mode = viewListing
				return m, nil
			}
		case "enter":
			if m.mode == viewContracts {
				m.selectContract(m.contractsList.Index())
				m.mode = viewListing
				return m, nil
			}
		}
	}

	switch m.mode {
	case viewContracts:
		m.contractsList, cmd = m.contractsList.Update(msg)
	default:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m model) View() string {
	var content string
	switch m.mode {
	case viewContracts:
		content = m.contractsList.View()
	default:
		content = m.viewport.View()
	}

	menuStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("252")).
		Padding(0, 1).
		Width(m.width)

	return content + "\n" + menuStyle.Render(m.menu())
}

func (m model) menu() string {
	if m.mode == viewContracts {
		return "Enter: open • /: filter • Esc: back • Q: quit"
	}
	if len(m.listings) == 0 {
		return "Q: quit"
	}
	name := m.listings[m.current].Name
	menu := fmt.Sprintf("%s (%d/%d) • Tab: next • C: contracts • Q: quit", name, m.current+1, len(m.listings))
	if len(m.failed) > 0 {
		menu += fmt.Sprintf(" • %d invalid", len(m.failed))
	}
	return menu
}

func (m *model) setListings(listings []disasm.Listing, err error) {
	m.loading = false
	m.listings = listings
	m.failed = contractErrorNames(err)
	if err != nil {
		slog.Warn("Some contracts could not be disassembled", "error", err)
	}

	items := make([]list.Item, len(listings))
	for i, l := range listings {
		items[i] = contractItem{name: l.Name, instructions: countInstructions(l.Text)}
	}
	m.contractsList.SetItems(items)
	m.contractsList.Title = fmt.Sprintf("Contracts (%d)", len(listings))
	m.current = 0
	m.updateContent()
}

// selectContract shows listing i, wrapping around at both ends.
func (m *model) selectContract(i int) {
	n := len(m.listings)
	if n == 0 {
		return
	}
	m.current = ((i % n) + n) % n
	m.contractsList.Select(m.current)
	m.updateContent()
}

func (m *model) updateContent() {
	var content string
	switch {
	case m.loading:
		content = fmt.Sprintf("\n %s Disassembling %d contracts...", m.spinner.View(), len(m.bytecodes))
	case len(m.listings) == 0:
		content = "\n No contract could be disassembled:\n\n " + strings.Join(m.failed, "\n ")
	default:
		content = m.listings[m.current].Text
		if m.color {
			if colored, err := colorize.ColorizeListing(content); err == nil {
				content = colored
			}
		}
	}
	m.viewport.SetContent(strings.TrimSuffix(content, "\n"))
	m.viewport.GotoTop()
}

func countInstructions(listing string) int {
	n := 0
	for line := range strings.SplitSeq(listing, "\n") {
		if line != "" {
			n++
		}
	}
	return n
}

// contractErrorNames lists the contracts named in a joined disassembly error.
func contractErrorNames(err error) []string {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var names []string
		for _, e := range joined.Unwrap() {
			names = append(names, contractErrorNames(e)...)
		}
		return names
	}
	var ce *disasm.ContractError
	if errors.As(err, &ce) {
		return []string{ce.Name}
	}
	return nil
}

var viewCmd = &cobra.Command{
	Use:   "view [name=]<bytecode|file|->...",
	Short: "Browse contract disassemblies in the terminal",
	Example: `
# Browse the contracts of a results file
gascompare view --results test_output.txt
  `,
	RunE: func(cmd *cobra.Command, args []string) error {
		resultsPath, _ := cmd.Flags().GetString("results")
		bytecodes, err := collectBytecodes(args, resultsPath, stdinReader())
		if err != nil {
			return err
		}

		program := tea.NewProgram(
			NewModel(cmd.Context(), bytecodes, !colorize.Disabled()),
			tea.WithAltScreen(),
			tea.WithContext(cmd.Context()),
		)
		if _, err := program.Run(); err != nil {
			slog.Error("TUI run error", "error", err)
			return fmt.Errorf("TUI error: %v", err)
		}
		return nil
	},
}

func init() {
	viewCmd.Flags().String("results", "", "Results file whose bytecode map is browsed")
}
