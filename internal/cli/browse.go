package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/extwrangler/pkg/emit"
	"github.com/matzehuels/extwrangler/pkg/model"
)

// browseCommand creates the interactive browser command.
func (c *CLI) browseCommand() *cobra.Command {
	var flags sourceFlags

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse resolved extensions interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, _, err := c.resolveModel(cmd, &flags)
			if err != nil {
				return err
			}
			prog := tea.NewProgram(NewBrowserModel(result.Model),
				tea.WithContext(cmd.Context()),
				tea.WithAltScreen())
			_, err = prog.Run()
			return err
		},
	}

	flags.register(cmd)
	return cmd
}

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

var typeFilters = []string{"", model.TypeDevice, model.TypeInstance}

// =============================================================================
// BrowserModel - Interactive extension browser
// =============================================================================

// BrowserModel is the bubbletea model of the browse command. It lists the
// extensions available on one version; left/right switch versions.
type BrowserModel struct {
	Model      *emit.Model
	VersionIdx int
	TypeFilter int
	Cursor     int
	Offset     int
	Height     int
	Detail     bool

	rows []*emit.Extension
}

// NewBrowserModel starts on the latest version.
func NewBrowserModel(m *emit.Model) BrowserModel {
	b := BrowserModel{
		Model:      m,
		VersionIdx: len(m.Versions) - 1,
		Height:     15,
	}
	b.refresh()
	return b
}

func (b *BrowserModel) version() string {
	return b.Model.Versions[b.VersionIdx].Name
}

// refresh recomputes the visible rows and keeps the cursor in range.
func (b *BrowserModel) refresh() {
	b.rows = nil
	typ := typeFilters[b.TypeFilter]
	for i := range b.Model.Extensions {
		ext := &b.Model.Extensions[i]
		if typ != "" && ext.Type != typ {
			continue
		}
		if _, ok := b.Model.EntryAt(ext, b.version()); ok {
			b.rows = append(b.rows, ext)
		}
	}
	if b.Cursor >= len(b.rows) {
		b.Cursor = max(len(b.rows)-1, 0)
	}
	if b.Offset > b.Cursor {
		b.Offset = b.Cursor
	}
}

// Selected returns the extension under the cursor, or nil.
func (b BrowserModel) Selected() *emit.Extension {
	if b.Cursor < len(b.rows) {
		return b.rows[b.Cursor]
	}
	return nil
}

func (b BrowserModel) Init() tea.Cmd {
	return nil
}

func (b BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return b, tea.Quit
		case "up", "k":
			if b.Cursor > 0 {
				b.Cursor--
				if b.Cursor < b.Offset {
					b.Offset = b.Cursor
				}
			}
		case "down", "j":
			if b.Cursor < len(b.rows)-1 {
				b.Cursor++
				if b.Cursor >= b.Offset+b.Height {
					b.Offset = b.Cursor - b.Height + 1
				}
			}
		case "left", "h":
			if b.VersionIdx > 0 {
				b.VersionIdx--
				b.refresh()
			}
		case "right", "l":
			if b.VersionIdx < len(b.Model.Versions)-1 {
				b.VersionIdx++
				b.refresh()
			}
		case "t":
			b.TypeFilter = (b.TypeFilter + 1) % len(typeFilters)
			b.refresh()
		case "enter":
			b.Detail = !b.Detail
		}
	case tea.WindowSizeMsg:
		b.Height = max(msg.Height-12, 5)
	}
	return b, nil
}

func (b BrowserModel) View() string {
	var sb strings.Builder

	filter := typeFilters[b.TypeFilter]
	if filter == "" {
		filter = "all"
	}
	sb.WriteString(StyleTitle.Render(b.version()))
	sb.WriteString(" " + listDimStyle.Render(fmt.Sprintf("[%s]", filter)))
	sb.WriteString("\n")
	sb.WriteString(listDimStyle.Render("↑/↓ navigate  ←/→ version  t type  ⏎ details  q quit"))
	sb.WriteString("\n\n")

	end := min(b.Offset+b.Height, len(b.rows))
	rows := [][]string{}
	for i := b.Offset; i < end; i++ {
		ext := b.rows[i]
		cursor := "  "
		if i == b.Cursor {
			cursor = "▸ "
		}
		e, _ := b.Model.EntryAt(ext, b.version())
		rows = append(rows, []string{cursor, ext.Name, ext.Type, describeEntry(e)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Extension", "Type", "Requires").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if b.Offset+row == b.Cursor {
				return listSelectedStyle
			}
			return lipgloss.NewStyle()
		})
	sb.WriteString(t.Render())
	sb.WriteString("\n")
	sb.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(b.Cursor+1, len(b.rows)), len(b.rows))))

	if ext := b.Selected(); b.Detail && ext != nil {
		sb.WriteString("\n\n")
		sb.WriteString(b.detailView(ext))
	}
	return sb.String()
}

// detailView shows the per-version entries of ext.
func (b BrowserModel) detailView(ext *emit.Extension) string {
	var sb strings.Builder
	sb.WriteString(StyleHighlight.Render(ext.Name))
	if ext.Depends != "" {
		sb.WriteString(" " + listDimStyle.Render(ext.Depends))
	}
	sb.WriteString("\n")
	for _, v := range b.Model.Versions {
		cell := listDimStyle.Render("unavailable")
		if e, ok := b.Model.EntryAt(ext, v.Name); ok {
			cell = describeEntry(e)
		}
		sb.WriteString(fmt.Sprintf("  %-16s %s\n", v.Name, cell))
	}
	return sb.String()
}
