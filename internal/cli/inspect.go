package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/extwrangler/pkg/depexpr"
	"github.com/matzehuels/extwrangler/pkg/emit"
	"github.com/matzehuels/extwrangler/pkg/errors"
)

type inspectFlags struct {
	sourceFlags
	version string
	typ     string
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var flags inspectFlags

	cmd := &cobra.Command{
		Use:   "inspect [extension]",
		Short: "Show resolved dependencies",
		Long: `Without arguments, inspect lists every extension available on a version
with the requirements in effect there. With an extension name, it shows that
extension's dependency entry for each version.`,
		Example: `  extwrangler inspect --version VK_VERSION_1_2 --type device
  extwrangler inspect VK_KHR_dynamic_rendering`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, _, err := c.resolveModel(cmd, &flags.sourceFlags)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(args) == 1 {
				return inspectExtension(w, result.Model, args[0])
			}
			return inspectVersion(w, result.Model, flags.version, flags.typ)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&flags.version, "version", "", "version to list (default: latest)")
	cmd.Flags().StringVar(&flags.typ, "type", "", "only show device or instance extensions")

	return cmd
}

var (
	headerStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 { // header
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		})
}

// describeEntry renders an entry for display.
func describeEntry(e emit.Entry) string {
	switch {
	case e.Promoted:
		return StyleSuccess.Render("core")
	case len(e.Requires) == 0:
		return StyleDim.Render("none")
	default:
		return strings.Join(e.Requires, ", ")
	}
}

func inspectVersion(w io.Writer, m *emit.Model, version, typ string) error {
	if version == "" {
		version = m.Versions[len(m.Versions)-1].Name
	}
	if _, ok := m.VersionIndex(version); !ok {
		return errors.New(errors.ErrCodeVersionNotFound, "unknown version %s", version)
	}

	t := newTable("#", "Extension", "Type", "Requires")
	shown := 0
	for i := range m.Extensions {
		ext := &m.Extensions[i]
		if typ != "" && ext.Type != typ {
			continue
		}
		e, ok := m.EntryAt(ext, version)
		if !ok {
			continue
		}
		t.Row(strconv.Itoa(ext.Index), ext.Name, ext.Type, describeEntry(e))
		shown++
	}

	fmt.Fprintln(w, StyleTitle.Render(version)+" "+StyleDim.Render(fmt.Sprintf("(%d extensions)", shown)))
	fmt.Fprintln(w, t.Render())
	return nil
}

// dependsReferences lists the extensions named by a depends expression,
// flagging names the model does not know.
func dependsReferences(m *emit.Model, depends string) string {
	root, err := depexpr.Parse(depends)
	if err != nil {
		return ""
	}
	items, _ := depexpr.Names(root)
	refs := make([]string, len(items))
	for i, name := range items {
		refs[i] = name
		if _, ok := m.Extension(name); !ok {
			refs[i] += " (missing)"
		}
	}
	return strings.Join(refs, ", ")
}

func inspectExtension(w io.Writer, m *emit.Model, name string) error {
	if err := errors.ValidateItemName(name); err != nil {
		return err
	}
	ext, ok := m.Extension(name)
	if !ok {
		return errors.New(errors.ErrCodeItemNotFound, "unknown extension %s", name)
	}

	p := printer{w: w}
	fmt.Fprintln(w, StyleTitle.Render(ext.Name))
	if ext.Name != name {
		p.keyValue("alias", name)
	}
	p.keyValue("index", strconv.Itoa(ext.Index))
	p.keyValue("type", ext.Type)
	if ext.Depends != "" {
		p.keyValue("depends", ext.Depends)
		if refs := dependsReferences(m, ext.Depends); refs != "" {
			p.keyValue("references", refs)
		}
	}
	if ext.PromotedTo != "" {
		p.keyValue("promoted to", ext.PromotedTo)
	}
	if ext.DeprecatedBy != "" {
		p.keyValue("deprecated", ext.DeprecatedBy)
	}
	if ext.FeatureStruct != nil {
		p.keyValue("features", ext.FeatureStruct.Name)
	}
	if ext.PropertyStruct != nil {
		p.keyValue("properties", ext.PropertyStruct.Name)
	}

	t := newTable("Version", "Requires")
	for _, v := range m.Versions {
		e, ok := m.EntryAt(ext, v.Name)
		cell := StyleDim.Render("unavailable")
		if ok {
			cell = describeEntry(e)
		}
		t.Row(v.Name, cell)
	}
	fmt.Fprintln(w, t.Render())
	return nil
}
