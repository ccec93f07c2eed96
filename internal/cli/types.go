package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/syssam/querycraft/dialect"
	"github.com/syssam/querycraft/dialect/sql"
)

func newTypesCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "types",
		Short: "Print the logical to native data type table",
		Example: `  qcraft types -d mysql
  qcraft types --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd.Context())
			names := []string{cfg.Dialect}
			if all {
				names = dialect.Names()
			}
			return printTypes(cmd.OutOrStdout(), names, cfg.Output == "json")
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "print every dialect side by side")
	return cmd
}

func printTypes(w io.Writer, names []string, asJSON bool) error {
	tables := make(map[string]map[string]string, len(names))
	for _, d := range names {
		m, err := sql.Types(d)
		if err != nil {
			return err
		}
		tables[d] = m
	}
	logical, err := dialect.LogicalTypes(names[0])
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tables)
	}

	title := cases.Title(language.English)
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	header := table.Row{"Logical"}
	for _, d := range names {
		header = append(header, title.String(d))
	}
	single := len(names) == 1
	if single {
		header = append(header, "Schema type")
	}
	t.AppendHeader(header)
	for _, l := range logical {
		row := table.Row{l}
		for _, d := range names {
			native, err := dialect.DataType(d, l)
			if err != nil {
				native = "-"
			}
			row = append(row, native)
		}
		if single {
			row = append(row, schemaType(names[0], l))
		}
		t.AppendRow(row)
	}
	t.Render()
	return nil
}

// schemaType names the atlas schema type a native type parses to.
func schemaType(d, logical string) string {
	st, err := dialect.ParseType(d, logical)
	if err != nil {
		return "-"
	}
	name := fmt.Sprintf("%T", st)
	return name[strings.LastIndex(name, ".")+1:]
}

func newDialectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List the supported dialects and their aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printDialects(cmd.OutOrStdout(), configFrom(cmd.Context()).Output == "json")
		},
	}
}

type dialectInfo struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
	Params  string   `json:"params"`
}

func printDialects(w io.Writer, asJSON bool) error {
	var infos []dialectInfo
	for _, d := range dialect.Names() {
		r, err := sql.For(d)
		if err != nil {
			return err
		}
		infos = append(infos, dialectInfo{Name: d, Aliases: dialect.Aliases(d), Params: r.Style().String()})
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Dialect", "Aliases", "Parameters"})
	for _, info := range infos {
		t.AppendRow(table.Row{info.Name, strings.Join(info.Aliases, ", "), info.Params})
	}
	t.Render()
	return nil
}
