package main

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/songplay-dwh/internal/etl"
	"github.com/sells-group/songplay-dwh/internal/schema"
	"github.com/sells-group/songplay-dwh/internal/stmt"
	"github.com/sells-group/songplay-dwh/internal/warehouse"
)

var planCmd = &cobra.Command{
	Use:       "plan [create-tables|etl]",
	Short:     "Print the statements a command would run",
	Long:      "Renders the SQL for create-tables and/or etl in the configured dialect without connecting to the warehouse.",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"create-tables", "etl"},
	RunE: func(cmd *cobra.Command, args []string) error {
		dialectName, _ := cmd.Flags().GetString("dialect")
		if dialectName == "" {
			dialectName = cfg.Warehouse.Dialect
		}
		d, err := warehouse.ParseDialect(dialectName)
		if err != nil {
			return err
		}

		which := ""
		if len(args) == 1 {
			which = args[0]
		}
		stmts := planStatements(d, etl.SourcesFromConfig(cfg), which)

		format, _ := cmd.Flags().GetString("format")
		return writePlan(cmd.OutOrStdout(), stmts, format)
	},
}

func init() {
	planCmd.Flags().String("format", "text", "output format: text or yaml")
	planCmd.Flags().String("dialect", "", "override warehouse.dialect (redshift, postgres, sqlite)")
	rootCmd.AddCommand(planCmd)
}

// planStatements lists the statements for which ("" = both commands, in run order).
func planStatements(d warehouse.Dialect, src etl.Sources, which string) []stmt.Statement {
	var out []stmt.Statement
	if which == "" || which == "create-tables" {
		out = append(out, schema.DropStatements()...)
		out = append(out, schema.CreateStatements(d)...)
	}
	if which == "" || which == "etl" {
		out = append(out, etl.Plan(d, src)...)
	}
	return out
}

// writePlan renders stmts to w as numbered SQL or as a YAML list.
func writePlan(w io.Writer, stmts []stmt.Statement, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(stmts); err != nil {
			return eris.Wrap(err, "plan: encode yaml")
		}
		return enc.Close()
	case "text", "":
		for i, s := range stmts {
			_, _ = fmt.Fprintf(w, "-- [%d] %s %s\n%s\n\n", i+1, s.Phase, s.Name, s.SQL)
		}
		return nil
	default:
		return eris.Errorf("plan: unknown format %q", format)
	}
}
