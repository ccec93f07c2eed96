package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/syssam/querycraft/ast"
	"github.com/syssam/querycraft/dialect"
	"github.com/syssam/querycraft/dialect/sql"
	"github.com/syssam/querycraft/internal/config"
	"github.com/syssam/querycraft/internal/stmtfile"
)

func newExecCmd() *cobra.Command {
	var (
		inTx bool
		vars []string
	)
	cmd := &cobra.Command{
		Use:   "exec FILE",
		Short: "Render and execute the statements of a file",
		Long: `Render every statement of a YAML file and execute it against the database
named by --dsn. Statements that return rows (SELECT, or RETURNING clauses)
print their rows; the others print the number of affected rows.

Session variables given with --var are set before every statement: with
SET on postgres and mysql, with PRAGMA on sqlite.`,
		Example: `  qcraft exec -d sqlite --dsn app.db seed.yaml
  qcraft exec -d sqlite --dsn app.db --var foreign_keys=on seed.yaml
  qcraft exec --tx --dsn "postgres://localhost/app" --var app.tenant=acme migrate.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := withVars(cmd.Context(), vars)
			if err != nil {
				return err
			}
			return runExec(ctx, cmd.OutOrStdout(), args[0], inTx)
		},
	}
	cmd.Flags().BoolVar(&inTx, "tx", false, "run all statements in one transaction")
	cmd.Flags().StringArrayVar(&vars, "var", nil, "session variable as name=value (repeatable)")
	return cmd
}

// withVars attaches name=value session variables to ctx in order.
func withVars(ctx context.Context, vars []string) (context.Context, error) {
	for _, kv := range vars {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("exec: --var %q: expected name=value", kv)
		}
		ctx = sql.WithVar(ctx, strings.TrimSpace(name), value)
	}
	return ctx, nil
}

func runExec(ctx context.Context, w io.Writer, file string, inTx bool) (rerr error) {
	cfg := configFrom(ctx)
	if cfg.DSN == "" {
		return errors.New("exec: no data source name; set --dsn, QCRAFT_DSN or dsn in the config file")
	}
	docs, err := stmtfile.ReadFile(file)
	if err != nil {
		return err
	}
	log := config.LoggerFrom(ctx)
	drv, err := sql.Open(cfg.Dialect, cfg.DSN)
	if err != nil {
		return err
	}
	stats := sql.NewStatsDriver(drv,
		sql.WithSlowThreshold(cfg.Slow.Threshold),
		sql.WithSlowLog(log),
		sql.WithStatementLog(log),
	)
	defer func() {
		log.Info("statements executed", "stats", stats.Stats().Snapshot().String())
		rerr = errors.Join(rerr, drv.Close())
	}()
	r, err := drv.Renderer()
	if err != nil {
		return err
	}

	var ex dialect.ExecQuerier = stats
	if inTx {
		tx, err := stats.Tx(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if rerr != nil {
				rerr = errors.Join(rerr, tx.Rollback())
				return
			}
			rerr = tx.Commit()
		}()
		ex = tx
	}

	var results []execResult
	for i, doc := range docs {
		stmt, err := doc.Statement()
		if err != nil {
			return err
		}
		res := execResult{Name: doc.Name, Kind: stmt.Kind()}
		if res.Name == "" {
			res.Name = fmt.Sprintf("#%d", i)
		}
		if returnsRows(stmt) {
			rows, err := sql.QueryStmt(ctx, ex, r, stmt)
			if err != nil {
				return fmt.Errorf("%s: %w", res.Name, err)
			}
			if res.Columns, res.Rows, err = scanAll(rows); err != nil {
				return fmt.Errorf("%s: %w", res.Name, err)
			}
		} else {
			out, err := sql.ExecStmt(ctx, ex, r, stmt)
			if err != nil {
				return fmt.Errorf("%s: %w", res.Name, err)
			}
			n, err := out.RowsAffected()
			if err != nil {
				return fmt.Errorf("%s: rows affected: %w", res.Name, err)
			}
			res.Affected = &n
		}
		if cfg.Output != "json" {
			printResult(w, res)
		}
		results = append(results, res)
	}
	if cfg.Output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	return nil
}

type execResult struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Affected *int64   `json:"affected,omitempty"`
	Columns  []string `json:"columns,omitempty"`
	Rows     [][]any  `json:"rows,omitempty"`
}

func returnsRows(stmt ast.Statement) bool {
	switch s := stmt.(type) {
	case *ast.Select:
		return true
	case *ast.Insert:
		return len(s.Returning) > 0
	case *ast.Update:
		return len(s.Returning) > 0
	case *ast.Delete:
		return len(s.Returning) > 0
	}
	return false
}

func scanAll(rows *sql.Rows) (_ []string, _ [][]any, rerr error) {
	defer func() { rerr = errors.Join(rerr, rows.Close()) }()
	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, err
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out = append(out, vals)
	}
	return cols, out, rows.Err()
}

func printResult(w io.Writer, res execResult) {
	if res.Affected != nil {
		fmt.Fprintf(w, "-- %s: %s, %d row(s) affected\n", res.Name, res.Kind, *res.Affected)
		return
	}
	fmt.Fprintf(w, "-- %s: %s, %d row(s)\n", res.Name, res.Kind, len(res.Rows))
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	header := make(table.Row, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = c
	}
	t.AppendHeader(header)
	for _, row := range res.Rows {
		t.AppendRow(table.Row(row))
	}
	t.Render()
}
