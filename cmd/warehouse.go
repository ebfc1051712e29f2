package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/songplay-dwh/internal/stmt"
	"github.com/sells-group/songplay-dwh/internal/warehouse"
)

// openWarehouse validates the config for mode and connects to the warehouse.
func openWarehouse(ctx context.Context, mode string) (warehouse.Conn, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	conn, err := warehouse.Open(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "connect to warehouse")
	}
	return conn, nil
}

// policy maps warehouse.fail_fast onto the statement runner policy.
func policy() stmt.Policy {
	if cfg.Warehouse.FailFast {
		return stmt.FailFast
	}
	return stmt.BestEffort
}

// finish prints a failure summary to w. Failures only become a command error
// under fail-fast; best-effort runs always exit 0.
func finish(w io.Writer, report stmt.Report) error {
	failed := report.Failed()
	if len(failed) == 0 {
		return nil
	}

	_, _ = fmt.Fprintf(w, "%d of %d statements failed:\n", len(failed), len(report.Results))
	for _, res := range failed {
		_, _ = fmt.Fprintf(w, "  %s %s: %v\n", res.Statement.Phase, res.Statement.Name, res.Err)
	}
	if n := report.Skipped(); n > 0 {
		_, _ = fmt.Fprintf(w, "%d statements skipped\n", n)
	}

	if policy() == stmt.FailFast {
		return report.Err()
	}
	return nil
}
