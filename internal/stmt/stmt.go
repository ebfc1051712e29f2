// Package stmt executes ordered lists of SQL statements one at a time, each in
// its own implicit transaction, and reports what happened to every statement.
package stmt

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Phase groups statements for reporting.
type Phase string

const (
	PhaseDrop      Phase = "drop"
	PhaseCreate    Phase = "create"
	PhaseCopy      Phase = "copy"
	PhaseTransform Phase = "transform"
)

// Statement is one unit of work.
type Statement struct {
	Name  string `json:"name" yaml:"name"`
	Phase Phase  `json:"phase" yaml:"phase"`
	SQL   string `json:"sql" yaml:"sql"`

	// Run replaces SQL execution when set (local staging loads).
	Run func(ctx context.Context) (int64, error) `json:"-" yaml:"-"`
}

// Execer executes a single statement and returns the rows it affected.
type Execer interface {
	Exec(ctx context.Context, sql string) (int64, error)
}

// Policy decides what happens after a statement fails.
type Policy int

const (
	// BestEffort logs the failure and moves on to the next statement.
	BestEffort Policy = iota
	// FailFast stops at the first failure; later statements are skipped.
	FailFast
)

// String implements fmt.Stringer.
func (p Policy) String() string {
	if p == FailFast {
		return "fail-fast"
	}
	return "best-effort"
}

// Status is the outcome of a statement.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Result records the outcome of one statement.
type Result struct {
	Statement Statement
	Status    Status
	Rows      int64
	Duration  time.Duration
	Err       error
}

// Report collects results in execution order.
type Report struct {
	Results []Result
}

// Failed returns the results that did not succeed.
func (r Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			out = append(out, res)
		}
	}
	return out
}

// Skipped counts statements that never ran.
func (r Report) Skipped() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == StatusSkipped {
			n++
		}
	}
	return n
}

// RowsAffected sums the affected row counts of successful statements.
func (r Report) RowsAffected() int64 {
	var n int64
	for _, res := range r.Results {
		if res.Status == StatusOK {
			n += res.Rows
		}
	}
	return n
}

// Err combines every failure into one error, or returns nil.
func (r Report) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	names := make([]string, len(failed))
	for i, res := range failed {
		names[i] = res.Statement.Name
	}
	return eris.Wrapf(failed[0].Err, "stmt: %d statement(s) failed (%s)", len(failed), strings.Join(names, ", "))
}

// Merge appends other's results to r.
func (r Report) Merge(other Report) Report {
	return Report{Results: append(append([]Result(nil), r.Results...), other.Results...)}
}

// Runner executes statements sequentially against one connection.
type Runner struct {
	conn   Execer
	policy Policy
}

// NewRunner creates a Runner.
func NewRunner(conn Execer, policy Policy) *Runner {
	return &Runner{conn: conn, policy: policy}
}

// Policy returns the runner's failure policy.
func (r *Runner) Policy() Policy { return r.policy }

// Run executes stmts in order. Cancellation of ctx is checked before every
// statement; statements not attempted are reported as skipped.
func (r *Runner) Run(ctx context.Context, stmts []Statement) Report {
	log := zap.L().With(
		zap.String("component", "stmt.runner"),
		zap.String("policy", r.policy.String()),
	)

	report := Report{Results: make([]Result, 0, len(stmts))}
	stop := false

	for _, s := range stmts {
		if stop {
			report.Results = append(report.Results, Result{Statement: s, Status: StatusSkipped})
			continue
		}
		if err := ctx.Err(); err != nil {
			log.Warn("run cancelled", zap.String("statement", s.Name), zap.Error(err))
			report.Results = append(report.Results, Result{Statement: s, Status: StatusSkipped, Err: err})
			stop = true
			continue
		}

		start := time.Now()
		var n int64
		var err error
		if s.Run != nil {
			n, err = s.Run(ctx)
		} else {
			n, err = r.conn.Exec(ctx, s.SQL)
		}
		res := Result{Statement: s, Rows: n, Duration: time.Since(start)}

		if err != nil {
			res.Status = StatusFailed
			res.Err = eris.Wrapf(err, "stmt: %s %s", s.Phase, s.Name)
			log.Error("statement failed",
				zap.String("phase", string(s.Phase)),
				zap.String("statement", s.Name),
				zap.String("sql", s.SQL),
				zap.Error(err),
			)
			if r.policy == FailFast {
				stop = true
			}
		} else {
			res.Status = StatusOK
			log.Debug("statement executed",
				zap.String("phase", string(s.Phase)),
				zap.String("statement", s.Name),
				zap.Int64("rows", n),
				zap.Duration("duration", res.Duration),
			)
		}
		report.Results = append(report.Results, res)
	}

	return report
}
