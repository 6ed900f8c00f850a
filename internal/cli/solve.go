package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sohaibafifi/schedkit/internal/instance"
	"github.com/sohaibafifi/schedkit/internal/lower"
	"github.com/sohaibafifi/schedkit/internal/model"
	"github.com/sohaibafifi/schedkit/internal/solve"
	"github.com/sohaibafifi/schedkit/internal/solve/gokano"
	"github.com/sohaibafifi/schedkit/internal/store"
)

// SolveOptions holds flags for the solve command.
type SolveOptions struct {
	Timeout time.Duration
	DB      string
	Jobs    int
}

// SolveReport is the result of solving one instance.
type SolveReport struct {
	Instance  string                `json:"instance"`
	Outcome   string                `json:"outcome"`
	Objective *int                  `json:"objective,omitempty"`
	WallMS    int64                 `json:"wall_ms"`
	RunID     string                `json:"run_id,omitempty"`
	Tasks     []store.TaskPlacement `json:"tasks,omitempty"`

	outcome solve.Outcome // typed copy for text rendering
}

// NewSolveCommand creates the solve command.
func NewSolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SolveOptions{}

	cmd := &cobra.Command{
		Use:   "solve <instances-dir>",
		Short: "Solve every instance in a directory",
		Long: `Load the CUE instances in a directory, solve each through the
constraint backend, and print the resulting schedules. Infeasible and
timed-out instances are reported as outcomes, not errors.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "solver time limit per instance (0 means none)")
	cmd.Flags().StringVar(&opts.DB, "db", "", "record runs in this SQLite database")
	cmd.Flags().IntVar(&opts.Jobs, "jobs", 1, "number of instances to solve concurrently")

	return cmd
}

func runSolve(rootOpts *RootOptions, opts *SolveOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	if opts.Jobs < 1 {
		msg := fmt.Sprintf("invalid --jobs %d: must be at least 1", opts.Jobs)
		_ = formatter.Error(instance.ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	loadResult, loadErrors := instance.Load(dir, instance.LoadModeFailFast)
	if len(loadErrors) > 0 {
		return outputLoadError(formatter, loadErrors[0])
	}

	var st *store.Store
	if opts.DB != "" {
		var err error
		st, err = store.Open(opts.DB)
		if err != nil {
			msg := fmt.Sprintf("open database %s: %v", opts.DB, err)
			_ = formatter.Error(instance.ErrCodeGeneric, msg, nil)
			return NewExitError(ExitCommandError, msg)
		}
		defer st.Close()
	}

	formatter.VerboseLog("Solving %d instance(s) with %d worker(s)", len(loadResult.Instances), opts.Jobs)

	reports := make([]*SolveReport, len(loadResult.Instances))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(opts.Jobs)
	for i, inst := range loadResult.Instances {
		g.Go(func() error {
			report, err := solveInstance(ctx, inst, opts, st)
			if err != nil {
				return fmt.Errorf("instance %s: %w", inst.Name, err)
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		_ = formatter.Error(instance.ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "solve failed", err)
	}

	return outputSolveReports(formatter, reports)
}

// solveInstance builds, lowers and solves one instance, recording the
// run when a store is open. Safe to call from concurrent workers.
func solveInstance(ctx context.Context, inst *instance.Instance, opts *SolveOptions, st *store.Store) (*SolveReport, error) {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	session, tasks, err := inst.Build(model.WithLogger(discard))
	if err != nil {
		return nil, err
	}
	program, err := lower.Compile(session)
	if err != nil {
		return nil, err
	}

	adapter := gokano.New()
	res, err := adapter.Solve(ctx, program, solve.Options{Timeout: opts.Timeout, Workers: 1})
	if err != nil {
		return nil, err
	}
	sol := solve.Extract(session, program, res)

	report := &SolveReport{
		Instance: inst.Name,
		Outcome:  sol.Outcome.String(),
		WallMS:   res.Wall.Milliseconds(),
		outcome:  sol.Outcome,
	}
	if sol.HasObjective {
		v := sol.Objective
		report.Objective = &v
	}
	if sol.HasAssignment {
		report.Tasks = placements(sol, tasks)
	}

	if st != nil {
		rec, err := st.RecordRun(ctx, store.Run{
			Instance:  inst.Name,
			Adapter:   adapter.Name(),
			Program:   program.Fingerprint(),
			Outcome:   sol.Outcome,
			Objective: report.Objective,
			Wall:      res.Wall,
			Solution:  report.Tasks,
		})
		if err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
		report.RunID = rec.ID
	}

	return report, nil
}

// placements flattens the extracted schedule into task order by name,
// so output and stored documents are deterministic.
func placements(sol *solve.Solution, tasks map[string]*model.IntervalVar) []store.TaskPlacement {
	names := make([]string, 0, len(tasks))
	for name := range tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]store.TaskPlacement, 0, len(names))
	for _, name := range names {
		p := store.TaskPlacement{Task: name}
		if v := sol.Interval(tasks[name]); v != nil {
			p.Present = true
			p.Start = v.Start
			p.End = v.End
			p.Length = v.Length
			p.Size = v.Size
		}
		out = append(out, p)
	}
	return out
}

func outputSolveReports(formatter *OutputFormatter, reports []*SolveReport) error {
	if formatter.Format == "json" {
		return formatter.Success(reports)
	}

	for _, r := range reports {
		fmt.Fprintf(formatter.Writer, "%s: %s", r.Instance, FormatOutcome(r.outcome))
		if r.Objective != nil {
			fmt.Fprintf(formatter.Writer, "  objective %d", *r.Objective)
		}
		fmt.Fprintf(formatter.Writer, "  (%dms)\n", r.WallMS)

		for _, p := range r.Tasks {
			if !p.Present {
				fmt.Fprintf(formatter.Writer, "  %-12s absent\n", p.Task)
				continue
			}
			fmt.Fprintf(formatter.Writer, "  %-12s [%d, %d)  length %d", p.Task, p.Start, p.End, p.Length)
			if p.Size != p.Length {
				fmt.Fprintf(formatter.Writer, "  size %d", p.Size)
			}
			fmt.Fprintln(formatter.Writer)
		}
		if r.RunID != "" {
			fmt.Fprintf(formatter.Writer, "  recorded as %s\n", r.RunID)
		}
	}
	return nil
}
