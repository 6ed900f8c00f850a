package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sohaibafifi/schedkit/internal/instance"
	"github.com/sohaibafifi/schedkit/internal/runquery"
	"github.com/sohaibafifi/schedkit/internal/solve"
	"github.com/sohaibafifi/schedkit/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	DB       string
	Limit    int
	Instance string
	Outcome  string
	Program  string
	Since    string
	Until    string
}

// RunReport is one listed run.
type RunReport struct {
	ID        string `json:"id"`
	Instance  string `json:"instance"`
	Adapter   string `json:"adapter"`
	Program   string `json:"program,omitempty"`
	Outcome   string `json:"outcome"`
	Objective *int   `json:"objective,omitempty"`
	WallMS    int64  `json:"wall_ms"`
	CreatedAt string `json:"created_at"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{}

	cmd := &cobra.Command{
		Use:           "runs",
		Short:         "List recorded solve runs",
		Long:          "List the runs recorded by solve --db, newest first.\nFilters narrow the listing by instance, outcome, program fingerprint, or time window.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite database to read (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list (0 means all)")
	cmd.Flags().StringVar(&opts.Instance, "instance", "", "only runs of this instance")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "only runs with this outcome (satisfiable, optimal, unsatisfiable, timeout)")
	cmd.Flags().StringVar(&opts.Program, "program", "", "only runs with this program fingerprint")
	cmd.Flags().StringVar(&opts.Since, "since", "", "only runs recorded at or after this time (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Until, "until", "", "only runs recorded before this time (RFC 3339 or YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// buildFilter assembles the run filter from flag values. No filter flags
// set means a nil filter, which matches every run.
func buildFilter(opts *RunsOptions) (runquery.Filter, error) {
	var members []runquery.Filter
	if opts.Instance != "" {
		members = append(members, runquery.Instance{Name: opts.Instance})
	}
	if opts.Outcome != "" {
		outcome, ok := solve.ParseOutcome(opts.Outcome)
		if !ok {
			return nil, fmt.Errorf("invalid --outcome %q (valid: satisfiable, optimal, unsatisfiable, timeout)", opts.Outcome)
		}
		members = append(members, runquery.Outcome{Is: outcome})
	}
	if opts.Program != "" {
		members = append(members, runquery.Program{Digest: opts.Program})
	}
	if opts.Since != "" {
		at, err := parseTimeFlag(opts.Since)
		if err != nil {
			return nil, fmt.Errorf("invalid --since: %v", err)
		}
		members = append(members, runquery.Since{At: at})
	}
	if opts.Until != "" {
		at, err := parseTimeFlag(opts.Until)
		if err != nil {
			return nil, fmt.Errorf("invalid --until: %v", err)
		}
		members = append(members, runquery.Until{At: at})
	}
	switch len(members) {
	case 0:
		return nil, nil
	case 1:
		return members[0], nil
	default:
		return runquery.And{Filters: members}, nil
	}
}

// parseTimeFlag reads an RFC 3339 timestamp, or a bare date taken as
// midnight UTC.
func parseTimeFlag(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("want RFC 3339 or YYYY-MM-DD, got %q", s)
	}
	return t, nil
}

func runRuns(rootOpts *RootOptions, opts *RunsOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	filter, err := buildFilter(opts)
	if err != nil {
		_ = formatter.Error(instance.ErrCodeGeneric, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	// Opening a missing database would create an empty one, so check
	// first and fail with a clear message instead.
	if _, err := os.Stat(opts.DB); os.IsNotExist(err) {
		msg := fmt.Sprintf("database not found: %s", opts.DB)
		_ = formatter.Error(instance.ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	st, err := store.Open(opts.DB)
	if err != nil {
		msg := fmt.Sprintf("open database %s: %v", opts.DB, err)
		_ = formatter.Error(instance.ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	defer st.Close()

	var runs []store.Run
	if filter != nil {
		runs, err = st.QueryRuns(cmd.Context(), filter, opts.Limit)
	} else {
		runs, err = st.ListRuns(cmd.Context(), opts.Limit)
	}
	if err != nil {
		msg := fmt.Sprintf("list runs: %v", err)
		_ = formatter.Error(instance.ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	return outputRuns(formatter, runs)
}

func outputRuns(formatter *OutputFormatter, runs []store.Run) error {
	if formatter.Format == "json" {
		reports := make([]RunReport, 0, len(runs))
		for _, r := range runs {
			reports = append(reports, RunReport{
				ID:        r.ID,
				Instance:  r.Instance,
				Adapter:   r.Adapter,
				Program:   r.Program,
				Outcome:   r.Outcome.String(),
				Objective: r.Objective,
				WallMS:    r.Wall.Milliseconds(),
				CreatedAt: r.CreatedAt.Format(time.RFC3339),
			})
		}
		return formatter.Success(reports)
	}

	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "no runs recorded")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(formatter.Writer, "%s  %s  %-12s %s",
			r.CreatedAt.Format("2006-01-02 15:04:05"), shortID(r.ID), r.Instance, FormatOutcome(r.Outcome))
		if r.Objective != nil {
			fmt.Fprintf(formatter.Writer, "  objective %d", *r.Objective)
		}
		fmt.Fprintf(formatter.Writer, "  (%dms)\n", r.Wall.Milliseconds())
	}
	return nil
}

// shortID trims an id for listing output.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
