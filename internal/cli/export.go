package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sohaibafifi/schedkit/internal/instance"
	"github.com/sohaibafifi/schedkit/internal/interchange"
	"github.com/sohaibafifi/schedkit/internal/model"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	Output   string
	Instance string
}

// ExportReport describes a written interchange document.
type ExportReport struct {
	Instance  string `json:"instance"`
	File      string `json:"file"`
	Intervals int    `json:"intervals"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export <instances-dir>",
		Short: "Write an instance as an interchange document",
		Long: `Build one instance and write it as a self-contained XML document:
declarations, constraints, objective, and the lowered program. Other
tools can consume the document without the CUE sources.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (required)")
	cmd.Flags().StringVar(&opts.Instance, "instance", "", "instance to export (defaults to the only one)")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runExport(rootOpts *RootOptions, opts *ExportOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	loadResult, loadErrors := instance.Load(dir, instance.LoadModeFailFast)
	if len(loadErrors) > 0 {
		return outputLoadError(formatter, loadErrors[0])
	}

	inst, err := pickInstance(loadResult.Instances, opts.Instance)
	if err != nil {
		_ = formatter.Error(instance.ErrCodeGeneric, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	session, _, err := inst.Build(model.WithLogger(discard))
	if err != nil {
		msg := fmt.Sprintf("build instance %s: %v", inst.Name, err)
		_ = formatter.Error(instance.ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	doc, err := interchange.FromSession(session)
	if err != nil {
		msg := fmt.Sprintf("capture instance %s: %v", inst.Name, err)
		_ = formatter.Error(instance.ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	f, err := os.Create(opts.Output)
	if err != nil {
		msg := fmt.Sprintf("create %s: %v", opts.Output, err)
		_ = formatter.Error(instance.ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	if err := interchange.Encode(f, doc); err != nil {
		f.Close()
		msg := fmt.Sprintf("encode %s: %v", opts.Output, err)
		_ = formatter.Error(instance.ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	if err := f.Close(); err != nil {
		msg := fmt.Sprintf("close %s: %v", opts.Output, err)
		_ = formatter.Error(instance.ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	formatter.VerboseLog("Captured %d interval(s), %d constraint(s)", len(doc.Intervals), len(doc.Constraints.Items))

	if formatter.Format == "json" {
		return formatter.Success(ExportReport{
			Instance:  inst.Name,
			File:      opts.Output,
			Intervals: len(doc.Intervals),
		})
	}
	fmt.Fprintf(formatter.Writer, "wrote %s (instance %s)\n", opts.Output, inst.Name)
	return nil
}

// pickInstance selects the instance to export. With no explicit name
// the directory must hold exactly one instance.
func pickInstance(instances []*instance.Instance, name string) (*instance.Instance, error) {
	if name == "" {
		if len(instances) == 1 {
			return instances[0], nil
		}
		names := make([]string, 0, len(instances))
		for _, in := range instances {
			names = append(names, in.Name)
		}
		return nil, fmt.Errorf("directory holds %d instances (%s), pick one with --instance",
			len(instances), strings.Join(names, ", "))
	}
	for _, in := range instances {
		if in.Name == name {
			return in, nil
		}
	}
	return nil, fmt.Errorf("instance %q not found", name)
}
