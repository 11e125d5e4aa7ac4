package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sassloader/internal/depstore"
	"github.com/roach88/sassloader/internal/importer"
)

// DepsOptions holds flags for the deps command.
type DepsOptions struct {
	*RootOptions
	DB string
}

// DepsResult is the JSON payload of the deps command.
type DepsResult struct {
	Path       string   `json:"path"`
	Dependents []string `json:"dependents"`
}

// NewDepsCommand creates the deps command.
func NewDepsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DepsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "deps <path>",
		Short: "List stylesheets whose last compile included a file",
		Long: `List the entry stylesheets whose most recent recorded compile included
<path>. These are the stylesheets to rebuild when <path> changes.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "dependency database written by compile --db (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runDeps(opts *DepsOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	s, err := depstore.Open(opts.DB)
	if err != nil {
		return commandError(formatter, ErrCodeStore, err.Error(), err)
	}
	defer s.Close()

	target := importer.NormalizePath(path)
	dependents, err := s.Dependents(cmd.Context(), target)
	if err != nil {
		return commandError(formatter, ErrCodeStore, err.Error(), err)
	}

	if formatter.Format == "json" {
		return formatter.Success(DepsResult{Path: target, Dependents: dependents})
	}

	if len(dependents) == 0 {
		fmt.Fprintf(formatter.Writer, "No recorded stylesheet includes %s\n", target)
		return nil
	}
	for _, d := range dependents {
		fmt.Fprintln(formatter.Writer, d)
	}
	return nil
}
