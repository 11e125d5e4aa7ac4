package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sassloader/internal/engine"
)

// EngineInfo describes one discoverable engine.
type EngineInfo struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Capabilities []string `json:"capabilities"`
	Default      bool     `json:"default"`
}

// NewEnginesCommand creates the engines command.
func NewEnginesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List the Sass engines that can be used",
		Long: `List every Sass engine that can be discovered on this machine, in
preference order. The first one is used when no engine is named.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngines(rootOpts, cmd)
		},
	}
}

func runEngines(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	sel := opts.selector(opts.logger(cmd.ErrOrStderr()))

	handles := sel.Available()
	infos := make([]EngineInfo, 0, len(handles))
	for i, h := range handles {
		flags := h.Caps.Flags()
		if flags == nil {
			flags = []string{}
		}
		infos = append(infos, EngineInfo{
			Name:         h.Name,
			Version:      h.Version,
			Capabilities: flags,
			Default:      i == 0,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(infos)
	}

	if len(infos) == 0 {
		fmt.Fprintf(formatter.Writer, "No engine available (known: %s)\n", strings.Join(engine.Known(), ", "))
		return nil
	}
	for _, info := range infos {
		marker := " "
		if info.Default {
			marker = "*"
		}
		caps := strings.Join(info.Capabilities, ", ")
		if caps == "" {
			caps = "none"
		}
		fmt.Fprintf(formatter.Writer, "%s %s %s [%s]\n", marker, info.Name, info.Version, caps)
	}
	return nil
}
