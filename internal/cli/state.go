package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/soyeahso/queueboard/internal/config"
	"github.com/soyeahso/queueboard/internal/domain"
	"github.com/spf13/cobra"
)

func newStateCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print the current board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			if cfg.Database.Backend == "memory" {
				return fmt.Errorf("the memory backend only lives inside a running server")
			}

			be, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer be.close()

			snap, err := be.store.FullState(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}
			return printBoard(out, snap)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	return cmd
}

// printBoard writes both tables aligned. Priority is the last column so
// its color codes do not disturb alignment.
func printBoard(w io.Writer, snap domain.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "AGENT\tBACKLOG\tACTIVE\tPRIORITY")
	for _, st := range snap.Status {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", st.Name, st.Backlog, st.Active, priorityLabel(st.Priority))
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "AGENT\tEASY TO HANDLE\tINVESTIGATION\tAUTOCLOSE")
	for _, as := range snap.Assignment {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", as.Name, as.EasyToHandle, as.Investigation, as.AutocloseTickets)
	}
	return tw.Flush()
}

func priorityLabel(p string) string {
	switch p {
	case domain.PriorityP1:
		return color.New(color.FgRed, color.Bold).Sprint(p)
	case domain.PriorityP2:
		return color.New(color.FgYellow).Sprint(p)
	default:
		return "-"
	}
}
