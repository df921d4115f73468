package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cameraestellar/astrocam-go/pkg/discovery"
)

func findCmd() *cobra.Command {
	var (
		timeout time.Duration
		iface   string
	)

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Browse for remote shutters",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			found, err := discovery.Browse(ctx, discovery.BrowserConfig{Interface: iface})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			n := 0
			for svc := range found {
				n++
				fmt.Fprintf(w, "%-24s %-8s %s\n", svc.Instance, svc.ID, svc.URL())
			}
			if n == 0 {
				fmt.Fprintln(w, "No cameras found")
			}
			return nil
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", discovery.BrowseTimeout, "browse duration")
	cmd.Flags().StringVar(&iface, "interface", "", "network interface (default: all)")
	return cmd
}
