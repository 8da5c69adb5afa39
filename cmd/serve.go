package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/orderlens-cli/internal/dashboard"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive dashboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := settings()
		t, err := loadTable(cmd)
		if err != nil {
			return err
		}
		addr := serveAddr
		if addr == "" {
			addr = c.ServerAddr
		}
		mode := c.GinMode
		if debug {
			mode = "debug"
		}
		srv := dashboard.NewServer(t, dashboard.Options{
			Mode:        mode,
			TopN:        c.TopN,
			DefaultVars: c.DefaultVars,
			LogOutput:   cmd.ErrOrStderr(),
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Dashboard for %s (%d rows) on %s\n", t.Name(), t.Len(), addr)
		return srv.Run(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config server_addr)")
}
