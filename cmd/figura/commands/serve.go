package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tsawler/figura/internal/server"
)

var (
	servePort    int
	serveHost    string
	serveNoLabel bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve figure extraction over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		if cmd.Flags().Changed("host") {
			cfg.Server.Host = serveHost
		}
		if serveNoLabel {
			cfg.Classifier.Provider = "none"
		}

		c, err := newClassifier()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.New(cfg, c, logger).ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8090, "listen port")
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "listen host")
	serveCmd.Flags().BoolVar(&serveNoLabel, "no-classify", false, "skip classification")
	rootCmd.AddCommand(serveCmd)
}
