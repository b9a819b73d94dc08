package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/materialgate/gatepass/internal/auth"
	"github.com/materialgate/gatepass/internal/httpapi"
	"github.com/materialgate/gatepass/internal/logging"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gatepass HTTP server",
		Long:  "Start the API server the site crew's phones talk to. Stops cleanly on SIGINT/SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svcs, err := openServices(ctx)
			if err != nil {
				return err
			}
			defer svcs.Close()

			tokens := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
			server := httpapi.NewServer(cfg, svcs.svc, svcs.gen, tokens)

			log := logging.Component("serve")
			if cfg.Site.BaseURL != "" {
				log.Info().
					Str("base_url", cfg.Site.BaseURL).
					Msgf("server-access QR: %s/api/v1/server-qr", cfg.Site.BaseURL)
			} else {
				log.Info().Msg(fmt.Sprintf("listening on %s:%d; set site.base_url to print the gate QR link", cfg.Server.Host, cfg.Server.Port))
			}

			return server.Run(ctx)
		},
	}
}
