package cmd

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/browsergrid/internal/api"
	"github.com/xkilldash9x/browsergrid/internal/config"
	"github.com/xkilldash9x/browsergrid/internal/driver/chrome"
	"github.com/xkilldash9x/browsergrid/internal/elements"
	"github.com/xkilldash9x/browsergrid/internal/observability"
	"github.com/xkilldash9x/browsergrid/internal/ops"
	"github.com/xkilldash9x/browsergrid/internal/registry"
	"github.com/xkilldash9x/browsergrid/internal/waitengine"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the session service HTTP API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	logger := observability.GetLogger()
	defer observability.Sync()
	cfg := config.Get()

	factory := chrome.NewFactory(ctx, logger, cfg)
	defer factory.Close()

	elems := elements.NewManager()
	sessions := registry.New(logger, cfg, factory, elems)
	wait := waitengine.New(logger, sessions, elems, cfg.Driver.WaitPollInterval)
	facade := ops.New(logger, cfg, sessions, elems, wait)
	server := api.NewServer(logger, cfg, sessions, facade)

	err := server.ListenAndServe(ctx)

	// Sessions are torn down after the listener stops accepting requests
	// and before the allocator goes away.
	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	closed := sessions.CloseAll(closeCtx)
	logger.Info("Service stopped", zap.Int("sessions_closed", closed))

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
