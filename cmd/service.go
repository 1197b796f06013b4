package cmd

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/isometry/smartsheet-webhook-app/internal/config"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func cmdService() *cobra.Command {
	return &cobra.Command{
		Use:     "service",
		Aliases: []string{"s", "serve", "standalone", "server"},
		Short:   "Run as a standalone HTTP service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runService(cmd)
		},
	}
}

func runService(cmd *cobra.Command) error {
	logger = logger.With("mode", config.ModeService)
	rt, err := setup(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "failed to setup service")
	}

	logger.Debug("creating HTTP server...")
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Handle(config.Service.Path, rt)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle(config.Service.MetricsPath, promhttp.Handler())

	s := &http.Server{
		Handler:      r,
		Addr:         net.JoinHostPort(config.Service.Addr, config.Service.Port),
		WriteTimeout: config.Service.Timeout,
		ReadTimeout:  config.Service.Timeout,
		IdleTimeout:  config.Service.Timeout,
	}

	logStartup("serving...")
	logger.Info("listening", "address", s.Addr, "path", config.Service.Path, "timeout", config.Service.Timeout.String())
	return s.ListenAndServe()
}
