package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/authz"
	promexport "github.com/MrEthical07/goSession/metrics/export/prometheus"
	"github.com/MrEthical07/goSession/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve session introspection and metrics over HTTP",
	Long: `serve exposes:

  GET    /healthz   liveness
  GET    /metrics   Prometheus metrics (when metrics are enabled)
  GET    /session   the caller's principal
  DELETE /session   logout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		engine, cleanup, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		router, err := newRouter(engine)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		}
		errCh := make(chan error, 1)
		go func() {
			logger.Info("listening", "addr", cfg.HTTPAddr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func newRouter(engine *goSession.Engine) (http.Handler, error) {
	cookie := engine.Config().Cookie
	src := middleware.FirstOf(middleware.FromCookie(cookie.Name), middleware.FromBearer())

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if engine.Config().Metrics.Enabled {
		h, err := promexport.Handler(engine)
		if err != nil {
			return nil, err
		}
		r.Handle("/metrics", h)
	}

	r.With(middleware.Require(engine, src, authz.AnyPrincipal())).Get("/session", func(w http.ResponseWriter, req *http.Request) {
		granted, ok := middleware.AuthorizedFromContext(req.Context())
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"user_id": granted.ID().String(),
			"role":    granted.Role().String(),
		})
	})

	r.Delete("/session", func(w http.ResponseWriter, req *http.Request) {
		if token, ok := src(req); ok {
			if err := engine.Logout(middleware.RequestContext(req), token); err != nil {
				http.Error(w, http.StatusText(middleware.StatusFor(err)), middleware.StatusFor(err))
				return
			}
		}
		middleware.ClearSessionCookie(w, cookie)
		w.WriteHeader(http.StatusNoContent)
	})

	return r, nil
}
