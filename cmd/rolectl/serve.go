package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fernandezvara/roles"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const subjectHeader = "X-Subject-ID"

func newServeCmd(a *app) *cobra.Command {
	var (
		addr    string
		require []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a demo API gated by role requirements",
		Long: `Serve GET /whoami, GET /protected and /metrics.
The subject id is read from the X-Subject-ID header. /protected is gated by
the --require tokens; a leading "required" demands every role.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			router, err := newRouter(a.service, a.logger, a.metrics, require)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(a.ctx(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("listening", zap.String("addr", addr), zap.Strings("require", require))
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
			a.logger.Info("shutting down")
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default server.addr)")
	cmd.Flags().StringSliceVar(&require, "require", nil, "Requirement tokens for /protected, e.g. --require required,admin,editor")
	return cmd
}

// newRouter wires the role middleware into a chi router.
func newRouter(loader roles.RoleLoader, logger *zap.Logger, metrics *roles.Metrics, require []string) (http.Handler, error) {
	mw := roles.NewMiddleware(loader,
		roles.WithSubjectResolver(roles.SubjectFromHeader(subjectHeader)),
		roles.WithLogger(logger),
		roles.WithMetrics(metrics),
	)

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.With(mw.LoadRoles()).Get("/whoami", whoami)

	if len(require) > 0 {
		req, err := roles.ParseRequirement(require...)
		if err != nil {
			return nil, err
		}
		r.With(mw.Handler(req)).Get("/protected", whoami)
	}

	return r, nil
}

func whoami(w http.ResponseWriter, r *http.Request) {
	sr := roles.RolesFromContext(r.Context())
	body := map[string]any{
		"request_id": roles.GetRequestID(r.Context()),
		"roles":      []string{},
	}
	if sr != nil {
		body["subject_id"] = sr.SubjectID
		body["roles"] = sr.Names()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

// requestID propagates X-Request-ID or assigns a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(roles.WithRequestID(r.Context(), id)))
	})
}
