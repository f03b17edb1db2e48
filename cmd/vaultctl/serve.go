package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vaultkv/server/pkg/facade"
	"github.com/vaultkv/server/pkg/health"
	"github.com/vaultkv/server/pkg/log"
	"github.com/vaultkv/server/pkg/metrics"
)

// monitorStorageHealth runs f.CheckHealth against r at startup and then
// every interval until stopCh closes, so /readyz's "storage" component
// keeps reflecting a live Sync instead of going stale after the first
// check.
func monitorStorageHealth(f *facade.Facade, r *health.Registry, interval time.Duration, stopCh <-chan struct{}) {
	f.CheckHealth(r)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.CheckHealth(r)
		case <-stopCh:
			return
		}
	}
}

// requestID stamps every response with a fresh request ID and logs it
// alongside the method and path, so a line in the log can be matched back
// to a specific client-visible response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set("X-Request-Id", id)
		log.WithComponent("vaultctl").Debug().
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("handling request")
		next.ServeHTTP(w, r)
	})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Open the data directory and serve health and metrics endpoints",
	Long: `serve opens the facade against --data-dir and exposes /healthz,
/readyz, /livez, and /metrics. It does not expose the facade's data
operations over HTTP — that wire protocol is out of scope; this is the
ambient operational surface a production deployment wraps around it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		cfg, err := facadeConfig(cmd)
		if err != nil {
			return err
		}
		f, err := facade.GetOrOpen(cfg)
		if err != nil {
			return err
		}
		defer f.Close()

		registry := health.NewRegistry()
		registry.SetVersion(Version)
		registry.Update("registry", true, "")
		registry.Update("nonce_ledger", true, "")

		stopHealthMonitor := make(chan struct{})
		defer close(stopHealthMonitor)
		go monitorStorageHealth(f, registry, 30*time.Second, stopHealthMonitor)

		mux := http.NewServeMux()
		mux.Handle("/healthz", registry.HealthHandler())
		mux.Handle("/readyz", registry.ReadyHandler())
		mux.Handle("/livez", registry.LiveHandler())
		mux.Handle("/metrics", metrics.Handler())

		log.WithComponent("vaultctl").Info().Str("addr", addr).Msg("serving health and metrics endpoints")
		fmt.Printf("listening on %s (data dir: %s)\n", addr, dataDir(cmd))
		return http.ListenAndServe(addr, requestID(mux))
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "HTTP listen address for health and metrics")
}
