// Package profiling starts opt-in pprof and Pyroscope profilers.
package profiling

import (
	"errors"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // bound to localhost only
	"os"
	"time"

	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
)

// StartPprofServer serves /debug/pprof on localhost when ENABLE_PROFILING=true.
func StartPprofServer(log infralogger.Logger) {
	if os.Getenv("ENABLE_PROFILING") != "true" {
		return
	}

	port := os.Getenv("PPROF_PORT")
	if port == "" {
		port = "6060"
	}
	addr := "localhost:" + port

	go func() {
		log.Info("Starting pprof server", infralogger.String("address", addr))
		srv := &http.Server{Addr: addr, ReadHeaderTimeout: 5 * time.Second}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("pprof server error", infralogger.Error(err))
		}
	}()
}
