package api

import (
	"net/http"
	"net/http/pprof"
	"runtime"

	"go.uber.org/zap"

	"arbitrage/internal/api/handlers"
	"arbitrage/internal/api/middleware"
	"arbitrage/internal/api/wsstream"
	"arbitrage/internal/broker"
	"arbitrage/internal/models"
	"arbitrage/internal/store"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies holds everything SetupRoutes needs to wire the HTTP
// surface: the snapshot store and opportunity broker behind the
// control plane, the running configuration, a push-stream server, and a
// logger for the request-logging and recovery middleware.
type Dependencies struct {
	Store  *store.Store
	Broker *broker.Broker
	Config models.Config
	Logger *zap.Logger
	Stream *wsstream.Server
}

// SetupRoutes wires every HTTP endpoint the control plane exposes.
//
// Route table:
//
//	GET  /api/v1/opportunities - current scan tick's profitable pairs
//	GET  /api/v1/status        - per-venue connection status
//	GET  /api/v1/pairs         - configured symbols
//	GET  /ws/stream            - push stream of opportunity lists
//	GET  /health               - liveness probe
//	GET  /metrics              - Prometheus exposition
//	/debug/pprof/*             - profiling, Basic-Auth gated
//	GET  /debug/runtime        - lightweight runtime stats, Basic-Auth gated
//
// Middleware order: Recovery, Logging, CORS, applied to every route.
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))
	router.Use(middleware.CORS)

	h := &handlers.Handlers{Store: deps.Store, Opportunities: deps.Broker, Config: deps.Config}

	apiV1 := router.PathPrefix("/api/v1").Subrouter()
	apiV1.HandleFunc("/opportunities", h.ListOpportunities).Methods("GET")
	apiV1.HandleFunc("/status", h.GetStatus).Methods("GET")
	apiV1.HandleFunc("/pairs", h.ListPairs).Methods("GET")

	if deps.Stream != nil {
		router.Handle("/ws/stream", deps.Stream).Methods("GET")
	}

	router.HandleFunc("/health", handlers.Health).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	debug := router.PathPrefix("/debug/pprof").Subrouter()
	debug.Use(middleware.DebugAuth)
	debug.HandleFunc("/", pprof.Index)
	debug.HandleFunc("/cmdline", pprof.Cmdline)
	debug.HandleFunc("/profile", pprof.Profile)
	debug.HandleFunc("/symbol", pprof.Symbol)
	debug.HandleFunc("/trace", pprof.Trace)
	debug.HandleFunc("/heap", func(w http.ResponseWriter, r *http.Request) { pprof.Handler("heap").ServeHTTP(w, r) })
	debug.HandleFunc("/goroutine", func(w http.ResponseWriter, r *http.Request) { pprof.Handler("goroutine").ServeHTTP(w, r) })
	debug.HandleFunc("/block", func(w http.ResponseWriter, r *http.Request) { pprof.Handler("block").ServeHTTP(w, r) })
	debug.HandleFunc("/allocs", func(w http.ResponseWriter, r *http.Request) { pprof.Handler("allocs").ServeHTTP(w, r) })

	router.Handle("/debug/runtime", middleware.DebugAuth(http.HandlerFunc(runtimeStats))).Methods("GET")

	return router
}

// runtimeStats reports a handful of runtime.MemStats fields as hand-built
// JSON, skipping a struct-plus-encoding round trip for four numbers on a
// debug-only endpoint.
func runtimeStats(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{`))
	w.Write([]byte(`"goroutines":` + itoa(runtime.NumGoroutine()) + `,`))
	w.Write([]byte(`"heap_alloc_mb":` + ftoa(float64(m.HeapAlloc)/1024/1024) + `,`))
	w.Write([]byte(`"heap_sys_mb":` + ftoa(float64(m.HeapSys)/1024/1024) + `,`))
	w.Write([]byte(`"num_gc":` + itoa(int(m.NumGC)) + `,`))
	w.Write([]byte(`"gc_pause_total_ms":` + ftoa(float64(m.PauseTotalNs)/1e6)))
	w.Write([]byte(`}`))
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	pos := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		pos--
		b[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		b[pos] = '-'
	}
	return string(b[pos:])
}

func ftoa(f float64) string {
	i := int(f * 100)
	whole := i / 100
	frac := i % 100
	if frac < 0 {
		frac = -frac
	}
	fracStr := itoa(frac)
	if len(fracStr) == 1 {
		fracStr = "0" + fracStr
	}
	return itoa(whole) + "." + fracStr
}
