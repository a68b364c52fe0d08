package router

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/lintang-b-s/Segmentx/pkg/http/router/controllers"
	router_helper "github.com/lintang-b-s/Segmentx/pkg/http/router/routerhelper"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type Options struct {
	MaxBodyBytes int64
	RateLimit    float64 // requests per second per client, <= 0 disables the limiter
	RateBurst    int
}

type API struct {
	log  *zap.Logger
	opts Options
}

func NewAPI(log *zap.Logger, opts Options) *API {
	return &API{log: log, opts: opts}
}

// Handler. the full middleware chain around the router:
//
//	POST /api/reports        csv body -> text report blocks
//	POST /api/reports/json   csv body -> json summary, segments and routes
//	GET  /metrics            prometheus
//	GET  /healthz            heartbeat
func (api *API) Handler(reportService controllers.ReportService, metricsHandler http.Handler) http.Handler {
	router := httprouter.New()

	corsHandler := cors.New(cors.Options{ //nolint:gocritic // ignore
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, //nolint:mnd // ignore
	})

	if metricsHandler != nil {
		router.Handler(http.MethodGet, "/metrics", metricsHandler)
	}

	group := router_helper.NewRouteGroup(router, "/api")
	reportRoutes := controllers.New(reportService, api.opts.MaxBodyBytes, api.log)
	reportRoutes.Routes(group)

	mwChain := []alice.Constructor{corsHandler.Handler, api.recoverPanic, RealIP, Heartbeat("healthz"), Logger(api.log)}
	if api.opts.RateLimit > 0 {
		burst := api.opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		mwChain = append(mwChain, Limit(api.opts.RateLimit, burst))
	}
	return alice.New(mwChain...).Then(router)
}
