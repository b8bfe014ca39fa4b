package httpapi

import (
	"expvar"
	"net/http"
)

// NewRouter registers HTTP routes and returns the handler with middleware.
//
// Outermost first: request id, request logging, CORS, Cache-Control, HTTPS
// redirection. The output cache wraps only the product list route.
func NewRouter(app *App) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/products", app.Output.Middleware(http.HandlerFunc(app.getProductsHandler)))
	mux.HandleFunc("/healthz", app.healthHandler)
	mux.HandleFunc("/debug/metrics", app.metricsHandler)
	mux.Handle("/debug/vars", expvar.Handler())
	if app.Cfg.IsDevelopment() {
		mux.HandleFunc("/openapi.yaml", app.openapiHandler)
		mux.HandleFunc("/docs", app.docsHandler)
	}

	var h http.Handler = mux
	h = WithHTTPSRedirect(app.Cfg.HTTPSPort, h)
	h = WithCacheControl(app.Cfg.CacheControlMaxAge, h)
	h = WithCORS(app.Cfg.CORSOrigins, h)
	return WithRequestID(WithLogging(h))
}
