package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/fairyhunter13/product-catalog-service/internal/cache"
	"github.com/fairyhunter13/product-catalog-service/internal/catalog"
	"github.com/fairyhunter13/product-catalog-service/internal/config"
	httpopenapi "github.com/fairyhunter13/product-catalog-service/internal/http/openapi"
	"github.com/fairyhunter13/product-catalog-service/internal/model"
	"github.com/fairyhunter13/product-catalog-service/internal/obs"
)

// RouteGetProducts names the product list route in logs and the OpenAPI document.
const RouteGetProducts = "GetProducts"

// App carries the dependencies shared by the handlers.
type App struct {
	Cfg     config.Config
	Catalog *cache.Memory[[]model.Product]
	Output  *OutputCache
	started time.Time
}

// NewApp wires handlers to the catalog cache and the output cache.
func NewApp(cfg config.Config, catalogCache *cache.Memory[[]model.Product], out *OutputCache) *App {
	return &App{Cfg: cfg, Catalog: catalogCache, Output: out, started: time.Now()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) getProductsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeMethodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}
	if products, ok := a.Catalog.Get(catalog.ProductsCacheKey); ok {
		writeJSON(w, http.StatusOK, products)
		return
	}
	products := catalog.Products()
	a.Catalog.Set(catalog.ProductsCacheKey, products,
		catalog.CachePolicy(a.Cfg.CatalogAbsoluteExpiration, a.Cfg.CatalogSlidingExpiration))
	obs.Logger.Info("catalog_cache_miss",
		"route", RouteGetProducts,
		"key", catalog.ProductsCacheKey,
		"products", len(products),
		"request_id", RequestIDFromContext(r.Context()),
	)
	writeJSON(w, http.StatusOK, products)
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) metricsHandler(w http.ResponseWriter, r *http.Request) {
	out := a.Output.Stats()
	m := map[string]any{
		"catalog_cache": a.Catalog.Stats(),
		"output_cache": map[string]any{
			"hits":       out.Hits,
			"misses":     out.Misses,
			"writes":     out.Writes,
			"evictions":  out.Evictions,
			"count":      out.Count,
			"bytes":      out.Size,
			"bytes_text": humanize.IBytes(uint64(out.Size)),
		},
		"uptime_sec": time.Since(a.started).Seconds(),
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *App) openapiHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(httpopenapi.YAML)
}

func (a *App) docsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(docsPage))
}

const docsPage = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Product Catalog API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui'
      });
    </script>
  </body>
</html>`
