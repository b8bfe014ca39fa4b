package integration

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/fairyhunter13/product-catalog-service/internal/cache"
	"github.com/fairyhunter13/product-catalog-service/internal/catalog"
	"github.com/fairyhunter13/product-catalog-service/internal/config"
	httpapi "github.com/fairyhunter13/product-catalog-service/internal/http"
	"github.com/fairyhunter13/product-catalog-service/internal/model"
	"github.com/fairyhunter13/product-catalog-service/internal/obs"
)

func TestIntegration_ServerRoundTrip(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("CORS_ORIGINS", "http://localhost:5274, http://other.test")
	cfg, err := config.Load()
	require.NoError(t, err)
	obs.InitLogger("error")
	catalogCache := cache.New[[]model.Product](cache.WithName("catalog"), cache.WithScanInterval(time.Second))
	defer catalogCache.Close()
	out := httpapi.NewOutputCache(httpapi.OutputCacheConfig{
		Expiration:    cfg.OutputCacheExpiration,
		SizeLimit:     cfg.OutputCacheSizeLimit,
		VaryByHeaders: cfg.OutputCacheVaryBy,
	})
	defer out.Close()
	app := httpapi.NewApp(cfg, catalogCache, out)
	srv := httptest.NewServer(httpapi.NewRouter(app))
	defer srv.Close()

	var bodies []string
	origins := []string{"http://localhost:5274", "http://other.test", "http://localhost:5274"}
	for _, origin := range origins {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/products", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		b, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		require.NoError(t, err)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "public, max-age=300", resp.Header.Get("Cache-Control"))
		assert.Equal(t, origin, resp.Header.Get("Access-Control-Allow-Origin"))
		bodies = append(bodies, string(b))
	}
	assert.Equal(t, bodies[0], bodies[1])
	assert.Equal(t, bodies[0], bodies[2])
	assert.Equal(t, int64(6), gjson.Get(bodies[0], "#").Int())

	cached, ok := catalogCache.Get(catalog.ProductsCacheKey)
	require.True(t, ok)
	assert.Equal(t, catalog.Products()[5].Name, cached[5].Name)
	assert.EqualValues(t, 1, catalogCache.Stats().Writes)
	assert.EqualValues(t, 2, out.Stats().Hits)
}
