package httpapi

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/fairyhunter13/product-catalog-service/internal/cache"
	"github.com/fairyhunter13/product-catalog-service/internal/obs"
)

// OutputCacheConfig configures the whole-response cache.
type OutputCacheConfig struct {
	Expiration    time.Duration
	SizeLimit     int64 // bytes of cached bodies, 0 is unbounded
	VaryByHeaders []string
	ScanInterval  time.Duration
	Clock         func() time.Time
}

// CachedResponse is a stored response: what the wrapped handler wrote.
type CachedResponse struct {
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// OutputCache caches complete responses of the handlers it wraps. It is
// unrelated to the data caches those handlers may use, and its entries
// expire on their own schedule.
type OutputCache struct {
	store      *cache.Memory[*CachedResponse]
	expiration time.Duration
	varyBy     []string
}

// NewOutputCache creates an output cache. Requests vary by Accept and
// Accept-Encoding unless VaryByHeaders is set.
func NewOutputCache(cfg OutputCacheConfig) *OutputCache {
	varyBy := cfg.VaryByHeaders
	if len(varyBy) == 0 {
		varyBy = []string{"Accept", "Accept-Encoding"}
	}
	opts := []cache.Option{
		cache.WithName("output"),
		cache.WithSizeLimit(cfg.SizeLimit),
		cache.WithClock(cfg.Clock),
	}
	if cfg.ScanInterval != 0 {
		opts = append(opts, cache.WithScanInterval(cfg.ScanInterval))
	}
	return &OutputCache{
		store:      cache.New[*CachedResponse](opts...),
		expiration: cfg.Expiration,
		varyBy:     varyBy,
	}
}

// Stats returns the counters of the underlying store. Size is in bytes.
func (oc *OutputCache) Stats() cache.Stats { return oc.store.Stats() }

// Close stops the background sweep.
func (oc *OutputCache) Close() { oc.store.Close() }

func cacheableRequest(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	return r.Header.Get("Authorization") == ""
}

// key identifies a request: method, scheme, host, case-insensitive path,
// sorted query and the values of the varying headers.
func (oc *OutputCache) key(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	var b strings.Builder
	b.WriteString(r.Method)
	b.WriteByte('\x1e')
	b.WriteString(scheme)
	b.WriteString("://")
	b.WriteString(strings.ToLower(r.Host))
	b.WriteString(strings.ToLower(r.URL.Path))
	if q := r.URL.Query(); len(q) > 0 {
		b.WriteByte('?')
		b.WriteString(q.Encode())
	}
	for _, h := range oc.varyBy {
		b.WriteByte('\x1e')
		b.WriteString(strings.ToLower(h))
		b.WriteByte('=')
		b.WriteString(strings.Join(r.Header.Values(h), ","))
	}
	return b.String()
}

// Middleware serves stored responses and stores fresh 200 responses.
func (oc *OutputCache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !cacheableRequest(r) {
			next.ServeHTTP(w, r)
			return
		}
		key := oc.key(r)
		if cr, ok := oc.store.Get(key); ok {
			cr.replay(w, oc.store.Now())
			return
		}

		rec := &responseCapture{header: make(http.Header)}
		next.ServeHTTP(rec, r)
		if rec.storable() {
			cr := rec.snapshot(oc.store.Now())
			oc.store.Set(key, cr, cache.EntryOptions{
				AbsoluteExpirationRelativeToNow: oc.expiration,
				Priority:                        cache.PriorityNormal,
				Size:                            int64(len(cr.Body)),
			})
			obs.Logger.Debug("output_cache_store",
				"path", r.URL.Path,
				"bytes", humanize.IBytes(uint64(len(cr.Body))),
				"request_id", RequestIDFromContext(r.Context()),
			)
		}
		rec.flush(w)
	})
}

func (cr *CachedResponse) replay(w http.ResponseWriter, now time.Time) {
	h := w.Header()
	for k, vs := range cr.Header {
		h[k] = append([]string(nil), vs...)
	}
	age := int(now.Sub(cr.StoredAt).Seconds())
	if age < 0 {
		age = 0
	}
	h.Set("Age", strconv.Itoa(age))
	w.WriteHeader(cr.Status)
	_, _ = w.Write(cr.Body)
}

// responseCapture buffers a response. Headers the wrapped handler sets go to
// a private map, so headers added by outer middleware are neither stored
// nor replayed.
type responseCapture struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (c *responseCapture) Header() http.Header { return c.header }

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	return c.body.Write(b)
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

func (c *responseCapture) storable() bool {
	return c.statusCode() == http.StatusOK && c.header.Get("Set-Cookie") == ""
}

func (c *responseCapture) snapshot(now time.Time) *CachedResponse {
	return &CachedResponse{
		Status:   c.statusCode(),
		Header:   c.header.Clone(),
		Body:     bytes.Clone(c.body.Bytes()),
		StoredAt: now,
	}
}

func (c *responseCapture) flush(w http.ResponseWriter) {
	h := w.Header()
	for k, vs := range c.header {
		h[k] = vs
	}
	w.WriteHeader(c.statusCode())
	_, _ = w.Write(c.body.Bytes())
}
