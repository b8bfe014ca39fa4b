package httpapi

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/product-catalog-service/internal/testutil"
)

type countingHandler struct {
	calls  atomic.Int32
	status int
	cookie bool
	body   string
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.calls.Add(1)
	w.Header().Set("Content-Type", "text/plain")
	if h.cookie {
		w.Header().Set("Set-Cookie", "session=1")
	}
	if h.status != 0 {
		w.WriteHeader(h.status)
	}
	_, _ = w.Write([]byte(h.body))
}

func newTestOutputCache(t *testing.T, cfg OutputCacheConfig) (*OutputCache, *testutil.Clock) {
	t.Helper()
	clk := testutil.NewClock(time.Now())
	if cfg.Expiration == 0 {
		cfg.Expiration = 5 * time.Minute
	}
	cfg.Clock = clk.Now
	cfg.ScanInterval = -1
	oc := NewOutputCache(cfg)
	t.Cleanup(oc.Close)
	return oc, clk
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestOutputCache_StoresAndReplays(t *testing.T) {
	oc, clk := newTestOutputCache(t, OutputCacheConfig{})
	next := &countingHandler{body: "hello"}
	h := oc.Middleware(next)

	first := serve(h, httptest.NewRequest(http.MethodGet, "/x", nil))
	clk.Advance(42 * time.Second)
	second := serve(h, httptest.NewRequest(http.MethodGet, "/X", nil))

	assert.EqualValues(t, 1, next.calls.Load(), "path match is case-insensitive")
	assert.Equal(t, "hello", first.Body.String())
	assert.Equal(t, "hello", second.Body.String())
	assert.Equal(t, "text/plain", second.Header().Get("Content-Type"))
	assert.Equal(t, "42", second.Header().Get("Age"))
}

func TestOutputCache_ExpiresAfterConfiguredLifetime(t *testing.T) {
	oc, clk := newTestOutputCache(t, OutputCacheConfig{Expiration: time.Minute})
	next := &countingHandler{body: "v"}
	h := oc.Middleware(next)

	serve(h, httptest.NewRequest(http.MethodGet, "/x", nil))
	clk.Advance(time.Minute)
	rr := serve(h, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.EqualValues(t, 2, next.calls.Load())
	assert.Empty(t, rr.Header().Get("Age"))
}

func TestOutputCache_KeyNormalizesQueryAndVariesByHeaders(t *testing.T) {
	oc, _ := newTestOutputCache(t, OutputCacheConfig{})
	next := &countingHandler{body: "v"}
	h := oc.Middleware(next)

	serve(h, httptest.NewRequest(http.MethodGet, "/x?b=2&a=1", nil))
	serve(h, httptest.NewRequest(http.MethodGet, "/x?a=1&b=2", nil))
	require.EqualValues(t, 1, next.calls.Load())

	req := httptest.NewRequest(http.MethodGet, "/x?a=1&b=2", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	serve(h, req)
	assert.EqualValues(t, 2, next.calls.Load())

	serve(h, httptest.NewRequest(http.MethodHead, "/x?a=1&b=2", nil))
	assert.EqualValues(t, 3, next.calls.Load(), "method is part of the key")
}

func TestOutputCache_CustomVaryByHeaders(t *testing.T) {
	oc, _ := newTestOutputCache(t, OutputCacheConfig{VaryByHeaders: []string{"X-Tenant"}})
	next := &countingHandler{body: "v"}
	h := oc.Middleware(next)

	for _, tenant := range []string{"a", "b", "a"} {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("X-Tenant", tenant)
		req.Header.Set("Accept", "text/"+tenant)
		serve(h, req)
	}
	assert.EqualValues(t, 2, next.calls.Load(), "only X-Tenant selects entries")
	assert.Equal(t, 2, oc.Stats().Count)
}

func TestOutputCache_Bypass(t *testing.T) {
	cases := []struct {
		name string
		next *countingHandler
		req  func() *http.Request
	}{
		{"post", &countingHandler{body: "v"}, func() *http.Request {
			return httptest.NewRequest(http.MethodPost, "/x", nil)
		}},
		{"authorization", &countingHandler{body: "v"}, func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/x", nil)
			r.Header.Set("Authorization", "Bearer t")
			return r
		}},
		{"non_200", &countingHandler{status: http.StatusNotFound, body: "v"}, func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/x", nil)
		}},
		{"set_cookie", &countingHandler{cookie: true, body: "v"}, func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/x", nil)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			oc, _ := newTestOutputCache(t, OutputCacheConfig{})
			h := oc.Middleware(tc.next)
			first := serve(h, tc.req())
			serve(h, tc.req())
			assert.EqualValues(t, 2, tc.next.calls.Load())
			assert.Equal(t, 0, oc.Stats().Count)
			if tc.next.status != 0 {
				assert.Equal(t, tc.next.status, first.Code)
			}
		})
	}
}

func TestOutputCache_OuterHeadersNotStored(t *testing.T) {
	oc, _ := newTestOutputCache(t, OutputCacheConfig{})
	next := &countingHandler{body: "v"}
	inner := oc.Middleware(next)
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Outer", r.Header.Get("X-Tag"))
		inner.ServeHTTP(w, r)
	})

	r1 := httptest.NewRequest(http.MethodGet, "/x", nil)
	r1.Header.Set("X-Tag", "one")
	serve(h, r1)
	r2 := httptest.NewRequest(http.MethodGet, "/x", nil)
	r2.Header.Set("X-Tag", "two")
	rr := serve(h, r2)

	assert.EqualValues(t, 1, next.calls.Load())
	assert.Equal(t, []string{"two"}, rr.Header().Values("X-Outer"))
	assert.Equal(t, []string{"text/plain"}, rr.Header().Values("Content-Type"))
}

func TestOutputCache_SizeLimit(t *testing.T) {
	oc, _ := newTestOutputCache(t, OutputCacheConfig{SizeLimit: 4})
	next := &countingHandler{body: "too large"}
	h := oc.Middleware(next)

	rr := serve(h, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, "too large", rr.Body.String(), "oversized responses are still served")
	serve(h, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.EqualValues(t, 2, next.calls.Load())
	assert.Equal(t, 0, oc.Stats().Count)
}
