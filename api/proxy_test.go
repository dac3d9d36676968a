package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/labor-calculator/account"
	"github.com/warp/labor-calculator/config"
	"github.com/warp/labor-calculator/metrics"
	"github.com/warp/labor-calculator/session"
)

func TestProxy_InjectsBearerAndStripsCookies(t *testing.T) {
	// GIVEN: A signed-in browser that also carries an unrelated cookie
	e := newTestEnv(t)
	c := e.login(t)

	// WHEN: It calls the proxy
	rec := e.do(http.MethodGet, "/api/proxy/echo", "", "", c, &http.Cookie{Name: "other", Value: "1"})

	// THEN: Upstream sees the bearer token and no cookies; the browser sees
	// no upstream cookies
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var seen map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &seen))
	assert.Equal(t, "/echo", seen["path"])
	assert.Equal(t, "Bearer tok-123", seen["authorization"])
	assert.Empty(t, seen["cookie"])
	assert.Empty(t, rec.Header().Values("Set-Cookie"))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.handler.Metrics.ProxiedRequests.WithLabelValues("2xx")))
}

func TestProxy_ClientAuthorizationIgnored(t *testing.T) {
	e := newTestEnv(t)
	c := e.login(t)

	req := httptest.NewRequest(http.MethodPost, "/api/proxy/echo", nil)
	req.Header.Set("Authorization", "Bearer forged")
	req.AddCookie(c)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var seen map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &seen))
	assert.Equal(t, http.MethodPost, seen["method"])
	assert.Equal(t, "Bearer tok-123", seen["authorization"])
}

func TestProxy_UpstreamDown(t *testing.T) {
	// GIVEN: An account API that is not listening
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()

	cfg := config.Defaults()
	cfg.APIURL = dead.URL
	cfg.SessionSecret = testSecret
	accounts, err := account.NewClient(cfg.APIURL, time.Second)
	require.NoError(t, err)
	store := session.NewMemory()
	sessions := session.NewManager(store, session.Options{Secret: testSecret, TTL: time.Hour})
	h, err := NewHandler(Deps{Config: cfg, Accounts: accounts, Sessions: sessions, Metrics: metrics.New(), Logger: zap.NewNop()})
	require.NoError(t, err)

	s, err := sessions.Create(t.Context(), &account.Grant{AccessToken: "tok", User: account.User{ID: "u1"}}, "credentials")
	require.NoError(t, err)
	login := httptest.NewRecorder()
	sessions.SetCookie(login, s)

	// WHEN: A signed-in request is proxied
	req := httptest.NewRequest(http.MethodGet, "/api/proxy/anything", nil)
	for _, ck := range login.Result().Cookies() {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	NewRouter(h).ServeHTTP(rec, req)

	// THEN: 502 with a JSON error
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Account API unavailable")
	assert.Equal(t, 1.0, testutil.ToFloat64(h.Metrics.ProxiedRequests.WithLabelValues("error")))
}
