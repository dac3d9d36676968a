package api

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/warp/labor-calculator/metrics"
	"github.com/warp/labor-calculator/session"
)

// ProxyPrefix is stripped before requests are forwarded to the account API.
const ProxyPrefix = "/api/proxy"

// newProxy forwards /api/proxy/* to the account API. The browser's cookies
// never leave this service; the session's bearer token is sent instead, and
// upstream Set-Cookie headers are dropped.
func (h *Handler) newProxy() (*httputil.ReverseProxy, error) {
	target, err := url.Parse(h.Config.APIURL)
	if err != nil {
		return nil, err
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			path := strings.TrimPrefix(pr.In.URL.Path, ProxyPrefix)
			if path == "" {
				path = "/"
			}
			pr.Out.URL.Path = path
			pr.Out.URL.RawPath = ""
			pr.SetURL(target)
			pr.SetXForwarded()

			pr.Out.Header.Del("Cookie")
			pr.Out.Header.Del("Authorization")
			if s := session.FromContext(pr.In.Context()); s != nil {
				pr.Out.Header.Set("Authorization", "Bearer "+s.AccessToken)
			}
		},
		ModifyResponse: func(resp *http.Response) error {
			resp.Header.Del("Set-Cookie")
			h.Metrics.ProxiedRequests.WithLabelValues(metrics.StatusClass(resp.StatusCode)).Inc()
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			h.Metrics.ProxiedRequests.WithLabelValues("error").Inc()
			h.Logger.Error("proxy", zap.String("path", r.URL.Path), zap.Error(err))
			writeError(w, http.StatusBadGateway, "Account API unavailable", nil)
		},
	}, nil
}

// Proxy forwards the request to the account API.
// ANY /api/proxy/*
func (h *Handler) Proxy(w http.ResponseWriter, r *http.Request) {
	h.proxy.ServeHTTP(w, r)
}
