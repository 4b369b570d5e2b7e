package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/mir00r/airtraffic/internal/config"
	"github.com/mir00r/airtraffic/internal/control"
	"github.com/mir00r/airtraffic/internal/control/controltest"
	cerrors "github.com/mir00r/airtraffic/internal/errors"
	"github.com/mir00r/airtraffic/internal/middleware"
	"github.com/mir00r/airtraffic/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statCSV = "# pxname,svname,scur,status,\n" +
	"be1,srv1,3,UP,\n" +
	"be1,srv2,0,DOWN,\n"

func createTestGateway(t *testing.T, cfg config.GatewayConfig, handler controltest.Handler) (http.Handler, *controltest.Server) {
	t.Helper()
	socket := controltest.NewServer(t, handler)
	router, err := NewRouter(cfg, DialFactory(control.DefaultOptions(socket.Path), logger.Discard()), "test", logger.Discard())
	require.NoError(t, err)
	return router, socket
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeCommand(t *testing.T, rec *httptest.ResponseRecorder) CommandResponse {
	t.Helper()
	var resp CommandResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestGateway_Commands(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		command string
		action  string
	}{
		{"info", "GET", "/api/v1/info", "", "show info", "show_info"},
		{"all sessions", "GET", "/api/v1/sessions", "", "show sess", "show_sessions"},
		{"one session", "GET", "/api/v1/sessions?id=0x7f", "", "show sess 0x7f", "show_sessions"},
		{"kill session", "DELETE", "/api/v1/sessions/0x7f", "", "shutdown session 0x7f", "shutdown_session"},
		{"errors", "GET", "/api/v1/errors?id=be1", "", "show errors be1", "show_errors"},
		{"enable server", "POST", "/api/v1/backends/be1/servers/srv1/enable", "", "enable server be1/srv1", "enable_server"},
		{"disable server", "POST", "/api/v1/backends/be1/servers/srv1/disable", "", "disable server be1/srv1", "disable_server"},
		{"enable agent", "POST", "/api/v1/backends/be1/servers/srv1/agent/enable", "", "enable agent be1/srv1", "enable_agent"},
		{"disable agent", "POST", "/api/v1/backends/be1/servers/srv1/agent/disable", "", "disable agent be1/srv1", "disable_agent"},
		{"kill server sessions", "DELETE", "/api/v1/backends/be1/servers/srv1/sessions", "", "shutdown sessions be1/srv1", "shutdown_sessions"},
		{"get weight", "GET", "/api/v1/backends/be1/servers/srv1/weight", "", "get weight be1/srv1", "get_weight"},
		{"absolute weight", "PUT", "/api/v1/backends/be1/servers/srv1/weight", `{"value":300}`, "set weight be1/srv1 256", "set_weight"},
		{"relative weight", "PUT", "/api/v1/backends/be1/servers/srv1/weight", `{"value":50,"relative":true}`, "set weight be1/srv1 50%", "set_weight"},
		{"enable frontend", "POST", "/api/v1/frontends/fe1/enable", "", "enable frontend fe1", "enable_frontend"},
		{"disable frontend", "POST", "/api/v1/frontends/fe1/disable", "", "disable frontend fe1", "disable_frontend"},
		{"shutdown frontend", "POST", "/api/v1/frontends/fe1/shutdown", "", "shutdown frontend fe1", "shutdown_frontend"},
		{"frontend maxconn", "PUT", "/api/v1/frontends/fe1/maxconn", `{"max":500}`, "set maxconn frontend fe1 500", "set_maxconn_frontend"},
		{"global maxconn", "PUT", "/api/v1/global/maxconn", `{"max":4000}`, "set maxconn global 4000", "set_maxconn_global"},
		{"conn rate", "PUT", "/api/v1/global/rate-limit/connections", `{"max":100}`, "set rate-limit connections global 100", "rate_limit_connections"},
		{"compression rate", "PUT", "/api/v1/global/rate-limit/http-compression", `{"max":2048}`, "set rate-limit http-compression global 2048", "rate_limit_http_compression"},
		{"session rate", "PUT", "/api/v1/global/rate-limit/sessions", `{"max":10}`, "set rate-limit sessions global 10", "rate_limit_sessions"},
		{"ssl session rate", "PUT", "/api/v1/global/rate-limit/sessions", `{"max":10,"ssl":true}`, "set rate-limit ssl_sessions global 10", "rate_limit_sessions"},
		{"list maps", "GET", "/api/v1/maps", "", "show map", "show_map"},
		{"show map", "GET", "/api/v1/maps/hosts.map", "", "show map hosts.map", "show_map"},
		{"nested map name", "GET", "/api/v1/maps/maps/hosts.map", "", "show map maps/hosts.map", "show_map"},
		{"get map", "GET", "/api/v1/maps/hosts.map?value=example.com", "", "get map hosts.map example.com", "get_map"},
		{"set map", "PUT", "/api/v1/maps/hosts.map", `{"key":"example.com","value":"be2"}`, "set map hosts.map example.com be2", "set_map"},
		{"clear map", "DELETE", "/api/v1/maps/hosts.map", "", "clear map hosts.map", "clear_map"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, socket := createTestGateway(t, config.DefaultConfig().Gateway, controltest.Static("ok\n"))

			rec := do(router, tt.method, tt.path, tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

			resp := decodeCommand(t, rec)
			assert.Equal(t, tt.action, resp.Action)
			assert.Equal(t, "ok\n", resp.Output)
			assert.Equal(t, []string{tt.command}, socket.Commands())
		})
	}
}

func TestGateway_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"weight without value", "PUT", "/api/v1/backends/be1/servers/srv1/weight", `{"relative":true}`},
		{"negative weight", "PUT", "/api/v1/backends/be1/servers/srv1/weight", `{"value":-1}`},
		{"weight not json", "PUT", "/api/v1/backends/be1/servers/srv1/weight", `fifty`},
		{"maxconn without max", "PUT", "/api/v1/global/maxconn", `{}`},
		{"negative maxconn", "PUT", "/api/v1/global/maxconn", `{"max":-5}`},
		{"unknown rate limit", "PUT", "/api/v1/global/rate-limit/bandwidth", `{"max":1}`},
		{"unknown frontend action", "POST", "/api/v1/frontends/fe1/restart", ""},
		{"unknown agent action", "POST", "/api/v1/backends/be1/servers/srv1/agent/restart", ""},
		{"map entry without key", "PUT", "/api/v1/maps/hosts.map", `{"value":"be2"}`},
		{"unknown stat type", "GET", "/api/v1/stats?type=listeners", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, socket := createTestGateway(t, config.DefaultConfig().Gateway, controltest.Static(""))

			rec := do(router, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, cerrors.ErrCodeInvalidRequest, decodeError(t, rec).Code)
			assert.Empty(t, socket.Commands())
		})
	}
}

func TestGateway_RejectsCommandSeparators(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"session id semicolon", "GET", "/api/v1/sessions?id=1%3Bdisable%20server%20be1/srv1", ""},
		{"session id newline", "GET", "/api/v1/sessions?id=1%0Adisable%20server%20be1/srv1", ""},
		{"session path semicolon", "DELETE", "/api/v1/sessions/1%3Bshow%20info", ""},
		{"errors proxy semicolon", "GET", "/api/v1/errors?id=be1%3Bshow%20info", ""},
		{"stats proxy newline", "GET", "/api/v1/stats?proxy=be1%0Ashow%20info", ""},
		{"stats server carriage return", "GET", "/api/v1/stats?server=srv1%0Dshow%20info", ""},
		{"backend semicolon", "POST", "/api/v1/backends/be1%3Bshow%20info/servers/srv1/enable", ""},
		{"backend newline", "POST", "/api/v1/backends/be1%0Ashow%20info/servers/srv1/disable", ""},
		{"server semicolon", "POST", "/api/v1/backends/be1/servers/srv1%3Bshow%20info/agent/enable", ""},
		{"server newline", "PUT", "/api/v1/backends/be1/servers/srv1%0Ashow%20info/weight", `{"value":10}`},
		{"frontend semicolon", "POST", "/api/v1/frontends/fe1%3Bshow%20info/enable", ""},
		{"map name semicolon", "DELETE", "/api/v1/maps/hosts.map%3Bshow%20info", ""},
		{"map lookup newline", "GET", "/api/v1/maps/hosts.map?value=a%0Ashow%20info", ""},
		{"map key semicolon", "PUT", "/api/v1/maps/hosts.map", `{"key":"a;clear map hosts.map","value":"be2"}`},
		{"map key newline", "PUT", "/api/v1/maps/hosts.map", `{"key":"a\nclear map hosts.map","value":"be2"}`},
		{"map value semicolon", "PUT", "/api/v1/maps/hosts.map", `{"key":"a","value":"be2;clear map hosts.map"}`},
		{"map value newline", "PUT", "/api/v1/maps/hosts.map", `{"key":"a","value":"be2\nclear map hosts.map"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, socket := createTestGateway(t, config.DefaultConfig().Gateway, controltest.Static("ok\n"))

			rec := do(router, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, cerrors.ErrCodeInvalidRequest, decodeError(t, rec).Code)
			assert.Empty(t, socket.Commands())
		})
	}
}

func TestGateway_ReaderCannotChainWrites(t *testing.T) {
	cfg := config.DefaultConfig().Gateway
	cfg.Auth.Enabled = true
	cfg.Auth.SecretKey = "gateway-test-secret"
	router, socket := createTestGateway(t, cfg, controltest.Static("ok\n"))

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.JWTClaims{
		Username: "viewer",
		Roles:    []string{"viewer"},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(cfg.Auth.SecretKey))
	require.NoError(t, err)

	send := func(method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, send("POST", "/api/v1/backends/be1/servers/srv1/disable"))
	assert.Equal(t, http.StatusBadRequest, send("GET", "/api/v1/sessions?id=1%3Bdisable%20server%20be1/srv1"))
	assert.Empty(t, socket.Commands())

	assert.Equal(t, http.StatusOK, send("GET", "/api/v1/sessions?id=1"))
	assert.Equal(t, []string{"show sess 1"}, socket.Commands())
}

func TestGateway_Stats(t *testing.T) {
	router, socket := createTestGateway(t, config.DefaultConfig().Gateway, controltest.Static(statCSV))

	rec := do(router, "GET", "/api/v1/stats?proxy=be1&type=servers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"show stat be1 4 -1"}, socket.Commands())

	var records []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "srv1", records[0][control.ColServiceName])
	assert.Equal(t, "DOWN", records[1][control.ColStatus])
}

func TestGateway_StatsColumns(t *testing.T) {
	router, _ := createTestGateway(t, config.DefaultConfig().Gateway, controltest.Static(statCSV))

	rec := do(router, "GET", "/api/v1/stats?columns=svname,+scur", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var records []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	assert.Equal(t, []map[string]string{
		{"svname": "srv1", "scur": "3"},
		{"svname": "srv2", "scur": "0"},
	}, records)
}

func TestGateway_StatsUnknownColumn(t *testing.T) {
	router, _ := createTestGateway(t, config.DefaultConfig().Gateway, controltest.Static(statCSV))

	rec := do(router, "GET", "/api/v1/stats?columns=rtime", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, cerrors.ErrCodeFieldAccess, decodeError(t, rec).Code)
}

func TestGateway_StatsMalformed(t *testing.T) {
	router, _ := createTestGateway(t, config.DefaultConfig().Gateway, controltest.Static(""))

	rec := do(router, "GET", "/api/v1/stats", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, cerrors.ErrCodeProtocolDecode, decodeError(t, rec).Code)
}

func TestGateway_SocketUnavailable(t *testing.T) {
	opts := control.DefaultOptions(filepath.Join(t.TempDir(), "missing.sock"))
	router, err := NewRouter(config.DefaultConfig().Gateway, DialFactory(opts, logger.Discard()), "test", logger.Discard())
	require.NoError(t, err)

	rec := do(router, "GET", "/api/v1/info", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	resp := decodeError(t, rec)
	assert.Equal(t, cerrors.ErrCodeConnectionFailed, resp.Code)
	assert.NotEmpty(t, resp.RequestID)

	rec = do(router, "GET", "/readiness", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(router, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGateway_Readiness(t *testing.T) {
	router, socket := createTestGateway(t, config.DefaultConfig().Gateway, controltest.Static("Name: HAProxy\n"))

	rec := do(router, "GET", "/readiness", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"show info"}, socket.Commands())
}

func TestGateway_AuthGuardsAPIOnly(t *testing.T) {
	cfg := config.DefaultConfig().Gateway
	cfg.Auth.Enabled = true
	cfg.Auth.SecretKey = "gateway-test-secret"
	router, socket := createTestGateway(t, cfg, controltest.Static("ok"))

	rec := do(router, "GET", "/api/v1/info", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, socket.Commands())

	rec = do(router, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGateway_AuthWithoutSecret(t *testing.T) {
	cfg := config.DefaultConfig().Gateway
	cfg.Auth.Enabled = true

	_, err := NewRouter(cfg, DialFactory(control.DefaultOptions("/nonexistent"), nil), "test", logger.Discard())
	assert.Error(t, err)
}

func TestGateway_Swagger(t *testing.T) {
	router, _ := createTestGateway(t, config.DefaultConfig().Gateway, nil)

	rec := do(router, "GET", "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "airtraffic gateway")
	assert.Contains(t, rec.Body.String(), "/global/rate-limit/{kind}")
}

func TestGateway_SwaggerDisabled(t *testing.T) {
	cfg := config.DefaultConfig().Gateway
	cfg.Swagger = false
	router, _ := createTestGateway(t, cfg, nil)

	rec := do(router, "GET", "/swagger/doc.json", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWeightFromRequest(t *testing.T) {
	assert.Equal(t, "256", weightFromRequest(70000, false).String())
	assert.Equal(t, "12", weightFromRequest(12, false).String())
	assert.Equal(t, "100%", weightFromRequest(1000, true).String())
	assert.Equal(t, "0%", weightFromRequest(0, true).String())
}
