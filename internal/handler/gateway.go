package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/mir00r/airtraffic/internal/control"
	cerrors "github.com/mir00r/airtraffic/internal/errors"
	"github.com/mir00r/airtraffic/internal/middleware"
	"github.com/mir00r/airtraffic/pkg/logger"
)

// ClientFactory opens a control client. The gateway asks for a fresh client
// per request because a Client carries one command at a time.
type ClientFactory func(ctx context.Context) (*control.Client, error)

// DialFactory returns a ClientFactory dialing opts
func DialFactory(opts control.Options, log *logger.Logger) ClientFactory {
	return func(ctx context.Context) (*control.Client, error) {
		return control.New(ctx, opts, log)
	}
}

// ControlHandler exposes the control client over HTTP
type ControlHandler struct {
	newClient ClientFactory
	logger    *logger.Logger
}

// NewControlHandler creates a new control handler
func NewControlHandler(factory ClientFactory, logger *logger.Logger) *ControlHandler {
	return &ControlHandler{
		newClient: factory,
		logger:    logger.GatewayLogger(),
	}
}

// CommandResponse is returned by every raw-text command
type CommandResponse struct {
	Action string `json:"action"`
	Output string `json:"output"`
}

// WeightRequest is the body of PUT .../weight
type WeightRequest struct {
	Value    *int `json:"value"`
	Relative bool `json:"relative"`
}

// LimitRequest is the body of maxconn and rate-limit updates
type LimitRequest struct {
	Max *uint32 `json:"max"`
	SSL bool    `json:"ssl,omitempty"`
}

// MapEntryRequest is the body of PUT /maps/{name}
type MapEntryRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ErrorResponse represents error responses
type ErrorResponse struct {
	Error     string            `json:"error"`
	Code      cerrors.ErrorCode `json:"code"`
	Details   string            `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	RequestID string            `json:"request_id,omitempty"`
}

type command func(ctx context.Context, c *control.Client) (string, error)

// run opens a client, executes cmd and writes its raw output
func (h *ControlHandler) run(w http.ResponseWriter, r *http.Request, action string, cmd command) {
	var output string
	err := h.withClient(r, func(ctx context.Context, c *control.Client) error {
		var err error
		output, err = cmd(ctx, c)
		return err
	})
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}

	fields := map[string]interface{}{
		"action":     action,
		"request_id": middleware.RequestID(r.Context()),
	}
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		fields["user"] = claims.Username
	}
	h.logger.WithFields(fields).Info("Command executed")

	writeJSON(w, http.StatusOK, CommandResponse{Action: action, Output: output})
}

func (h *ControlHandler) withClient(r *http.Request, fn func(ctx context.Context, c *control.Client) error) error {
	if err := checkRequest(r); err != nil {
		return err
	}
	ctx := r.Context()
	client, err := h.newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(ctx, client)
}

// InfoHandler handles GET /api/v1/info
func (h *ControlHandler) InfoHandler(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "show_info", func(ctx context.Context, c *control.Client) (string, error) {
		return c.Info(ctx)
	})
}

// SessionsHandler handles GET /api/v1/sessions
func (h *ControlHandler) SessionsHandler(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	h.run(w, r, "show_sessions", func(ctx context.Context, c *control.Client) (string, error) {
		return c.Sessions(ctx, id)
	})
}

// ShutdownSessionHandler handles DELETE /api/v1/sessions/{id}
func (h *ControlHandler) ShutdownSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	h.run(w, r, "shutdown_session", func(ctx context.Context, c *control.Client) (string, error) {
		return c.ShutdownSession(ctx, id)
	})
}

// ErrorsHandler handles GET /api/v1/errors
func (h *ControlHandler) ErrorsHandler(w http.ResponseWriter, r *http.Request) {
	selector := control.AnyFallible
	if id := r.URL.Query().Get("id"); id != "" {
		selector = control.Fallible(id)
	}
	h.run(w, r, "show_errors", func(ctx context.Context, c *control.Client) (string, error) {
		return c.Errors(ctx, selector)
	})
}

// StatsHandler handles GET /api/v1/stats?proxy=&type=&server=&columns=
func (h *ControlHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter, err := control.ParseStatableFilter(query.Get("type"))
	if err != nil {
		h.writeErrorResponse(w, r, cerrors.NewInvalidRequestError(err.Error()))
		return
	}
	proxy := control.AnyProxy
	if p := query.Get("proxy"); p != "" {
		proxy = control.ParseProxySelector(p)
	}
	server := control.AnyServer
	if s := query.Get("server"); s != "" {
		server = control.ParseServerSelector(s)
	}

	var records []control.Stats
	err = h.withClient(r, func(ctx context.Context, c *control.Client) error {
		var err error
		records, err = c.Stat(ctx, proxy, filter, server)
		return err
	})
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}

	columns := splitColumns(query.Get("columns"))
	if len(columns) == 0 {
		writeJSON(w, http.StatusOK, records)
		return
	}

	projected := make([]map[string]string, 0, len(records))
	for _, record := range records {
		row := make(map[string]string, len(columns))
		for _, col := range columns {
			v, err := record.Get(col)
			if err != nil {
				h.writeErrorResponse(w, r, err)
				return
			}
			row[col] = v
		}
		projected = append(projected, row)
	}
	writeJSON(w, http.StatusOK, projected)
}

// ServerStateHandler handles POST /api/v1/backends/{backend}/servers/{server}/{action}
func (h *ControlHandler) ServerStateHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	backend, server := vars["backend"], vars["server"]

	switch vars["action"] {
	case "enable":
		h.run(w, r, "enable_server", func(ctx context.Context, c *control.Client) (string, error) {
			return c.EnableServer(ctx, backend, server)
		})
	case "disable":
		h.run(w, r, "disable_server", func(ctx context.Context, c *control.Client) (string, error) {
			return c.DisableServer(ctx, backend, server)
		})
	default:
		h.writeErrorResponse(w, r, cerrors.NewInvalidRequestError("action must be enable or disable"))
	}
}

// AgentStateHandler handles POST /api/v1/backends/{backend}/servers/{server}/agent/{action}
func (h *ControlHandler) AgentStateHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	backend, server := vars["backend"], vars["server"]

	switch vars["action"] {
	case "enable":
		h.run(w, r, "enable_agent", func(ctx context.Context, c *control.Client) (string, error) {
			return c.EnableAgent(ctx, backend, server)
		})
	case "disable":
		h.run(w, r, "disable_agent", func(ctx context.Context, c *control.Client) (string, error) {
			return c.DisableAgent(ctx, backend, server)
		})
	default:
		h.writeErrorResponse(w, r, cerrors.NewInvalidRequestError("action must be enable or disable"))
	}
}

// ShutdownServerSessionsHandler handles DELETE /api/v1/backends/{backend}/servers/{server}/sessions
func (h *ControlHandler) ShutdownServerSessionsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h.run(w, r, "shutdown_sessions", func(ctx context.Context, c *control.Client) (string, error) {
		return c.ShutdownSessions(ctx, vars["backend"], vars["server"])
	})
}

// GetWeightHandler handles GET /api/v1/backends/{backend}/servers/{server}/weight
func (h *ControlHandler) GetWeightHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h.run(w, r, "get_weight", func(ctx context.Context, c *control.Client) (string, error) {
		return c.GetWeight(ctx, vars["backend"], vars["server"])
	})
}

// SetWeightHandler handles PUT /api/v1/backends/{backend}/servers/{server}/weight
func (h *ControlHandler) SetWeightHandler(w http.ResponseWriter, r *http.Request) {
	var req WeightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Value == nil {
		h.writeErrorResponse(w, r, cerrors.NewInvalidRequestError("body must be {\"value\": n, \"relative\": bool}"))
		return
	}
	if *req.Value < 0 {
		h.writeErrorResponse(w, r, cerrors.NewInvalidRequestError("weight cannot be negative"))
		return
	}

	weight := weightFromRequest(*req.Value, req.Relative)
	vars := mux.Vars(r)
	h.run(w, r, "set_weight", func(ctx context.Context, c *control.Client) (string, error) {
		return c.SetWeight(ctx, vars["backend"], vars["server"], weight)
	})
}

// weightFromRequest narrows v to the input width of the weight constructors;
// the constructors then clamp to the protocol range
func weightFromRequest(v int, relative bool) control.Weight {
	if relative {
		if v > 255 {
			v = 255
		}
		return control.Relative(uint8(v))
	}
	if v > 65535 {
		v = 65535
	}
	return control.Absolute(uint16(v))
}

// FrontendStateHandler handles POST /api/v1/frontends/{name}/{action}
func (h *ControlHandler) FrontendStateHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := vars["name"]

	switch vars["action"] {
	case "enable":
		h.run(w, r, "enable_frontend", func(ctx context.Context, c *control.Client) (string, error) {
			return c.EnableFrontend(ctx, name)
		})
	case "disable":
		h.run(w, r, "disable_frontend", func(ctx context.Context, c *control.Client) (string, error) {
			return c.DisableFrontend(ctx, name)
		})
	case "shutdown":
		h.run(w, r, "shutdown_frontend", func(ctx context.Context, c *control.Client) (string, error) {
			return c.ShutdownFrontend(ctx, name)
		})
	default:
		h.writeErrorResponse(w, r, cerrors.NewInvalidRequestError("action must be enable, disable or shutdown"))
	}
}

// FrontendMaxConnHandler handles PUT /api/v1/frontends/{name}/maxconn
func (h *ControlHandler) FrontendMaxConnHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeLimit(w, r)
	if !ok {
		return
	}
	name := mux.Vars(r)["name"]
	h.run(w, r, "set_maxconn_frontend", func(ctx context.Context, c *control.Client) (string, error) {
		return c.MaxFrontendConnections(ctx, name, *req.Max)
	})
}

// GlobalMaxConnHandler handles PUT /api/v1/global/maxconn
func (h *ControlHandler) GlobalMaxConnHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeLimit(w, r)
	if !ok {
		return
	}
	h.run(w, r, "set_maxconn_global", func(ctx context.Context, c *control.Client) (string, error) {
		return c.MaxGlobalConnections(ctx, *req.Max)
	})
}

// GlobalRateLimitHandler handles PUT /api/v1/global/rate-limit/{kind}
func (h *ControlHandler) GlobalRateLimitHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeLimit(w, r)
	if !ok {
		return
	}
	max := *req.Max

	switch kind := mux.Vars(r)["kind"]; kind {
	case "connections":
		h.run(w, r, "rate_limit_connections", func(ctx context.Context, c *control.Client) (string, error) {
			return c.RateLimitGlobalConnections(ctx, max)
		})
	case "http-compression":
		h.run(w, r, "rate_limit_http_compression", func(ctx context.Context, c *control.Client) (string, error) {
			return c.RateLimitGlobalHTTPCompression(ctx, max)
		})
	case "sessions":
		h.run(w, r, "rate_limit_sessions", func(ctx context.Context, c *control.Client) (string, error) {
			return c.RateLimitGlobalSessions(ctx, max, req.SSL)
		})
	default:
		h.writeErrorResponse(w, r, cerrors.NewInvalidRequestError("unknown rate limit "+kind))
	}
}

func (h *ControlHandler) decodeLimit(w http.ResponseWriter, r *http.Request) (LimitRequest, bool) {
	var req LimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Max == nil {
		h.writeErrorResponse(w, r, cerrors.NewInvalidRequestError("body must be {\"max\": n}"))
		return req, false
	}
	return req, true
}

// ListMapsHandler handles GET /api/v1/maps
func (h *ControlHandler) ListMapsHandler(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "show_map", func(ctx context.Context, c *control.Client) (string, error) {
		return c.ShowMap(ctx, "")
	})
}

// GetMapHandler handles GET /api/v1/maps/{name}[?value=]
func (h *ControlHandler) GetMapHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	query := r.URL.Query()
	if query.Has("value") {
		value := query.Get("value")
		h.run(w, r, "get_map", func(ctx context.Context, c *control.Client) (string, error) {
			return c.MapGet(ctx, name, value)
		})
		return
	}
	h.run(w, r, "show_map", func(ctx context.Context, c *control.Client) (string, error) {
		return c.ShowMap(ctx, name)
	})
}

// SetMapHandler handles PUT /api/v1/maps/{name}
func (h *ControlHandler) SetMapHandler(w http.ResponseWriter, r *http.Request) {
	var req MapEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		h.writeErrorResponse(w, r, cerrors.NewInvalidRequestError("body must be {\"key\": k, \"value\": v}"))
		return
	}
	for field, v := range map[string]string{"key": req.Key, "value": req.Value} {
		if err := checkArgument(field, v); err != nil {
			h.writeErrorResponse(w, r, err)
			return
		}
	}
	name := mux.Vars(r)["name"]
	h.run(w, r, "set_map", func(ctx context.Context, c *control.Client) (string, error) {
		return c.MapSet(ctx, name, req.Key, req.Value)
	})
}

// ClearMapHandler handles DELETE /api/v1/maps/{name}
func (h *ControlHandler) ClearMapHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	h.run(w, r, "clear_map", func(ctx context.Context, c *control.Client) (string, error) {
		return c.MapClear(ctx, name)
	})
}

// writeErrorResponse writes a structured error response
func (h *ControlHandler) writeErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{
		Error:     err.Error(),
		Code:      cerrors.GetErrorCode(err),
		Timestamp: time.Now().UTC(),
		RequestID: middleware.RequestID(r.Context()),
	}
	var cErr *cerrors.ControlError
	if errors.As(err, &cErr) {
		resp.Error = cErr.Message
		resp.Details = cErr.Details
	}

	status := cerrors.GetHTTPStatusCode(err)
	if status >= 500 {
		h.logger.WithError(err).WithField("path", r.URL.Path).Error("Control command failed")
	}
	writeJSON(w, status, resp)
}

// checkArgument rejects a value that would end the command line early. The
// socket runs every ";" or newline separated command it reads, so one of these
// inside an argument would run as a command of its own.
func checkArgument(name, value string) error {
	if strings.ContainsAny(value, ";\r\n") {
		return cerrors.NewInvalidRequestError(fmt.Sprintf("%s must not contain ';' or line breaks", name))
	}
	return nil
}

// checkRequest applies checkArgument to every path variable and query value
func checkRequest(r *http.Request) error {
	for name, v := range mux.Vars(r) {
		if err := checkArgument(name, v); err != nil {
			return err
		}
	}
	for name, values := range r.URL.Query() {
		for _, v := range values {
			if err := checkArgument(name, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func splitColumns(s string) []string {
	if s == "" {
		return nil
	}
	var cols []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}
