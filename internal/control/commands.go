package control

import (
	"context"
	"fmt"
)

// Info returns the output of "show info"
func (c *Client) Info(ctx context.Context) (string, error) {
	return c.request(ctx, "show info")
}

// Sessions dumps sessions. An empty id lists every session.
func (c *Client) Sessions(ctx context.Context, id string) (string, error) {
	return c.request(ctx, fmt.Sprintf("show sess %s", id))
}

// Errors dumps the last captured request and response errors
func (c *Client) Errors(ctx context.Context, proxy FallibleSelector) (string, error) {
	return c.request(ctx, fmt.Sprintf("show errors %s", proxy.Token()))
}

// ShutdownSession kills the session with the given id
func (c *Client) ShutdownSession(ctx context.Context, id string) (string, error) {
	return c.request(ctx, fmt.Sprintf("shutdown session %s", id))
}

// ShutdownSessions kills every session attached to backend/server
func (c *Client) ShutdownSessions(ctx context.Context, backend, server string) (string, error) {
	return c.request(ctx, fmt.Sprintf("shutdown sessions %s/%s", backend, server))
}

// Stat runs "show stat" and decodes the CSV response
func (c *Client) Stat(ctx context.Context, proxy ProxySelector, filter StatableFilter, server ServerSelector) ([]Stats, error) {
	response, err := c.request(ctx, fmt.Sprintf("show stat %s %s %s", proxy.Token(), filter.Token(), server.Token()))
	if err != nil {
		return nil, err
	}
	return DecodeStats(response)
}

// ShowMap lists the loaded maps, or the entries of one map when name is set
func (c *Client) ShowMap(ctx context.Context, name string) (string, error) {
	if name == "" {
		return c.request(ctx, "show map")
	}
	return c.request(ctx, fmt.Sprintf("show map %s", name))
}

// MapGet looks up value in the map
func (c *Client) MapGet(ctx context.Context, name, value string) (string, error) {
	return c.request(ctx, fmt.Sprintf("get map %s %s", name, value))
}

// MapSet replaces the value stored under key
func (c *Client) MapSet(ctx context.Context, name, key, value string) (string, error) {
	return c.request(ctx, fmt.Sprintf("set map %s %s %s", name, key, value))
}

// MapClear removes every entry of the map
func (c *Client) MapClear(ctx context.Context, name string) (string, error) {
	return c.request(ctx, fmt.Sprintf("clear map %s", name))
}

// DisableAgent stops the agent check of the server
func (c *Client) DisableAgent(ctx context.Context, backend, server string) (string, error) {
	return c.request(ctx, fmt.Sprintf("disable agent %s/%s", backend, server))
}

// EnableAgent resumes the agent check of the server
func (c *Client) EnableAgent(ctx context.Context, backend, server string) (string, error) {
	return c.request(ctx, fmt.Sprintf("enable agent %s/%s", backend, server))
}

// DisableServer puts the server in maintenance mode
func (c *Client) DisableServer(ctx context.Context, backend, server string) (string, error) {
	return c.request(ctx, fmt.Sprintf("disable server %s/%s", backend, server))
}

// EnableServer takes the server out of maintenance mode
func (c *Client) EnableServer(ctx context.Context, backend, server string) (string, error) {
	return c.request(ctx, fmt.Sprintf("enable server %s/%s", backend, server))
}

// DisableFrontend stops accepting connections on the frontend's listeners
func (c *Client) DisableFrontend(ctx context.Context, name string) (string, error) {
	return c.request(ctx, fmt.Sprintf("disable frontend %s", name))
}

// EnableFrontend resumes a frontend stopped with DisableFrontend
func (c *Client) EnableFrontend(ctx context.Context, name string) (string, error) {
	return c.request(ctx, fmt.Sprintf("enable frontend %s", name))
}

// ShutdownFrontend stops the frontend permanently
func (c *Client) ShutdownFrontend(ctx context.Context, name string) (string, error) {
	return c.request(ctx, fmt.Sprintf("shutdown frontend %s", name))
}

// MaxFrontendConnections changes the frontend's maxconn
func (c *Client) MaxFrontendConnections(ctx context.Context, name string, max uint32) (string, error) {
	return c.request(ctx, fmt.Sprintf("set maxconn frontend %s %d", name, max))
}

// GetWeight reports the current and initial weight of a server
func (c *Client) GetWeight(ctx context.Context, backend, server string) (string, error) {
	return c.request(ctx, fmt.Sprintf("get weight %s/%s", backend, server))
}

// SetWeight changes a server's weight
func (c *Client) SetWeight(ctx context.Context, backend, server string, weight Weight) (string, error) {
	return c.request(ctx, fmt.Sprintf("set weight %s/%s %s", backend, server, weight))
}

// MaxGlobalConnections changes the process-wide maxconn
func (c *Client) MaxGlobalConnections(ctx context.Context, max uint32) (string, error) {
	return c.request(ctx, fmt.Sprintf("set maxconn global %d", max))
}

// RateLimitGlobalConnections limits new connections per second
func (c *Client) RateLimitGlobalConnections(ctx context.Context, max uint32) (string, error) {
	return c.request(ctx, fmt.Sprintf("set rate-limit connections global %d", max))
}

// RateLimitGlobalHTTPCompression limits compressed output in kB/s
func (c *Client) RateLimitGlobalHTTPCompression(ctx context.Context, max uint32) (string, error) {
	return c.request(ctx, fmt.Sprintf("set rate-limit http-compression global %d", max))
}

// RateLimitGlobalSessions limits new sessions per second, or new SSL
// sessions when ssl is set
func (c *Client) RateLimitGlobalSessions(ctx context.Context, max uint32, ssl bool) (string, error) {
	prefix := ""
	if ssl {
		prefix = "ssl_"
	}
	return c.request(ctx, fmt.Sprintf("set rate-limit %ssessions global %d", prefix, max))
}
