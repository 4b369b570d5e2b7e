package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/mir00r/airtraffic/internal/control"
)

type command struct {
	usage   string
	minArgs int
	maxArgs int
	run     func(ctx context.Context, c *control.Client, args []string, out io.Writer) error
}

// raw adapts a command that returns the peer's text verbatim
func raw(fn func(ctx context.Context, c *control.Client, args []string) (string, error)) func(context.Context, *control.Client, []string, io.Writer) error {
	return func(ctx context.Context, c *control.Client, args []string, out io.Writer) error {
		response, err := fn(ctx, c, args)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, response)
		return err
	}
}

func optional(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func parseMax(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q: %w", s, err)
	}
	return uint32(n), nil
}

var commands = map[string]command{
	"info": {usage: "", run: raw(func(ctx context.Context, c *control.Client, _ []string) (string, error) {
		return c.Info(ctx)
	})},
	"sess": {usage: "[id]", maxArgs: 1, run: raw(func(ctx context.Context, c *control.Client, args []string) (string, error) {
		return c.Sessions(ctx, optional(args, 0))
	})},
	"errors": {usage: "[proxy]", maxArgs: 1, run: raw(func(ctx context.Context, c *control.Client, args []string) (string, error) {
		selector := control.AnyFallible
		if id := optional(args, 0); id != "" {
			selector = control.Fallible(id)
		}
		return c.Errors(ctx, selector)
	})},
	"stat": {usage: "[proxy [type [server]]]", maxArgs: 3, run: runStat},
	"shutdown-session": {usage: "<id>", minArgs: 1, maxArgs: 1, run: raw(func(ctx context.Context, c *control.Client, args []string) (string, error) {
		return c.ShutdownSession(ctx, args[0])
	})},
	"shutdown-sessions": {usage: "<backend> <server>", minArgs: 2, maxArgs: 2, run: raw(func(ctx context.Context, c *control.Client, args []string) (string, error) {
		return c.ShutdownSessions(ctx, args[0], args[1])
	})},
	"enable-server": {usage: "<backend> <server>", minArgs: 2, maxArgs: 2, run: raw(func(ctx context.Context, c *control.Client, args []string) (string, error) {
		return c.EnableServer(ctx, args[0], args[1])
	})},
	"disable-server": {usage: "<backend> <server>", minArgs: 2, maxArgs: 2, run: raw(func(ctx context.Context, c *control.Client, args []string) (string, error) {
		return c.DisableServer(ctx, args[0], args[1])
	})},
	"enable-agent": {usage: "<backend> <server>", minArgs: 2, maxArgs: 2, run: raw(func(ctx context.Context, c *control.Client, args []string) (string, error) {
		return c.EnableAgent(ctx, args[0], args[1])
	})},
	"disable-agent": {usage: "<backend> <server>", minArgs: 2, maxArgs: 2, run: raw(func(ctx context.Context, c *control.Client, args []string) (string, error) {
		return c.DisableAgent(ctx, args[0], args[1])
	})},
	"get-weight": {usage: "<backend> <server>", minArgs: 2, maxArgs: 2, run: raw(func(ctx context.Context, c *control.Client, args []string) (string, error) {
		return c.GetWeight(ctx, args[0], args[1])
	})},
	"set-weight": {usage: "<backend> <server> <N|N%>", minArgs: 3, maxArgs: 3, run: raw(func(ctx context.Context, c *control.Client, args []string) (string, error) {
		weight, err := control.ParseWeight(args[2])
		if err != nil {
			return "", err
		}
		return c.SetWeight(ctx, args[0], args[1], weight)
	})},
	"enable-frontend": {usage: "<frontend>", minArgs: 1, maxArgs: 1, run: raw(func(ctx context.Context, c *control.Client, args []string) (string, error) {
		return c.EnableFrontend(ctx, args[0])
	})},
	"disable-frontend": {usage: "<frontend>", minArgs: 1, maxArgs: 1, run: raw(func(ctx context.Context, c *control.Client, args []string) (string, error) {
		return c.DisableFrontend(ctx, args[0])
	})},
	"shutdown-frontend": {usage: "<frontend>", minArgs: 1, maxArgs: 1, run: raw(func(ctx context.Context, c *control.Client, args []string) (string, error) {
		return c.ShutdownFrontend(ctx, args[0])
	})},
	"maxconn-frontend": {usage: "<frontend> <max>", minArgs: 2, maxArgs: 2, run: raw(func(ctx context.Context, c *control.Client, args []string) (string, error) {
		max, err := parseMax(args[1])
		if err != nil {
			return "", err
		}
		return c.MaxFrontendConnections(ctx, args[0], max)
	})},
	"maxconn-global": {usage: "<max>", minArgs: 1, maxArgs: 1, run: raw(func(ctx context.Context, c *control.Client, args []string) (string, error) {
		max, err := parseMax(args[0])
		if err != nil {
			return "", err
		}
		return c.MaxGlobalConnections(ctx, max)
	})},
	"rate-limit": {usage: "<connections|http-compression|sessions|ssl-sessions> <max>", minArgs: 2, maxArgs: 2, run: raw(runRateLimit)},
	"show-map": {usage: "[map]", maxArgs: 1, run: raw(func(ctx context.Context, c *control.Client, args []string) (string, error) {
		return c.ShowMap(ctx, optional(args, 0))
	})},
	"map-get": {usage: "<map> <value>", minArgs: 2, maxArgs: 2, run: raw(func(ctx context.Context, c *control.Client, args []string) (string, error) {
		return c.MapGet(ctx, args[0], args[1])
	})},
	"map-set": {usage: "<map> <key> <value>", minArgs: 3, maxArgs: 3, run: raw(func(ctx context.Context, c *control.Client, args []string) (string, error) {
		return c.MapSet(ctx, args[0], args[1], args[2])
	})},
	"map-clear": {usage: "<map>", minArgs: 1, maxArgs: 1, run: raw(func(ctx context.Context, c *control.Client, args []string) (string, error) {
		return c.MapClear(ctx, args[0])
	})},
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// runStat prints one JSON object per stats record
func runStat(ctx context.Context, c *control.Client, args []string, out io.Writer) error {
	filter, err := control.ParseStatableFilter(optional(args, 1))
	if err != nil {
		return err
	}
	proxy := control.AnyProxy
	if p := optional(args, 0); p != "" {
		proxy = control.ParseProxySelector(p)
	}
	server := control.AnyServer
	if s := optional(args, 2); s != "" {
		server = control.ParseServerSelector(s)
	}

	records, err := c.Stat(ctx, proxy, filter, server)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	for _, record := range records {
		if err := enc.Encode(record); err != nil {
			return err
		}
	}
	return nil
}

func runRateLimit(ctx context.Context, c *control.Client, args []string) (string, error) {
	max, err := parseMax(args[1])
	if err != nil {
		return "", err
	}
	switch args[0] {
	case "connections":
		return c.RateLimitGlobalConnections(ctx, max)
	case "http-compression":
		return c.RateLimitGlobalHTTPCompression(ctx, max)
	case "sessions":
		return c.RateLimitGlobalSessions(ctx, max, false)
	case "ssl-sessions":
		return c.RateLimitGlobalSessions(ctx, max, true)
	default:
		return "", fmt.Errorf("unknown rate limit %q", args[0])
	}
}
