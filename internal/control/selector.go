package control

import (
	"fmt"
	"strconv"
	"strings"
)

// anyToken is the wildcard accepted by "show stat" for proxy and server ids
const anyToken = "-1"

// ProxySelector picks one proxy by name or id, or every proxy
type ProxySelector struct {
	id  string
	set bool
}

// Proxy selects the named proxy. The name is forwarded verbatim.
func Proxy(id string) ProxySelector {
	return ProxySelector{id: id, set: true}
}

// AnyProxy selects every proxy
var AnyProxy = ProxySelector{}

// IsAny reports whether the selector is the wildcard
func (p ProxySelector) IsAny() bool { return !p.set }

// Token renders the selector for the wire
func (p ProxySelector) Token() string {
	if !p.set {
		return anyToken
	}
	return p.id
}

// ParseProxySelector is the inverse of Token
func ParseProxySelector(token string) ProxySelector {
	if token == anyToken {
		return AnyProxy
	}
	return Proxy(token)
}

// ServerSelector picks one server by name or id, or every server
type ServerSelector struct {
	id  string
	set bool
}

// Server selects the named server. The name is forwarded verbatim.
func Server(id string) ServerSelector {
	return ServerSelector{id: id, set: true}
}

// AnyServer selects every server
var AnyServer = ServerSelector{}

// IsAny reports whether the selector is the wildcard
func (s ServerSelector) IsAny() bool { return !s.set }

// Token renders the selector for the wire
func (s ServerSelector) Token() string {
	if !s.set {
		return anyToken
	}
	return s.id
}

// ParseServerSelector is the inverse of Token
func ParseServerSelector(token string) ServerSelector {
	if token == anyToken {
		return AnyServer
	}
	return Server(token)
}

// FallibleSelector scopes "show errors" to one proxy. Unlike the other
// selectors its wildcard renders as an empty token.
type FallibleSelector struct {
	id  string
	set bool
}

// Fallible selects captured errors of the named proxy
func Fallible(id string) FallibleSelector {
	return FallibleSelector{id: id, set: true}
}

// AnyFallible selects captured errors of every proxy
var AnyFallible = FallibleSelector{}

// IsAny reports whether the selector is the wildcard
func (f FallibleSelector) IsAny() bool { return !f.set }

// Token renders the selector for the wire
func (f FallibleSelector) Token() string {
	if !f.set {
		return ""
	}
	return f.id
}

// StatableFilter restricts "show stat" to a class of proxy objects. The
// values are HAProxy's type bitmask; AnyStatable is a sentinel, not the
// union of the others.
type StatableFilter int8

const (
	Frontends   StatableFilter = 1
	Backends    StatableFilter = 2
	Servers     StatableFilter = 4
	AnyStatable StatableFilter = -1
)

// Token renders the filter for the wire
func (f StatableFilter) Token() string {
	return strconv.Itoa(int(f))
}

// String returns the filter name
func (f StatableFilter) String() string {
	switch f {
	case Frontends:
		return "frontends"
	case Backends:
		return "backends"
	case Servers:
		return "servers"
	case AnyStatable:
		return "any"
	default:
		return f.Token()
	}
}

// ParseStatableFilter accepts a filter name (frontends, backends, servers,
// any) or its numeric wire form
func ParseStatableFilter(s string) (StatableFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "frontends", "frontend", "1":
		return Frontends, nil
	case "backends", "backend", "2":
		return Backends, nil
	case "servers", "server", "4":
		return Servers, nil
	case "any", "", "-1":
		return AnyStatable, nil
	default:
		return 0, fmt.Errorf("unknown stat filter %q", s)
	}
}
