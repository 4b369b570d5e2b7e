// Package controltest provides an in-process stand-in for HAProxy's stats
// socket: it reads one ";"-terminated command per connection, answers, and
// closes the connection the way HAProxy's non-interactive CLI does.
package controltest

import (
	"bufio"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// Handler answers one command. The trailing ";" is stripped.
type Handler func(command string) string

// Server is a fake control socket listening on a unix path
type Server struct {
	Path string

	listener net.Listener
	handler  Handler

	mu       sync.Mutex
	commands []string
	accepted int
	wg       sync.WaitGroup
}

// NewServer starts a fake socket in a fresh temp directory. It is closed
// with t.Cleanup.
func NewServer(t testing.TB, handler Handler) *Server {
	t.Helper()

	// unix socket paths are length limited; keep the directory short
	dir, err := os.MkdirTemp("", "atc")
	if err != nil {
		t.Fatalf("failed to create socket dir: %v", err)
	}
	path := filepath.Join(dir, "haproxy.sock")

	listener, err := net.Listen("unix", path)
	if err != nil {
		os.RemoveAll(dir)
		t.Fatalf("failed to listen on %s: %v", path, err)
	}

	s := &Server{Path: path, listener: listener, handler: handler}
	s.wg.Add(1)
	go s.serve()

	t.Cleanup(func() {
		s.Close()
		os.RemoveAll(dir)
	})
	return s
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.accepted++
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	line, err := bufio.NewReader(conn).ReadString(';')
	if err != nil {
		return
	}
	command := strings.TrimSpace(strings.TrimSuffix(line, ";"))

	s.mu.Lock()
	s.commands = append(s.commands, command)
	s.mu.Unlock()

	if s.handler == nil {
		return
	}
	conn.Write([]byte(s.handler(command)))
}

// Commands returns every command received so far
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// Accepted returns the number of connections accepted so far
func (s *Server) Accepted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

// Close stops the listener and waits for in-flight connections
func (s *Server) Close() {
	s.listener.Close()
	s.wg.Wait()
}

// Static answers every command with the same text
func Static(response string) Handler {
	return func(string) string { return response }
}

// Responses answers known commands from a table and anything else with
// HAProxy's "Unknown command" banner
func Responses(table map[string]string) Handler {
	return func(command string) string {
		if r, ok := table[command]; ok {
			return r
		}
		return "Unknown command. Please enter one of the following commands only :\n"
	}
}
