// Package web provides the HTTP status page and function API for the
// garage-controller daemon.
package web

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/codegangsta/negroni"

	"github.com/sweeney/garage-controller/internal/cloud"
	"github.com/sweeney/garage-controller/internal/status"
)

// DefaultCallTimeout bounds how long an API call waits for the control loop.
const DefaultCallTimeout = 2 * time.Second

// Server serves the status page and function API over HTTP.
type Server struct {
	httpServer  *http.Server
	tracker     *status.Tracker
	mailbox     *cloud.Mailbox
	callTimeout time.Duration
}

// New creates a Server that reads state from the given tracker and queues
// function calls on mailbox. A nil mailbox disables the function endpoints.
func New(addr string, tracker *status.Tracker, mailbox *cloud.Mailbox) *Server {
	s := &Server{
		tracker:     tracker,
		mailbox:     mailbox,
		callTimeout: DefaultCallTimeout,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("GET /api/variables", s.handleVariables)
	mux.HandleFunc("GET /api/get/{command}", s.handleCall("get"))
	mux.HandleFunc("POST /api/set/{command}", s.handleCall("set"))
	mux.HandleFunc("POST /api/go/{command}", s.handleCall("go"))

	n := negroni.New(negroni.NewRecovery(), negroni.NewLogger())
	n.UseHandler(mux)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: n,
	}
	return s
}

// Handler returns the root handler including middleware. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, snap); err != nil {
		log.Printf("web: render index: %v", err)
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleVariables(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	vars := snap.Variables
	if vars == nil {
		vars = map[string]int{}
	}
	writeJSON(w, http.StatusOK, vars)
}

// handleCall queues function on the mailbox with the path command and waits
// for the loop to run it.
func (s *Server) handleCall(function string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.mailbox == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "function calls disabled"})
			return
		}
		command := r.PathValue("command")

		ctx, cancel := context.WithTimeout(r.Context(), s.callTimeout)
		defer cancel()

		result, err := s.mailbox.Call(ctx, function, command)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, callResponse{Function: function, Command: command, Result: result})
		case errors.Is(err, cloud.ErrUnknownFunction):
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		case errors.Is(err, cloud.ErrMailboxFull):
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		case errors.Is(err, context.DeadlineExceeded):
			writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: "control loop did not answer"})
		default:
			log.Printf("web: %s(%q): %v", function, command, err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		}
	}
}
