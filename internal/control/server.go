package control

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
)

var log = logger.With("component", "control")

// Server answers control requests for a Handler on a loopback port.
type Server struct {
	srv      *http.Server
	ln       net.Listener
	lockfile string
	lock     Lockfile
}

// Listen binds a loopback port and writes the lockfile into dir. Call
// Serve to start answering and Close to remove the lockfile.
func Listen(dir string, h Handler) (*Server, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create runtime dir: %w", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	s := &Server{
		ln:       ln,
		lockfile: LockfilePath(dir),
		lock: Lockfile{
			Port:   ln.Addr().(*net.TCPAddr).Port,
			PID:    os.Getpid(),
			Secret: uuid.NewString(),
		},
	}
	s.srv = &http.Server{
		Handler:           s.routes(h),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if err := os.WriteFile(s.lockfile, []byte(s.lock.String()), 0600); err != nil {
		ln.Close()
		return nil, fmt.Errorf("failed to write lockfile: %w", err)
	}
	return s, nil
}

// Addr is the host:port the server listens on.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Serve answers requests in the background.
func (s *Server) Serve() {
	go func() {
		if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("control server stopped", "err", err)
		}
	}()
}

// Close stops the server and removes the lockfile if it is still ours.
func (s *Server) Close(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	if current, rerr := ReadLockfile(s.lockfile); rerr == nil && current == s.lock {
		if rmErr := os.Remove(s.lockfile); rmErr != nil {
			err = errors.Join(err, rmErr)
		}
	}
	return err
}

func (s *Server) routes(h Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /logged", func(w http.ResponseWriter, r *http.Request) {
		var req habitRequest
		if !decode(w, r, &req) {
			return
		}
		if req.HabitID == "" {
			writeError(w, http.StatusBadRequest, errors.New("habit_id is required"))
			return
		}
		reply(w, h.Logged(r.Context(), req.HabitID), nil)
	})
	mux.HandleFunc("POST /resync", func(w http.ResponseWriter, r *http.Request) {
		reply(w, h.Resync(r.Context()), nil)
	})
	mux.HandleFunc("POST /action", func(w http.ResponseWriter, r *http.Request) {
		var req ActionRequest
		if !decode(w, r, &req) {
			return
		}
		reply(w, h.Action(r.Context(), req), nil)
	})
	mux.HandleFunc("GET /states", func(w http.ResponseWriter, r *http.Request) {
		states, err := h.States(r.Context())
		reply(w, err, states)
	})
	return s.authorize(mux)
}

func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(constants.TraySecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.lock.Secret)) != 1 {
			writeError(w, http.StatusUnauthorized, errors.New("invalid secret"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func reply(w http.ResponseWriter, err error, body any) {
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if body == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn("failed to write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}
