// Package server exposes editor sessions over a JSON HTTP API.
//
// Each session is an independent editor.Editor addressed by a UUID and
// dropped after a period of inactivity. Routes mirror the editor commands
// one to one; error codes from pkg/errors map to HTTP statuses (see
// statusFor).
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/graphsim/fuzzygraph/pkg/editor"
	"github.com/graphsim/fuzzygraph/pkg/errors"
	"github.com/graphsim/fuzzygraph/pkg/session"
)

// EditorFactory creates the editor behind a new session.
type EditorFactory func() *editor.Editor

// Server holds the live editor sessions.
type Server struct {
	sessions  *session.Store[*editor.Editor]
	ttl       time.Duration
	newEditor EditorFactory
	logger    *log.Logger
}

// New returns a server that creates sessions with factory. Sessions idle
// for longer than ttl are dropped; ttl <= 0 keeps them until deleted.
func New(factory EditorFactory, logger *log.Logger, ttl time.Duration) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{
		sessions:  session.NewStore[*editor.Editor](ttl),
		ttl:       ttl,
		newEditor: factory,
		logger:    logger,
	}
}

func (s *Server) create() (uuid.UUID, *editor.Editor) {
	ed := s.newEditor()
	return s.sessions.Create(ed), ed
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New(errors.ErrCodeInvalidArgument, "invalid editor id %q", raw)
	}
	return id, nil
}

func sessionError(id uuid.UUID, err error) error {
	if stderrors.Is(err, session.ErrExpired) {
		return errors.New(errors.ErrCodeNotFound, "editor %s expired", id)
	}
	return errors.New(errors.ErrCodeNotFound, "editor %s not found", id)
}

func (s *Server) lookup(raw string) (*editor.Editor, error) {
	id, err := parseID(raw)
	if err != nil {
		return nil, err
	}
	ed, err := s.sessions.Get(id)
	if err != nil {
		return nil, sessionError(id, err)
	}
	return ed, nil
}

func (s *Server) remove(raw string) error {
	id, err := parseID(raw)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(id); err != nil {
		return sessionError(id, err)
	}
	return nil
}

// Len returns the number of live sessions.
func (s *Server) Len() int {
	return s.sessions.Len()
}

// ListenAndServe serves the API on addr until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.ttl > 0 {
		go s.sessions.RunCleanup(ctx, s.ttl/2, func(n int) {
			s.logger.Debug("expired idle editors", "count", n)
		})
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
