package service

import (
	"context"
	"errors"
	"fmt"
	"nectopoint-client/internal/events"
	"nectopoint-client/internal/models"
	"nectopoint-client/internal/repository"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	// ErrNoSession is returned when nothing is cached.
	ErrNoSession = errors.New("no cached session")
	// ErrStaleResponse is returned when the stale guard drops a response
	// because a newer refresh already completed.
	ErrStaleResponse = errors.New("stale session response discarded")
	// ErrSessionExpired is returned by a refresh that was in flight when
	// the backend expired the session.
	ErrSessionExpired = errors.New("session expired during refresh")
)

// SessionAPI is the part of the backend the session service talks to.
type SessionAPI interface {
	Session(ctx context.Context) (*models.SessionSnapshot, error)
	Login(ctx context.Context, cpf, password string) error
	Logout(ctx context.Context) error
}

// SessionService keeps the cached snapshot in sync with the backend.
type SessionService struct {
	api       SessionAPI
	store     repository.SessionStore
	readState repository.ReadStateRepository
	bus       *events.Bus[*models.SessionSnapshot]
	logger    *logrus.Logger

	mu         sync.Mutex
	staleGuard bool
	issued     uint64
	applied    uint64
	expiredAt  uint64
	onExpired  func()
}

func NewSessionService(
	api SessionAPI,
	store repository.SessionStore,
	readState repository.ReadStateRepository,
	bus *events.Bus[*models.SessionSnapshot],
) *SessionService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &SessionService{
		api:       api,
		store:     store,
		readState: readState,
		bus:       bus,
		logger:    logger,
	}
}

func (s *SessionService) SetLogger(logger *logrus.Logger) {
	s.logger = logger
}

// SetStaleGuard makes Refresh drop a response when a refresh issued later
// has already been applied. Off by default: the last response to arrive
// wins.
func (s *SessionService) SetStaleGuard(enabled bool) {
	s.mu.Lock()
	s.staleGuard = enabled
	s.mu.Unlock()
}

// SetExpiredHandler registers the callback run after the session expired.
func (s *SessionService) SetExpiredHandler(fn func()) {
	s.mu.Lock()
	s.onExpired = fn
	s.mu.Unlock()
}

// Refresh fetches the session from the backend and replaces the cached
// snapshot with it, then broadcasts it on the bus.
func (s *SessionService) Refresh(ctx context.Context) (*models.SessionSnapshot, error) {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	snapshot, err := s.api.Session(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("seq", seq).Warn("Failed to refresh session")
		return nil, fmt.Errorf("refresh session: %w", err)
	}

	s.mu.Lock()
	if seq <= s.expiredAt {
		s.mu.Unlock()
		s.logger.WithField("seq", seq).Info("Discarding session response issued before expiry")
		return nil, ErrSessionExpired
	}
	if s.staleGuard && seq < s.applied {
		applied := s.applied
		s.mu.Unlock()
		s.logger.WithFields(logrus.Fields{
			"seq":     seq,
			"applied": applied,
		}).Info("Discarding stale session response")
		return nil, ErrStaleResponse
	}
	if err := s.replace(snapshot); err != nil {
		s.mu.Unlock()
		s.logger.WithError(err).Error("Failed to cache session")
		return nil, fmt.Errorf("cache session: %w", err)
	}
	if seq > s.applied {
		s.applied = seq
	}
	// subscribers must see snapshots in cache order
	s.bus.Publish(snapshot)
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"seq":             seq,
		"session_id":      snapshot.ID,
		"collaborator_id": snapshot.CollaboratorID,
		"role":            snapshot.Profile.Role,
	}).Info("Session refreshed")

	return snapshot, nil
}

// replace must be called with s.mu held.
func (s *SessionService) replace(snapshot *models.SessionSnapshot) error {
	if err := s.store.Clear(); err != nil {
		return err
	}
	return s.store.Save(snapshot)
}

// RefreshBestEffort refreshes and swallows the error after logging it.
func (s *SessionService) RefreshBestEffort(ctx context.Context) *models.SessionSnapshot {
	snapshot, err := s.Refresh(ctx)
	if err != nil {
		return nil
	}
	return snapshot
}

// PingHandler returns an event stream callback that refreshes the session
// in the background each time the backend signals a change.
func (s *SessionService) PingHandler(ctx context.Context) func(data string) {
	return func(data string) {
		s.logger.WithField("payload", data).Debug("Session change signalled")
		go s.RefreshBestEffort(ctx)
	}
}

// Current returns the cached snapshot.
func (s *SessionService) Current() (*models.SessionSnapshot, error) {
	snapshot, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, ErrNoSession
	}
	return snapshot, nil
}

// Login authenticates and caches the resulting session.
func (s *SessionService) Login(ctx context.Context, cpf, password string) (*models.SessionSnapshot, error) {
	if cpf == "" || password == "" {
		return nil, fmt.Errorf("cpf and password are required")
	}
	if err := s.api.Login(ctx, cpf, password); err != nil {
		s.logger.WithError(err).Warn("Login failed")
		return nil, fmt.Errorf("login: %w", err)
	}
	return s.Refresh(ctx)
}

// Logout ends the backend session and clears everything cached locally,
// read flags included. Local state is cleared even if the backend call
// fails.
func (s *SessionService) Logout(ctx context.Context) error {
	var errs []error
	if err := s.api.Logout(ctx); err != nil {
		s.logger.WithError(err).Warn("Backend logout failed")
		errs = append(errs, fmt.Errorf("backend logout: %w", err))
	}
	if err := s.clearLocal(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *SessionService) clearLocal() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if err := s.store.Clear(); err != nil {
		errs = append(errs, fmt.Errorf("clear session: %w", err))
	}
	if err := s.readState.Clear(); err != nil {
		errs = append(errs, fmt.Errorf("clear read state: %w", err))
	}
	return errors.Join(errs...)
}

// HandleForbidden expires the cached session after the backend answered
// 403. Read flags are kept; they belong to the profile, not the session.
func (s *SessionService) HandleForbidden() {
	s.mu.Lock()
	// Refreshes issued before this point must not bring the session back.
	s.expiredAt = s.issued
	err := s.store.Clear()
	hook := s.onExpired
	s.mu.Unlock()

	if err != nil {
		s.logger.WithError(err).Error("Failed to clear expired session")
	}
	s.logger.Warn("Session expired, re-authentication required")
	if hook != nil {
		hook()
	}
}
