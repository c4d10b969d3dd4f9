package service

import (
	"context"
	"errors"
	"fmt"
	"nectopoint-client/internal/api"
	"nectopoint-client/internal/models"
	"nectopoint-client/internal/repository"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	DefaultRecentLimit = 5
	DefaultPageSize    = 10
)

// ErrLoadInFlight is returned by LoadMore while a previous page is loading.
var ErrLoadInFlight = errors.New("notification page already loading")

var decidedStatuses = []models.TicketStatus{models.TicketApproved, models.TicketRejected}

// TicketAPI lists tickets page by page.
type TicketAPI interface {
	Tickets(ctx context.Context, q api.TicketQuery) (*models.TicketPage, error)
}

// FilterDecided returns the approved or rejected tickets owned by userID,
// newest first, cut to limit when limit > 0. Tickets are matched by
// collaborator id only.
func FilterDecided(tickets []models.Ticket, userID int64, limit int) []models.Ticket {
	result := make([]models.Ticket, 0, len(tickets))
	for _, ticket := range tickets {
		if ticket.CollaboratorID != userID || !ticket.IsDecided() {
			continue
		}
		result = append(result, ticket)
	}
	models.SortNewestFirst(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// NotificationService turns ticket decisions into notifications: a short
// recent list from the cached session and an "all" list loaded page by page.
type NotificationService struct {
	tickets   TicketAPI
	sessions  repository.SessionStore
	readState repository.ReadStateRepository
	logger    *logrus.Logger

	mu        sync.Mutex
	gen       uint64
	userID    int64
	page      int
	all       []models.Ticket
	seen      map[int64]struct{}
	exhausted bool
	loading   bool
}

func NewNotificationService(
	tickets TicketAPI,
	sessions repository.SessionStore,
	readState repository.ReadStateRepository,
) *NotificationService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &NotificationService{
		tickets:   tickets,
		sessions:  sessions,
		readState: readState,
		logger:    logger,
		seen:      make(map[int64]struct{}),
	}
}

func (s *NotificationService) SetLogger(logger *logrus.Logger) {
	s.logger = logger
}

// Recent returns up to limit decided tickets of userID from the cached
// session.
func (s *NotificationService) Recent(userID int64, limit int) ([]models.Ticket, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	snapshot, err := s.sessions.Load()
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return []models.Ticket{}, nil
	}
	return FilterDecided(snapshot.Tickets, userID, limit), nil
}

// LoadMore fetches the next page of decided tickets for userID and appends
// the ones not seen yet. It does nothing once the listing is exhausted and
// refuses to run while another page is loading.
func (s *NotificationService) LoadMore(ctx context.Context, userID int64, pageSize int) (int, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	s.mu.Lock()
	if userID != s.userID {
		s.resetLocked(userID)
	}
	if s.exhausted {
		s.mu.Unlock()
		return 0, nil
	}
	if s.loading {
		s.mu.Unlock()
		return 0, ErrLoadInFlight
	}
	s.loading = true
	page, gen := s.page, s.gen
	s.mu.Unlock()

	result, err := s.tickets.Tickets(ctx, api.TicketQuery{
		Page:           page,
		Size:           pageSize,
		Statuses:       decidedStatuses,
		CollaboratorID: userID,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != gen {
		// Reset while the request was in flight; the page belongs to
		// a listing that no longer exists.
		return 0, nil
	}
	s.loading = false
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"page":    page,
		}).Warn("Failed to load notifications")
		return 0, fmt.Errorf("load notifications page %d: %w", page, err)
	}

	s.page++
	if len(result.Content) < pageSize {
		s.exhausted = true
	}

	added := 0
	for _, ticket := range FilterDecided(result.Content, userID, 0) {
		if _, ok := s.seen[ticket.ID]; ok {
			continue
		}
		s.seen[ticket.ID] = struct{}{}
		s.all = append(s.all, ticket)
		added++
	}
	models.SortNewestFirst(s.all)

	s.logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"page":      page,
		"added":     added,
		"total":     len(s.all),
		"exhausted": s.exhausted,
	}).Debug("Notifications page loaded")

	return added, nil
}

// All returns a copy of the accumulated list.
func (s *NotificationService) All() []models.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Ticket(nil), s.all...)
}

func (s *NotificationService) Exhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exhausted
}

// Reset drops the accumulated list so the next LoadMore starts over.
func (s *NotificationService) Reset() {
	s.mu.Lock()
	s.resetLocked(s.userID)
	s.mu.Unlock()
}

func (s *NotificationService) resetLocked(userID int64) {
	s.gen++
	s.userID = userID
	s.page = 0
	s.all = nil
	s.seen = make(map[int64]struct{})
	s.exhausted = false
	s.loading = false
}

// Unread returns the recent tickets of userID not marked as read.
func (s *NotificationService) Unread(userID int64) ([]models.Ticket, error) {
	recent, err := s.Recent(userID, DefaultRecentLimit)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(recent))
	for i, ticket := range recent {
		ids[i] = ticket.ID
	}
	read, err := s.readState.ReadSet(ids)
	if err != nil {
		return nil, err
	}

	unread := make([]models.Ticket, 0, len(recent))
	for _, ticket := range recent {
		if !read[ticket.ID] {
			unread = append(unread, ticket)
		}
	}
	return unread, nil
}

func (s *NotificationService) UnreadCount(userID int64) (int, error) {
	unread, err := s.Unread(userID)
	if err != nil {
		return 0, err
	}
	return len(unread), nil
}

func (s *NotificationService) MarkRead(ticketID int64) error {
	return s.readState.MarkRead(ticketID)
}

// MarkAllRead marks the recent list of userID and every accumulated ticket.
func (s *NotificationService) MarkAllRead(userID int64) error {
	recent, err := s.Recent(userID, DefaultRecentLimit)
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(recent))
	for _, ticket := range recent {
		ids = append(ids, ticket.ID)
	}
	for _, ticket := range s.All() {
		ids = append(ids, ticket.ID)
	}
	return s.readState.MarkRead(ids...)
}
