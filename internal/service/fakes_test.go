package service

import (
	"context"
	"io"
	"nectopoint-client/internal/api"
	"nectopoint-client/internal/models"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func ts(minutes int) models.Timestamp {
	return models.NewTimestamp(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute))
}

func ticket(id, user int64, status models.TicketStatus, minutes int) models.Ticket {
	return models.Ticket{
		ID:             id,
		CollaboratorID: user,
		Type:           models.TicketDayOff,
		Status:         status,
		CreatedAt:      ts(minutes),
	}
}

// fakeSessionAPI returns queued snapshots in order; each call may be held
// until its gate is released.
type fakeSessionAPI struct {
	mu        sync.Mutex
	calls     int
	snapshots []*models.SessionSnapshot
	errs      []error
	gates     []chan struct{}
	arrived   chan int
	loginErr  error
	logoutErr error
	logins    int
}

func (f *fakeSessionAPI) Session(ctx context.Context) (*models.SessionSnapshot, error) {
	f.mu.Lock()
	i := f.calls
	f.calls++
	var gate chan struct{}
	if i < len(f.gates) {
		gate = f.gates[i]
	}
	f.mu.Unlock()

	if f.arrived != nil {
		f.arrived <- i
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.snapshots) {
		return f.snapshots[i], nil
	}
	return f.snapshots[len(f.snapshots)-1], nil
}

func (f *fakeSessionAPI) Login(ctx context.Context, cpf, password string) error {
	f.mu.Lock()
	f.logins++
	f.mu.Unlock()
	return f.loginErr
}

func (f *fakeSessionAPI) Logout(ctx context.Context) error {
	return f.logoutErr
}

// fakeTicketAPI serves fixed pages and records every request.
type fakeTicketAPI struct {
	mu      sync.Mutex
	pages   map[int][]models.Ticket
	queries []api.TicketQuery
	gate    chan struct{}
	entered chan struct{}
	err     error
}

func (f *fakeTicketAPI) Tickets(ctx context.Context, q api.TicketQuery) (*models.TicketPage, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	gate := f.gate
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if f.err != nil {
		return nil, f.err
	}
	content := append([]models.Ticket(nil), f.pages[q.Page]...)
	return &models.TicketPage{Content: content, Number: q.Page, Size: q.Size}, nil
}

func (f *fakeTicketAPI) requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type recordingSender struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (r *recordingSender) SendText(chatID int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, text)
	return nil
}
