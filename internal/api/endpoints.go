package api

import (
	"context"
	"nectopoint-client/internal/models"
	"net/http"
	"strconv"
)

// Session fetches and validates the logged-in collaborator's state.
func (c *Client) Session(ctx context.Context) (*models.SessionSnapshot, error) {
	data, err := c.do(ctx, http.MethodGet, c.paths.Session, nil, nil)
	if err != nil {
		return nil, err
	}
	return models.DecodeSession(data)
}

// TicketQuery selects one page of the ticket listing.
type TicketQuery struct {
	Page           int
	Size           int
	Statuses       []models.TicketStatus
	CollaboratorID int64
}

func (c *Client) Tickets(ctx context.Context, q TicketQuery) (*models.TicketPage, error) {
	query := pageQuery(q.Page, q.Size)
	for _, status := range q.Statuses {
		query.Add("status", string(status))
	}
	if q.CollaboratorID > 0 {
		query.Set("colaborador", strconv.FormatInt(q.CollaboratorID, 10))
	}

	data, err := c.do(ctx, http.MethodGet, c.paths.Tickets, query, nil)
	if err != nil {
		return nil, err
	}
	return models.DecodeTicketPage(data)
}

type loginRequest struct {
	CPF      string `json:"cpf"`
	Password string `json:"senha"`
}

// Login authenticates with CPF and password. The backend answers with a
// session cookie, which the jar keeps.
func (c *Client) Login(ctx context.Context, cpf, password string) error {
	_, err := c.do(ctx, http.MethodPost, c.paths.Login, nil, loginRequest{CPF: cpf, Password: password})
	return err
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, c.paths.Logout, nil, nil)
	return err
}
