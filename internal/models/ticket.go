package models

import (
	"fmt"
	"sort"
)

type TicketStatus string

const (
	TicketAwaiting TicketStatus = "AWAITING"
	TicketApproved TicketStatus = "APPROVED"
	TicketRejected TicketStatus = "REJECTED"
)

func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketAwaiting, TicketApproved, TicketRejected:
		return true
	}
	return false
}

// IsDecided reports whether a manager has already ruled on the ticket.
func (s TicketStatus) IsDecided() bool {
	return s == TicketApproved || s == TicketRejected
}

// CanTransitionTo only allows AWAITING -> APPROVED and AWAITING -> REJECTED.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	return s == TicketAwaiting && next.IsDecided()
}

type TicketType string

const (
	TicketVacation        TicketType = "PEDIR_FERIAS"
	TicketAbsence         TicketType = "PEDIR_ABONO"
	TicketOvertime        TicketType = "PEDIR_HORA_EXTRA"
	TicketDayOff          TicketType = "PEDIR_FOLGA"
	TicketPointCorrection TicketType = "ALTERAR_PONTO"
)

func (t TicketType) IsValid() bool {
	switch t {
	case TicketVacation, TicketAbsence, TicketOvertime, TicketDayOff, TicketPointCorrection:
		return true
	}
	return false
}

// Label returns the name shown to collaborators.
func (t TicketType) Label() string {
	switch t {
	case TicketVacation:
		return "Pedido de férias"
	case TicketAbsence:
		return "Pedido de abono"
	case TicketOvertime:
		return "Pedido de hora extra"
	case TicketDayOff:
		return "Pedido de folga"
	case TicketPointCorrection:
		return "Alteração de ponto"
	}
	return string(t)
}

// Absence reasons accepted by the backend
const (
	AbsenceMedical  = "ATESTADO_MEDICO"
	AbsencePersonal = "PESSOAL"
)

type Ticket struct {
	ID               int64        `json:"id"`
	CollaboratorID   int64        `json:"id_colaborador"`
	CollaboratorName string       `json:"nome_colaborador"`
	Type             TicketType   `json:"tipo_ticket"`
	Status           TicketStatus `json:"status_ticket"`
	Message          string       `json:"mensagem"`
	CreatedAt        Timestamp    `json:"data_ticket"`
	ManagerID        *int64       `json:"id_gerente,omitempty"`
	ManagerName      string       `json:"nome_gerente,omitempty"`
	Justification    string       `json:"justificativa,omitempty"`

	// PEDIR_FERIAS
	VacationStart *Timestamp `json:"inicio_ferias,omitempty"`
	VacationDays  int        `json:"dias_ferias,omitempty"`

	// PEDIR_ABONO
	AbsenceReason string      `json:"motivo_abono,omitempty"`
	AbsenceDays   []Timestamp `json:"dias_abono,omitempty"`

	// ALTERAR_PONTO
	PunchesBefore []Punch `json:"pontos_anterior,omitempty"`
	PunchesAfter  []Punch `json:"pontos_ajustado,omitempty"`
	RecordID      *int64  `json:"id_registro,omitempty"`
}

func (t *Ticket) IsDecided() bool {
	return t.Status.IsDecided()
}

func (t *Ticket) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("%w: ticket without id", ErrInvalidPayload)
	}
	if !t.Type.IsValid() {
		return fmt.Errorf("%w: ticket %d: unknown type %q", ErrInvalidPayload, t.ID, t.Type)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: ticket %d: unknown status %q", ErrInvalidPayload, t.ID, t.Status)
	}
	if t.CreatedAt.IsZero() {
		return fmt.Errorf("%w: ticket %d: missing creation timestamp", ErrInvalidPayload, t.ID)
	}
	for i, punch := range append(append([]Punch{}, t.PunchesBefore...), t.PunchesAfter...) {
		if !punch.Type.IsValid() {
			return fmt.Errorf("%w: ticket %d punch %d: unknown type %q", ErrInvalidPayload, t.ID, i, punch.Type)
		}
	}
	return nil
}

// SortNewestFirst orders tickets by creation time, newest first. Tickets
// with equal timestamps keep the order they arrived in.
func SortNewestFirst(tickets []Ticket) {
	sort.SliceStable(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt.Time)
	})
}

// TicketPage is one page of the paginated ticket listing.
type TicketPage struct {
	Content       []Ticket `json:"content"`
	TotalPages    int      `json:"totalPages"`
	TotalElements int64    `json:"totalElements"`
	Number        int      `json:"number"`
	Size          int      `json:"size"`
	Last          bool     `json:"last"`
}
