package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPayload marks a backend response that failed validation.
	ErrInvalidPayload = errors.New("invalid payload")
)

type Role string

const (
	RoleCollaborator Role = "COLLABORATOR"
	RoleManager      Role = "MANAGER"
)

func (r Role) IsValid() bool {
	return r == RoleCollaborator || r == RoleManager
}

type Profile struct {
	Name       *string `json:"nome"`
	CPF        string  `json:"cpf"`
	Role       Role    `json:"title"`
	Department string  `json:"departamento"`
	Status     *string `json:"status"`
}

// DisplayName returns the profile name or an empty string.
func (p Profile) DisplayName() string {
	if p.Name == nil {
		return ""
	}
	return *p.Name
}

// WorkSchedule describes the collaborator's contract. The hour bank is in
// minutes and may be negative.
type WorkSchedule struct {
	Type            string `json:"tipo_jornada"`
	HourBankMinutes int    `json:"banco_de_horas"`
	DailyHours      int    `json:"horas_diarias"`
}

// SessionSnapshot is the full state of the logged-in collaborator as last
// returned by the backend. It is always replaced as a whole.
type SessionSnapshot struct {
	ID             string       `json:"id_sessao"`
	CollaboratorID int64        `json:"id_colaborador"`
	Profile        Profile      `json:"dados_usuario"`
	WorkSchedule   WorkSchedule `json:"jornada_trabalho"`
	CurrentShift   *Shift       `json:"jornada_atual"`
	History        []Shift      `json:"jornadas_historico"`
	Irregular      []Shift      `json:"jornadas_irregulares"`
	Tickets        []Ticket     `json:"tickets_usuario"`
	Alerts         []Alert      `json:"alertas_usuario"`
}

func (s *SessionSnapshot) IsManager() bool {
	return s.Profile.Role == RoleManager
}

// PendingAlerts returns alerts that still need the collaborator's attention.
func (s *SessionSnapshot) PendingAlerts() []Alert {
	var pending []Alert
	for _, alert := range s.Alerts {
		if alert.Status != AlertResolved {
			pending = append(pending, alert)
		}
	}
	return pending
}

func (s *SessionSnapshot) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: session without id", ErrInvalidPayload)
	}
	if s.CollaboratorID <= 0 {
		return fmt.Errorf("%w: session %s: missing collaborator id", ErrInvalidPayload, s.ID)
	}
	if !s.Profile.Role.IsValid() {
		return fmt.Errorf("%w: session %s: unknown role %q", ErrInvalidPayload, s.ID, s.Profile.Role)
	}
	if s.CurrentShift != nil {
		if err := s.CurrentShift.Validate(); err != nil {
			return err
		}
	}
	for _, group := range [][]Shift{s.History, s.Irregular} {
		for i := range group {
			if err := group[i].Validate(); err != nil {
				return err
			}
		}
	}
	for i := range s.Tickets {
		if err := s.Tickets[i].Validate(); err != nil {
			return err
		}
	}
	for i := range s.Alerts {
		if err := s.Alerts[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
