package models

import "fmt"

type PunchType string

const (
	PunchEntry PunchType = "ENTRY"
	PunchExit  PunchType = "EXIT"
)

func (p PunchType) IsValid() bool {
	return p == PunchEntry || p == PunchExit
}

// Punch is a single clock-in or clock-out inside a shift.
type Punch struct {
	Type                 PunchType `json:"tipo_ponto"`
	Timestamp            Timestamp `json:"data_hora"`
	MinutesSincePrevious int       `json:"tempo_entre_pontos"`
}

// Shift statuses reported by the backend
const (
	ShiftWorking   = "TRABALHANDO"
	ShiftInterval  = "INTERVALO"
	ShiftFinished  = "ENCERRADO"
	ShiftIrregular = "IRREGULAR"
)

type Shift struct {
	ID              int64     `json:"id_registro"`
	Start           Timestamp `json:"inicio_turno"`
	End             Timestamp `json:"fim_turno"`
	Status          string    `json:"status_turno"`
	WorkedMinutes   int       `json:"tempo_trabalhado"`
	IntervalMinutes int       `json:"tempo_intervalo"`
	Punches         []Punch   `json:"pontos_marcados"`
}

// NextPunchType returns the punch the collaborator is expected to register
// next: ENTRY after an even number of punches, EXIT after an odd one.
func (s *Shift) NextPunchType() PunchType {
	if s == nil || len(s.Punches)%2 == 0 {
		return PunchEntry
	}
	return PunchExit
}

// IsOpen reports whether the collaborator is currently clocked in.
func (s *Shift) IsOpen() bool {
	return s.NextPunchType() == PunchExit
}

func (s *Shift) Validate() error {
	for i, punch := range s.Punches {
		if !punch.Type.IsValid() {
			return fmt.Errorf("%w: shift %d punch %d: unknown type %q", ErrInvalidPayload, s.ID, i, punch.Type)
		}
		if punch.Timestamp.IsZero() {
			return fmt.Errorf("%w: shift %d punch %d: missing timestamp", ErrInvalidPayload, s.ID, i)
		}
	}
	return nil
}
