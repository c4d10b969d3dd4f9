package models

import "fmt"

type AlertStatus string

const (
	AlertPending  AlertStatus = "PENDING"
	AlertAwaiting AlertStatus = "AWAITING"
	AlertResolved AlertStatus = "RESOLVED"
)

// Alert types raised by the backend
const (
	AlertOddPunches  = "PONTOS_IMPAR"
	AlertMissedLunch = "SEM_ALMOCO"
)

// Alert is a warning raised by the backend about a shift.
type Alert struct {
	ID        int64       `json:"id"`
	Type      string      `json:"tipo_alerta"`
	Timestamp Timestamp   `json:"data_aviso"`
	Status    AlertStatus `json:"status_alerta"`
	RecordID  *int64      `json:"id_registro,omitempty"`
}

func (a *Alert) Validate() error {
	switch a.Status {
	case AlertPending, AlertAwaiting, AlertResolved:
	default:
		return fmt.Errorf("%w: alert %d: unknown status %q", ErrInvalidPayload, a.ID, a.Status)
	}
	if a.Type == "" {
		return fmt.Errorf("%w: alert %d: missing type", ErrInvalidPayload, a.ID)
	}
	return nil
}
