package handler

import (
	"nectopoint-client/internal/models"
	"strings"
	"testing"
	"time"
)

func TestFormatMinutes(t *testing.T) {
	cases := map[int]string{
		0:    "+0h00",
		65:   "+1h05",
		-35:  "-0h35",
		-600: "-10h00",
	}
	for minutes, want := range cases {
		if got := FormatMinutes(minutes); got != want {
			t.Fatalf("FormatMinutes(%d) = %q, want %q", minutes, got, want)
		}
	}
}

func TestFormatStatusShowsNextPunch(t *testing.T) {
	name := "Ana"
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
	snapshot := &models.SessionSnapshot{
		Profile:      models.Profile{Name: &name, Role: models.RoleManager},
		WorkSchedule: models.WorkSchedule{HourBankMinutes: -35},
		CurrentShift: &models.Shift{
			Start:         models.NewTimestamp(start),
			WorkedMinutes: 90,
			Punches: []models.Punch{
				{Type: models.PunchEntry, Timestamp: models.NewTimestamp(start)},
			},
		},
		Alerts: []models.Alert{
			{ID: 1, Type: models.AlertMissedLunch, Status: models.AlertPending},
			{ID: 2, Type: models.AlertOddPunches, Status: models.AlertResolved},
		},
	}

	text := FormatStatus(snapshot)
	for _, want := range []string{"*Ana* (gestor)", "Próximo ponto: saída", "Banco de horas: -0h35", "Trabalhado: +1h30", "Alertas pendentes: 1"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in:\n%s", want, text)
		}
	}
}

func TestFormatStatusWithoutShift(t *testing.T) {
	text := FormatStatus(&models.SessionSnapshot{Profile: models.Profile{Role: models.RoleCollaborator}})
	if !strings.Contains(text, "Próximo ponto: entrada") || !strings.Contains(text, "Colaborador") {
		t.Fatalf("unexpected status:\n%s", text)
	}
}

func TestFormatNotificationsFlagsUnread(t *testing.T) {
	created := models.NewTimestamp(time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local))
	tickets := []models.Ticket{
		{ID: 1, Type: models.TicketVacation, Status: models.TicketApproved, CreatedAt: created},
		{ID: 2, Type: models.TicketDayOff, Status: models.TicketRejected, CreatedAt: created},
	}

	text := FormatNotifications("title", tickets, map[int64]bool{2: true})
	if !strings.Contains(text, "▫️ Pedido de férias aprovado (01.05.2024)") {
		t.Fatalf("expected read vacation line in:\n%s", text)
	}
	if !strings.Contains(text, "🆕 Pedido de folga recusado") {
		t.Fatalf("expected unread day-off line in:\n%s", text)
	}
	if empty := FormatNotifications("title", nil, nil); !strings.Contains(empty, "Nenhuma notificação") {
		t.Fatalf("unexpected empty rendering: %s", empty)
	}
}
