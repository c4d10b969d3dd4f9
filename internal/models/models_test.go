package models

import (
	"errors"
	"testing"
	"time"
)

const sessionJSON = `{
	"id_sessao": "abc-123",
	"id_colaborador": 42,
	"dados_usuario": {"nome": "Ana Souza", "cpf": "12345678900", "title": "MANAGER", "departamento": "RH", "status": null},
	"jornada_trabalho": {"tipo_jornada": "ESCALA_5X2", "banco_de_horas": -35, "horas_diarias": 8},
	"jornada_atual": {
		"id_registro": 7,
		"inicio_turno": "2024-05-01T09:00:00",
		"status_turno": "TRABALHANDO",
		"pontos_marcados": [
			{"tipo_ponto": "ENTRY", "data_hora": "2024-05-01T09:00:00", "tempo_entre_pontos": 0}
		]
	},
	"jornadas_historico": [],
	"jornadas_irregulares": [],
	"tickets_usuario": [
		{"id": 1, "id_colaborador": 42, "tipo_ticket": "PEDIR_FERIAS", "status_ticket": "APPROVED", "data_ticket": "2024-04-20T10:00:00Z", "dias_ferias": 10, "inicio_ferias": "2024-06-01"}
	],
	"alertas_usuario": [
		{"id": 3, "tipo_alerta": "SEM_ALMOCO", "data_aviso": "2024-04-30T18:00:00", "status_alerta": "PENDING"}
	]
}`

func TestDecodeSession(t *testing.T) {
	snapshot, err := DecodeSession([]byte(sessionJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snapshot.CollaboratorID != 42 || snapshot.Profile.Role != RoleManager {
		t.Fatalf("unexpected identity: %+v", snapshot)
	}
	if snapshot.Profile.DisplayName() != "Ana Souza" {
		t.Fatalf("expected display name, got %q", snapshot.Profile.DisplayName())
	}
	if snapshot.Profile.Status != nil {
		t.Fatalf("expected nil status")
	}
	if snapshot.WorkSchedule.HourBankMinutes != -35 {
		t.Fatalf("expected negative hour bank, got %d", snapshot.WorkSchedule.HourBankMinutes)
	}
	if got := snapshot.CurrentShift.NextPunchType(); got != PunchExit {
		t.Fatalf("expected EXIT after one punch, got %s", got)
	}
	if snapshot.Tickets[0].VacationStart == nil || snapshot.Tickets[0].VacationStart.Day() != 1 {
		t.Fatalf("expected vacation start to be parsed")
	}
	if len(snapshot.PendingAlerts()) != 1 {
		t.Fatalf("expected one pending alert")
	}
}

func TestDecodeSessionRejectsInvalidPayloads(t *testing.T) {
	cases := map[string]string{
		"not json":        `{`,
		"missing id":      `{"id_colaborador": 1, "dados_usuario": {"title": "MANAGER"}}`,
		"missing user":    `{"id_sessao": "x", "dados_usuario": {"title": "MANAGER"}}`,
		"unknown role":    `{"id_sessao": "x", "id_colaborador": 1, "dados_usuario": {"title": "ADMIN"}}`,
		"bad punch":       `{"id_sessao": "x", "id_colaborador": 1, "dados_usuario": {"title": "MANAGER"}, "jornada_atual": {"pontos_marcados": [{"tipo_ponto": "LUNCH", "data_hora": "2024-05-01T09:00:00"}]}}`,
		"bad timestamp":   `{"id_sessao": "x", "id_colaborador": 1, "dados_usuario": {"title": "MANAGER"}, "tickets_usuario": [{"id": 1, "tipo_ticket": "PEDIR_FOLGA", "status_ticket": "AWAITING", "data_ticket": "yesterday"}]}`,
		"ticket no date":  `{"id_sessao": "x", "id_colaborador": 1, "dados_usuario": {"title": "MANAGER"}, "tickets_usuario": [{"id": 1, "tipo_ticket": "PEDIR_FOLGA", "status_ticket": "AWAITING"}]}`,
		"alert no status": `{"id_sessao": "x", "id_colaborador": 1, "dados_usuario": {"title": "MANAGER"}, "alertas_usuario": [{"id": 1, "tipo_alerta": "SEM_ALMOCO"}]}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSession([]byte(payload))
			if !errors.Is(err, ErrInvalidPayload) {
				t.Fatalf("expected ErrInvalidPayload, got %v", err)
			}
		})
	}
}

func TestDecodeTicketPage(t *testing.T) {
	page, err := DecodeTicketPage([]byte(`{"content": [{"id": 5, "id_colaborador": 1, "tipo_ticket": "ALTERAR_PONTO", "status_ticket": "REJECTED", "data_ticket": "2024-05-01 08:00:00", "justificativa": "sem comprovante"}], "totalPages": 3, "number": 0, "size": 10}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Content) != 1 || page.TotalPages != 3 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Content[0].Justification != "sem comprovante" {
		t.Fatalf("expected justification to be decoded")
	}
}

func TestNextPunchTypeFollowsParity(t *testing.T) {
	var nilShift *Shift
	if nilShift.NextPunchType() != PunchEntry {
		t.Fatalf("expected ENTRY without a shift")
	}
	shift := &Shift{}
	for i := 0; i < 5; i++ {
		want := PunchEntry
		if i%2 == 1 {
			want = PunchExit
		}
		if got := shift.NextPunchType(); got != want {
			t.Fatalf("after %d punches expected %s, got %s", i, want, got)
		}
		shift.Punches = append(shift.Punches, Punch{Type: want, Timestamp: NewTimestamp(time.Now())})
	}
}

func TestTicketStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to TicketStatus
		allowed  bool
	}{
		{TicketAwaiting, TicketApproved, true},
		{TicketAwaiting, TicketRejected, true},
		{TicketAwaiting, TicketAwaiting, false},
		{TicketApproved, TicketAwaiting, false},
		{TicketRejected, TicketApproved, false},
		{TicketApproved, TicketRejected, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestSortNewestFirstIsStable(t *testing.T) {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	tickets := []Ticket{
		{ID: 1, CreatedAt: NewTimestamp(base)},
		{ID: 2, CreatedAt: NewTimestamp(base.Add(time.Hour))},
		{ID: 3, CreatedAt: NewTimestamp(base)},
		{ID: 4, CreatedAt: NewTimestamp(base.Add(-time.Hour))},
	}
	SortNewestFirst(tickets)
	want := []int64{2, 1, 3, 4}
	for i, id := range want {
		if tickets[i].ID != id {
			t.Fatalf("position %d: expected ticket %d, got %d", i, id, tickets[i].ID)
		}
	}
}
