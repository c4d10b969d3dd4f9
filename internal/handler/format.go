package handler

import (
	"fmt"
	"nectopoint-client/internal/models"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// FormatStatus renders the collaborator's current shift, hour bank and
// pending alerts.
func FormatStatus(snapshot *models.SessionSnapshot) string {
	var b strings.Builder

	name := snapshot.Profile.DisplayName()
	if name == "" {
		name = "Colaborador"
	}
	fmt.Fprintf(&b, "👤 *%s*", tgbotapi.EscapeText(tgbotapi.ModeMarkdown, name))
	if snapshot.IsManager() {
		b.WriteString(" (gestor)")
	}
	b.WriteString("\n")

	shift := snapshot.CurrentShift
	if shift == nil || len(shift.Punches) == 0 {
		b.WriteString("⏰ Nenhum ponto registrado hoje\n")
	} else {
		last := shift.Punches[len(shift.Punches)-1]
		fmt.Fprintf(&b, "⏰ Início: %s\n", shift.Start.Format("15:04"))
		fmt.Fprintf(&b, "📍 Último ponto: %s às %s\n", punchLabel(last.Type), last.Timestamp.Format("15:04"))
		fmt.Fprintf(&b, "⏳ Trabalhado: %s\n", FormatMinutes(shift.WorkedMinutes))
	}
	fmt.Fprintf(&b, "➡️ Próximo ponto: %s\n", punchLabel(shift.NextPunchType()))
	fmt.Fprintf(&b, "🏦 Banco de horas: %s\n", FormatMinutes(snapshot.WorkSchedule.HourBankMinutes))

	if pending := snapshot.PendingAlerts(); len(pending) > 0 {
		fmt.Fprintf(&b, "⚠️ Alertas pendentes: %d\n", len(pending))
	}
	if len(snapshot.Irregular) > 0 {
		fmt.Fprintf(&b, "❗ Jornadas irregulares: %d\n", len(snapshot.Irregular))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatNotifications lists tickets one per line. Tickets in unread are
// flagged.
func FormatNotifications(title string, tickets []models.Ticket, unread map[int64]bool) string {
	if len(tickets) == 0 {
		return title + "\n\nNenhuma notificação."
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	for _, ticket := range tickets {
		marker := "▫️"
		if unread[ticket.ID] {
			marker = "🆕"
		}
		verdict := "aprovado"
		if ticket.Status == models.TicketRejected {
			verdict = "recusado"
		}
		fmt.Fprintf(&b, "\n%s %s %s (%s)", marker, ticket.Type.Label(), verdict, ticket.CreatedAt.Format("02.01.2006"))
	}
	return b.String()
}

// FormatMinutes renders a signed minute count as "+1h05" / "-0h35".
func FormatMinutes(minutes int) string {
	sign := "+"
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	return fmt.Sprintf("%s%dh%02d", sign, minutes/60, minutes%60)
}

func punchLabel(t models.PunchType) string {
	if t == models.PunchExit {
		return "saída"
	}
	return "entrada"
}

func unreadSet(tickets []models.Ticket) map[int64]bool {
	set := make(map[int64]bool, len(tickets))
	for _, ticket := range tickets {
		set[ticket.ID] = true
	}
	return set
}
