package service

import (
	"context"
	"fmt"
	"nectopoint-client/internal/models"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// MessageSender delivers a text message to a chat.
type MessageSender interface {
	SendText(chatID int64, text string) error
}

// TelegramNotifier forwards unread ticket decisions to a Telegram chat every
// time the session is refreshed, marking each one read once delivered.
type TelegramNotifier struct {
	sender        MessageSender
	chatID        int64
	notifications *NotificationService
	logger        *logrus.Logger
}

func NewTelegramNotifier(sender MessageSender, chatID int64, notifications *NotificationService) *TelegramNotifier {
	return &TelegramNotifier{
		sender:        sender,
		chatID:        chatID,
		notifications: notifications,
		logger:        logrus.StandardLogger(),
	}
}

// Run consumes session updates until ctx is done or the channel closes.
func (n *TelegramNotifier) Run(ctx context.Context, updates <-chan *models.SessionSnapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-updates:
			if !ok {
				return
			}
			if _, err := n.Notify(snapshot); err != nil {
				n.logger.WithError(err).Warn("Failed to forward notifications")
			}
		}
	}
}

// Notify sends the unread decisions of the snapshot's collaborator and
// returns how many were delivered. Oldest are sent first.
func (n *TelegramNotifier) Notify(snapshot *models.SessionSnapshot) (int, error) {
	unread, err := n.notifications.Unread(snapshot.CollaboratorID)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := len(unread) - 1; i >= 0; i-- {
		ticket := unread[i]
		if err := n.sender.SendText(n.chatID, FormatTicketNotification(ticket)); err != nil {
			return sent, fmt.Errorf("send ticket %d: %w", ticket.ID, err)
		}
		if err := n.notifications.MarkRead(ticket.ID); err != nil {
			return sent, fmt.Errorf("mark ticket %d read: %w", ticket.ID, err)
		}
		sent++
	}

	if sent > 0 {
		n.logger.WithFields(logrus.Fields{
			"collaborator_id": snapshot.CollaboratorID,
			"sent":            sent,
		}).Info("Notifications forwarded")
	}
	return sent, nil
}

// FormatTicketNotification renders a decided ticket as a chat message.
func FormatTicketNotification(ticket models.Ticket) string {
	var b strings.Builder

	switch ticket.Status {
	case models.TicketApproved:
		fmt.Fprintf(&b, "✅ *%s* aprovado", ticket.Type.Label())
	case models.TicketRejected:
		fmt.Fprintf(&b, "❌ *%s* recusado", ticket.Type.Label())
	default:
		fmt.Fprintf(&b, "⏳ *%s* aguardando", ticket.Type.Label())
	}
	if ticket.ManagerName != "" {
		fmt.Fprintf(&b, " por %s", tgbotapi.EscapeText(tgbotapi.ModeMarkdown, ticket.ManagerName))
	}
	fmt.Fprintf(&b, "\n📅 Enviado em %s", ticket.CreatedAt.Format("02.01.2006 15:04"))

	if ticket.Type == models.TicketVacation && ticket.VacationStart != nil {
		fmt.Fprintf(&b, "\n🏖 %d dias a partir de %s", ticket.VacationDays, ticket.VacationStart.Format("02.01.2006"))
	}
	if ticket.Status == models.TicketRejected && ticket.Justification != "" {
		fmt.Fprintf(&b, "\n💬 %s", tgbotapi.EscapeText(tgbotapi.ModeMarkdown, ticket.Justification))
	}
	return b.String()
}
