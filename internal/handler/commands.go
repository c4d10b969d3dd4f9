package handler

import (
	"context"
	"errors"
	"fmt"
	"nectopoint-client/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

func (h *Handler) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	switch message.Command() {
	case "start", "help", "ajuda":
		h.sendHelpMessage(chatID)
	case "status":
		h.showStatus(chatID)
	case "notificacoes":
		h.showNotifications(chatID)
	case "todas":
		h.loadMore(ctx, chatID)
	case "lidas":
		h.markAllRead(chatID)
	case "atualizar":
		h.refresh(ctx, chatID)
	default:
		h.send(chatID, "❌ Comando desconhecido. Use /help para ver os comandos.", nil)
	}
}

func (h *Handler) send(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := h.client.Bot.Send(msg); err != nil {
		logrus.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}

func (h *Handler) sendHelpMessage(chatID int64) {
	h.send(chatID, helpText, nil)
}

func (h *Handler) showStatus(chatID int64) {
	snapshot, err := h.sessionService.Current()
	if errors.Is(err, service.ErrNoSession) {
		h.send(chatID, "⚠️ Nenhuma sessão carregada. Use /atualizar.", nil)
		return
	}
	if err != nil {
		logrus.WithError(err).Error("Failed to read cached session")
		h.send(chatID, "❌ Erro ao carregar a sessão.", nil)
		return
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Atualizar", callbackRefresh),
		),
	)
	h.send(chatID, FormatStatus(snapshot), &keyboard)
}

func (h *Handler) showNotifications(chatID int64) {
	snapshot, err := h.sessionService.Current()
	if err != nil {
		h.send(chatID, "⚠️ Nenhuma sessão carregada. Use /atualizar.", nil)
		return
	}
	recent, err := h.notificationService.Recent(snapshot.CollaboratorID, service.DefaultRecentLimit)
	if err != nil {
		logrus.WithError(err).Error("Failed to load recent notifications")
		h.send(chatID, "❌ Erro ao carregar notificações.", nil)
		return
	}
	unread, err := h.notificationService.Unread(snapshot.CollaboratorID)
	if err != nil {
		logrus.WithError(err).Error("Failed to load read state")
		h.send(chatID, "❌ Erro ao carregar notificações.", nil)
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✔️ Marcar todas como lidas", callbackMarkAllRead),
			tgbotapi.NewInlineKeyboardButtonData("➕ Carregar mais", callbackLoadMore),
		),
	)
	h.send(chatID, FormatNotifications("🔔 *Notificações recentes*", recent, unreadSet(unread)), &keyboard)
}

func (h *Handler) loadMore(ctx context.Context, chatID int64) {
	snapshot, err := h.sessionService.Current()
	if err != nil {
		h.send(chatID, "⚠️ Nenhuma sessão carregada. Use /atualizar.", nil)
		return
	}

	added, err := h.notificationService.LoadMore(ctx, snapshot.CollaboratorID, h.pageSize)
	if errors.Is(err, service.ErrLoadInFlight) {
		h.send(chatID, "⏳ Ainda carregando, aguarde.", nil)
		return
	}
	if err != nil {
		h.send(chatID, "❌ Erro ao carregar notificações.", nil)
		return
	}

	all := h.notificationService.All()
	title := fmt.Sprintf("📜 *Todas as notificações* (%d novas)", added)
	var markup *tgbotapi.InlineKeyboardMarkup
	if !h.notificationService.Exhausted() {
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("➕ Carregar mais", callbackLoadMore),
			),
		)
		markup = &keyboard
	} else {
		title += "\n_Não há mais notificações._"
	}
	h.send(chatID, FormatNotifications(title, all, nil), markup)
}

func (h *Handler) markAllRead(chatID int64) {
	snapshot, err := h.sessionService.Current()
	if err != nil {
		h.send(chatID, "⚠️ Nenhuma sessão carregada. Use /atualizar.", nil)
		return
	}
	if err := h.notificationService.MarkAllRead(snapshot.CollaboratorID); err != nil {
		logrus.WithError(err).Error("Failed to mark notifications as read")
		h.send(chatID, "❌ Erro ao marcar notificações.", nil)
		return
	}
	h.send(chatID, "✅ Todas as notificações foram marcadas como lidas.", nil)
}

func (h *Handler) refresh(ctx context.Context, chatID int64) {
	snapshot, err := h.sessionService.Refresh(ctx)
	if err != nil {
		h.send(chatID, "❌ Erro ao atualizar a sessão.", nil)
		return
	}
	h.send(chatID, FormatStatus(snapshot), nil)
}

const helpText = `🕒 *NectoPoint*

/status - jornada atual e banco de horas
/notificacoes - pedidos aprovados e recusados
/todas - carregar histórico de notificações
/lidas - marcar todas como lidas
/atualizar - recarregar a sessão`
