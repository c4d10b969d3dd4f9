package handler

import (
	"context"
	"nectopoint-client/internal/service"
	"nectopoint-client/pkg/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

const (
	callbackMarkAllRead = "mark_all_read"
	callbackLoadMore    = "load_more"
	callbackRefresh     = "refresh_session"
)

// Handler answers bot commands from the configured chat with data from the
// cached session and the notification feed.
type Handler struct {
	client              *telegram.Client
	sessionService      *service.SessionService
	notificationService *service.NotificationService
	chatID              int64
	pageSize            int
}

func NewHandler(
	client *telegram.Client,
	sessionService *service.SessionService,
	notificationService *service.NotificationService,
	chatID int64,
	pageSize int,
) *Handler {
	return &Handler{
		client:              client,
		sessionService:      sessionService,
		notificationService: notificationService,
		chatID:              chatID,
		pageSize:            pageSize,
	}
}

func (h *Handler) HandleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.CallbackQuery != nil {
				h.handleCallbackQuery(ctx, update.CallbackQuery)
				continue
			}
			if update.Message == nil {
				continue
			}
			h.handleMessage(ctx, update.Message)
		}
	}
}

func (h *Handler) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil || callback.Message.Chat.ID != h.chatID {
		return
	}
	chatID := callback.Message.Chat.ID

	// Drop the keyboard so the same button can't be pressed twice
	editMsg := tgbotapi.NewEditMessageReplyMarkup(chatID, callback.Message.MessageID, tgbotapi.NewInlineKeyboardMarkup())
	h.client.Bot.Send(editMsg)

	switch callback.Data {
	case callbackMarkAllRead:
		h.markAllRead(chatID)
	case callbackLoadMore:
		h.loadMore(ctx, chatID)
	case callbackRefresh:
		h.refresh(ctx, chatID)
	}

	// Answer the callback so the client stops showing a spinner
	h.client.Bot.Request(tgbotapi.NewCallback(callback.ID, ""))
}

func (h *Handler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil {
		return
	}
	if message.Chat.ID != h.chatID {
		logrus.WithField("chat_id", message.Chat.ID).Warn("Ignoring message from unknown chat")
		return
	}
	if message.From != nil {
		logrus.Infof("[%s] %s", message.From.UserName, message.Text)
	}

	if message.IsCommand() {
		h.handleCommand(ctx, message)
		return
	}
	h.sendHelpMessage(message.Chat.ID)
}
