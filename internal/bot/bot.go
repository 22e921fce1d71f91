// Package bot is the Telegram view of Perfect Day. Every chat gets its own
// client store backed by a namespace of local storage; the bot renders store
// state and turns messages into store actions.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"perfect-day/internal/client"
	"perfect-day/internal/localstore"
	"perfect-day/internal/store"
)

// Sender is the part of the Telegram API the bot writes to.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

const (
	registryNamespace = "bot"
	registryKey       = "chats"
)

// Bot ties the Telegram API to per-chat stores.
type Bot struct {
	tg    *tgbotapi.BotAPI
	out   Sender
	api   *client.Client
	local localstore.Provider
	log   *zap.Logger
	now   func() time.Time

	boot singleflight.Group

	mu            sync.Mutex
	sessions      map[int64]*store.Store
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest

	registryMu sync.Mutex
}

// New connects to Telegram with token.
func New(token string, api *client.Client, local localstore.Provider, log *zap.Logger) (*Bot, error) {
	tg, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	b := NewWithSender(tg, api, local, log)
	b.tg = tg
	b.log.Info("bot authorized", zap.String("account", tg.Self.UserName))
	return b, nil
}

// NewWithSender builds a bot that writes to out and cannot poll.
func NewWithSender(out Sender, api *client.Client, local localstore.Provider, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{
		out:           out,
		api:           api,
		local:         local,
		log:           log,
		now:           time.Now,
		sessions:      make(map[int64]*store.Store),
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}
}

// Start polls updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.tg == nil {
		return errors.New("bot has no telegram connection")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.tg.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.tg.StopReceivingUpdates()
	}()

	for update := range updates {
		if err := b.HandleUpdate(ctx, update); err != nil {
			b.log.Error("handle update", zap.Int("update", update.UpdateID), zap.Error(err))
		}
	}
	return nil
}

// HandleUpdate dispatches one update.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return nil
		}
		return b.handleMessage(ctx, update.Message)
	}
	return nil
}

func chatNamespace(chatID int64) string {
	return "chat-" + strconv.FormatInt(chatID, 10)
}

// session returns the chat's store, restoring it from local storage on first use.
func (b *Bot) session(ctx context.Context, chatID int64) *store.Store {
	b.mu.Lock()
	s, ok := b.sessions[chatID]
	b.mu.Unlock()
	if ok {
		return s
	}

	v, _, _ := b.boot.Do(chatNamespace(chatID), func() (interface{}, error) {
		b.mu.Lock()
		if s, ok := b.sessions[chatID]; ok {
			b.mu.Unlock()
			return s, nil
		}
		b.mu.Unlock()

		log := b.log.With(zap.Int64("chat", chatID))
		s := store.New(b.api, b.local.For(chatNamespace(chatID)), log)
		if state, err := s.Bootstrap(ctx); err != nil {
			log.Warn("bootstrap session", zap.Stringer("state", state), zap.Error(err))
		}

		b.mu.Lock()
		b.sessions[chatID] = s
		b.mu.Unlock()
		return s, nil
	})
	return v.(*store.Store)
}

// knownChats lists chats with a signed-in session, for scheduled reports.
func (b *Bot) knownChats(ctx context.Context) ([]int64, error) {
	b.registryMu.Lock()
	defer b.registryMu.Unlock()
	return b.loadRegistry(ctx)
}

func (b *Bot) loadRegistry(ctx context.Context) ([]int64, error) {
	entry, err := b.local.For(registryNamespace).Load(ctx, registryKey)
	if errors.Is(err, localstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var chats []int64
	if err := entry.Decode(&chats); err != nil {
		return nil, err
	}
	return chats, nil
}

func (b *Bot) rememberChat(ctx context.Context, chatID int64, signedIn bool) {
	b.registryMu.Lock()
	defer b.registryMu.Unlock()

	chats, err := b.loadRegistry(ctx)
	if err != nil {
		b.log.Warn("load chat registry", zap.Error(err))
	}
	out := chats[:0]
	for _, id := range chats {
		if id != chatID {
			out = append(out, id)
		}
	}
	if signedIn {
		out = append(out, chatID)
	}
	if err := b.local.For(registryNamespace).Save(ctx, registryKey, out); err != nil {
		b.log.Warn("save chat registry", zap.Error(err))
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) ack(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := b.out.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		b.log.Debug("callback ack", zap.Error(err))
	}
}

// forget drops a message that carried a password.
func (b *Bot) forget(msg *tgbotapi.Message) {
	if _, err := b.out.Request(tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID)); err != nil {
		b.log.Debug("delete credentials message", zap.Error(err))
	}
}

func (b *Bot) getConfirmation(chatID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[chatID]
	return req, ok
}

func (b *Bot) setConfirmation(chatID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[chatID] = req
}

func (b *Bot) clearConfirmation(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, chatID)
}

func (b *Bot) setConversation(chatID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[chatID] = state
}

func (b *Bot) getConversation(chatID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[chatID]
}

func (b *Bot) clearConversation(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, chatID)
}
