package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"perfect-day/internal/model"
	"perfect-day/internal/store"
)

type conversationStage int

const (
	stageTitle conversationStage = iota
	stageDescription
	stagePriority
	stageCategory
	stageDueDate
)

// conversationState is a /newtask dialog in progress.
type conversationState struct {
	stage conversationStage
	task  model.Task
}

func (b *Bot) startNewTask(chatID int64) error {
	b.setConversation(chatID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(chatID, "🆕 New task.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	chatID := msg.Chat.ID
	s := b.session(ctx, chatID)
	if !s.IsAuthenticated() {
		b.clearConversation(chatID)
		return b.sendText(chatID, "🔒 Your session ended, sign in again with /login.")
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" || isSkipInput(text) {
			return b.sendWithReplyMarkup(chatID, "A task needs a title.", cancelKeyboard())
		}
		state.task.Title = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(chatID, "✏️ Add a short description or skip.", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) && text != "" {
			state.task.Description = &text
		}
		state.stage = stagePriority
		return b.sendWithReplyMarkup(chatID, "🚦 Priority? Skipping keeps Medium.", priorityKeyboard())
	case stagePriority:
		if !isSkipInput(text) {
			p, ok := model.ParsePriority(text)
			if !ok {
				return b.sendWithReplyMarkup(chatID, "Pick Low, Medium, High or Urgent.", priorityKeyboard())
			}
			state.task.Priority = p
		}
		categories := s.Categories()
		if len(categories) == 0 {
			state.stage = stageDueDate
			return b.sendWithReplyMarkup(chatID, "⏰ Due date as <code>2025-11-30</code>, or skip.", skipKeyboard())
		}
		state.stage = stageCategory
		return b.sendWithReplyMarkup(chatID, "🏷 Pick a category or skip.", categoryKeyboard(categories))
	case stageCategory:
		if !isSkipInput(text) {
			id, ok := categoryByName(s.Categories(), text)
			if !ok {
				return b.sendWithReplyMarkup(chatID, "Unknown category, pick one from the keyboard.", categoryKeyboard(s.Categories()))
			}
			state.task.CategoryID = &id
		}
		state.stage = stageDueDate
		return b.sendWithReplyMarkup(chatID, "⏰ Due date as <code>2025-11-30</code>, or skip.", skipKeyboard())
	case stageDueDate:
		if !isSkipInput(text) {
			due, err := parseDueDate(text, b.now().Location())
			if err != nil {
				return b.sendWithReplyMarkup(chatID, "Use the format <code>2025-11-30</code> or skip.", skipKeyboard())
			}
			state.task.DueDate = &due
		}
		b.clearConversation(chatID)
		return b.finishTask(ctx, chatID, s, state.task)
	default:
		b.clearConversation(chatID)
		return b.sendText(chatID, "Dialog reset. Start again with /newtask.")
	}
}

func (b *Bot) finishTask(ctx context.Context, chatID int64, s *store.Store, task model.Task) error {
	task.ID = uuid.NewString()
	res := s.AddTask(ctx, task)
	b.log.Info("task added", zap.Int64("chat", chatID), zap.Stringer("status", res.Status), zap.Error(res.Err))

	saved, ok := s.Task(task.ID)
	if !ok {
		saved = task
	}

	var sb strings.Builder
	sb.WriteString("✅ <b>Task saved</b>\n")
	sb.WriteString(formatTask(saved, categoryNames(s.Categories()), b.now(), s.IsUnsynced(saved.ID)))
	if note := resultNote(res); note != "" {
		sb.WriteString(note)
	}
	if err := b.sendText(chatID, strings.TrimSpace(sb.String())); err != nil {
		return err
	}
	return b.sendTaskList(chatID, s)
}
