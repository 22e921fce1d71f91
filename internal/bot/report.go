package bot

import (
	"context"

	"go.uber.org/zap"

	"perfect-day/internal/store"
)

func (b *Bot) sendReport(ctx context.Context, chatID int64, s *store.Store) error {
	routines, _, _ := b.routines(ctx, s)
	text := DailySummary(s.Tasks(), s.Categories(), routines, s.Moods(), b.now())
	return b.sendText(chatID, text)
}

// SendDailyReports refreshes and reports every signed-in chat.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	chats, err := b.knownChats(ctx)
	if err != nil {
		return err
	}
	for _, chatID := range chats {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s := b.session(ctx, chatID)
		if !s.IsAuthenticated() {
			b.rememberChat(ctx, chatID, false)
			continue
		}
		if res := s.LoadUserData(ctx); res.Err != nil {
			b.log.Warn("refresh before report", zap.Int64("chat", chatID), zap.Error(res.Err))
		}
		if err := b.sendReport(ctx, chatID, s); err != nil {
			b.log.Error("send report", zap.Int64("chat", chatID), zap.Error(err))
		}
	}
	return nil
}
