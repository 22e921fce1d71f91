package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"perfect-day/internal/agenda"
	"perfect-day/internal/client"
	"perfect-day/internal/model"
	"perfect-day/internal/store"
)

const maxListedTasks = 30

var (
	errTaskNotFound  = errors.New("task not found")
	errAmbiguousTask = errors.New("several tasks match, use more characters")
	errShortPrefix   = errors.New("use at least 4 characters of the task id")
)

type confirmationAction int

const (
	actionDelete confirmationAction = iota
	actionReset
)

type confirmationRequest struct {
	taskID string
	action confirmationAction
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(chatID)
		b.clearConfirmation(chatID)
		return b.sendText(chatID, "⏪ Cancelled.")
	}

	if msg.IsCommand() {
		b.log.Debug("command", zap.Int64("chat", chatID), zap.String("command", msg.Command()))
		return b.handleCommand(ctx, msg)
	}

	if state := b.getConversation(chatID); state != nil {
		return b.handleConversation(ctx, msg, state)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	return b.sendText(chatID, "I did not get that. Try /newtask or /help.")
}

// commandPath maps a command to the view path used for auth redirects.
// Public commands return "".
func commandPath(command string) string {
	switch command {
	case "start", "help", "cancel":
		return ""
	case "login", "register":
		return store.LoginPath
	default:
		return "/" + command
	}
}

// guard answers commands the auth state does not allow. It reports whether
// the command may proceed.
func (b *Bot) guard(chatID int64, s *store.Store, path string) (bool, error) {
	if path == "" {
		return true, nil
	}
	target, redirect := store.Redirect(s.AuthState(), path)
	if !redirect {
		return true, nil
	}
	if target == store.LoginPath {
		return false, b.sendText(chatID, "🔒 Sign in first: /login <code>email</code> <code>password</code>\nNo account yet? /register <code>email</code> <code>password</code> <code>name</code>")
	}
	name := ""
	if u := s.User(); u != nil {
		name = u.Name
	}
	return false, b.sendText(chatID, fmt.Sprintf("You are already signed in as <b>%s</b>. Use /logout to switch accounts.", escape(name)))
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	s := b.session(ctx, chatID)
	args := strings.TrimSpace(msg.CommandArguments())

	if ok, err := b.guard(chatID, s, commandPath(msg.Command())); !ok {
		if msg.Command() == "login" || msg.Command() == "register" {
			b.forget(msg)
		}
		return err
	}

	switch msg.Command() {
	case "start":
		return b.handleStart(chatID, s, msg.From)
	case "help":
		return b.handleHelp(chatID)
	case "cancel":
		b.clearConversation(chatID)
		b.clearConfirmation(chatID)
		return b.sendText(chatID, "⏪ Cancelled.")
	case "login":
		b.forget(msg)
		return b.handleLogin(ctx, chatID, s, args)
	case "register":
		b.forget(msg)
		return b.handleRegister(ctx, chatID, s, args)
	case "logout":
		return b.handleLogout(ctx, chatID, s)
	case "tasks":
		return b.handleTasks(chatID, s, args)
	case "today":
		return b.handleTasks(chatID, s, string(agenda.ViewToday))
	case "newtask":
		return b.startNewTask(chatID)
	case "done":
		return b.handleDone(ctx, chatID, s, args)
	case "delete":
		return b.handleDelete(chatID, s, args)
	case "filter":
		return b.handleFilter(chatID, s, args)
	case "categories":
		return b.handleCategories(ctx, chatID, s, args)
	case "mood":
		return b.handleMood(ctx, chatID, s, args)
	case "moods":
		return b.handleMoods(ctx, chatID, s)
	case "routines":
		return b.handleRoutines(ctx, chatID, s)
	case "routine":
		return b.handleNewRoutine(ctx, chatID, s, args)
	case "journal":
		return b.handleJournal(ctx, chatID, s, args)
	case "note":
		return b.handleNote(ctx, chatID, s, args)
	case "report":
		return b.sendReport(ctx, chatID, s)
	case "theme":
		return b.handleTheme(chatID, s, args)
	case "reset":
		b.setConfirmation(chatID, confirmationRequest{action: actionReset})
		return b.sendWithReplyMarkup(chatID, "Clear every task, mood and cached item stored on this device? The server keeps its copy.", confirmResetKeyboard())
	default:
		return b.sendText(chatID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	var command string
	switch strings.TrimSpace(msg.Text) {
	case menuLabelNewTask:
		command = "newtask"
	case menuLabelTasks:
		command = "tasks"
	case menuLabelToday:
		command = "today"
	case menuLabelReport:
		command = "report"
	case menuLabelMood:
		command = "moods"
	case menuLabelHelp:
		command = "help"
	default:
		return false, nil
	}

	chatID := msg.Chat.ID
	s := b.session(ctx, chatID)
	if ok, err := b.guard(chatID, s, commandPath(command)); !ok {
		return true, err
	}
	switch command {
	case "newtask":
		return true, b.startNewTask(chatID)
	case "tasks":
		return true, b.handleTasks(chatID, s, "")
	case "today":
		return true, b.handleTasks(chatID, s, string(agenda.ViewToday))
	case "report":
		return true, b.sendReport(ctx, chatID, s)
	case "moods":
		return true, b.handleMoods(ctx, chatID, s)
	default:
		return true, b.handleHelp(chatID)
	}
}

func (b *Bot) handleStart(chatID int64, s *store.Store, from *tgbotapi.User) error {
	name := "there"
	if from != nil && strings.TrimSpace(from.FirstName) != "" {
		name = strings.TrimSpace(from.FirstName)
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>Perfect Day keeps your tasks, routines and moods in one place.</b>\n\n", escape(name))
	if s.IsAuthenticated() {
		text += fmt.Sprintf("Signed in as <b>%s</b>. Try /today or /newtask.", escape(s.User().Name))
	} else {
		text += "Sign in with /login <code>email</code> <code>password</code> or create an account with /register <code>email</code> <code>password</code> <code>name</code>."
	}
	return b.sendText(chatID, text)
}

func (b *Bot) handleHelp(chatID int64) error {
	text := "ℹ️ <b>Commands</b>\n" +
		"• /login, /register, /logout\n" +
		"• /tasks [all|today|week|month] · /today\n" +
		"• /newtask · add a task step by step\n" +
		"• /done &lt;id&gt; · toggle a task\n" +
		"• /delete &lt;id&gt; · delete a task\n" +
		"• /filter priority &lt;p&gt; | category &lt;name&gt; | done | open | clear\n" +
		"• /categories [add &lt;name&gt; [#color]]\n" +
		"• /mood &lt;1-5&gt; [note] · /moods\n" +
		"• /routines · /routine &lt;HH:MM&gt; [daily|weekdays|weekends] &lt;title&gt;\n" +
		"• /note &lt;text #tags&gt; · /journal [search]\n" +
		"• /report · daily summary\n" +
		"• /theme light|dark|system · /reset · /cancel\n\n" +
		"Task ids are the first characters shown after <code>#</code>."
	return b.sendText(chatID, text)
}

func authMessage(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrUnreachable):
		return "📴 The server is unreachable, try again later."
	case client.IsStatus(err, http.StatusTooManyRequests):
		return "⏳ Too many attempts, wait a moment."
	case errors.As(err, &apiErr):
		return "⚠️ " + escape(apiErr.Message)
	case errors.Is(err, store.ErrStorage):
		return "⚠️ Signed in, but this device could not save the session."
	default:
		return "⚠️ Something went wrong, try again."
	}
}

func (b *Bot) handleLogin(ctx context.Context, chatID int64, s *store.Store, args string) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return b.sendText(chatID, "Usage: /login <code>email</code> <code>password</code>")
	}
	if err := s.Login(ctx, fields[0], fields[1]); err != nil && !s.IsAuthenticated() {
		b.log.Info("login failed", zap.Int64("chat", chatID), zap.Error(err))
		return b.sendText(chatID, authMessage(err))
	} else if err != nil {
		b.log.Warn("login completed with errors", zap.Int64("chat", chatID), zap.Error(err))
	}
	b.rememberChat(ctx, chatID, true)
	return b.sendText(chatID, fmt.Sprintf("✅ Welcome back, <b>%s</b>! You have %d tasks. /today shows what is due.", escape(s.User().Name), len(s.Tasks())))
}

func (b *Bot) handleRegister(ctx context.Context, chatID int64, s *store.Store, args string) error {
	fields := strings.Fields(args)
	if len(fields) < 3 {
		return b.sendText(chatID, "Usage: /register <code>email</code> <code>password</code> <code>name</code>")
	}
	name := strings.Join(fields[2:], " ")
	if err := s.Register(ctx, name, fields[0], fields[1]); err != nil && !s.IsAuthenticated() {
		b.log.Info("register failed", zap.Int64("chat", chatID), zap.Error(err))
		return b.sendText(chatID, authMessage(err))
	}
	b.rememberChat(ctx, chatID, true)
	return b.sendText(chatID, fmt.Sprintf("🎉 Account created. Hi, <b>%s</b>! Start with /newtask.", escape(name)))
}

func (b *Bot) handleLogout(ctx context.Context, chatID int64, s *store.Store) error {
	b.clearConversation(chatID)
	b.clearConfirmation(chatID)
	if err := s.Logout(ctx); err != nil {
		b.log.Warn("logout", zap.Int64("chat", chatID), zap.Error(err))
	}
	b.rememberChat(ctx, chatID, false)
	return b.sendText(chatID, "👋 Signed out. Your data stays on this device until you sign in again.")
}

func (b *Bot) handleTasks(chatID int64, s *store.Store, args string) error {
	if args != "" {
		view, ok := agenda.ParseView(strings.ToLower(args))
		if !ok {
			return b.sendText(chatID, "Views: all, today, week, month.")
		}
		if err := s.SetActiveView(view); err != nil {
			b.log.Warn("persist view", zap.Int64("chat", chatID), zap.Error(err))
		}
	}
	return b.sendTaskList(chatID, s)
}

func (b *Bot) sendTaskList(chatID int64, s *store.Store) error {
	now := b.now()
	view := s.UI().ActiveView
	tasks := s.VisibleTasks(now)
	text := formatTaskList(view, s.Filters(), tasks, s.Categories(), now, s.IsUnsynced)

	markup := viewKeyboard(view)
	for i, t := range tasks {
		if i == maxListedTasks {
			text += fmt.Sprintf("\n\n…and %d more. Narrow the list with /filter.", len(tasks)-maxListedTasks)
			break
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, taskButtons(t))
	}
	return b.sendWithReplyMarkup(chatID, text, markup)
}

// findTask resolves an id prefix among the chat's tasks.
func findTask(s *store.Store, prefix string) (model.Task, error) {
	prefix = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(prefix), "#"))
	if len(prefix) < 4 {
		return model.Task{}, errShortPrefix
	}
	var found []model.Task
	for _, t := range s.Tasks() {
		if strings.HasPrefix(strings.ToLower(t.ID), prefix) {
			found = append(found, t)
		}
	}
	switch len(found) {
	case 0:
		return model.Task{}, errTaskNotFound
	case 1:
		return found[0], nil
	default:
		return model.Task{}, errAmbiguousTask
	}
}

func (b *Bot) handleDone(ctx context.Context, chatID int64, s *store.Store, args string) error {
	task, err := findTask(s, args)
	if err != nil {
		return b.sendText(chatID, "⚠️ "+err.Error()+". Usage: /done <code>id</code>")
	}
	return b.toggleTask(ctx, chatID, s, task)
}

func (b *Bot) toggleTask(ctx context.Context, chatID int64, s *store.Store, task model.Task) error {
	task.Completed = !task.Completed
	res := s.UpdateTask(ctx, task)

	text := fmt.Sprintf("✅ «%s» done.", escape(normalizeTitle(task.Title)))
	if !task.Completed {
		text = fmt.Sprintf("↩️ «%s» reopened.", escape(normalizeTitle(task.Title)))
	}
	if note := resultNote(res); note != "" {
		text += "\n" + note
	}
	if err := b.sendText(chatID, text); err != nil {
		return err
	}
	return b.sendTaskList(chatID, s)
}

func (b *Bot) handleDelete(chatID int64, s *store.Store, args string) error {
	task, err := findTask(s, args)
	if err != nil {
		return b.sendText(chatID, "⚠️ "+err.Error()+". Usage: /delete <code>id</code>")
	}
	return b.askDelete(chatID, task)
}

func (b *Bot) askDelete(chatID int64, task model.Task) error {
	b.setConfirmation(chatID, confirmationRequest{taskID: task.ID, action: actionDelete})
	text := fmt.Sprintf("Delete «%s»?", escape(normalizeTitle(task.Title)))
	return b.sendWithReplyMarkup(chatID, text, confirmDeleteKeyboard(task.ID))
}

func (b *Bot) deleteTask(ctx context.Context, chatID int64, s *store.Store, id string) error {
	task, ok := s.Task(id)
	if !ok {
		return b.sendText(chatID, "Task not found or already deleted.")
	}
	res := s.DeleteTask(ctx, id)
	text := fmt.Sprintf("🗑 «%s» deleted.", escape(normalizeTitle(task.Title)))
	if note := resultNote(res); note != "" {
		text += "\n" + note
	}
	if err := b.sendText(chatID, text); err != nil {
		return err
	}
	return b.sendTaskList(chatID, s)
}

func (b *Bot) handleFilter(chatID int64, s *store.Store, args string) error {
	kind, value, _ := strings.Cut(strings.TrimSpace(args), " ")
	value = strings.TrimSpace(value)

	switch strings.ToLower(kind) {
	case "":
		desc := describeFilters(s.Filters(), categoryNames(s.Categories()))
		if desc == "" {
			desc = "none"
		}
		return b.sendText(chatID, "🔎 Filters: "+escape(desc))
	case "clear":
		s.ClearFilters()
	case "priority":
		if value == "" || strings.EqualFold(value, "any") {
			s.SetFilterPriority(nil)
			break
		}
		p, ok := model.ParsePriority(value)
		if !ok {
			return b.sendText(chatID, "Priority must be one of low, medium, high, urgent.")
		}
		s.SetFilterPriority(&p)
	case "category":
		if value == "" || strings.EqualFold(value, "any") {
			s.SetFilterCategory(nil)
			break
		}
		id, ok := categoryByName(s.Categories(), value)
		if !ok {
			return b.sendText(chatID, fmt.Sprintf("No category named «%s». See /categories.", escape(value)))
		}
		s.SetFilterCategory(&id)
	case "done", "open":
		completed := strings.EqualFold(kind, "done")
		s.SetFilterCompleted(&completed)
	case "all":
		s.SetFilterCompleted(nil)
	default:
		return b.sendText(chatID, "Usage: /filter priority &lt;p&gt; | category &lt;name&gt; | done | open | all | clear")
	}
	return b.sendTaskList(chatID, s)
}

func categoryByName(categories []model.Category, name string) (string, bool) {
	for _, c := range categories {
		if strings.EqualFold(strings.TrimSpace(c.Name), strings.TrimSpace(name)) {
			return c.ID, true
		}
	}
	return "", false
}

func (b *Bot) handleCategories(ctx context.Context, chatID int64, s *store.Store, args string) error {
	if rest, ok := strings.CutPrefix(args, "add"); ok && (rest == "" || rest[0] == ' ') {
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return b.sendText(chatID, "Usage: /categories add &lt;name&gt; [#color]")
		}
		color := ""
		if last := fields[len(fields)-1]; len(fields) > 1 && strings.HasPrefix(last, "#") {
			color = last
			fields = fields[:len(fields)-1]
		}
		created, err := b.api.CreateCategory(ctx, strings.Join(fields, " "), color)
		if err != nil {
			return b.sendText(chatID, "Could not create the category: "+authMessage(err))
		}
		if err := s.SetCategories(append(s.Categories(), *created)); err != nil {
			b.log.Warn("persist categories", zap.Int64("chat", chatID), zap.Error(err))
		}
	}

	categories := s.Categories()
	if len(categories) == 0 {
		return b.sendText(chatID, "No categories yet. Add one with /categories add &lt;name&gt;.")
	}
	var sb strings.Builder
	sb.WriteString("📂 <b>Categories</b>\n")
	for _, c := range categories {
		sb.WriteString(fmt.Sprintf("• %s <code>%s</code>\n", escape(c.Name), escape(c.Color)))
	}
	return b.sendText(chatID, strings.TrimSpace(sb.String()))
}

func (b *Bot) handleMood(ctx context.Context, chatID int64, s *store.Store, args string) error {
	raw, noteText, _ := strings.Cut(args, " ")
	value, err := strconv.Atoi(raw)
	if err != nil || !model.ValidMood(value) {
		return b.sendText(chatID, "Usage: /mood &lt;1-5&gt; [note], e.g. /mood 4 long walk")
	}
	var note *string
	if n := strings.TrimSpace(noteText); n != "" {
		note = &n
	}

	uid := s.User().ID
	mood, err := b.api.CreateMood(ctx, uid, value, note)
	suffix := ""
	if err != nil {
		if !errors.Is(err, client.ErrUnreachable) {
			return b.sendText(chatID, "Could not save the mood: "+authMessage(err))
		}
		mood = &model.Mood{ID: uuid.NewString(), Value: value, Note: note, CreatedAt: b.now(), UserID: uid}
		suffix = "\n📴 Server unreachable, saved on this device only."
	}
	if err := s.AddMood(*mood); err != nil {
		b.log.Warn("persist mood", zap.Int64("chat", chatID), zap.Error(err))
	}
	return b.sendText(chatID, fmt.Sprintf("%s Mood %d/5 noted.%s", model.MoodEmoji(value), value, suffix))
}

func (b *Bot) handleMoods(ctx context.Context, chatID int64, s *store.Store) error {
	if remote, err := b.api.ListMoods(ctx, s.User().ID); err == nil {
		if err := s.MergeMoods(remote); err != nil {
			b.log.Warn("persist moods", zap.Int64("chat", chatID), zap.Error(err))
		}
	}
	moods := s.Moods()
	if len(moods) == 0 {
		return b.sendText(chatID, "No moods yet. Log one with /mood 4.")
	}
	var sb strings.Builder
	sb.WriteString("💭 <b>Recent moods</b>\n")
	for i, m := range moods {
		if i == 10 {
			break
		}
		sb.WriteString(formatMood(m, b.now().Location()))
	}
	return b.sendText(chatID, strings.TrimSpace(sb.String()))
}

// routines fetches the user's routines, falling back to the cached copy.
// The time is when that copy was saved, zero for a fresh answer.
func (b *Bot) routines(ctx context.Context, s *store.Store) ([]model.Routine, time.Time, bool) {
	remote, err := b.api.ListRoutines(ctx, s.User().ID)
	if err != nil {
		b.log.Debug("list routines", zap.Error(err))
		cached, saved := s.CachedRoutines(ctx)
		return cached, saved, false
	}
	if err := s.CacheRoutines(ctx, remote); err != nil {
		b.log.Warn("cache routines", zap.Error(err))
	}
	return remote, time.Time{}, true
}

func (b *Bot) handleRoutines(ctx context.Context, chatID int64, s *store.Store) error {
	routines, saved, fresh := b.routines(ctx, s)
	if len(routines) == 0 {
		return b.sendText(chatID, "No routines yet. Add one with /routine 07:30 weekdays Morning run.")
	}
	var sb strings.Builder
	sb.WriteString("🔁 <b>Routines</b>\n")
	if !fresh {
		sb.WriteString(offlineNote(saved, b.now().Location()))
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, r := range routines {
		sb.WriteString(formatRoutine(r))
		rows = append(rows, routineButtons(r))
	}
	if !fresh {
		return b.sendText(chatID, strings.TrimSpace(sb.String()))
	}
	return b.sendWithReplyMarkup(chatID, strings.TrimSpace(sb.String()), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// parseRoutine reads "HH:MM [frequency] title".
func parseRoutine(args string) (model.Routine, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return model.Routine{}, errors.New("usage: /routine HH:MM [daily|weekdays|weekends] title")
	}
	at := fields[0]
	if !validClock(at) {
		return model.Routine{}, fmt.Errorf("invalid time %q, expected HH:MM", at)
	}
	r := model.Routine{Time: &at, IsActive: true, Frequency: "daily"}
	rest := fields[1:]
	if days, ok := model.FrequencyDays(strings.ToLower(rest[0])); ok && len(days) > 0 && len(rest) > 1 {
		r.Frequency = strings.ToLower(rest[0])
		rest = rest[1:]
	}
	r.Days, _ = model.FrequencyDays(r.Frequency)
	r.Title = strings.Join(rest, " ")
	return r, nil
}

func validClock(s string) bool {
	h, m, ok := strings.Cut(s, ":")
	if !ok || len(h) == 0 || len(h) > 2 || len(m) != 2 {
		return false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return false
	}
	minute, err := strconv.Atoi(m)
	return err == nil && minute >= 0 && minute <= 59
}

func (b *Bot) handleNewRoutine(ctx context.Context, chatID int64, s *store.Store, args string) error {
	r, err := parseRoutine(args)
	if err != nil {
		return b.sendText(chatID, "⚠️ "+escape(err.Error()))
	}
	r.UserID = s.User().ID
	created, err := b.api.CreateRoutine(ctx, r)
	if err != nil {
		return b.sendText(chatID, "Could not save the routine: "+authMessage(err))
	}
	return b.sendText(chatID, "✅ Routine saved\n"+formatRoutine(*created))
}

func (b *Bot) handleJournal(ctx context.Context, chatID int64, s *store.Store, query string) error {
	entries, err := b.api.ListJournal(ctx, s.User().ID, query)
	header := "📓 <b>Journal</b>\n"
	switch {
	case err == nil && query == "":
		if cerr := s.CacheJournal(ctx, entries); cerr != nil {
			b.log.Warn("cache journal", zap.Error(cerr))
		}
	case err != nil:
		cached, saved := s.CachedJournal(ctx)
		header += offlineNote(saved, b.now().Location())
		entries = nil
		for _, e := range cached {
			if e.Matches(query) {
				entries = append(entries, e)
			}
		}
	}
	if len(entries) == 0 {
		return b.sendText(chatID, "No journal entries. Write one with /note.")
	}
	var sb strings.Builder
	sb.WriteString(header)
	for i, e := range entries {
		if i == 10 {
			break
		}
		sb.WriteString(formatJournalEntry(e, b.now().Location()))
	}
	return b.sendText(chatID, strings.TrimSpace(sb.String()))
}

func (b *Bot) handleNote(ctx context.Context, chatID int64, s *store.Store, args string) error {
	content, tags := splitHashtags(args)
	if content == "" {
		return b.sendText(chatID, "Usage: /note &lt;text&gt; [#tag ...]")
	}
	if _, err := b.api.CreateJournal(ctx, s.User().ID, content, tags); err != nil {
		return b.sendText(chatID, "Could not save the note: "+authMessage(err))
	}
	return b.sendText(chatID, "📓 Saved to your journal.")
}

func (b *Bot) handleTheme(chatID int64, s *store.Store, args string) error {
	if args == "" {
		return b.sendText(chatID, fmt.Sprintf("Theme: <b>%s</b>. Options: light, dark, system.", s.UI().Theme))
	}
	if err := s.SetTheme(strings.ToLower(args)); err != nil {
		return b.sendText(chatID, "Options: light, dark, system.")
	}
	return b.sendText(chatID, fmt.Sprintf("🎨 Theme set to <b>%s</b>.", s.UI().Theme))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		b.ack(cb, "")
		return nil
	}
	chatID := cb.Message.Chat.ID
	s := b.session(ctx, chatID)
	if !s.IsAuthenticated() {
		b.ack(cb, "Sign in first")
		return nil
	}
	b.ack(cb, "")

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbCompletePrefix):
		task, ok := s.Task(strings.TrimPrefix(data, cbCompletePrefix))
		if !ok {
			return b.sendText(chatID, "Task not found or already deleted.")
		}
		return b.toggleTask(ctx, chatID, s, task)
	case strings.HasPrefix(data, cbDeletePrefix):
		task, ok := s.Task(strings.TrimPrefix(data, cbDeletePrefix))
		if !ok {
			return b.sendText(chatID, "Task not found or already deleted.")
		}
		return b.askDelete(chatID, task)
	case strings.HasPrefix(data, cbConfirmPrefix):
		id := strings.TrimPrefix(data, cbConfirmPrefix)
		req, ok := b.getConfirmation(chatID)
		if !ok || req.action != actionDelete || req.taskID != id {
			return b.sendText(chatID, "That confirmation has expired.")
		}
		b.clearConfirmation(chatID)
		return b.deleteTask(ctx, chatID, s, id)
	case strings.HasPrefix(data, cbCancelPrefix):
		b.clearConfirmation(chatID)
		return b.sendText(chatID, "↩️ Kept.")
	case data == cbReset:
		req, ok := b.getConfirmation(chatID)
		if !ok || req.action != actionReset {
			return b.sendText(chatID, "That confirmation has expired.")
		}
		b.clearConfirmation(chatID)
		if err := s.ResetData(ctx); err != nil {
			return b.sendText(chatID, "⚠️ Could not clear local storage.")
		}
		return b.sendText(chatID, "🧹 Local data cleared.")
	case strings.HasPrefix(data, cbViewPrefix):
		return b.handleTasks(chatID, s, strings.TrimPrefix(data, cbViewPrefix))
	case strings.HasPrefix(data, cbRoutinePrefix):
		id, state, ok := strings.Cut(strings.TrimPrefix(data, cbRoutinePrefix), ":")
		if !ok {
			return nil
		}
		updated, err := b.api.SetRoutineActive(ctx, id, state == "on")
		if err != nil {
			return b.sendText(chatID, "Could not update the routine: "+authMessage(err))
		}
		return b.sendText(chatID, formatRoutine(*updated))
	}
	return nil
}
