package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskflow/internal/model"
	"taskflow/internal/service"
)

// maxListed caps the tasks rendered in one message.
const maxListed = 30

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDescription
	stageCategory
	stagePriority
	stageDue
)

type conversationState struct {
	stage      conversationStage
	input      service.TaskInput
	categories []model.Category
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	chatID := msg.Chat.ID

	s := b.session(chatID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(chatID)
		return b.sendText(chatID, "⏪ Task input cancelled.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, s, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, s, msg)
	}

	if b.hasConversation(chatID) {
		return b.handleConversation(ctx, s, msg)
	}

	return b.sendText(chatID, "I didn't get that. Send /newtask to add a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, s *session, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "stop":
		return b.handleStop(ctx, msg)
	case "help":
		return b.handleHelp(msg.Chat.ID)
	case "today", "upcoming", "all", "completed", "archive":
		view, _ := service.ParseView(msg.Command())
		return b.sendTaskList(ctx, s, view, args)
	case "tasks":
		return b.sendTaskList(ctx, s, service.ViewAll, args)
	case "search":
		if args == "" {
			return b.sendText(msg.Chat.ID, "Tell me what to look for: /search milk")
		}
		return b.sendTaskList(ctx, s, service.ViewAll, args)
	case "add":
		if args == "" {
			return b.sendText(msg.Chat.ID, "Give the task a title: /add Buy milk")
		}
		return b.quickAdd(ctx, s, args)
	case "newtask":
		return b.startNewTaskConversation(ctx, s, msg.Chat.ID)
	case "categories":
		return b.sendCategoryList(ctx, s)
	case "newcategory":
		return b.handleNewCategory(ctx, s, args)
	case "report":
		return b.handleReport(ctx, s)
	case "cancel":
		b.clearConversation(msg.Chat.ID)
		return b.sendText(msg.Chat.ID, "⏪ Task input cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, s *session, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelToday):
		return true, b.sendTaskList(ctx, s, service.ViewToday, "")
	case strings.ToLower(menuLabelUpcoming):
		return true, b.sendTaskList(ctx, s, service.ViewUpcoming, "")
	case strings.ToLower(menuLabelAll):
		return true, b.sendTaskList(ctx, s, service.ViewAll, "")
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(ctx, s, msg.Chat.ID)
	case strings.ToLower(menuLabelCategories):
		return true, b.sendCategoryList(ctx, s)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg.Chat.ID)
	default:
		return false, nil
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if b.deps.Subscribers != nil {
		sub := model.Subscriber{
			TelegramID: msg.From.ID,
			ChatID:     msg.Chat.ID,
			FirstName:  msg.From.FirstName,
			LastName:   msg.From.LastName,
			Username:   msg.From.UserName,
		}
		if _, err := b.deps.Subscribers.Upsert(ctx, sub); err != nil {
			return err
		}
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep your tasks in order and send you a daily summary.</b>\n\n%s",
		escape(name), helpText)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleStop(ctx context.Context, msg *tgbotapi.Message) error {
	if b.deps.Subscribers != nil {
		if err := b.deps.Subscribers.Remove(ctx, msg.From.ID); err != nil {
			return err
		}
	}
	return b.sendText(msg.Chat.ID, "🔕 Daily summaries are off. Send /start to turn them back on.")
}

const helpText = "Commands:\n" +
	"• /today, /upcoming, /all, /completed, /archive — task views\n" +
	"• /search &lt;text&gt; — find tasks by title or description\n" +
	"• /add &lt;title&gt; — quick add for today\n" +
	"• /newtask — add a task step by step\n" +
	"• /categories — categories and task counts\n" +
	"• /newcategory &lt;name&gt; — add a category\n" +
	"• /report — today's summary\n" +
	"• /stop — stop daily summaries\n" +
	"• /cancel — cancel the current input"

func (b *Bot) handleHelp(chatID int64) error {
	return b.sendText(chatID, "ℹ️ <b>Help</b>\n"+helpText)
}

func (b *Bot) sendTaskList(ctx context.Context, s *session, view service.View, query string) error {
	if err := s.refresh(ctx); err != nil {
		return b.reportError(s.chatID, err)
	}

	now := b.now()
	tasks := s.tasks.View(view, query)
	names := s.categories.Names()

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%s <b>%s</b>\n", viewIcon(view), viewTitle(view)))
	if view == service.ViewToday {
		builder.WriteString(fmt.Sprintf("✅ %s\n", s.tasks.Progress()))
	}
	if query != "" {
		builder.WriteString(fmt.Sprintf("🔎 matching “%s”\n", escape(query)))
	}
	builder.WriteByte('\n')

	if len(tasks) == 0 {
		builder.WriteString(emptyText(view, query))
		return b.sendText(s.chatID, strings.TrimSpace(builder.String()))
	}

	var buttons [][]tgbotapi.InlineKeyboardButton
	for i, task := range tasks {
		if i == maxListed {
			builder.WriteString(fmt.Sprintf("…and %d more. Narrow it down with /search.\n", len(tasks)-maxListed))
			break
		}
		builder.WriteString(formatTask(task, names, now))
		buttons = append(buttons, taskButtons(task))
	}

	msg := tgbotapi.NewMessage(s.chatID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) quickAdd(ctx context.Context, s *session, title string) error {
	if err := s.categories.Load(ctx); err != nil {
		return b.reportError(s.chatID, err)
	}
	in := service.TaskInput{Title: title}
	if categories := s.categories.Categories(); len(categories) > 0 {
		in.CategoryID = model.Ptr(categories[0].ID)
	}
	task, err := s.tasks.Create(ctx, in)
	if err != nil {
		return b.reportError(s.chatID, err)
	}
	log.Printf("[info] task created id=%s chat=%d", task.ID, s.chatID)
	return nil
}

func (b *Bot) startNewTaskConversation(ctx context.Context, s *session, chatID int64) error {
	log.Printf("[info] start new task conversation chat=%d", chatID)
	b.setConversation(chatID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(chatID, "🆕 New task.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, s *session, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	state := b.getConversation(chatID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(chatID, "The title can't be empty. What should the task be called?", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(chatID, "✏️ Add a short description (or tap “Skip”).", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			state.input.Description = text
		}
		if err := s.categories.Load(ctx); err != nil {
			b.clearConversation(chatID)
			return b.reportError(chatID, err)
		}
		state.categories = s.categories.Categories()
		if len(state.categories) == 0 {
			state.stage = stagePriority
			return b.sendWithReplyMarkup(chatID, "🚩 Pick a priority.", priorityKeyboard())
		}
		state.stage = stageCategory
		return b.sendWithReplyMarkup(chatID, "🏷 Pick a category (or “Skip”).", categoryKeyboard(state.categories))
	case stageCategory:
		if !isSkipInput(text) {
			c, ok := findCategory(state.categories, text)
			if !ok {
				return b.sendWithReplyMarkup(chatID, "I don't know that category. Pick one from the list or “Skip”.", categoryKeyboard(state.categories))
			}
			state.input.CategoryID = model.Ptr(c.ID)
		}
		state.stage = stagePriority
		return b.sendWithReplyMarkup(chatID, "🚩 Pick a priority.", priorityKeyboard())
	case stagePriority:
		if !isSkipInput(text) {
			p, err := model.ParsePriority(stripPriorityIcon(text))
			if err != nil {
				return b.sendWithReplyMarkup(chatID, "Pick low, medium or high.", priorityKeyboard())
			}
			state.input.Priority = p
		}
		state.stage = stageDue
		return b.sendWithReplyMarkup(chatID, "⏰ When is it due? <code>today</code>, <code>tomorrow</code>, <code>+3d</code> or <code>2025-11-30</code> (or “Skip” for no date).", dueKeyboard())
	case stageDue:
		if isSkipInput(text) {
			state.input.NoDueDate = true
		} else {
			due, err := service.ParseDueDate(text, b.now())
			if err != nil {
				return b.sendWithReplyMarkup(chatID, "I can't read that date. Use <code>today</code>, <code>tomorrow</code>, <code>+3d</code> or <code>2025-11-30</code>.", dueKeyboard())
			}
			state.input.DueDate = &due
		}
		b.clearConversation(chatID)
		return b.finishTaskCreation(ctx, s, state.input)
	default:
		b.clearConversation(chatID)
		return b.sendText(chatID, "Input reset. Try again with /newtask.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, s *session, input service.TaskInput) error {
	task, err := s.tasks.Create(ctx, input)
	if err != nil {
		return b.reportError(s.chatID, err)
	}
	log.Printf("[info] task created id=%s chat=%d", task.ID, s.chatID)

	msg := tgbotapi.NewMessage(s.chatID, strings.TrimSpace(formatTask(task, s.categories.Names(), b.now())))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(taskButtons(task))
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) sendCategoryList(ctx context.Context, s *session) error {
	if err := s.refresh(ctx); err != nil {
		return b.reportError(s.chatID, err)
	}
	categories := s.categories.Categories()
	if len(categories) == 0 {
		return b.sendText(s.chatID, "No categories yet. Add one with /newcategory Work.")
	}

	var builder strings.Builder
	builder.WriteString("📂 <b>Categories</b>\n")
	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, c := range categories {
		builder.WriteString(fmt.Sprintf("%s · %s\n", categoryLabel(c), taskCountLabel(c.TaskCount)))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 "+shortTitle(c.Name, 24), cbCategoryDeletePrefix+c.ID),
		))
	}

	msg := tgbotapi.NewMessage(s.chatID, strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) handleNewCategory(ctx context.Context, s *session, name string) error {
	if name == "" {
		return b.sendText(s.chatID, "Give the category a name: /newcategory Work")
	}
	if err := s.categories.Load(ctx); err != nil {
		return b.reportError(s.chatID, err)
	}
	n := len(s.categories.Categories())
	in := service.CategoryInput{
		Name:  name,
		Color: model.DefaultColors[n%len(model.DefaultColors)],
		Icon:  model.DefaultIcons[n%len(model.DefaultIcons)],
	}
	if _, err := s.categories.Create(ctx, in); err != nil {
		return b.reportError(s.chatID, err)
	}
	return nil
}

func (b *Bot) handleReport(ctx context.Context, s *session) error {
	if err := s.refresh(ctx); err != nil {
		return b.reportError(s.chatID, err)
	}
	summary := service.BuildSummary(s.tasks.Tasks(), s.categories.Names(), b.now())
	return b.sendText(s.chatID, summary.HTML())
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	b.ack(cb)

	action, id, ok := parseCallback(cb.Data)
	if !ok {
		return nil
	}
	log.Printf("[info] callback %s user=%d id=%s", action, cb.From.ID, id)

	s := b.session(cb.Message.Chat.ID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(ctx); err != nil {
		return b.reportError(s.chatID, err)
	}

	var err error
	switch action {
	case cbTogglePrefix:
		_, err = s.tasks.ToggleComplete(ctx, id)
	case cbArchivePrefix:
		_, err = s.tasks.Archive(ctx, id)
	case cbRestorePrefix:
		_, err = s.tasks.Restore(ctx, id)
	case cbDeletePrefix:
		err = s.tasks.Delete(ctx, id)
	case cbCategoryDeletePrefix:
		err = s.categories.Delete(ctx, id)
	}
	return b.reportError(s.chatID, err)
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

func (b *Bot) hasConversation(chatID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[chatID]
	return ok
}

func (b *Bot) clearConversation(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, chatID)
}
