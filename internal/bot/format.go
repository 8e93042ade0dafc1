package bot

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskflow/internal/model"
	"taskflow/internal/service"
)

const (
	cbConfirmYes = "confirm:yes"
	cbConfirmNo  = "confirm:no"

	cbTogglePrefix         = "done:"
	cbArchivePrefix        = "arch:"
	cbRestorePrefix        = "rest:"
	cbDeletePrefix         = "del:"
	cbCategoryDeletePrefix = "catdel:"
)

const (
	menuLabelToday      = "📅 Today"
	menuLabelUpcoming   = "🗓 Upcoming"
	menuLabelAll        = "📋 All tasks"
	menuLabelNewTask    = "➕ New task"
	menuLabelCategories = "📂 Categories"
	menuLabelHelp       = "ℹ️ Help"

	labelConfirm = "✅ Confirm"
	labelCancel  = "↩️ Cancel"
	labelSkip    = "⏭ Skip"
	labelBack    = "⏪ Cancel input"
)

var callbackPrefixes = []string{
	cbTogglePrefix,
	cbArchivePrefix,
	cbRestorePrefix,
	cbDeletePrefix,
	cbCategoryDeletePrefix,
}

// parseCallback splits callback data into its action prefix and id.
func parseCallback(data string) (string, string, bool) {
	for _, prefix := range callbackPrefixes {
		if id, ok := strings.CutPrefix(data, prefix); ok && id != "" {
			return prefix, id, true
		}
	}
	return "", "", false
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelUpcoming),
			tgbotapi.NewKeyboardButton(menuLabelAll),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelCategories),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func confirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(labelConfirm, cbConfirmYes),
			tgbotapi.NewInlineKeyboardButtonData(labelCancel, cbConfirmNo),
		),
	)
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(labelBack)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(labelSkip),
			tgbotapi.NewKeyboardButton(labelBack),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func priorityKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var row []tgbotapi.KeyboardButton
	for _, p := range model.Priorities() {
		row = append(row, tgbotapi.NewKeyboardButton(service.PriorityIcon(p)+" "+string(p)))
	}
	kb := tgbotapi.NewReplyKeyboard(
		row,
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(labelSkip),
			tgbotapi.NewKeyboardButton(labelBack),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func dueKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("today"),
			tgbotapi.NewKeyboardButton("tomorrow"),
			tgbotapi.NewKeyboardButton("+7d"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(labelSkip),
			tgbotapi.NewKeyboardButton(labelBack),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// categoryKeyboard lays category names out two per row.
func categoryKeyboard(categories []model.Category) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, c := range categories {
		row = append(row, tgbotapi.NewKeyboardButton(c.Name))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(labelSkip),
		tgbotapi.NewKeyboardButton(labelBack),
	))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

// taskButtons is the inline row shown under a task.
func taskButtons(t model.Task) []tgbotapi.InlineKeyboardButton {
	if t.Archived {
		return tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("♻️ Restore", cbRestorePrefix+t.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", cbDeletePrefix+t.ID),
		)
	}
	toggle := "✅ Done"
	if t.Completed {
		toggle = "↩️ Reopen"
	}
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(toggle+" "+shortTitle(t.Title, 16), cbTogglePrefix+t.ID),
		tgbotapi.NewInlineKeyboardButtonData("📦", cbArchivePrefix+t.ID),
		tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+t.ID),
	)
}

// formatTask renders one task as an HTML line block.
func formatTask(t model.Task, categoryNames map[string]string, now time.Time) string {
	var sb strings.Builder
	mark := "⬜"
	if t.Completed {
		mark = "☑️"
	}
	title := escape(t.Title)
	if t.Completed {
		title = "<s>" + title + "</s>"
	}
	sb.WriteString(fmt.Sprintf("%s %s %s", mark, service.PriorityIcon(t.Priority), title))

	var meta []string
	if t.CategoryID != nil {
		if name, ok := categoryNames[*t.CategoryID]; ok {
			meta = append(meta, "🏷 "+escape(name))
		}
	}
	if label := service.DueLabel(t.DueDate, now); label != "" {
		if service.IsOverdue(t, now) {
			label = "⚠️ " + label
		}
		meta = append(meta, "⏰ "+label)
	}
	if t.Archived {
		meta = append(meta, "📦 archived")
	}
	if len(meta) > 0 {
		sb.WriteString("\n    " + strings.Join(meta, " · "))
	}
	if d := strings.TrimSpace(t.Description); d != "" {
		sb.WriteString("\n    <i>" + escape(shortTitle(d, 80)) + "</i>")
	}
	sb.WriteByte('\n')
	return sb.String()
}

var iconEmoji = map[string]string{
	"Tag":       "🏷",
	"Briefcase": "💼",
	"Code":      "💻",
	"Users":     "👥",
	"User":      "👤",
	"Home":      "🏠",
	"Star":      "⭐",
	"Heart":     "❤️",
	"Zap":       "⚡",
	"Target":    "🎯",
	"Calendar":  "📅",
	"Clock":     "🕒",
}

func categoryLabel(c model.Category) string {
	icon, ok := iconEmoji[c.Icon]
	if !ok {
		icon = iconEmoji["Tag"]
	}
	return icon + " <b>" + escape(c.Name) + "</b>"
}

func taskCountLabel(n int) string {
	if n == 1 {
		return "1 task"
	}
	return fmt.Sprintf("%d tasks", n)
}

func viewTitle(v service.View) string {
	switch v {
	case service.ViewToday:
		return "Today"
	case service.ViewUpcoming:
		return "Upcoming"
	case service.ViewCompleted:
		return "Completed"
	case service.ViewArchive:
		return "Archive"
	default:
		return "All tasks"
	}
}

func viewIcon(v service.View) string {
	switch v {
	case service.ViewToday:
		return "📅"
	case service.ViewUpcoming:
		return "🗓"
	case service.ViewCompleted:
		return "✅"
	case service.ViewArchive:
		return "📦"
	default:
		return "📋"
	}
}

func emptyText(v service.View, query string) string {
	if query != "" {
		return "Nothing matches your search."
	}
	switch v {
	case service.ViewToday:
		return "Nothing due today. Enjoy your day!"
	case service.ViewUpcoming:
		return "No upcoming tasks."
	case service.ViewCompleted:
		return "No completed tasks yet."
	case service.ViewArchive:
		return "The archive is empty."
	default:
		return "No tasks yet. Send /newtask to add one."
	}
}

func findCategory(categories []model.Category, name string) (model.Category, bool) {
	name = strings.TrimSpace(name)
	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return model.Category{}, false
}

// stripPriorityIcon turns a priority keyboard label back into its name.
func stripPriorityIcon(text string) string {
	for _, p := range model.Priorities() {
		text = strings.TrimPrefix(text, service.PriorityIcon(p))
	}
	return strings.TrimSpace(text)
}

func shortTitle(s string, limit int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeInput(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func isConfirmInput(text string) bool {
	switch normalizeInput(text) {
	case "yes", "y", "ok", "confirm", normalizeInput(labelConfirm):
		return true
	}
	return false
}

func isCancelInput(text string) bool {
	switch normalizeInput(text) {
	case "no", "n", "cancel", normalizeInput(labelCancel):
		return true
	}
	return false
}

func isCancelDialogInput(text string) bool {
	return normalizeInput(text) == normalizeInput(labelBack)
}

func isSkipInput(text string) bool {
	switch normalizeInput(text) {
	case "skip", "-", normalizeInput(labelSkip):
		return true
	}
	return false
}
