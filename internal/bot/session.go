package bot

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskflow/internal/service"
)

// session holds one chat's coordinators. mu serializes that chat's handlers.
type session struct {
	mu         sync.Mutex
	chatID     int64
	tasks      *service.TaskService
	categories *service.CategoryService
}

func (b *Bot) session(chatID int64) *session {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.sessions[chatID]; ok {
		return s
	}
	notifier := chatNotifier{b: b, chatID: chatID}
	confirmer := service.ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
		return b.confirm(ctx, chatID, prompt)
	})
	tasks := service.NewTaskService(b.deps.Tasks, notifier, confirmer, service.WithClock(b.now))
	s := &session{
		chatID:     chatID,
		tasks:      tasks,
		categories: service.NewCategoryService(b.deps.Categories, tasks, notifier, confirmer),
	}
	b.sessions[chatID] = s
	return s
}

// refresh reloads the chat's view of both stores.
func (s *session) refresh(ctx context.Context) error {
	if err := s.tasks.Load(ctx); err != nil {
		return err
	}
	return s.categories.Load(ctx)
}

// chatNotifier sends coordinator notifications to a chat.
type chatNotifier struct {
	b      *Bot
	chatID int64
}

func (n chatNotifier) Notify(level service.Level, message string) {
	icon := "ℹ️"
	switch level {
	case service.LevelSuccess:
		icon = "✅"
	case service.LevelError:
		icon = "⚠️"
	}
	if err := n.b.sendText(n.chatID, icon+" "+escape(message)); err != nil {
		log.Printf("notify chat %d: %v", n.chatID, err)
	}
}

// confirm asks the chat a yes/no question and waits for the answer. No
// answer within the confirmation timeout counts as "no".
func (b *Bot) confirm(ctx context.Context, chatID int64, prompt string) (bool, error) {
	answer := make(chan bool, 1)
	b.mu.Lock()
	b.waiters[chatID] = answer
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		if b.waiters[chatID] == answer {
			delete(b.waiters, chatID)
		}
		b.mu.Unlock()
	}()

	if err := b.sendWithReplyMarkup(chatID, "❓ "+escape(prompt), confirmKeyboard()); err != nil {
		return false, err
	}

	timer := time.NewTimer(b.deps.ConfirmTimeout)
	defer timer.Stop()

	select {
	case ok := <-answer:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-timer.C:
		log.Printf("[info] confirmation timed out chat=%d", chatID)
		return false, nil
	}
}

// waiting reports whether a confirmation is pending in chatID.
func (b *Bot) waiting(chatID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.waiters[chatID]
	return ok
}

// answer resolves the pending confirmation in chatID, if any.
func (b *Bot) answer(chatID int64, ok bool) bool {
	b.mu.Lock()
	ch, found := b.waiters[chatID]
	if found {
		delete(b.waiters, chatID)
	}
	b.mu.Unlock()

	if !found {
		return false
	}
	ch <- ok
	return true
}

// deliver handles updates that answer a pending confirmation.
func (b *Bot) deliver(update tgbotapi.Update) bool {
	if cb := update.CallbackQuery; cb != nil && cb.Message != nil && cb.Message.Chat != nil {
		var ok bool
		switch cb.Data {
		case cbConfirmYes:
			ok = true
		case cbConfirmNo:
		default:
			return false
		}
		b.ack(cb)
		if !b.answer(cb.Message.Chat.ID, ok) {
			if err := b.sendText(cb.Message.Chat.ID, "This question has expired."); err != nil {
				log.Printf("send expired: %v", err)
			}
		}
		return true
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.IsCommand() || !b.waiting(msg.Chat.ID) {
		return false
	}
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		return b.answer(msg.Chat.ID, true)
	case isCancelInput(text):
		return b.answer(msg.Chat.ID, false)
	default:
		if err := b.sendWithReplyMarkup(msg.Chat.ID, "Please confirm or cancel first.", confirmKeyboard()); err != nil {
			log.Printf("send reprompt: %v", err)
		}
		return true
	}
}

// reportError tells the chat why an action failed. Remote failures and
// policy violations were already notified by the coordinator.
func (b *Bot) reportError(chatID int64, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrRemoteFailure):
		log.Printf("chat %d: %v", chatID, err)
		return nil
	case errors.Is(err, service.ErrPolicyViolation):
		return nil
	case errors.Is(err, service.ErrCancelled):
		return b.sendText(chatID, "↩️ Cancelled.")
	case errors.Is(err, context.Canceled):
		return nil
	default:
		return b.sendText(chatID, "⚠️ "+escape(err.Error()))
	}
}
