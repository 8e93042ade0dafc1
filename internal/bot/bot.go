package bot

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskflow/internal/model"
	"taskflow/internal/service"
	"taskflow/internal/store"
)

// sender is the part of the Telegram API the bot uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Subscribers keeps the chats that receive scheduled summaries.
type Subscribers interface {
	Upsert(ctx context.Context, sub model.Subscriber) (*model.Subscriber, error)
	Remove(ctx context.Context, telegramID int64) error
	ListAll(ctx context.Context) ([]model.Subscriber, error)
}

// Deps are the services the bot works with.
type Deps struct {
	Tasks       store.TaskStore
	Categories  store.CategoryStore
	Subscribers Subscribers
	Reminder    *service.ReminderService
	// ConfirmTimeout is how long a confirmation waits before counting as "no".
	ConfirmTimeout time.Duration
	Location       *time.Location
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api  sender
	deps Deps
	now  func() time.Time

	mu            sync.Mutex
	sessions      map[int64]*session
	conversations map[int64]*conversationState
	waiters       map[int64]chan bool

	handlers sync.WaitGroup
}

func New(token string, deps Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return newBot(api, deps), nil
}

func newBot(api sender, deps Deps) *Bot {
	if deps.ConfirmTimeout <= 0 {
		deps.ConfirmTimeout = 2 * time.Minute
	}
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	return &Bot{
		api:           api,
		deps:          deps,
		now:           func() time.Time { return time.Now().In(loc) },
		sessions:      make(map[int64]*session),
		conversations: make(map[int64]*conversationState),
		waiters:       make(map[int64]chan bool),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	api, ok := b.api.(*tgbotapi.BotAPI)
	if !ok {
		return fmt.Errorf("bot is not connected to telegram")
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.route(ctx, update)
	}

	b.handlers.Wait()
	return nil
}

// route answers pending confirmations inline and runs every other update in
// its own goroutine, so a handler waiting for a confirmation never blocks
// the reply it waits for.
func (b *Bot) route(ctx context.Context, update tgbotapi.Update) {
	if b.deliver(update) {
		return
	}
	b.handlers.Add(1)
	go func() {
		defer b.handlers.Done()
		b.handleUpdate(ctx, update)
	}()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			log.Printf("handle callback: %v", err)
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			log.Printf("handle message: %v", err)
		}
	}
}

// SendDailyReports sends the current summary to every subscriber.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	if b.deps.Subscribers == nil || b.deps.Reminder == nil {
		return nil
	}
	subs, err := b.deps.Subscribers.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}

	summary, err := b.deps.Reminder.DailySummary(ctx, b.now())
	if err != nil {
		return fmt.Errorf("build summary: %w", err)
	}
	text := summary.HTML()

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := b.sendText(sub.ChatID, text); err != nil {
			log.Printf("send summary to %d: %v", sub.TelegramID, err)
		}
	}
	log.Printf("[info] daily summary sent to %d subscribers", len(subs))
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) ack(cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("callback ack: %v", err)
	}
}
