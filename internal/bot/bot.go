package bot

import (
	"context"
	"errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/ilindan-dev/sms-sender-bot/internal/config"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
	repo "github.com/ilindan-dev/sms-sender-bot/internal/domain/repository"
	"github.com/ilindan-dev/sms-sender-bot/internal/metrics"
	"github.com/ilindan-dev/sms-sender-bot/internal/service"
	"github.com/rs/zerolog"
	"sync"
)

const defaultUpdateWorkers = 4

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Messages is the send side of the service layer.
type Messages interface {
	ValidateAddress(address string) bool
	SendOne(ctx context.Context, chatID int64, destination, message string) (model.SendResult, uuid.UUID)
}

// Limiter throttles chats that send too many updates.
type Limiter interface {
	Allow(ctx context.Context, chatID int64) (bool, error)
}

// Bot turns Telegram updates into sends. Updates are handled by a worker pool;
// updates of the same chat are serialized so the session is read and written atomically.
type Bot struct {
	api      API
	messages Messages
	runner   service.BulkRunner
	sessions repo.SessionStore
	limiter  Limiter

	defaultMessage string
	maxLength      int
	pollTimeout    int
	workers        int
	allowed        map[int64]struct{}

	chatLocks sync.Map // int64 -> *sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	logger    zerolog.Logger
}

func New(
	cfg *config.Config,
	api API,
	messages Messages,
	runner service.BulkRunner,
	sessions repo.SessionStore,
	limiter Limiter,
	logger *zerolog.Logger,
) *Bot {
	workers := cfg.Bot.Workers
	if workers <= 0 {
		workers = defaultUpdateWorkers
	}
	maxLength := cfg.SMS.MaxLength
	if maxLength <= 0 {
		maxLength = 160
	}

	allowed := make(map[int64]struct{}, len(cfg.Bot.AllowedChatIDs))
	for _, id := range cfg.Bot.AllowedChatIDs {
		allowed[id] = struct{}{}
	}

	return &Bot{
		api:            api,
		messages:       messages,
		runner:         runner,
		sessions:       sessions,
		limiter:        limiter,
		defaultMessage: cfg.SMS.DefaultMessage,
		maxLength:      maxLength,
		pollTimeout:    cfg.Bot.PollTimeout,
		workers:        workers,
		allowed:        allowed,
		logger:         logger.With().Str("component", "telegram_bot").Logger(),
	}
}

// Start begins long polling in the background and returns immediately.
func (b *Bot) Start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)
	b.done = make(chan struct{})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)

	go func() {
		defer close(b.done)
		b.run(ctx, updates)
	}()
	b.logger.Info().Int("workers", b.workers).Msg("telegram polling started")
}

// Stop cancels polling and waits for in-flight updates.
func (b *Bot) Stop() {
	if b.cancel == nil {
		return
	}
	b.cancel()
	b.api.StopReceivingUpdates()
	<-b.done
	b.logger.Info().Msg("telegram polling stopped")
}

func (b *Bot) run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	var wg sync.WaitGroup
	queue := make(chan tgbotapi.Update, 100)

	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for update := range queue {
				if err := b.handleUpdate(ctx, update); err != nil {
					b.logger.Error().Err(err).Int("worker_id", workerID).Int("update_id", update.UpdateID).Msg("error handling update")
				}
			}
		}(i + 1)
	}

	defer func() {
		close(queue)
		wg.Wait()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			select {
			case queue <- update:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return b.handleQuery(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Chat != nil:
		return b.handleMessage(ctx, update.Message)
	}
	return nil
}

// gate applies the allowlist and the rate limit. A false result has already been answered.
func (b *Bot) gate(ctx context.Context, chatID int64, route string) bool {
	if len(b.allowed) > 0 {
		if _, ok := b.allowed[chatID]; !ok {
			metrics.IncBotUpdate("unauthorized")
			b.logger.Warn().Int64("chat_id", chatID).Str("route", route).Msg("update from chat outside the allowlist")
			_ = b.reply(chatID, textUnauthorized)
			return false
		}
	}
	if b.limiter != nil {
		allowed, err := b.limiter.Allow(ctx, chatID)
		if err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("rate limiter unavailable, allowing update")
		} else if !allowed {
			metrics.IncBotUpdate("rate_limited")
			_ = b.reply(chatID, textRateLimited)
			return false
		}
	}
	metrics.IncBotUpdate(route)
	return true
}

// withSession loads the chat's session under the chat lock, runs fn and saves the result.
func (b *Bot) withSession(ctx context.Context, chatID int64, fn func(s *model.Session) error) error {
	mu, _ := b.chatLocks.LoadOrStore(chatID, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()

	s, err := b.sessions.Get(ctx, chatID)
	if err != nil {
		_ = b.reply(chatID, textInternalError)
		return err
	}
	fnErr := fn(s)
	if err := b.sessions.Save(ctx, s); err != nil {
		return errors.Join(fnErr, err)
	}
	return fnErr
}

func (b *Bot) reply(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (b *Bot) replyWithMarkup(chatID int64, text string, markup any) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) edit(chatID int64, messageID int, text string) error {
	_, err := b.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text))
	return err
}
