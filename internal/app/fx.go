package app

import (
	"context"
	"errors"
	"fmt"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ilindan-dev/sms-sender-bot/internal/bot"
	"github.com/ilindan-dev/sms-sender-bot/internal/config"
	"github.com/ilindan-dev/sms-sender-bot/internal/consumer"
	deliveryHTTP "github.com/ilindan-dev/sms-sender-bot/internal/delivery/http"
	repo "github.com/ilindan-dev/sms-sender-bot/internal/domain/repository"
	"github.com/ilindan-dev/sms-sender-bot/internal/logger"
	"github.com/ilindan-dev/sms-sender-bot/internal/notifiers"
	"github.com/ilindan-dev/sms-sender-bot/internal/providers"
	"github.com/ilindan-dev/sms-sender-bot/internal/service"
	"github.com/ilindan-dev/sms-sender-bot/internal/storage/memory"
	"github.com/ilindan-dev/sms-sender-bot/internal/storage/postgres"
	"github.com/ilindan-dev/sms-sender-bot/internal/storage/rabbitmq"
	"github.com/ilindan-dev/sms-sender-bot/internal/storage/redis"
	amqp "github.com/rabbitmq/amqp091-go"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"net/http"
)

// CommonModule provides dependencies shared by the bot and the worker.
var CommonModule = fx.Options(
	fx.Provide(
		// Core components
		config.NewConfig,
		logger.NewLogger,

		// Storage Layer
		newRedisClient,
		newRecordRepository,

		// SMS core
		providers.New,
		service.NewProber,
		service.NewDispatcher,
		service.NewMessageService,

		// Bulk reports
		newTelegramAPI,
		newNotifier,
		service.NewBulkProcessor,
	),
)

// BotModule defines the Fx module for the Telegram bot process.
var BotModule = fx.Options(
	CommonModule,
	fx.Provide(
		newSessionStore,
		newRateLimiter,
		newBulkRunner,
		newBot,
		newHandlers,
		deliveryHTTP.NewServer,
	),

	fx.Invoke(func(b *bot.Bot, lc fx.Lifecycle) {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				b.Start(context.Background())
				return nil
			},
			OnStop: func(context.Context) error {
				b.Stop()
				return nil
			},
		})
	}),

	fx.Invoke(func(server *deliveryHTTP.Server, lc fx.Lifecycle, logger *zerolog.Logger) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				go func() {
					if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Fatal().Err(err).Msg("http server failed")
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return server.Shutdown(ctx)
			},
		})
	}),
)

// WorkerModule defines the Fx module for the bulk job worker.
var WorkerModule = fx.Options(
	CommonModule,
	fx.Provide(
		newAMQPConnection,
		newConsumer,
	),
	fx.Invoke(func(c *consumer.Consumer, lc fx.Lifecycle) {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go func() {
					defer close(done)
					c.Start(ctx)
				}()
				return nil
			},
			OnStop: func(stopCtx context.Context) error {
				cancel()
				select {
				case <-done:
					return nil
				case <-stopCtx.Done():
					return stopCtx.Err()
				}
			},
		})
	}),
)

// newRedisClient returns nil when redis.addr is empty; every consumer has an in-memory fallback.
func newRedisClient(lc fx.Lifecycle, cfg *config.Config, logger *zerolog.Logger) (*goredis.Client, error) {
	if cfg.Redis.Addr == "" {
		logger.Info().Msg("redis disabled")
		return nil, nil
	}
	client, err := redis.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return client.Close() }})
	return client, nil
}

// newRecordRepository picks postgres when a DSN is configured and puts the redis cache in front when available.
func newRecordRepository(
	lc fx.Lifecycle,
	cfg *config.Config,
	rdb *goredis.Client,
	logger *zerolog.Logger,
) (repo.SendRecordRepository, error) {
	var primary repo.SendRecordRepository
	if cfg.Postgres.DSN != "" {
		pool, err := postgres.NewPool(cfg)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error { pool.Close(); return nil }})
		primary = postgres.NewRecordRepository(pool, logger)
	} else {
		logger.Warn().Msg("postgres dsn not set, send history is kept in memory")
		primary = memory.NewRecordRepository()
	}

	if rdb == nil {
		return primary, nil
	}
	return redis.NewCachedRecordRepository(primary, redis.NewRecordCache(logger, rdb), cfg.Redis.CacheTTL, logger), nil
}

func newTelegramAPI(cfg *config.Config) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram: failed to create bot api: %w", err)
	}
	return api, nil
}

func newNotifier(cfg *config.Config, api *tgbotapi.BotAPI, logger *zerolog.Logger) notifiers.Notifier {
	return notifiers.NewFanout(cfg, api, logger)
}

func newSessionStore(cfg *config.Config, rdb *goredis.Client, logger *zerolog.Logger) repo.SessionStore {
	if cfg.Session.Backend == "redis" && rdb != nil {
		return redis.NewSessionStore(rdb, cfg.Session.TTL, logger)
	}
	return memory.NewSessionStore(cfg.Session.TTL)
}

func newRateLimiter(cfg *config.Config, rdb *goredis.Client) bot.Limiter {
	if rdb != nil {
		return redis.NewRateLimiter(rdb, cfg.Bot.RateLimit)
	}
	return memory.NewRateLimiter(cfg.Bot.RateLimit)
}

func newBulkRunner(
	lc fx.Lifecycle,
	cfg *config.Config,
	processor *service.BulkProcessor,
	logger *zerolog.Logger,
) (service.BulkRunner, error) {
	if cfg.Bulk.Runner != "queue" {
		runner := service.NewInlineRunner(processor, logger)
		lc.Append(fx.Hook{OnStop: func(context.Context) error { runner.Stop(); return nil }})
		return runner, nil
	}

	conn, err := rabbitmq.NewConnection(cfg)
	if err != nil {
		return nil, err
	}
	queue, err := rabbitmq.NewBulkQueue(conn, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		return errors.Join(queue.Close(), conn.Close())
	}})
	return service.NewQueueRunner(queue, logger), nil
}

func newBot(
	cfg *config.Config,
	api *tgbotapi.BotAPI,
	messages *service.MessageService,
	runner service.BulkRunner,
	sessions repo.SessionStore,
	limiter bot.Limiter,
	logger *zerolog.Logger,
) *bot.Bot {
	return bot.New(cfg, api, messages, runner, sessions, limiter, logger)
}

func newHandlers(cfg *config.Config, messages *service.MessageService, logger *zerolog.Logger) *deliveryHTTP.Handlers {
	return deliveryHTTP.NewHandlers(cfg, messages, logger)
}

func newAMQPConnection(lc fx.Lifecycle, cfg *config.Config) (*amqp.Connection, error) {
	conn, err := rabbitmq.NewConnection(cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return conn.Close() }})
	return conn, nil
}

func newConsumer(logger *zerolog.Logger, conn *amqp.Connection, processor *service.BulkProcessor) *consumer.Consumer {
	return consumer.New(logger, conn, processor)
}
