package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/example/engcards/internal/bot"
	"github.com/example/engcards/internal/config"
	"github.com/example/engcards/internal/database"
	"github.com/example/engcards/internal/scheduler"
	"github.com/example/engcards/internal/spaced_repetition"
	"github.com/example/engcards/internal/tracker"
)

// Catalog bundles the tracker with the database it persists to
type Catalog struct {
	Tracker *tracker.Tracker
	Reviews *database.ReviewLogRepository
	db      *sqlx.DB
}

// Close releases the database connection
func (c *Catalog) Close() error {
	return c.db.Close()
}

// OpenCatalog connects to storage, restores the saved catalog and seeds it on first run
func OpenCatalog(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Catalog, error) {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	seed, err := tracker.DefaultSeed()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read starter data: %w", err)
	}

	reviews := database.NewReviewLogRepository(db)
	tr := tracker.New(database.NewStateRepository(db), seed,
		tracker.WithLogger(logger),
		tracker.WithReviewLog(reviews),
		tracker.WithLadder(&spaced_repetition.Ladder{MasteredQuota: cfg.Study.MasteredQuota}),
	)

	if err := tr.Load(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if seeded, err := tr.Initialize(ctx); err != nil {
		// Seeded data stays usable in memory
		logger.Warn("starter data not persisted", zap.Error(err))
	} else if seeded {
		logger.Info("first run, starter data loaded")
	}

	return &Catalog{Tracker: tr, Reviews: reviews, db: db}, nil
}

// Run starts the reminder scheduler and the bot, and blocks until ctx is cancelled
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	catalog, err := OpenCatalog(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer catalog.Close()

	var (
		b        *bot.Bot
		notifier scheduler.Notifier
	)
	if cfg.Bot.Enabled {
		botCfg := bot.DefaultConfig()
		botCfg.OwnerID = cfg.Bot.OwnerID
		botCfg.Debug = cfg.Bot.Debug
		botCfg.MasteredQuota = cfg.Study.MasteredQuota
		botCfg.Voice.Locale = cfg.Speech.Locale
		botCfg.Voice.Rate = cfg.Speech.Rate

		b, err = bot.New(cfg.Bot.Token, catalog.Tracker, botCfg, logger.Named("bot"))
		if err != nil {
			return err
		}
		notifier = b
	}

	sched, err := scheduler.New(cfg.Reminder, catalog.Tracker, notifier, logger.Named("scheduler"))
	if err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	if b == nil {
		logger.Info("bot disabled, running scheduler only")
		<-ctx.Done()
		return nil
	}

	logger.Info("bot started")
	if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot stopped: %w", err)
	}
	return nil
}
