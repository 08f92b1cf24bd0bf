package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/example/engcards/internal/config"
	"github.com/example/engcards/pkg/models"
)

const jobTimeout = 30 * time.Second

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	catalog   Catalog
	notifier  Notifier
	cfg       config.ReminderConfig
	now       func() time.Time
	logger    *zap.Logger
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminder(ctx context.Context, r Reminder) error
}

// Catalog is the part of the tracker the daily job needs
type Catalog interface {
	ExpireStreak(ctx context.Context, now time.Time) (bool, error)
	StudiedOn(now time.Time) bool
	Stats() models.Statistics
}

// Reminder is the content of one daily nudge
type Reminder struct {
	Pending    int
	StreakDays int
}

// New creates a new scheduler instance
func New(cfg config.ReminderConfig, catalog Catalog, notifier Notifier, logger *zap.Logger) (*Scheduler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		catalog:   catalog,
		notifier:  notifier,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().In(loc) },
		logger:    logger,
	}, nil
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	at := fmt.Sprintf("%02d:00", s.cfg.Hour)
	if _, err := s.scheduler.Every(1).Day().At(at).Do(s.runDaily); err != nil {
		return fmt.Errorf("failed to schedule daily job: %w", err)
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", zap.String("at", at), zap.String("timezone", s.cfg.Timezone))
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) runDaily() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("daily job failed", zap.Error(err))
	}
}

// RunOnce expires a lapsed streak and sends a reminder when one is due.
// It reports whether a reminder was sent.
func (s *Scheduler) RunOnce(ctx context.Context) (bool, error) {
	now := s.now()

	expired, err := s.catalog.ExpireStreak(ctx, now)
	if err != nil {
		// The streak is reset in memory even if it could not be saved
		s.logger.Warn("streak expiry not persisted", zap.Error(err))
	}
	if expired {
		s.logger.Info("streak expired")
	}

	if !s.cfg.Enabled || s.notifier == nil {
		return false, nil
	}

	reminder, due := Due(s.catalog.Stats(), s.catalog.StudiedOn(now))
	if !due {
		return false, nil
	}

	if err := s.notifier.SendReminder(ctx, reminder); err != nil {
		return false, fmt.Errorf("failed to send reminder: %w", err)
	}
	s.logger.Info("reminder sent", zap.Int("pending", reminder.Pending))
	return true, nil
}

// Due decides whether a reminder should go out: words remain unmastered
// and nothing was studied today.
func Due(stats models.Statistics, studiedToday bool) (Reminder, bool) {
	pending := stats.TotalWords - stats.MasteredWords
	if pending <= 0 || studiedToday {
		return Reminder{}, false
	}
	return Reminder{Pending: pending, StreakDays: stats.StreakDays}, true
}
