package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"jobboard/backend/internal/storage"
)

// Sweeper по расписанию закрывает открытые вакансии с истекшим дедлайном
type Sweeper struct {
	db       *storage.Database
	cron     *cron.Cron
	schedule string
	logger   *zap.Logger
	now      func() time.Time
}

// NewSweeper schedule - cron выражение с секундами, например "0 0 * * * *"
func NewSweeper(db *storage.Database, schedule string, logger *zap.Logger) (*Sweeper, error) {
	s := &Sweeper{
		db:       db,
		cron:     cron.New(cron.WithSeconds()),
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
	}

	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("Deadline sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule deadline sweep: %w", err)
	}
	return s, nil
}

// Start запускает планировщик
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info("Deadline sweeper started", zap.String("cron", s.schedule))
}

// Stop останавливает планировщик и ждет текущий прогон
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Deadline sweeper stopped")
}

// RunOnce закрывает вакансии, дедлайн которых раньше сегодняшней даты (UTC)
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	y, m, d := s.now().UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	closed, err := storage.NewJobRepository(s.db.Conn()).CloseExpired(ctx, today)
	if err != nil {
		return 0, err
	}

	if closed > 0 {
		s.logger.Info("Expired jobs closed",
			zap.Int64("count", closed),
			zap.String("before", today.Format("2006-01-02")))
	}
	return closed, nil
}
