package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the ETL on a cron spec with a seconds field.
type Scheduler struct {
	etl     *ETL
	log     *slog.Logger
	timeout time.Duration
	c       *cron.Cron
}

func NewScheduler(etl *ETL, log *slog.Logger, timeout time.Duration) *Scheduler {
	return &Scheduler{etl: etl, log: log, timeout: timeout, c: cron.New(cron.WithSeconds())}
}

// Start registers the job and starts the cron loop. An invalid spec is
// returned without starting anything.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.c.AddFunc(spec, s.runOnce); err != nil {
		return err
	}
	s.c.Start()
	s.log.Info("ingest scheduler started", slog.String("schedule", spec))
	return nil
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.c.Stop().Done()
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	n, err := s.etl.Run(ctx)
	if err != nil {
		s.log.Error("scheduled ingest failed", slog.String("err", err.Error()))
		return
	}
	s.log.Info("scheduled ingest", slog.Int("stored", n))
}
