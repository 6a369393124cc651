package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	JobMigrate        = "db_migrate"
	JobSeed           = "db_seed"
	JobRateLimitSweep = "rate_limit_sweep"
)

type Func func(context.Context) error

type Service struct {
	log       zerolog.Logger
	queue     chan job
	schedules []schedule
	wg        sync.WaitGroup
}

type job struct {
	Name string
	Run  Func
}

type schedule struct {
	job
	interval time.Duration
}

func New(log zerolog.Logger) *Service {
	return &Service{
		log:   log,
		queue: make(chan job, 128),
	}
}

// Every registers run to be enqueued once per interval after Start.
// Non-positive intervals are ignored.
func (s *Service) Every(name string, interval time.Duration, run Func) {
	if interval <= 0 {
		return
	}
	s.schedules = append(s.schedules, schedule{job: job{Name: name, Run: run}, interval: interval})
}

// Start launches the worker and the schedulers. They stop when ctx is done;
// Wait blocks until they have.
func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker(ctx)
	}()
	for _, sch := range s.schedules {
		s.wg.Add(1)
		go func(sch schedule) {
			defer s.wg.Done()
			s.tick(ctx, sch)
		}(sch)
	}
}

func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) Enqueue(name string, run Func) {
	select {
	case s.queue <- job{Name: name, Run: run}:
	default:
		s.log.Warn().Str("job", name).Msg("job queue full")
	}
}

// RunNow executes run synchronously with the same logging as queued jobs.
func (s *Service) RunNow(ctx context.Context, name string, run Func) error {
	return s.runJob(ctx, job{Name: name, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			_ = s.runJob(ctx, j)
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) error {
	start := time.Now()
	err := j.Run(ctx)
	evt := s.log.Debug()
	if err != nil {
		evt = s.log.Warn().Err(err)
	}
	evt.Str("job", j.Name).Dur("duration", time.Since(start)).Msg("job run")
	return err
}

func (s *Service) tick(ctx context.Context, sch schedule) {
	ticker := time.NewTicker(sch.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(sch.Name, sch.Run)
		}
	}
}
