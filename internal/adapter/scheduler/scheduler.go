package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrUnknownJob возвращается, когда задача с таким именем не зарегистрирована.
var ErrUnknownJob = errors.New("scheduler: unknown job")

// JobFunc представляет функцию задачи планировщика.
type JobFunc func(ctx context.Context) error

// JobID представляет идентификатор задачи.
type JobID = cron.EntryID

// Job описывает периодическую задачу обслуживания.
type Job struct {
	// Name - уникальное имя задачи, используется в логах и в Trigger.
	Name string
	// Schedule - cron-выражение с секундами или дескриптор вида "@every 1m".
	Schedule string
	// Timeout - максимальное время выполнения задачи (необязательно).
	Timeout time.Duration
	// Run - тело задачи.
	Run JobFunc
}

// JobHooks содержит необязательные хуки для наблюдаемости.
type JobHooks struct {
	OnJobStart  func(name string)
	OnJobFinish func(name string, duration time.Duration, err error)
}

// Config содержит конфигурацию планировщика.
type Config struct {
	Logger *slog.Logger
	Hooks  JobHooks
}

type entry struct {
	id      JobID
	job     Job
	running sync.Mutex
}

// Scheduler запускает задачи обслуживания по cron-расписанию.
// Повторный запуск задачи, пока предыдущий не завершился, пропускается.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	hooks  JobHooks
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[string]*entry

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

// cronLogger адаптер для интеграции cron logger с slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}

// Every возвращает расписание с фиксированным интервалом.
func Every(d time.Duration) string { return "@every " + d.String() }

// New создает планировщик. Задачи получают контекст, который отменяется при остановке.
func New(cfg Config) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLogger{logger: logger.With("component", "cron")}),
		),
		logger: logger,
		hooks:  cfg.Hooks,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*entry),
		done:   make(chan struct{}),
	}
}

// Add регистрирует задачу.
func (s *Scheduler) Add(job Job) (JobID, error) {
	if job.Name == "" || job.Run == nil {
		return 0, fmt.Errorf("scheduler: job needs a name and a func")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.Name]; ok {
		return 0, fmt.Errorf("scheduler: job %q already added", job.Name)
	}

	e := &entry{job: job}
	id, err := s.cron.AddFunc(job.Schedule, func() { s.run(e) })
	if err != nil {
		s.logger.Error("failed to add job", "name", job.Name, "schedule", job.Schedule, "error", err)
		return 0, fmt.Errorf("scheduler: %s: %w", job.Name, err)
	}
	e.id = id
	s.jobs[job.Name] = e

	s.logger.Info("job added", "name", job.Name, "schedule", job.Schedule, "id", id)
	return id, nil
}

// Remove снимает задачу с расписания. Возвращает false, если задачи нет.
func (s *Scheduler) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.jobs[name]
	if !ok {
		return false
	}
	s.cron.Remove(e.id)
	delete(s.jobs, name)
	s.logger.Info("job removed", "name", name)
	return true
}

// Trigger выполняет задачу немедленно, вне расписания, и ждет ее завершения.
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	e, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	s.run(e)
	return nil
}

// Start запускает планировщик. Повторные вызовы ничего не делают.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		s.logger.Info("starting scheduler")
		s.cron.Start()
	})
}

// Stop останавливает планировщик и ждет завершения запущенных задач
// не дольше, чем позволяет ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		s.cancel()
		go func() {
			<-s.cron.Stop().Done()
			close(s.done)
		}()
	})

	select {
	case <-s.done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler stop deadline exceeded")
		return ctx.Err()
	}
}

// IsRunning возвращает true, пока планировщик не остановлен.
func (s *Scheduler) IsRunning() bool {
	select {
	case <-s.ctx.Done():
		return false
	default:
		return true
	}
}

// run выполняет задачу с учетом таймаута, пропуская запуск при перекрытии.
func (s *Scheduler) run(e *entry) {
	name := e.job.Name
	if !e.running.TryLock() {
		s.logger.Debug("skipping job, already running", "name", name)
		return
	}
	defer e.running.Unlock()

	if s.hooks.OnJobStart != nil {
		s.hooks.OnJobStart(name)
	}

	ctx := s.ctx
	if e.job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.job.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := safeRun(ctx, e.job.Run)
	duration := time.Since(start)

	if s.hooks.OnJobFinish != nil {
		s.hooks.OnJobFinish(name, duration, err)
	}
	if err != nil {
		s.logger.Error("job failed", "name", name, "error", err, "duration", duration)
		return
	}
	s.logger.Debug("job completed", "name", name, "duration", duration)
}

// safeRun превращает панику задачи в ошибку.
func safeRun(ctx context.Context, fn JobFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}
