// Package maintenance tareas periódicas del libro: auditoría de saldos negativos y purga de claves
// de idempotencia. El Scheduler las ejecuta a intervalo fijo hasta Stop.
package maintenance

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// Task una tarea periódica.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// TaskLock exclusión entre instancias. release se llama al terminar la ejecución.
type TaskLock interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error)
}

// SchedulerConfig intervalo común y tiempo máximo por ejecución.
type SchedulerConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Scheduler ejecuta cada tarea registrada cada Interval. Una ejecución que falla se registra y se
// reintenta en el siguiente tick; nunca detiene el ciclo.
type Scheduler struct {
	tasks     []Task
	lock      TaskLock
	log       *logger.Logger
	cfg       SchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler crea el scheduler. lock nil = sin exclusión entre instancias.
func NewScheduler(lock TaskLock, log *logger.Logger, cfg SchedulerConfig, tasks ...Task) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	return &Scheduler{tasks: tasks, lock: lock, log: log.Component("maintenance"), cfg: cfg}
}

// Start lanza una goroutine por tarea. Intervalo <= 0 deja el scheduler deshabilitado.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	if s.cfg.Interval <= 0 {
		s.log.Info().Msg("mantenimiento periódico deshabilitado")
		return
	}
	s.isRunning = true
	ctx, s.cancel = context.WithCancel(ctx)
	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, task)
	}
	s.log.Info().Dur("interval", s.cfg.Interval).Int("tasks", len(s.tasks)).Msg("mantenimiento iniciado")
}

// Stop cancela las tareas y espera a que terminen o a que venza ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info().Msg("mantenimiento detenido")
		return nil
	case <-ctx.Done():
		s.log.Warn().Msg("tiempo agotado esperando las tareas de mantenimiento")
		return ctx.Err()
	}
}

func (s *Scheduler) loop(ctx context.Context, task Task) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.RunOnce(ctx, task)
		}
	}
}

// RunOnce ejecuta una tarea bajo el lock y con el timeout configurado. Si otra instancia tiene
// el lock la ejecución se salta sin error.
func (s *Scheduler) RunOnce(ctx context.Context, task Task) error {
	if s.lock != nil {
		release, ok, err := s.lock.TryLock(ctx, task.Name(), s.cfg.Timeout)
		if err != nil {
			s.log.Warn().Err(err).Str("task", task.Name()).Msg("no se pudo tomar el lock de la tarea")
			return err
		}
		if !ok {
			s.log.Debug().Str("task", task.Name()).Msg("tarea en curso en otra instancia")
			return nil
		}
		defer release()
	}

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	start := time.Now()
	if err := task.Run(runCtx); err != nil {
		s.log.Error().Err(err).Str("task", task.Name()).Msg("tarea de mantenimiento falló")
		return err
	}
	s.log.Debug().Str("task", task.Name()).Dur("took", time.Since(start)).Msg("tarea de mantenimiento completada")
	return nil
}
