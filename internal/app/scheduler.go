package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Task периодическая фоновая задача
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler управляет фоновыми задачами: у каждой своя горутина и свой тикер
type Scheduler struct {
	tasks    []Task
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler создаёт новый планировщик
func NewScheduler(logger *zap.Logger, tasks ...Task) *Scheduler {
	return &Scheduler{
		tasks:    tasks,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Int("tasks", len(s.tasks)))

	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.runTask(ctx, task)
	}
}

// Stop останавливает задачи и ждёт завершения текущих циклов
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	s.wg.Wait()
}

// runTask выполняет задачу сразу при старте, а затем по тикеру.
// Цикл доходит до конца (включая коммит), остановка проверяется только между циклами.
func (s *Scheduler) runTask(ctx context.Context, task Task) {
	defer s.wg.Done()

	logger := s.logger.With(zap.String("task", task.Name))
	logger.Info("Task started", zap.Stringer("schedule", task))

	s.runCycle(ctx, task, logger)

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// тикер и остановка могли сработать одновременно - остановка важнее
			select {
			case <-s.stopChan:
				logger.Info("Task stopped")
				return
			case <-ctx.Done():
				logger.Info("Task cancelled")
				return
			default:
			}
			s.runCycle(ctx, task, logger)
		case <-s.stopChan:
			logger.Info("Task stopped")
			return
		case <-ctx.Done():
			logger.Info("Task cancelled")
			return
		}
	}
}

// runCycle выполняет один цикл; ни ошибка, ни паника не останавливают задачу
func (s *Scheduler) runCycle(ctx context.Context, task Task, logger *zap.Logger) {
	cycleLogger := logger.With(zap.String("cycle_id", uuid.NewString()))
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			cycleLogger.Error("Task cycle panicked", zap.Any("panic", r))
		}
	}()

	if err := task.Run(ctx); err != nil {
		cycleLogger.Error("Task cycle failed",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(started)))
		return
	}

	cycleLogger.Debug("Task cycle completed", zap.Duration("elapsed", time.Since(started)))
}

// String для логов и отладки
func (t Task) String() string {
	return fmt.Sprintf("%s every %s", t.Name, t.Interval)
}
