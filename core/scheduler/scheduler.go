package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"blog/core/logger"

	"github.com/robfig/cron/v3"
)

var ErrTaskNotFound = errors.New("task not found")

// CronTask is a named job run on a cron schedule
type CronTask struct {
	Name        string
	Description string
	CronExpr    string
	Handler     func(ctx context.Context) error
	Enabled     bool
	// Timeout bounds a single run, 0 means no limit
	Timeout time.Duration
}

// TaskStatus is the observable state of a registered task
type TaskStatus struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CronExpr    string     `json:"cron_expr"`
	Enabled     bool       `json:"enabled"`
	Running     bool       `json:"running"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	Runs        int        `json:"runs"`
}

type taskState struct {
	task    *CronTask
	entryId cron.EntryID
	running bool
	lastRun *time.Time
	lastErr string
	runs    int
}

// CronScheduler runs CronTasks. A task never overlaps with itself: a run
// that fires while the previous one is still busy is skipped.
type CronScheduler struct {
	mu     sync.Mutex
	cron   *cron.Cron
	tasks  map[string]*taskState
	logger logger.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewCronScheduler(logger logger.Logger) *CronScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &CronScheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		tasks:  make(map[string]*taskState),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// RegisterTask validates the cron expression and schedules an enabled task
func (s *CronScheduler) RegisterTask(task *CronTask) error {
	if task.Name == "" || task.Handler == nil {
		return fmt.Errorf("task needs a name and a handler")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.Name]; exists {
		return fmt.Errorf("task %s already registered", task.Name)
	}

	state := &taskState{task: task}
	if task.Enabled {
		id, err := s.cron.AddFunc(task.CronExpr, func() {
			if err := s.run(s.ctx, state); err != nil {
				s.logger.Error("Scheduled task failed",
					logger.String("task", task.Name), logger.Err(err))
			}
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression %q for task %s: %w", task.CronExpr, task.Name, err)
		}
		state.entryId = id
	}

	s.tasks[task.Name] = state
	return nil
}

// RunTask runs a registered task now, outside of its schedule
func (s *CronScheduler) RunTask(ctx context.Context, name string) error {
	s.mu.Lock()
	state, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, name)
	}
	return s.run(ctx, state)
}

func (s *CronScheduler) run(ctx context.Context, state *taskState) error {
	s.mu.Lock()
	if state.running {
		s.mu.Unlock()
		s.logger.Warn("Task still running, skipping", logger.String("task", state.task.Name))
		return nil
	}
	state.running = true
	s.mu.Unlock()

	if state.task.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, state.task.Timeout)
		defer cancel()
	}

	started := time.Now()
	err := state.task.Handler(ctx)

	s.mu.Lock()
	state.running = false
	state.lastRun = &started
	state.runs++
	state.lastErr = ""
	if err != nil {
		state.lastErr = err.Error()
	}
	s.mu.Unlock()

	s.logger.Info("Task finished",
		logger.String("task", state.task.Name),
		logger.Duration("duration", time.Since(started)),
		logger.Bool("success", err == nil))
	return err
}

// Tasks lists the registered tasks by name
func (s *CronScheduler) Tasks() []TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TaskStatus, 0, len(s.tasks))
	for _, state := range s.tasks {
		status := TaskStatus{
			Name:        state.task.Name,
			Description: state.task.Description,
			CronExpr:    state.task.CronExpr,
			Enabled:     state.task.Enabled,
			Running:     state.running,
			LastRun:     state.lastRun,
			LastError:   state.lastErr,
			Runs:        state.runs,
		}
		if state.entryId != 0 {
			if next := s.cron.Entry(state.entryId).Next; !next.IsZero() {
				status.NextRun = &next
			}
		}
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *CronScheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", logger.Int("tasks", len(s.tasks)))
}

// Stop halts scheduling and waits for running tasks until ctx is done
func (s *CronScheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
