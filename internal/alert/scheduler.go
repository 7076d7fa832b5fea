package alert

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"crypto-alerts-bot/internal/types"

	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Task is the payload of one scheduled recheck: who owns the alert, where to
// notify and the alert itself.
type Task struct {
	Owner  types.Owner
	ChatID int64
	Alert  types.Alert

	job *gocron.Job
}

// TaskFunc runs one firing of a task. Returning true means the alert resolved
// and the task must not fire again.
type TaskFunc func(ctx context.Context, t *Task) bool

// Binding ties registry alerts to recurring gocron jobs, one job per alert.
// Jobs are tagged with the owner's display handle; owners sharing a handle
// share the lookup namespace.
type Binding struct {
	cron   *gocron.Scheduler
	fire   TaskFunc
	logger *log.Entry

	mu    sync.Mutex
	ctx   context.Context
	tasks map[*gocron.Job]*Task
}

// NewBinding creates a binding on its own UTC scheduler. Call Start to begin firing.
func NewBinding(fire TaskFunc, logger *log.Entry) *Binding {
	cron := gocron.NewScheduler(time.UTC)
	cron.SingletonModeAll()

	if logger == nil {
		logger = log.WithField("component", "alert_scheduler")
	}

	return &Binding{
		cron:   cron,
		fire:   fire,
		logger: logger,
		ctx:    context.Background(),
		tasks:  make(map[*gocron.Job]*Task),
	}
}

// Start begins running scheduled tasks in the background
func (b *Binding) Start(ctx context.Context) {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	b.cron.StartAsync()
	b.logger.Info("🚀 Alert scheduler started.")
}

// Stop halts the scheduler. Firings in progress are allowed to finish.
func (b *Binding) Stop() {
	b.cron.Stop()
	b.logger.Info("Alert scheduler stopped.")
}

// Schedule registers a task that fires every interval, first firing one interval from now
func (b *Binding) Schedule(owner types.Owner, chatID int64, a types.Alert, interval time.Duration) (*Task, error) {
	if interval <= 0 {
		return nil, errors.Errorf("interval must be positive, got %s", interval)
	}

	task := &Task{Owner: owner, ChatID: chatID, Alert: a}

	b.mu.Lock()
	defer b.mu.Unlock()

	job, err := b.cron.Every(interval).Tag(owner.Handle()).WaitForSchedule().Do(b.run, task)
	if err != nil {
		return nil, errors.Wrapf(err, "schedule %s for %s", a, owner.Handle())
	}
	task.job = job
	b.tasks[job] = task

	b.logger.Debugf("Scheduled %s for %s every %s", a, owner.Handle(), interval)
	return task, nil
}

// FindByOwnerName returns the live tasks tagged with handle
func (b *Binding) FindByOwnerName(handle string) []*Task {
	b.mu.Lock()
	defer b.mu.Unlock()

	jobs, err := b.cron.FindJobsByTag(handle)
	if err != nil {
		return nil
	}

	tasks := make([]*Task, 0, len(jobs))
	for _, job := range jobs {
		if t, ok := b.tasks[job]; ok {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

// Cancel deregisters t. Cancelling an already cancelled task does nothing.
func (b *Binding) Cancel(t *Task) {
	if t == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.tasks[t.job]; !ok {
		return
	}
	delete(b.tasks, t.job)
	b.cron.RemoveByReference(t.job)
	b.logger.Debugf("Cancelled %s for %s", t.Alert, t.Owner.Handle())
}

// Len counts live tasks
func (b *Binding) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.tasks)
}

func (b *Binding) live(t *Task) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.tasks[t.job]
	return ok
}

// run is the gocron entry point for a task. It never lets a panic escape and
// survives errors so the task fires again next period.
func (b *Binding) run(t *Task) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Errorf("Recovered from panic in alert job: %v\nStack trace: %s", r, debug.Stack())
		}
	}()

	if t == nil {
		b.logger.Error("Alert job fired without a task, skipping")
		return
	}
	if !b.live(t) {
		return
	}

	b.mu.Lock()
	ctx := b.ctx
	b.mu.Unlock()

	if b.fire(ctx, t) {
		b.Cancel(t)
	}
}
