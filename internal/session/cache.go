// Package session keeps the views a presentation layer renders from: today's
// tasks, custom todos, the 75-day path and the gallery. Task completion is
// applied to the views immediately and persisted by a background writer;
// every other mutation goes straight to the engine and reloads the views.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/hard75/internal/challenge"
	"github.com/julianstephens/hard75/internal/constants"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/logger"
	"github.com/julianstephens/hard75/internal/models"
)

var ErrClosed = errors.New("session cache is closed")

// Engine is the part of the challenge engine the cache drives.
type Engine interface {
	EvaluateOnResume(ctx context.Context) error
	StartChallenge(ctx context.Context, startDate string) error
	RestartChallenge(ctx context.Context) error
	CurrentDayID() int

	Days(ctx context.Context) ([]models.Day, error)
	TasksForDay(ctx context.Context, dayID int) ([]models.Task, error)
	CustomTodos(ctx context.Context, dayID int) ([]models.CustomTodoWithSubtasks, error)
	ComputeGallery(ctx context.Context) ([]models.GalleryImage, error)

	SetTaskCompleted(ctx context.Context, taskID int64, completed bool) (models.Day, error)
	CompleteTaskWithValue(ctx context.Context, taskID int64, value string) (models.Day, error)

	GetJournal(ctx context.Context) (*string, error)
	SaveJournal(ctx context.Context, note string) error

	AddCustomTodo(ctx context.Context, title string, description *string) (int64, error)
	ToggleCustomTodo(ctx context.Context, todoID int64) error
	DeleteCustomTodo(ctx context.Context, todoID int64) error
	AddSubtask(ctx context.Context, todoID int64, content string) (int64, error)
	ToggleSubtask(ctx context.Context, subtaskID int64) error
	DeleteSubtask(ctx context.Context, subtaskID int64) error
}

var _ Engine = (*challenge.Engine)(nil)

// write is one queued task update. It carries the absolute target state so
// replaying it is safe.
type write struct {
	id        string
	taskID    int64
	completed bool
	value     *string
}

func (w write) run(ctx context.Context, e Engine) error {
	if w.value != nil {
		_, err := e.CompleteTaskWithValue(ctx, w.taskID, *w.value)
		return err
	}
	_, err := e.SetTaskCompleted(ctx, w.taskID, w.completed)
	return err
}

type Option func(*Cache)

// WithFailureHandler sets the callback for writes that could not be
// persisted. It runs on the writer goroutine after the views were reloaded.
func WithFailureHandler(fn func(error)) Option {
	return func(c *Cache) { c.onFailure = fn }
}

// WithRetry overrides how often and how far apart failed writes are retried.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Cache) {
		c.maxRetries = maxRetries
		c.retryDelay = delay
	}
}

type Cache struct {
	engine     Engine
	onFailure  func(error)
	maxRetries int
	retryDelay time.Duration

	// opMu orders optimistic patches with their enqueue.
	opMu   sync.Mutex
	closed bool

	mu            sync.RWMutex
	currentDayID  int
	todayTasks    []models.Task
	customTodos   []models.CustomTodoWithSubtasks
	daysPath      []models.Day
	galleryImages []models.GalleryImage
	inflight      int
	dirty         bool
	idle          *sync.Cond

	writes    chan write
	done      chan struct{}
	closeOnce sync.Once
}

// New starts the background writer. Call Init before reading views and
// Close when done.
func New(engine Engine, opts ...Option) *Cache {
	c := &Cache{
		engine:     engine,
		maxRetries: constants.WriteMaxRetries,
		retryDelay: constants.WriteRetryDelay,
		writes:     make(chan write, constants.WriteQueueSize),
		done:       make(chan struct{}),
	}
	c.onFailure = func(err error) {
		logger.Error("Background write failed", "error", err)
	}
	c.idle = sync.NewCond(&c.mu)
	for _, opt := range opts {
		opt(c)
	}
	go c.writer()
	return c
}

// Init evaluates the challenge against today's date and loads every view.
func (c *Cache) Init(ctx context.Context) error {
	if err := c.engine.EvaluateOnResume(ctx); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

// Refresh waits for queued writes and reloads every view from the store.
func (c *Cache) Refresh(ctx context.Context) error {
	c.Flush()
	return c.reload(ctx)
}

// reload reads the store into the views. A write queued after Flush may not
// have landed yet, so the writer is told to reload again once it has.
func (c *Cache) reload(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.refreshLocked(ctx)
	if c.inflight > 0 {
		c.dirty = true
	}
	return err
}

func (c *Cache) refreshLocked(ctx context.Context) error {
	current := c.engine.CurrentDayID()
	days, err := c.engine.Days(ctx)
	if err != nil {
		return err
	}
	images, err := c.engine.ComputeGallery(ctx)
	if err != nil {
		return err
	}
	tasks := []models.Task{}
	todos := []models.CustomTodoWithSubtasks{}
	if current > 0 {
		if tasks, err = c.engine.TasksForDay(ctx, current); err != nil {
			return err
		}
		if todos, err = c.engine.CustomTodos(ctx, current); err != nil {
			return err
		}
	}

	c.currentDayID = current
	c.daysPath = days
	c.galleryImages = images
	c.todayTasks = tasks
	c.customTodos = todos
	return nil
}

// Flush blocks until every queued write has been attempted and any
// failure has been reported.
func (c *Cache) Flush() {
	c.mu.Lock()
	for c.inflight > 0 {
		c.idle.Wait()
	}
	c.mu.Unlock()
}

// Close drains the write queue and stops the writer.
func (c *Cache) Close() error {
	c.closeOnce.Do(func() {
		c.opMu.Lock()
		c.closed = true
		close(c.writes)
		c.opMu.Unlock()
		<-c.done
	})
	return nil
}

// ToggleTask flips one of today's tasks.
func (c *Cache) ToggleTask(taskID int64) error {
	return c.optimistic(taskID, func(task models.Task) (write, error) {
		if err := challenge.CheckCompletion(task, !task.Completed); err != nil {
			return write{}, err
		}
		return write{taskID: taskID, completed: !task.Completed}, nil
	})
}

// CompleteTaskWithValue marks one of today's tasks done with evidence.
func (c *Cache) CompleteTaskWithValue(taskID int64, value string) error {
	return c.optimistic(taskID, func(task models.Task) (write, error) {
		if err := challenge.CheckValue(task.Type, value); err != nil {
			return write{}, err
		}
		return write{taskID: taskID, completed: true, value: &value}, nil
	})
}

// optimistic patches the views exactly as a reload would show them after
// the write, then queues the write.
func (c *Cache) optimistic(taskID int64, plan func(models.Task) (write, error)) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.mu.Lock()
	w, err := c.patchLocked(taskID, plan)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.inflight++
	c.mu.Unlock()

	w.id = uuid.NewString()
	logger.Debug("Queued task write", "op", w.id, "task_id", w.taskID, "completed", w.completed)
	c.writes <- w
	return nil
}

func (c *Cache) patchLocked(taskID int64, plan func(models.Task) (write, error)) (write, error) {
	if c.currentDayID == 0 {
		return write{}, apperrors.ErrNoActiveChallenge
	}
	ti := -1
	for i, t := range c.todayTasks {
		if t.ID == taskID {
			ti = i
			break
		}
	}
	if ti < 0 {
		return write{}, apperrors.NotFound("task", taskID)
	}
	di := -1
	for i, d := range c.daysPath {
		if d.ID == c.currentDayID {
			di = i
			break
		}
	}
	if di < 0 {
		return write{}, apperrors.NotFound("day", c.currentDayID)
	}
	var next *models.Day
	if di+1 < len(c.daysPath) {
		next = &c.daysPath[di+1]
	}
	if err := challenge.CheckWritable(c.daysPath[di], next); err != nil {
		return write{}, err
	}

	w, err := plan(c.todayTasks[ti])
	if err != nil {
		return write{}, err
	}

	task := &c.todayTasks[ti]
	task.Completed = w.completed
	if w.value != nil {
		task.Value = *w.value
	}
	c.daysPath[di].Status = challenge.Rederive(c.daysPath[di], next, c.todayTasks)
	if task.Type == models.TaskPic {
		c.patchGalleryLocked(*task)
	}
	return w, nil
}

func (c *Cache) patchGalleryLocked(task models.Task) {
	images := c.galleryImages[:0:0]
	for _, img := range c.galleryImages {
		if img.TaskID != task.ID {
			images = append(images, img)
		}
	}
	if task.Completed && challenge.IsLocalFileRef(task.Value) {
		images = append(images, models.GalleryImage{TaskID: task.ID, URI: task.Value, DayID: task.DayID})
		sort.SliceStable(images, func(i, j int) bool {
			if images[i].DayID != images[j].DayID {
				return images[i].DayID < images[j].DayID
			}
			return images[i].TaskID < images[j].TaskID
		})
	}
	c.galleryImages = images
}

// writer persists queued writes one at a time in order. After a failure the
// views are reloaded once no other write is outstanding.
func (c *Cache) writer() {
	defer close(c.done)
	ctx := context.Background()

	for w := range c.writes {
		err := c.persist(ctx, w)

		c.mu.Lock()
		if err != nil {
			c.dirty = true
		}
		if c.dirty && c.inflight == 1 {
			if rerr := c.refreshLocked(ctx); rerr != nil {
				logger.Error("Failed to reload session views", "error", rerr)
			} else {
				c.dirty = false
			}
		}
		c.mu.Unlock()

		if err != nil {
			c.onFailure(fmt.Errorf("%w: write %s for task %d: %w", apperrors.ErrOptimisticWriteFailure, w.id, w.taskID, err))
		}

		c.mu.Lock()
		c.inflight--
		if c.inflight == 0 {
			c.idle.Broadcast()
		}
		c.mu.Unlock()
	}
}

func (c *Cache) persist(ctx context.Context, w write) error {
	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			logger.Warn("Retrying task write", "op", w.id, "attempt", attempt, "error", err)
			time.Sleep(c.retryDelay)
		}
		if err = w.run(ctx, c.engine); err == nil {
			logger.Debug("Persisted task write", "op", w.id)
			return nil
		}
		if !apperrors.Retryable(err) {
			return err
		}
	}
	return err
}

// passthrough runs a mutation against the engine once queued writes have
// landed, then reloads the views.
func (c *Cache) passthrough(ctx context.Context, op func() error) error {
	c.Flush()
	if err := op(); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

func (c *Cache) StartChallenge(ctx context.Context, startDate string) error {
	return c.passthrough(ctx, func() error { return c.engine.StartChallenge(ctx, startDate) })
}

func (c *Cache) RestartChallenge(ctx context.Context) error {
	return c.passthrough(ctx, func() error { return c.engine.RestartChallenge(ctx) })
}

func (c *Cache) Journal(ctx context.Context) (*string, error) {
	c.Flush()
	return c.engine.GetJournal(ctx)
}

func (c *Cache) SaveJournal(ctx context.Context, note string) error {
	return c.passthrough(ctx, func() error { return c.engine.SaveJournal(ctx, note) })
}

func (c *Cache) AddCustomTodo(ctx context.Context, title string, description *string) (int64, error) {
	var id int64
	err := c.passthrough(ctx, func() error {
		var err error
		id, err = c.engine.AddCustomTodo(ctx, title, description)
		return err
	})
	return id, err
}

func (c *Cache) ToggleCustomTodo(ctx context.Context, todoID int64) error {
	return c.passthrough(ctx, func() error { return c.engine.ToggleCustomTodo(ctx, todoID) })
}

func (c *Cache) DeleteCustomTodo(ctx context.Context, todoID int64) error {
	return c.passthrough(ctx, func() error { return c.engine.DeleteCustomTodo(ctx, todoID) })
}

func (c *Cache) AddSubtask(ctx context.Context, todoID int64, content string) (int64, error) {
	var id int64
	err := c.passthrough(ctx, func() error {
		var err error
		id, err = c.engine.AddSubtask(ctx, todoID, content)
		return err
	})
	return id, err
}

func (c *Cache) ToggleSubtask(ctx context.Context, subtaskID int64) error {
	return c.passthrough(ctx, func() error { return c.engine.ToggleSubtask(ctx, subtaskID) })
}

func (c *Cache) DeleteSubtask(ctx context.Context, subtaskID int64) error {
	return c.passthrough(ctx, func() error { return c.engine.DeleteSubtask(ctx, subtaskID) })
}

// Accessors return copies; callers may modify them freely.

func (c *Cache) CurrentDayID() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentDayID
}

// CurrentDay returns the day under the pointer, false when there is none.
func (c *Cache) CurrentDay() (models.Day, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, d := range c.daysPath {
		if d.ID == c.currentDayID {
			return copyDay(d), true
		}
	}
	return models.Day{}, false
}

func (c *Cache) TodayTasks() []models.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Task{}, c.todayTasks...)
}

func (c *Cache) CustomTodos() []models.CustomTodoWithSubtasks {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.CustomTodoWithSubtasks, len(c.customTodos))
	for i, t := range c.customTodos {
		out[i] = t
		out[i].Subtasks = append([]models.Subtask{}, t.Subtasks...)
	}
	return out
}

func (c *Cache) DaysPath() []models.Day {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Day, len(c.daysPath))
	for i, d := range c.daysPath {
		out[i] = copyDay(d)
	}
	return out
}

func (c *Cache) GalleryImages() []models.GalleryImage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.GalleryImage{}, c.galleryImages...)
}

func copyDay(d models.Day) models.Day {
	if d.Notes != nil {
		n := *d.Notes
		d.Notes = &n
	}
	return d
}
