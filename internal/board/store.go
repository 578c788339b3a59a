// Package board holds client-side board state: the task list with optimistic
// status changes, the set of tasks being generated, debounced content edits
// and the Q&A stepper.
package board

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	kerrors "github.com/p-blackswan/kanban-board/internal/errors"
	"github.com/p-blackswan/kanban-board/internal/models"
	"github.com/p-blackswan/kanban-board/internal/pipeline"
)

// ErrQARequired is returned by MoveTask for featurelist to design. The caller
// runs the Q&A flow and generates the design from the answers instead.
var ErrQARequired = errors.New("board: Q&A session required before design")

// ErrClosed is returned for edits queued after Close.
var ErrClosed = errors.New("board: store closed")

// API is the part of the board API the store calls. *client.Client implements it.
type API interface {
	ListTasks(ctx context.Context, projectID string) ([]*models.Task, error)
	UpdateStatus(ctx context.Context, taskID string, status models.TaskStatus) (*models.Task, error)
	TriggerAI(ctx context.Context, taskID string, target models.TaskStatus) (*models.Task, error)
	UpdateTask(ctx context.Context, taskID string, patch models.TaskPatch, version int64) (*models.Task, error)
}

// Snapshot is an immutable copy of the store state handed to subscribers.
type Snapshot struct {
	Tasks      []*models.Task
	Generating []string
	Loading    bool
	Error      string
}

// Option configures a Store.
type Option func(*Store)

// WithDebounce sets the quiet period before a queued content edit is sent.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) { s.debounce = d }
}

// WithFlushTimeout bounds each debounced content save.
func WithFlushTimeout(d time.Duration) Option {
	return func(s *Store) { s.flushTimeout = d }
}

const (
	DefaultDebounce     = 300 * time.Millisecond
	DefaultFlushTimeout = 30 * time.Second
)

// Store is the board state container. All methods are safe for concurrent use.
// In-flight requests are not cancelled by later ones; the last response to
// arrive wins.
type Store struct {
	api    API
	logger zerolog.Logger

	mu         sync.Mutex
	tasks      []*models.Task
	generating map[string]bool
	loading    bool
	err        string

	subs    map[int]func(Snapshot)
	nextSub int

	debounce     time.Duration
	flushTimeout time.Duration
	pending      map[string]*pendingEdit
	closed       bool
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// New creates an empty store backed by api.
func New(api API, logger zerolog.Logger, opts ...Option) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		api:          api,
		logger:       logger.With().Str("component", "board").Logger(),
		generating:   make(map[string]bool),
		subs:         make(map[int]func(Snapshot)),
		debounce:     DefaultDebounce,
		flushTimeout: DefaultFlushTimeout,
		pending:      make(map[string]*pendingEdit),
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func errMessage(err error) string {
	if apiErr, ok := kerrors.As(err); ok {
		return apiErr.Message
	}
	return err.Error()
}

func (s *Store) indexLocked(taskID string) int {
	for i, t := range s.tasks {
		if t.ID == taskID {
			return i
		}
	}
	return -1
}

// replaceLocked swaps in the backend's record when the task is still present.
// A queued content edit stays applied on top until it is flushed.
func (s *Store) replaceLocked(t *models.Task) {
	i := s.indexLocked(t.ID)
	if i < 0 {
		return
	}
	c := t.Clone()
	if p, ok := s.pending[t.ID]; ok {
		p.patch.Apply(c)
	}
	s.tasks[i] = c
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Tasks:   make([]*models.Task, len(s.tasks)),
		Loading: s.loading,
		Error:   s.err,
	}
	for i, t := range s.tasks {
		snap.Tasks[i] = t.Clone()
	}
	for id := range s.generating {
		snap.Generating = append(snap.Generating, id)
	}
	sort.Strings(snap.Generating)
	return snap
}

// notify delivers a snapshot to subscribers. Must be called without s.mu held.
func (s *Store) notify() {
	s.mu.Lock()
	if len(s.subs) == 0 {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(s.subs))
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		subs = append(subs, s.subs[id])
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// Subscribe registers fn for change notifications and returns its cancel func.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// FetchTasks loads the board of a project, replacing the local list.
func (s *Store) FetchTasks(ctx context.Context, projectID string) error {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
	s.notify()

	list, err := s.api.ListTasks(ctx, projectID)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.err = errMessage(err)
	} else {
		s.tasks = make([]*models.Task, 0, len(list))
		for _, t := range list {
			s.tasks = append(s.tasks, t.Clone())
		}
	}
	s.mu.Unlock()
	s.notify()
	return err
}

// Tasks returns copies of all tasks in board order.
func (s *Store) Tasks() []*models.Task {
	return s.Snapshot().Tasks
}

// TasksByStatus returns copies of the tasks in one column.
func (s *Store) TasksByStatus(status models.TaskStatus) []*models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Task
	for _, t := range s.tasks {
		if t.Status == status {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Task returns a copy of one task.
func (s *Store) Task(taskID string) (*models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(taskID); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	return nil, false
}

// ApplyTask stores a task record received outside the store's own actions,
// for example after the Q&A flow generated a design. Unknown tasks are appended.
func (s *Store) ApplyTask(t *models.Task) {
	if t == nil {
		return
	}
	s.mu.Lock()
	if i := s.indexLocked(t.ID); i >= 0 {
		s.tasks[i] = t.Clone()
	} else {
		s.tasks = append(s.tasks, t.Clone())
	}
	s.mu.Unlock()
	s.notify()
}

// Loading reports whether a fetch is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Error returns the message of the last failed action, or "".
func (s *Store) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// ClearError resets the error message.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.err = ""
	s.mu.Unlock()
	s.notify()
}

// IsGenerating reports whether a generation for the task is in flight.
func (s *Store) IsGenerating(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generating[taskID]
}

// SetGenerating marks or unmarks a task as being generated.
func (s *Store) SetGenerating(taskID string, generating bool) {
	s.mu.Lock()
	if generating {
		s.generating[taskID] = true
	} else {
		delete(s.generating, taskID)
	}
	s.mu.Unlock()
	s.notify()
}

// UpdateTaskStatus moves a task at once and confirms with the backend.
// On failure only the status field is put back and the error is recorded.
// Unknown task ids are a no-op.
func (s *Store) UpdateTaskStatus(ctx context.Context, taskID string, status models.TaskStatus) error {
	s.mu.Lock()
	i := s.indexLocked(taskID)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	optimistic := s.tasks[i].Clone()
	previous := optimistic.Status
	optimistic.Status = status
	s.tasks[i] = optimistic
	s.mu.Unlock()
	s.notify()

	updated, err := s.api.UpdateStatus(ctx, taskID, status)

	s.mu.Lock()
	if err != nil {
		if j := s.indexLocked(taskID); j >= 0 {
			rolled := s.tasks[j].Clone()
			rolled.Status = previous
			s.tasks[j] = rolled
		}
		s.err = errMessage(err)
		s.logger.Warn().Err(err).Str("task_id", taskID).Str("status", string(status)).Msg("Status update rolled back")
	} else {
		s.replaceLocked(updated)
		s.err = ""
	}
	s.mu.Unlock()
	s.notify()
	return err
}

// TriggerAIGeneration asks the backend to generate the document for target.
// The task is marked generating until the call returns, whatever the outcome.
// Unknown task ids are a no-op.
func (s *Store) TriggerAIGeneration(ctx context.Context, taskID string, target models.TaskStatus) error {
	s.mu.Lock()
	known := s.indexLocked(taskID) >= 0
	s.mu.Unlock()
	if !known {
		return nil
	}

	s.SetGenerating(taskID, true)
	defer s.SetGenerating(taskID, false)

	updated, err := s.api.TriggerAI(ctx, taskID, target)

	s.mu.Lock()
	if err != nil {
		s.err = errMessage(err)
	} else {
		s.replaceLocked(updated)
		s.err = ""
	}
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn().Err(err).Str("task_id", taskID).Str("target", string(target)).Msg("Generation failed")
	}
	return err
}

// MoveTask applies the board's drag-and-drop rules. Backward moves only
// change the status. A forward move from featurelist to design returns
// ErrQARequired. Any other forward move triggers generation.
func (s *Store) MoveTask(ctx context.Context, taskID string, target models.TaskStatus) error {
	t, ok := s.Task(taskID)
	if !ok || t.Status == target {
		return nil
	}
	switch {
	case pipeline.IsBackward(t.Status, target):
		return s.UpdateTaskStatus(ctx, taskID, target)
	case t.Status == models.StatusFeatureList && target == models.StatusDesign:
		return ErrQARequired
	default:
		return s.TriggerAIGeneration(ctx, taskID, target)
	}
}
