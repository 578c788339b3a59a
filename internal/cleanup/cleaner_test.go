package cleanup

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/kanban-board/internal/store"
)

// mockPruner implements Pruner for testing.
type mockPruner struct {
	mu       sync.Mutex
	maxAges  []time.Duration
	pruned   int64
	pruneErr error
	sizeErr  error
}

func (m *mockPruner) RunRetention(ctx context.Context, maxAge time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxAges = append(m.maxAges, maxAge)
	return m.pruned, m.pruneErr
}

func (m *mockPruner) DBSizeBytes() (int64, error) {
	return 4096, m.sizeErr
}

func (m *mockPruner) sweeps() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.maxAges)
}

type gauge struct {
	mu    sync.Mutex
	value float64
	sets  int
}

func (g *gauge) SetDBSize(bytes float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value = bytes
	g.sets++
}

func TestNewCleaner_Defaults(t *testing.T) {
	c := NewCleaner(CleanupConfig{}, &mockPruner{}, nil, zerolog.Nop())
	assert.Equal(t, DefaultConfig(), c.cfg)
}

func TestRunOnce(t *testing.T) {
	p := &mockPruner{pruned: 3}
	g := &gauge{}
	c := NewCleaner(CleanupConfig{MaxAge: time.Hour, CheckInterval: time.Minute}, p, g, zerolog.Nop())

	res, err := c.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Pruned: 3, DBSizeBytes: 4096}, res)
	assert.Equal(t, []time.Duration{time.Hour}, p.maxAges)
	assert.Equal(t, float64(4096), g.value)
}

func TestRunOnce_PruneError(t *testing.T) {
	p := &mockPruner{pruneErr: errors.New("disk I/O error")}
	g := &gauge{}
	c := NewCleaner(DefaultConfig(), p, g, zerolog.Nop())

	_, err := c.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.Zero(t, g.sets)
}

func TestRunOnce_SizeErrorIsNotFatal(t *testing.T) {
	p := &mockPruner{pruned: 1, sizeErr: errors.New("no pragma")}
	g := &gauge{}
	c := NewCleaner(DefaultConfig(), p, g, zerolog.Nop())

	res, err := c.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Pruned)
	assert.Zero(t, g.sets)
}

func TestRun_StopsOnCancel(t *testing.T) {
	p := &mockPruner{}
	c := NewCleaner(CleanupConfig{MaxAge: time.Hour, CheckInterval: 5 * time.Millisecond}, p, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool { return p.sweeps() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunOnce_AgainstStore(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "kanban.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	g := &gauge{}
	c := NewCleaner(DefaultConfig(), st, g, zerolog.Nop())
	res, err := c.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Pruned)
	assert.Positive(t, res.DBSizeBytes)
	assert.Positive(t, g.value)
}
