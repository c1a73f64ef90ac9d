package processing

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookbytes/backend/internal/job"
	"github.com/bookbytes/backend/internal/jobstore"
)

func newTestStore(t *testing.T) *jobstore.Store {
	t.Helper()

	f, err := os.CreateTemp("", "processing_test_*.db")
	require.NoError(t, err)
	path := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(path) })

	db, err := sqlx.Connect("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)

	require.NoError(t, jobstore.Migrate(context.Background(), db))

	return jobstore.NewStore(db, slog.New(slog.DiscardHandler))
}

// stubNotifier records published notifications.
type stubNotifier struct {
	published []string
	err       error
}

func (n *stubNotifier) PublishJobReady(ctx context.Context, jobID, jobType string) error {
	n.published = append(n.published, jobID)
	return n.err
}

func TestStart_MintsEntityID(t *testing.T) {
	store := newTestStore(t)
	notifier := &stubNotifier{}
	svc := NewService(store, notifier, slog.New(slog.DiscardHandler))
	ctx := context.Background()

	res, err := svc.Start(ctx, "")
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.NotEmpty(t, res.EntityID)
	_, err = uuid.Parse(res.EntityID)
	assert.NoError(t, err)
	assert.Equal(t, job.TypeAudiobookGeneration, res.Job.JobType)
	assert.Equal(t, job.StatusPending, res.Job.Status)

	link, err := store.GetLinkByJobID(ctx, res.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, res.EntityID, link.EntityID)

	assert.Equal(t, []string{res.Job.ID}, notifier.published)
}

func TestStart_SuppressesDuplicateActiveJob(t *testing.T) {
	store := newTestStore(t)
	notifier := &stubNotifier{}
	svc := NewService(store, notifier, slog.New(slog.DiscardHandler))
	ctx := context.Background()

	first, err := svc.Start(ctx, "entity-1")
	require.NoError(t, err)
	require.True(t, first.Created)

	// Latest job for the entity is still PENDING, so no new job is queued
	second, err := svc.Start(ctx, "entity-1")
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Job.ID, second.Job.ID)
	assert.Len(t, notifier.published, 1)

	// Same rule applies while PROCESSING
	claimed, err := store.ClaimNext(ctx, "w1", "")
	require.NoError(t, err)
	require.NotNil(t, claimed)

	third, err := svc.Start(ctx, "entity-1")
	require.NoError(t, err)
	assert.False(t, third.Created)
}

func TestStart_QueuesAfterTerminalJob(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, nil, slog.New(slog.DiscardHandler))
	ctx := context.Background()

	first, err := svc.Start(ctx, "entity-1")
	require.NoError(t, err)

	_, err = store.ClaimNext(ctx, "w1", "")
	require.NoError(t, err)
	_, err = store.MarkCompleted(ctx, first.Job.ID)
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, "entity-1")
	require.NoError(t, err)
	assert.True(t, second.Created)
	assert.NotEqual(t, first.Job.ID, second.Job.ID)
	assert.Equal(t, job.TypeAudiobookRefresh, second.Job.JobType)
}

func TestStart_NotifierFailureNotSurfaced(t *testing.T) {
	store := newTestStore(t)
	notifier := &stubNotifier{err: errors.New("broker down")}
	svc := NewService(store, notifier, slog.New(slog.DiscardHandler))

	res, err := svc.Start(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, res.Created)
}

func TestRetry(t *testing.T) {
	store := newTestStore(t)
	notifier := &stubNotifier{}
	svc := NewService(store, notifier, slog.New(slog.DiscardHandler))
	ctx := context.Background()

	res, err := svc.Start(ctx, "entity-1")
	require.NoError(t, err)
	notifier.published = nil

	// Not retryable while PENDING
	ok, err := svc.Retry(ctx, res.Job.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, notifier.published)

	_, err = store.ClaimNext(ctx, "w1", "")
	require.NoError(t, err)
	_, err = store.MarkFailed(ctx, res.Job.ID, "boom", "")
	require.NoError(t, err)

	ok, err = svc.Retry(ctx, res.Job.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	// Workers are woken for the re-queued job
	assert.Equal(t, []string{res.Job.ID}, notifier.published)
}

func TestStatusAndHistory(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, nil, slog.New(slog.DiscardHandler))
	ctx := context.Background()

	res, err := svc.Start(ctx, "entity-1")
	require.NoError(t, err)

	got, err := svc.Status(ctx, res.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Job.ID, got.ID)

	_, err = svc.Status(ctx, "no-such-job")
	assert.ErrorIs(t, err, job.ErrJobNotFound)

	history, err := svc.History(ctx, "entity-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)

	latest, err := svc.Latest(ctx, "entity-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, res.Job.ID, latest.ID)

	latest, err = svc.Latest(ctx, "no-such-entity")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestSimulatedPipeline(t *testing.T) {
	p := &SimulatedPipeline{StepDelay: 1}

	var steps []string
	report := func(progress int, step string) error {
		steps = append(steps, step)
		return nil
	}

	require.NoError(t, p.Generate(context.Background(), "entity-1", report))
	assert.Equal(t, []string{
		"Extracting chapters",
		"Summarizing chapters",
		"Synthesizing audio",
		"Storing audio",
	}, steps)
}
