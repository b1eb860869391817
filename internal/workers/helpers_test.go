package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/queue"
	"github.com/google/uuid"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeMessage struct {
	job     *queue.Job
	acked   bool
	nacked  bool
	requeue bool
}

func (m *fakeMessage) Ack() error { m.acked = true; return nil }

func (m *fakeMessage) Nack(requeue bool) error {
	m.nacked = true
	m.requeue = requeue
	return nil
}

func (m *fakeMessage) GetJob() *queue.Job { return m.job }

var _ queue.MessageInterface = (*fakeMessage)(nil)

type recordingQueue struct {
	mu   sync.Mutex
	jobs []*queue.Job
	err  error
}

func (q *recordingQueue) Enqueue(_ context.Context, job *queue.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) enqueued() []*queue.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*queue.Job(nil), q.jobs...)
}

type fakeGenerator struct {
	mu    sync.Mutex
	err   error
	calls []uuid.UUID
	at    []time.Time
}

func (g *fakeGenerator) GenerateAt(_ context.Context, userID uuid.UUID, now time.Time) (*models.DailyQuestsResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, userID)
	g.at = append(g.at, now)
	if g.err != nil {
		return nil, g.err
	}
	return &models.DailyQuestsResult{Day: now.UTC().Format(time.DateOnly)}, nil
}

type fakeActivityRepo struct {
	mu         sync.Mutex
	eligible   []uuid.UUID
	listErr    error
	pauseErr   error
	sinces     []time.Time
	cutoffs    []time.Time
	onList     func()
	pausedRows int64
}

func (r *fakeActivityRepo) GetByUserID(context.Context, uuid.UUID) (*models.UserActivity, error) {
	return nil, nil
}

func (r *fakeActivityRepo) UpdateLastInteraction(context.Context, uuid.UUID) error {
	return nil
}

func (r *fakeActivityRepo) ListWarmupEligible(_ context.Context, since time.Time) ([]uuid.UUID, error) {
	r.mu.Lock()
	r.sinces = append(r.sinces, since)
	onList := r.onList
	r.mu.Unlock()
	if onList != nil {
		onList()
	}
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.eligible, nil
}

func (r *fakeActivityRepo) PauseInactive(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cutoffs = append(r.cutoffs, cutoff)
	if r.pauseErr != nil {
		return 0, r.pauseErr
	}
	return r.pausedRows, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
