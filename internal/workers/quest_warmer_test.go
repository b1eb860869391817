package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/quests"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/queue"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestWarmer_ProcessJob(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 0, 10, 0, 0, time.UTC)
	pipelineErr := &quests.StageError{Code: quests.CodeSignalsFailed, Err: errors.New("db down")}

	tests := []struct {
		name        string
		job         func() *queue.Job
		genErr      error
		enqueueErr  error
		wantErr     bool
		wantAck     bool
		wantNack    bool
		wantRequeue bool
		wantCalls   int
		wantRetries int
	}{
		{
			name:      "generates today's quests",
			job:       func() *queue.Job { return queue.NewDailyQuestsJob(uuid.New(), now, now) },
			wantAck:   true,
			wantCalls: 1,
		},
		{
			name:    "stale day skipped",
			job:     func() *queue.Job { return queue.NewDailyQuestsJob(uuid.New(), now.Add(-24*time.Hour), now) },
			wantAck: true,
		},
		{
			name: "unknown type dead-lettered",
			job: func() *queue.Job {
				j := queue.NewDailyQuestsJob(uuid.New(), now, now)
				j.Type = "reprocess_user"
				return j
			},
			wantErr:  true,
			wantNack: true,
		},
		{
			name: "missing date dead-lettered",
			job: func() *queue.Job {
				j := queue.NewDailyQuestsJob(uuid.New(), now, now)
				j.QuestDate = ""
				return j
			},
			wantErr:  true,
			wantNack: true,
		},
		{
			name:        "failure re-enqueued with backoff",
			job:         func() *queue.Job { return queue.NewDailyQuestsJob(uuid.New(), now, now) },
			genErr:      pipelineErr,
			wantErr:     true,
			wantAck:     true,
			wantCalls:   1,
			wantRetries: 1,
		},
		{
			name:        "re-enqueue failure requeues delivery",
			job:         func() *queue.Job { return queue.NewDailyQuestsJob(uuid.New(), now, now) },
			genErr:      pipelineErr,
			enqueueErr:  errors.New("broker down"),
			wantErr:     true,
			wantNack:    true,
			wantRequeue: true,
			wantCalls:   1,
		},
		{
			name: "exhausted retries dead-lettered",
			job: func() *queue.Job {
				j := queue.NewDailyQuestsJob(uuid.New(), now, now)
				j.RetryCount = j.MaxRetries
				return j
			},
			genErr:    pipelineErr,
			wantErr:   true,
			wantNack:  true,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := &fakeGenerator{err: tt.genErr}
			q := &recordingQueue{err: tt.enqueueErr}
			w := NewQuestWarmer(gen, q, nil)
			w.now = fixedClock(now)

			job := tt.job()
			msg := &fakeMessage{job: job}
			err := w.ProcessJob(context.Background(), msg)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantAck, msg.acked, "acked")
			assert.Equal(t, tt.wantNack, msg.nacked, "nacked")
			assert.Equal(t, tt.wantRequeue, msg.requeue, "requeue")
			assert.Len(t, gen.calls, tt.wantCalls)

			retries := q.enqueued()
			require.Len(t, retries, tt.wantRetries)
			if tt.wantRetries > 0 {
				retry := retries[0]
				assert.Equal(t, job.ID, retry.ID)
				assert.Equal(t, job.RetryCount+1, retry.RetryCount)
				assert.Equal(t, job.QuestDate, retry.QuestDate)
				require.NotNil(t, retry.NotBefore)
				assert.Equal(t, now.Add(DefaultRetryBackoff), *retry.NotBefore)
				assert.Equal(t, 0, job.RetryCount, "original job must not be mutated")
			}
		})
	}
}

func TestQuestWarmer_BackoffDoubles(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 1, 0, 0, 0, time.UTC)
	q := &recordingQueue{}
	w := NewQuestWarmer(&fakeGenerator{err: errors.New("boom")}, q, nil)
	w.now = fixedClock(now)

	job := queue.NewDailyQuestsJob(uuid.New(), now, now)
	job.RetryCount = 2
	_ = w.ProcessJob(context.Background(), &fakeMessage{job: job})

	retries := q.enqueued()
	require.Len(t, retries, 1)
	assert.Equal(t, now.Add(4*DefaultRetryBackoff), *retries[0].NotBefore)
}

func TestQuestWarmer_RunStopsWhenChannelCloses(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{}
	w := NewQuestWarmer(gen, nil, nil)

	msgs := make(chan *queue.Message)
	errs := make(chan error)
	done := make(chan struct{})
	go func() {
		w.Run(context.Background(), msgs, errs)
		close(done)
	}()

	errs <- errors.New("transient")
	close(errs)
	close(msgs)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the message channel closed")
	}
	assert.Empty(t, gen.calls)
}

func TestQuestWarmer_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	w := NewQuestWarmer(&fakeGenerator{}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, make(chan *queue.Message), make(chan error))
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
