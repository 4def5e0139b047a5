package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	storeMocks "github.com/donaldgifford/product-aggregator/internal/store/mocks"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) Refresh(context.Context) error {
	r.calls.Add(1)
	return r.err
}

func TestNewScheduler_RegistersCronEntries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		withStore bool
		retention time.Duration
		warm      time.Duration
		want      int
	}{
		{name: "warm-up only without store", warm: 45 * time.Minute, want: 1},
		{name: "zero interval disables warm-up", want: 0},
		{name: "warm-up and prune with store", withStore: true, warm: 45 * time.Minute, retention: 7 * 24 * time.Hour, want: 2},
		{name: "zero retention disables prune", withStore: true, warm: 45 * time.Minute, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var sched *Scheduler
			var err error
			if tt.withStore {
				sched, err = NewScheduler(&countingRefresher{}, storeMocks.NewMockStore(t), tt.warm, tt.retention, quietLogger())
			} else {
				sched, err = NewScheduler(&countingRefresher{}, nil, tt.warm, tt.retention, quietLogger())
			}
			require.NoError(t, err)
			assert.Len(t, sched.Entries(), tt.want)
		})
	}
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	sched, err := NewScheduler(&countingRefresher{}, nil, time.Hour, 0, quietLogger())
	require.NoError(t, err)

	sched.Start()
	ctx := sched.Stop()
	<-ctx.Done()
}

func TestScheduler_RunWarmup(t *testing.T) {
	t.Parallel()

	t.Run("without store runs directly", func(t *testing.T) {
		t.Parallel()

		rates := &countingRefresher{}
		sched, err := NewScheduler(rates, nil, time.Hour, 0, quietLogger())
		require.NoError(t, err)

		sched.RunWarmup()
		assert.Equal(t, int32(1), rates.calls.Load())
	})

	t.Run("refresh error is logged only", func(t *testing.T) {
		t.Parallel()

		rates := &countingRefresher{err: errors.New("down")}
		sched, err := NewScheduler(rates, nil, time.Hour, 0, quietLogger())
		require.NoError(t, err)

		sched.RunWarmup()
		assert.Equal(t, int32(1), rates.calls.Load())
	})

	t.Run("runs on every replica without the lock", func(t *testing.T) {
		t.Parallel()

		// No expectations: any lock call fails the test.
		ms := storeMocks.NewMockStore(t)

		rates := &countingRefresher{}
		sched, err := NewScheduler(rates, ms, time.Hour, 0, quietLogger())
		require.NoError(t, err)

		sched.RunWarmup()
		sched.RunWarmup()
		assert.Equal(t, int32(2), rates.calls.Load())
	})
}

func TestScheduler_RunPrune(t *testing.T) {
	t.Parallel()

	retention := 72 * time.Hour

	t.Run("prunes under lock", func(t *testing.T) {
		t.Parallel()

		ms := storeMocks.NewMockStore(t)
		ms.EXPECT().AcquireSchedulerLock(mock.Anything, jobSnapshotPrune, mock.Anything, mock.Anything).
			Return(true, nil).Once()
		ms.EXPECT().PruneRateSnapshots(mock.Anything, retention).Return(4, nil).Once()
		ms.EXPECT().ReleaseSchedulerLock(mock.Anything, jobSnapshotPrune, mock.Anything).
			Return(errors.New("ignored")).Once()

		sched, err := NewScheduler(&countingRefresher{}, ms, time.Hour, retention, quietLogger())
		require.NoError(t, err)
		sched.RunPrune()
	})

	t.Run("no store is a no-op", func(t *testing.T) {
		t.Parallel()

		sched, err := NewScheduler(&countingRefresher{}, nil, time.Hour, retention, quietLogger())
		require.NoError(t, err)
		sched.RunPrune()
	})
}

func TestLockHolder(t *testing.T) {
	t.Parallel()
	assert.NotEmpty(t, lockHolder())
	assert.Contains(t, lockHolder(), "-")
}

type countingSyncer struct {
	calls atomic.Int32
	err   error
}

func (s *countingSyncer) SyncQuota(context.Context) error {
	s.calls.Add(1)
	return s.err
}

func TestScheduler_ScheduleQuotaSync(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{name: "sync succeeds"},
		{name: "sync failure is logged", err: errors.New("analytics down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			refresher := &countingRefresher{}
			syncer := &countingSyncer{err: tt.err}

			sched, err := NewScheduler(refresher, nil, 45*time.Minute, 0, quietLogger())
			require.NoError(t, err)
			require.NoError(t, sched.ScheduleQuotaSync(syncer, 10*time.Minute))

			entries := sched.Entries()
			require.Len(t, entries, 2)
			for _, e := range entries {
				e.Job.Run()
			}

			assert.Equal(t, int32(1), syncer.calls.Load())
			assert.Equal(t, int32(1), refresher.calls.Load())
		})
	}
}
