package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Freeeeeet/disk_entulho/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_RecordIfNew_Dedup(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.notify.RecordIfNew(ctx, 42, 1, "confirmada", model.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = e.notify.RecordIfNew(ctx, 42, 1, "confirmada de novo", model.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.False(t, created)

	records := e.store.NotificationRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "confirmada", records[0].Message)
	assert.Equal(t, testStart, records[0].CreatedAt)
	assert.False(t, records[0].Sent)
}

func TestNotificationService_RecordIfNew_DistinctStatuses(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for _, st := range []model.BookingStatus{model.BookingStatusProcessing, model.BookingStatusConfirmed} {
		created, err := e.notify.RecordIfNew(ctx, 42, 1, StatusMessage(42, st), st)
		require.NoError(t, err)
		assert.True(t, created)
	}

	history, err := e.notify.History(ctx, 42)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.BookingStatusProcessing, history[0].Status)
	assert.Equal(t, model.BookingStatusConfirmed, history[1].Status)
}

func TestNotificationService_RecordIfNew_Concurrent(t *testing.T) {
	e := newEnv(t)
	statuses := []model.BookingStatus{model.BookingStatusConfirmed, model.BookingStatusRejected}

	var (
		wg      sync.WaitGroup
		created atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(st model.BookingStatus) {
			defer wg.Done()
			ok, err := e.notify.RecordIfNew(context.Background(), 42, 1, StatusMessage(42, st), st)
			if !assert.NoError(t, err) {
				return
			}
			if ok {
				created.Add(1)
			}
		}(statuses[i%2])
	}
	wg.Wait()

	assert.Equal(t, int32(2), created.Load())

	records := e.store.NotificationRecords()
	require.Len(t, records, 2)
	seen := map[model.BookingStatus]int{}
	for _, r := range records {
		seen[r.Status]++
	}
	assert.Equal(t, map[model.BookingStatus]int{
		model.BookingStatusConfirmed: 1,
		model.BookingStatusRejected:  1,
	}, seen)
}

func TestStatusMessage(t *testing.T) {
	assert.Contains(t, StatusMessage(42, model.BookingStatusConfirmed), "#42")
	assert.Contains(t, StatusMessage(42, model.BookingStatusConfirmed), "confirmada")
	assert.Contains(t, StatusMessage(42, model.BookingStatusRejected), "rejeitada")
	assert.Contains(t, StatusMessage(42, model.BookingStatusProcessing), "processamento")
}
