package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sweepStoreStub struct {
	batches [][]string
	calls   int
	err     error
}

func (s *sweepStoreStub) MarkExpired(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.calls >= len(s.batches) {
		return nil, nil
	}
	batch := s.batches[s.calls]
	s.calls++
	return batch, nil
}

func TestSweepServiceSweepOnceDrainsBatches(t *testing.T) {
	full := make([]string, 5)
	for i := range full {
		full[i] = "item"
	}
	store := &sweepStoreStub{batches: [][]string{full, {"item-a", "item-b"}}}
	svc := NewSweepService(store, nil, nil, nil, SweepConfig{BatchSize: 5})

	total, err := svc.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.Equal(t, 2, store.calls)
}

func TestSweepServiceSweepOnceNothingExpired(t *testing.T) {
	store := &sweepStoreStub{}
	svc := NewSweepService(store, nil, nil, nil, SweepConfig{})

	total, err := svc.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSweepServiceSweepOnceError(t *testing.T) {
	store := &sweepStoreStub{err: errors.New("connection refused")}
	svc := NewSweepService(store, nil, nil, nil, SweepConfig{})

	_, err := svc.SweepOnce(context.Background())
	require.Error(t, err)
}
