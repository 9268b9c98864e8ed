package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/jingally/booking-system/internal/core/domain"
)

type recordingDeliverer struct {
	mu        sync.Mutex
	byShard   map[string][]string
	delivered int
}

func (r *recordingDeliverer) Deliver(_ context.Context, msg *domain.OutboxMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byShard == nil {
		r.byShard = map[string][]string{}
	}
	r.byShard[msg.ShardKey()] = append(r.byShard[msg.ShardKey()], msg.ID)
	r.delivered++
}

func TestShardIndex_Deterministic(t *testing.T) {
	d := NewDispatcher(4, &recordingDeliverer{}, zerolog.Nop())
	for _, key := range []string{"s1", "s2", "ada@example.com", ""} {
		first := d.shardIndex(key)
		if first < 0 || first >= 4 {
			t.Fatalf("index %d out of range", first)
		}
		if d.shardIndex(key) != first {
			t.Errorf("key %q must always map to the same worker", key)
		}
	}
}

func TestNewDispatcher_DefaultWorkers(t *testing.T) {
	d := NewDispatcher(0, &recordingDeliverer{}, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Errorf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
}

func TestDispatcher_PreservesPerShipmentOrder(t *testing.T) {
	rec := &recordingDeliverer{}
	d := NewDispatcher(3, rec, zerolog.Nop())
	d.Start(context.Background())

	var batch []*domain.OutboxMessage
	for i := 0; i < 20; i++ {
		batch = append(batch, &domain.OutboxMessage{
			ID:         fmt.Sprintf("m%02d", i),
			ShipmentID: fmt.Sprintf("s%d", i%4),
		})
	}
	d.EnqueueBatch(batch)
	d.Stop()

	if rec.delivered != 20 {
		t.Fatalf("Stop must drain every message, delivered %d", rec.delivered)
	}
	for shard, ids := range rec.byShard {
		for i := 1; i < len(ids); i++ {
			if ids[i-1] > ids[i] {
				t.Errorf("shard %s delivered out of order: %v", shard, ids)
			}
		}
	}
}

func TestDispatcher_StopIsIdempotent(t *testing.T) {
	d := NewDispatcher(2, &recordingDeliverer{}, zerolog.Nop())
	d.Start(context.Background())
	d.Stop()
	d.Stop()
}
