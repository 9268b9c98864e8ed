package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jingally/booking-system/internal/core/domain"
	"github.com/jingally/booking-system/internal/pkg/metrics"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Deliverer performs one delivery attempt for an outbox message and records
// its outcome.
type Deliverer interface {
	Deliver(ctx context.Context, msg *domain.OutboxMessage)
}

// Dispatcher routes outbox messages to a fixed set of workers using
// consistent hashing on the shard key, so notifications for one shipment are
// delivered in the order they were claimed.
type Dispatcher struct {
	workers   []chan *domain.OutboxMessage
	deliverer Deliverer
	log       zerolog.Logger
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, deliverer Deliverer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan *domain.OutboxMessage, numWorkers),
		deliverer: deliverer,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan *domain.OutboxMessage, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled
// or, after Stop, once their channel is drained.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends a message to the worker responsible for its shard key.
// The call blocks once that worker's buffer is full.
func (d *Dispatcher) Enqueue(msg *domain.OutboxMessage) {
	idx := d.shardIndex(msg.ShardKey())
	d.workers[idx] <- msg
	metrics.OutboxQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
}

// EnqueueBatch enqueues messages preserving per-shipment ordering.
func (d *Dispatcher) EnqueueBatch(msgs []*domain.OutboxMessage) {
	for _, m := range msgs {
		d.Enqueue(m)
	}
}

// Stop closes the worker channels and waits for queued messages to finish.
// Enqueue must not be called after Stop.
func (d *Dispatcher) Stop() {
	d.closeOnce.Do(func() {
		for _, ch := range d.workers {
			close(ch)
		}
	})
	d.wg.Wait()
}

// shardIndex maps a shard key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan *domain.OutboxMessage) {
	defer d.wg.Done()
	depth := metrics.OutboxQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			d.log.Debug().
				Str("outbox_id", msg.ID).
				Int("worker_id", id).
				Msg("delivering notification")
			d.deliverer.Deliver(ctx, msg)
		}
	}
}
