// Package ingress consumes the three Redis Streams that feed SENTINEL:
// curated-wallet buys, third-party Telegram mentions, and narrative
// keyword refreshes. One consumer-group goroutine per stream, modeled on
// the teacher's pipeline consumer loop: read a batch, process, ack only
// on success. An unacked message stays in the group's pending list; the
// loop reads only new messages, so it is not processed again.
package ingress

import (
	"context"
	"sync"
	"time"

	"github.com/sentinelsignal/sentinel/internal/logger"
)

const (
	StreamKOLBuys          = "sentinel:kol_buys"
	StreamTelegramCalls    = "sentinel:telegram_calls"
	StreamNarrativeRefresh = "sentinel:narrative_refresh"

	consumerName = "sentinel-1"
	readCount    = 10
	readBlock    = 2 * time.Second
)

// XMessage is one entry read from a Redis Stream.
type XMessage struct {
	ID     string
	Values map[string]interface{}
}

// Streams is the subset of the cache layer the scheduler consumes from.
type Streams interface {
	XGroupCreate(stream, group string) error
	XReadGroup(stream, group, consumer string, count int, timeout time.Duration) ([]XMessage, error)
	XAck(stream, group, messageID string) error
}

// Processor handles one decoded message from a single stream.
type Processor interface {
	Name() string
	Process(ctx context.Context, values map[string]interface{}) error
}

// Scheduler runs one consumer-group loop per registered stream.
type Scheduler struct {
	streams    Streams
	logger     *logger.Logger
	processors map[string]Processor

	mu      sync.Mutex
	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
}

// New builds a Scheduler with no streams registered yet.
func New(streams Streams, log *logger.Logger) *Scheduler {
	return &Scheduler{
		streams:    streams,
		logger:     log,
		processors: make(map[string]Processor),
	}
}

// Register binds a stream name to the processor that consumes it.
func (s *Scheduler) Register(stream string, processor Processor) {
	s.processors[stream] = processor
}

// Start creates each registered stream's consumer group and spawns its
// consume loop. Each loop runs until Stop is called or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	for stream, processor := range s.processors {
		if err := s.streams.XGroupCreate(stream, processor.Name()); err != nil {
			s.logger.Error("ingress_group_create_failed", err, map[string]interface{}{
				"stream": stream, "group": processor.Name(),
			})
			return err
		}
	}

	for stream, processor := range s.processors {
		s.wg.Add(1)
		go func(stream string, processor Processor) {
			defer s.wg.Done()
			s.consume(ctx, stream, processor)
		}(stream, processor)
	}

	return nil
}

func (s *Scheduler) consume(ctx context.Context, stream string, processor Processor) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		default:
		}

		messages, err := s.streams.XReadGroup(stream, processor.Name(), consumerName, readCount, readBlock)
		if err != nil {
			s.logger.Warning("ingress_read_failed", map[string]interface{}{
				"stream": stream, "group": processor.Name(), "error": err.Error(),
			})
			time.Sleep(200 * time.Millisecond)
			continue
		}

		for _, msg := range messages {
			if err := processor.Process(ctx, msg.Values); err != nil {
				s.logger.Error("ingress_process_failed", err, map[string]interface{}{
					"stream": stream, "group": processor.Name(), "message_id": msg.ID,
				})
				continue
			}
			if err := s.streams.XAck(stream, processor.Name(), msg.ID); err != nil {
				s.logger.Warning("ingress_ack_failed", map[string]interface{}{
					"stream": stream, "message_id": msg.ID, "error": err.Error(),
				})
			}
		}
	}
}

// Stop signals every consume loop to exit and waits for them to drain.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.mu.Unlock()
	s.wg.Wait()
}
