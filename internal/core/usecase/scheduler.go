package usecase

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omnicart/channelbridge/internal/core/domain"
	"github.com/omnicart/channelbridge/internal/core/ports"
)

// Processor is what the scheduler drives: the same entry point the transport
// adapter invokes.
type Processor interface {
	Process(ctx context.Context, env domain.Envelope) ([]domain.Event, error)
}

// Job is one scheduled pull: fetch the feed payload for a message type and
// channel, synthesize an envelope, and run it through the dispatcher.
type Job struct {
	Type      domain.MessageType
	ChannelID string
	Every     time.Duration
}

// Scheduler runs each configured job on its own interval ticker. Each tick is
// processed to completion before the next pull of the same job, matching the
// one-envelope-at-a-time discipline of a queue listener.
type Scheduler struct {
	processor Processor
	source    ports.FeedSource
	jobs      []Job

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(processor Processor, source ports.FeedSource, jobs []Job) *Scheduler {
	return &Scheduler{processor: processor, source: source, jobs: jobs}
}

func (s *Scheduler) Start(parent context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	for _, job := range s.jobs {
		if job.Every <= 0 {
			continue
		}
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
}

func (s *Scheduler) Close() error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	return nil
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()
	ticker := time.NewTicker(job.Every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := s.runJob(ctx, job); err != nil {
			log.Printf("scheduled %s pull for channel %s: %v", job.Type, job.ChannelID, err)
		}
	}
}

// runJob performs one pull-and-process cycle. A pull failure is the feed's
// problem and is only logged; a processing failure has already been recorded
// as events, so the only error surfaced from Process is the sink's.
func (s *Scheduler) runJob(ctx context.Context, job Job) error {
	payload, err := s.source.Pull(ctx, job.Type, job.ChannelID)
	if err != nil {
		return err
	}
	env := domain.Envelope{
		ID:      uuid.NewString(),
		Type:    job.Type,
		Message: payload,
	}
	_, err = s.processor.Process(ctx, env)
	return err
}
