package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/trebuchet-org/profile-factory/internal/domain"
)

// Observer receives every event of a run followed by exactly one terminal notification
type Observer interface {
	OnEvent(event domain.DeploymentEvent)
	OnDone(result domain.DeployedContractsResult, err error)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are ignored.
type ObserverFuncs struct {
	Event func(event domain.DeploymentEvent)
	Done  func(result domain.DeployedContractsResult, err error)
}

func (o ObserverFuncs) OnEvent(event domain.DeploymentEvent) {
	if o.Event != nil {
		o.Event(event)
	}
}

func (o ObserverFuncs) OnDone(result domain.DeployedContractsResult, err error) {
	if o.Done != nil {
		o.Done(result, err)
	}
}

// EventStream is the append-only event history of one deployment run.
// Subscribers always receive the full history, whenever they subscribe.
type EventStream struct {
	runID string
	now   func() time.Time

	mu       sync.Mutex
	history  []domain.DeploymentEvent
	result   domain.DeployedContractsResult
	err      error
	finished bool
	changed  chan struct{}
	done     chan struct{}
}

// NewEventStream creates an empty stream for a run
func NewEventStream(runID string) *EventStream {
	return &EventStream{
		runID:   runID,
		now:     time.Now,
		result:  make(domain.DeployedContractsResult),
		changed: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// seed preloads the result with contracts deployed by an earlier run
func (s *EventStream) seed(result domain.DeployedContractsResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, c := range result {
		s.result[name] = c
	}
}

// RunID returns the id stamped on every event
func (s *EventStream) RunID() string {
	return s.runID
}

// Emit appends an event. Events emitted after Finish are dropped.
func (s *EventStream) Emit(event domain.DeploymentEvent) {
	s.publish(event)
}

// publish appends event and returns it as stamped with run id, sequence and time
func (s *EventStream) publish(event domain.DeploymentEvent) (domain.DeploymentEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return event, false
	}

	event.RunID = s.runID
	event.Sequence = len(s.history) + 1
	event.Timestamp = s.now()
	s.history = append(s.history, event)

	if event.IsResultBearing() {
		addr, _ := event.ContractAddress()
		s.result[event.ContractName] = domain.DeployedContract{Address: addr, Receipt: event.Receipt}
	}

	close(s.changed)
	s.changed = make(chan struct{})
	return event, true
}

// Finish closes the stream. A nil err marks the run as successful.
func (s *EventStream) Finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.finished = true
	s.err = err
	close(s.changed)
	close(s.done)
}

// Partial returns what has been deployed so far
func (s *EventStream) Partial() domain.DeployedContractsResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result.Clone()
}

// History returns a copy of all events emitted so far
func (s *EventStream) History() []domain.DeploymentEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.DeploymentEvent, len(s.history))
	copy(out, s.history)
	return out
}

// Done is closed once the run finished
func (s *EventStream) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the run finished or ctx is done
func (s *EventStream) Wait(ctx context.Context) (domain.DeployedContractsResult, error) {
	select {
	case <-s.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.result.Clone(), nil
}

// Subscription is a running delivery of a stream to one observer
type Subscription struct {
	done chan struct{}
}

// Done is closed after the observer received its terminal notification or the
// subscription context was cancelled.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Subscribe replays the history to obs and then follows the live stream.
// Cancelling ctx stops delivery; the run itself is not affected.
func (s *EventStream) Subscribe(ctx context.Context, obs Observer) *Subscription {
	sub := &Subscription{done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		next := 0
		for {
			s.mu.Lock()
			pending := append([]domain.DeploymentEvent(nil), s.history[next:]...)
			finished := s.finished
			result, err := s.result.Clone(), s.err
			changed := s.changed
			s.mu.Unlock()

			for _, event := range pending {
				if ctx.Err() != nil {
					return
				}
				obs.OnEvent(event)
			}
			next += len(pending)

			if finished {
				if err != nil {
					result = nil
				}
				obs.OnDone(result, err)
				return
			}

			select {
			case <-changed:
			case <-ctx.Done():
				return
			}
		}
	}()
	return sub
}

// Events returns a channel carrying the full history followed by live events.
// The channel is closed when the run finishes or ctx is done; call Wait for the outcome.
func (s *EventStream) Events(ctx context.Context) <-chan domain.DeploymentEvent {
	ch := make(chan domain.DeploymentEvent)
	sub := s.Subscribe(ctx, ObserverFuncs{
		Event: func(event domain.DeploymentEvent) {
			select {
			case ch <- event:
			case <-ctx.Done():
			}
		},
	})
	go func() {
		<-sub.Done()
		close(ch)
	}()
	return ch
}
