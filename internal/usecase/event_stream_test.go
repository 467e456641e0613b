package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

func deployEvent(name domain.ContractName, addr common.Address) (domain.DeploymentEvent, domain.DeploymentEvent) {
	pending := domain.DeploymentEvent{
		Kind:         domain.EventProxyDeployment,
		ContractName: name,
		Status:       domain.StatusPending,
		FunctionName: domain.FunctionDeploy,
	}
	return pending, pending.Complete(&types.Receipt{ContractAddress: addr, Status: types.ReceiptStatusSuccessful})
}

// collector records what an observer receives
type collector struct {
	mu     sync.Mutex
	events []domain.DeploymentEvent
	result domain.DeployedContractsResult
	err    error
	done   int
}

func (c *collector) OnEvent(e domain.DeploymentEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collector) OnDone(result domain.DeployedContractsResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result, c.err = result, err
	c.done++
}

func TestEventStream_StampsEvents(t *testing.T) {
	s := usecase.NewEventStream("run-1")
	pending, complete := deployEvent(domain.ContractAccount, controllerA)
	s.Emit(pending)
	s.Emit(complete)

	history := s.History()
	require.Len(t, history, 2)
	for i, e := range history {
		assert.Equal(t, "run-1", e.RunID)
		assert.Equal(t, i+1, e.Sequence)
		assert.False(t, e.Timestamp.IsZero())
	}
	assert.Equal(t, controllerA, s.Partial()[domain.ContractAccount].Address)
}

func TestEventStream_LateSubscriberGetsFullHistory(t *testing.T) {
	s := usecase.NewEventStream("run-2")
	p1, c1 := deployEvent(domain.ContractAccount, controllerA)
	p2, c2 := deployEvent(domain.ContractDelegate, controllerB)

	early := &collector{}
	earlySub := s.Subscribe(context.Background(), early)

	s.Emit(p1)
	s.Emit(c1)
	s.Emit(p2)

	late := &collector{}
	lateSub := s.Subscribe(context.Background(), late)

	s.Emit(c2)
	s.Finish(nil)

	<-earlySub.Done()
	<-lateSub.Done()

	assert.Equal(t, s.History(), early.events)
	assert.Equal(t, early.events, late.events)
	assert.Equal(t, 1, early.done)
	assert.Equal(t, 1, late.done)
	assert.NoError(t, late.err)
	assert.Len(t, late.result, 2)

	// subscribing after the run finished replays everything too
	after := &collector{}
	<-s.Subscribe(context.Background(), after).Done()
	assert.Equal(t, early.events, after.events)
	assert.Equal(t, early.result, after.result)
}

func TestEventStream_FinishWithError(t *testing.T) {
	s := usecase.NewEventStream("run-3")
	pending, complete := deployEvent(domain.ContractAccount, controllerA)
	s.Emit(pending)
	s.Emit(complete)

	boom := errors.New("boom")
	s.Finish(boom)
	s.Finish(nil)
	s.Emit(pending)

	assert.Len(t, s.History(), 2, "events after Finish are dropped")

	result, err := s.Wait(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, result)

	obs := &collector{}
	<-s.Subscribe(context.Background(), obs).Done()
	assert.ErrorIs(t, obs.err, boom)
	assert.Nil(t, obs.result)
	assert.Len(t, s.Partial(), 1)
}

func TestEventStream_Events(t *testing.T) {
	s := usecase.NewEventStream("run-4")
	pending, complete := deployEvent(domain.ContractAccount, controllerA)

	ch := s.Events(context.Background())
	go func() {
		s.Emit(pending)
		s.Emit(complete)
		s.Finish(nil)
	}()

	var got []domain.DeploymentEvent
	for e := range ch {
		got = append(got, e)
	}
	require.Len(t, got, 2)
	assert.Equal(t, domain.StatusPending, got[0].Status)
	assert.Equal(t, domain.StatusComplete, got[1].Status)
}

func TestEventStream_CancelledSubscriptionDoesNotAffectRun(t *testing.T) {
	s := usecase.NewEventStream("run-5")
	ctx, cancel := context.WithCancel(context.Background())

	obs := &collector{}
	sub := s.Subscribe(ctx, obs)
	cancel()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription did not stop")
	}

	pending, _ := deployEvent(domain.ContractAccount, controllerA)
	s.Emit(pending)
	s.Finish(nil)

	_, err := s.Wait(context.Background())
	assert.NoError(t, err)
	assert.Len(t, s.History(), 1)
	assert.Equal(t, 0, obs.done)
}

func TestEventStream_WaitHonoursContext(t *testing.T) {
	s := usecase.NewEventStream("run-6")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
