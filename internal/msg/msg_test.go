package msg

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastReachesEverySubscriber(t *testing.T) {
	pub := uuid.New()
	b := NewBroadcaster[Signal](4)
	sub1, sub2 := uuid.New(), uuid.New()
	ch1 := b.Subscribe(sub1)
	ch2 := b.Subscribe(sub2)

	failed := b.Publish(pub, ClockTick{Tick: 7})
	assert.Empty(t, failed)

	for _, ch := range []<-chan Msg[Signal]{ch1, ch2} {
		m := <-ch
		assert.Equal(t, pub, m.Sender)
		assert.Equal(t, ClockTick{Tick: 7}, m.Payload)
	}
}

func TestSubscribeTwiceReturnsSameChannel(t *testing.T) {
	b := NewBroadcaster[Signal](1)
	pid := uuid.New()
	assert.Equal(t, b.Subscribe(pid), b.Subscribe(pid))
	assert.Equal(t, 1, b.Subscribers())
}

func TestFullSubscriberOnlyLosesItsOwnCopy(t *testing.T) {
	b := NewBroadcaster[Signal](1)
	slow, fast := uuid.New(), uuid.New()
	slowCh := b.Subscribe(slow)
	fastCh := b.Subscribe(fast)

	assert.Empty(t, b.Publish(uuid.Nil, ClockTick{Tick: 1}))
	<-fastCh

	failed := b.Publish(uuid.Nil, ClockTick{Tick: 2})
	assert.Equal(t, []uuid.UUID{slow}, failed)

	m := <-fastCh
	assert.Equal(t, ClockTick{Tick: 2}, m.Payload)
	m = <-slowCh
	assert.Equal(t, ClockTick{Tick: 1}, m.Payload)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster[Announcement](2)
	pid := uuid.New()
	ch := b.Subscribe(pid)
	b.Unsubscribe(pid)

	_, ok := <-ch
	assert.False(t, ok)
	assert.Empty(t, b.Publish(uuid.Nil, EnergyPrice{PerUnit: 1}))
	assert.Zero(t, b.Subscribers())
}

func TestCloseBroadcaster(t *testing.T) {
	b := NewBroadcaster[Signal](2)
	ch := b.Subscribe(uuid.New())
	b.Close()
	b.Close()

	_, ok := <-ch
	assert.False(t, ok)

	late := b.Subscribe(uuid.New())
	_, ok = <-late
	assert.False(t, ok)
}

func TestConcurrentPublishAndUnsubscribe(t *testing.T) {
	b := NewBroadcaster[Signal](8)
	pids := make([]uuid.UUID, 16)
	for i := range pids {
		pids[i] = uuid.New()
		b.Subscribe(pids[i])
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			b.Publish(uuid.Nil, ClockTick{Tick: uint64(i)})
		}
	}()
	go func() {
		defer wg.Done()
		for _, pid := range pids {
			b.Unsubscribe(pid)
		}
	}()
	wg.Wait()
	assert.Zero(t, b.Subscribers())
}

func TestMailboxFIFO(t *testing.T) {
	owner := uuid.New()
	mb := NewMailbox[ToFactory](owner, 3)
	assert.Equal(t, owner, mb.Owner())

	run := uuid.New()
	require.NoError(t, mb.Send(uuid.Nil, EnergyAccepted{Run: run, Units: 1}))
	require.NoError(t, mb.Send(uuid.Nil, EnergyDelivered{Run: run, Units: 1}))
	assert.Equal(t, 2, mb.Len())

	first := <-mb.C()
	second := <-mb.C()
	assert.IsType(t, EnergyAccepted{}, first.Payload)
	assert.IsType(t, EnergyDelivered{}, second.Payload)
}

func TestMailboxFull(t *testing.T) {
	mb := NewMailbox[ToHub](uuid.New(), 1)
	require.NoError(t, mb.Send(uuid.Nil, EnergyPayment{Amount: 1}))
	assert.ErrorIs(t, mb.Send(uuid.Nil, EnergyPayment{Amount: 2}), ErrMailboxFull)
}

func TestMailboxReceiverGone(t *testing.T) {
	mb := NewMailbox[ToHub](uuid.New(), 2)
	require.NoError(t, mb.Send(uuid.Nil, EnergyPayment{Amount: 1}))
	mb.Close()
	mb.Close()

	assert.ErrorIs(t, mb.Send(uuid.Nil, EnergyPayment{Amount: 2}), ErrReceiverGone)

	m, ok := <-mb.C()
	require.True(t, ok)
	assert.Equal(t, EnergyPayment{Amount: 1}, m.Payload)
	_, ok = <-mb.C()
	assert.False(t, ok)
}
