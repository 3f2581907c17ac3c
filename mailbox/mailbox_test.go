package mailbox_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Alia5/splitkb/mailbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiverSeesLatestOnly(t *testing.T) {
	m := mailbox.New(0, 2)
	r, err := m.Receiver()
	require.NoError(t, err)

	_, ok := r.Try()
	assert.False(t, ok, "nothing published yet")

	m.Publish(1)
	m.Publish(2)
	m.Publish(3)

	v, ok := r.Try()
	require.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = r.Try()
	assert.False(t, ok, "same version must not be delivered twice")
}

func TestReceiversAreIndependent(t *testing.T) {
	m := mailbox.New("", 2)
	a, err := m.Receiver()
	require.NoError(t, err)
	b, err := m.Receiver()
	require.NoError(t, err)

	m.Publish("x")
	v, ok := a.Try()
	require.True(t, ok)
	assert.Equal(t, "x", v)

	v, ok = b.Try()
	require.True(t, ok)
	assert.Equal(t, "x", v)
}

func TestReceiverCapacity(t *testing.T) {
	m := mailbox.New(0, 1)
	_, err := m.Receiver()
	require.NoError(t, err)
	_, err = m.Receiver()
	assert.ErrorIs(t, err, mailbox.ErrTooManyReceivers)
}

func TestLateReceiverStartsCaughtUp(t *testing.T) {
	m := mailbox.New(0, 1)
	m.Publish(7)
	r, err := m.Receiver()
	require.NoError(t, err)

	_, ok := r.Try()
	assert.False(t, ok)
	assert.Equal(t, 7, m.Get())
}

func TestChangedBlocksUntilPublish(t *testing.T) {
	m := mailbox.New(0, 1)
	r, err := m.Receiver()
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	var got int
	go func() {
		defer wg.Done()
		got, err = r.Changed(context.Background())
	}()

	time.Sleep(10 * time.Millisecond)
	m.Publish(42)
	wg.Wait()

	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestChangedHonoursContext(t *testing.T) {
	m := mailbox.New(0, 1)
	r, err := m.Receiver()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = r.Changed(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReadyFiresAfterPublish(t *testing.T) {
	m := mailbox.New(0, 1)
	r, err := m.Receiver()
	require.NoError(t, err)

	m.Publish(5)
	select {
	case <-r.Ready():
	case <-time.After(time.Second):
		t.Fatal("ready did not fire")
	}
	v, ok := r.Try()
	require.True(t, ok)
	assert.Equal(t, 5, v)
}

func TestCell(t *testing.T) {
	c := mailbox.NewCell[uint8](0)
	assert.Equal(t, uint8(0), c.Get())

	c.Set(1)
	assert.Equal(t, uint8(1), c.Get())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Update(func(v *uint8) { *v++ })
		}()
	}
	wg.Wait()
	assert.Equal(t, uint8(51), c.Get())
}
