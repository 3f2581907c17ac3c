package link_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/Alia5/splitkb/internal/link"
	"github.com/Alia5/splitkb/mailbox"
	"github.com/Alia5/splitkb/split"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startServer(t *testing.T, key []byte, pub link.Publisher) *link.Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := link.NewServer("", key, pub, discardLogger(), nil)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()
	require.Eventually(t, func() bool { return srv.Addr() != nil }, time.Second, time.Millisecond)

	t.Cleanup(func() {
		_ = srv.Close()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})
	return srv
}

func stream(bs ...byte) split.Stream {
	s := split.EmptyStream()
	copy(s[:], bs)
	return s
}

func TestServerClient(t *testing.T) {
	type testCase struct {
		name     string
		pairing  string
		expected bool
	}
	cases := []testCase{
		{name: "plain", expected: true},
		{name: "encrypted", pairing: "pairing", expected: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var key []byte
			if tc.pairing != "" {
				var err error
				key, err = link.DeriveKey(tc.pairing)
				require.NoError(t, err)
			}

			box := mailbox.New(split.EmptyStream(), 1)
			rx, err := box.Receiver()
			require.NoError(t, err)
			srv := startServer(t, key, box)

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			client, err := link.Dial(ctx, srv.Addr().String(), key, nil)
			require.NoError(t, err)

			require.NoError(t, client.SendStream(ctx, stream(0x12, 0x30)))
			got, err := rx.Changed(ctx)
			require.NoError(t, err)
			assert.Equal(t, stream(0x12, 0x30), got)

			// disconnecting releases every remote key
			require.NoError(t, client.Close())
			got, err = rx.Changed(ctx)
			require.NoError(t, err)
			assert.Equal(t, split.EmptyStream(), got)
		})
	}
}

func TestServerRejectsWrongKey(t *testing.T) {
	key, err := link.DeriveKey("pairing")
	require.NoError(t, err)
	other, err := link.DeriveKey("other")
	require.NoError(t, err)

	box := mailbox.New(split.EmptyStream(), 1)
	srv := startServer(t, key, box)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = link.Dial(ctx, srv.Addr().String(), other, nil)
	assert.ErrorIs(t, err, link.ErrUnauthorized)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func TestServeStreamOverSerialBytes(t *testing.T) {
	var wire bytes.Buffer
	client := link.NewClient(nopCloser{&wire}, nil)
	ctx := context.Background()
	require.NoError(t, client.SendStream(ctx, stream(0x01)))
	wire.Write([]byte{0x00, 0xA5, 0x01, 0x02, 0x03}) // noise and a corrupt frame
	require.NoError(t, client.SendStream(ctx, stream(0x02)))

	box := mailbox.New(split.EmptyStream(), 1)
	var seen []split.Stream
	pub := publisherFunc(func(s split.Stream) {
		seen = append(seen, s)
		box.Publish(s)
	})

	err := link.ServeStream(&wire, pub, discardLogger(), nil)
	assert.ErrorIs(t, err, io.EOF)
	require.Len(t, seen, 3)
	assert.Equal(t, stream(0x01), seen[0])
	assert.Equal(t, stream(0x02), seen[1])
	assert.Equal(t, split.EmptyStream(), seen[2])
}

type publisherFunc func(split.Stream)

func (f publisherFunc) Publish(s split.Stream) { f(s) }
