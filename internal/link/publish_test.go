package link

import (
	"bytes"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/Alia5/splitkb/split"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	streams []split.Stream
}

func (p *recordingPublisher) Publish(s split.Stream) {
	p.streams = append(p.streams, s)
}

func TestReplacedConnectionDoesNotPublish(t *testing.T) {
	type testCase struct {
		name     string
		replaced bool
		expected []split.Stream
	}

	live := split.EmptyStream()
	live[0] = 0x12

	cases := []testCase{
		{name: "active connection", expected: []split.Stream{live, split.EmptyStream()}},
		{name: "replaced connection", replaced: true, expected: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			s := NewServer("", nil, pub, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

			old, oldPeer := net.Pipe()
			defer old.Close()
			defer oldPeer.Close()
			next, nextPeer := net.Pipe()
			defer next.Close()
			defer nextPeer.Close()

			s.active = old
			if tc.replaced {
				s.active = next
			}

			frame, err := EncodeFrame(EncodeStream(live))
			require.NoError(t, err)
			err = ServeStream(bytes.NewReader(frame), s.publisherFor(old), s.logger, nil)
			assert.ErrorIs(t, err, io.EOF)
			assert.Equal(t, tc.expected, pub.streams)
		})
	}
}
