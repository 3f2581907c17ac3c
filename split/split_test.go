package split_test

import (
	"testing"
	"time"

	"github.com/Alia5/splitkb/board"
	"github.com/Alia5/splitkb/matrix"
	"github.com/Alia5/splitkb/split"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPack(t *testing.T) {
	type testCase struct {
		name        string
		pos         matrix.Position
		expected    byte
		expectedErr error
	}

	cases := []testCase{
		{name: "origin", pos: matrix.Position{Row: 0, Col: 0}, expected: 0x00},
		{name: "row 1 col 2", pos: matrix.Position{Row: 1, Col: 2}, expected: 0x12},
		{name: "max", pos: matrix.Position{Row: 15, Col: 14}, expected: 0xFE},
		{name: "row too large", pos: matrix.Position{Row: 16, Col: 0}, expectedErr: split.ErrOutOfRange},
		{name: "col too large", pos: matrix.Position{Row: 0, Col: 16}, expectedErr: split.ErrOutOfRange},
		{name: "collides with empty", pos: matrix.Position{Row: 15, Col: 15}, expectedErr: split.ErrOutOfRange},
		{name: "sentinel", pos: matrix.NoPosition, expectedErr: split.ErrOutOfRange},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := split.Pack(tc.pos)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, b)

			p, ok := split.Unpack(b)
			assert.True(t, ok)
			assert.Equal(t, tc.pos, p)
		})
	}
}

func TestUnpackEmpty(t *testing.T) {
	p, ok := split.Unpack(split.Empty)
	assert.False(t, ok)
	assert.Equal(t, matrix.NoPosition, p)
}

func TestMergeOffsetsRemoteColumns(t *testing.T) {
	m := split.NewMerger(5, nil)
	s := split.EmptyStream()
	s[0] = 0x12

	got := m.Merge(s)
	assert.Equal(t, matrix.Position{Row: 1, Col: 7}, got[0])
	for _, p := range got[1:] {
		assert.Equal(t, matrix.NoPosition, p)
	}
}

func TestMergeIgnoresMalformedSlots(t *testing.T) {
	m := split.NewMerger(board.Cols, nil)
	s := split.EmptyStream()
	s[0] = 0x90 // row 9 on a 4 row half
	s[1] = 0x0A // col 10 on a 5 col half
	s[2] = 0x34

	got := m.Merge(s)
	assert.Equal(t, matrix.NoPosition, got[0])
	assert.Equal(t, matrix.NoPosition, got[1])
	assert.Equal(t, matrix.Position{Row: 3, Col: 4 + board.Cols}, got[2])
	assert.Equal(t, uint64(2), m.Malformed())
}

func TestEncoderUpdate(t *testing.T) {
	e := split.NewEncoder()
	now := time.Unix(0, 0)

	tbl := matrix.NewTable()
	tbl[2] = matrix.Key{Position: matrix.Position{Row: 1, Col: 2}, State: matrix.Pressed, LastSeen: now}
	tbl[4] = matrix.Key{Position: matrix.Position{Row: 3, Col: 0}, State: matrix.Pressed, LastSeen: now}

	s, changed := e.Update(tbl)
	assert.True(t, changed)
	assert.Equal(t, split.Stream{0x12, 0x30, split.Empty, split.Empty, split.Empty, split.Empty}, s)

	_, changed = e.Update(tbl)
	assert.False(t, changed, "same table must not produce a new stream")

	// release the first key; the second keeps its slot
	tbl[2].State = matrix.Released
	s, changed = e.Update(tbl)
	assert.True(t, changed)
	assert.Equal(t, split.Stream{split.Empty, 0x30, split.Empty, split.Empty, split.Empty, split.Empty}, s)

	tbl[2] = matrix.EmptyKey
	tbl[0] = matrix.Key{Position: matrix.Position{Row: 0, Col: 4}, State: matrix.Pressed, LastSeen: now}
	s, changed = e.Update(tbl)
	assert.True(t, changed)
	assert.Equal(t, split.Stream{0x04, 0x30, split.Empty, split.Empty, split.Empty, split.Empty}, s)
}
