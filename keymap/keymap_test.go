package keymap_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Alia5/splitkb/keycode"
	"github.com/Alia5/splitkb/keymap"
	"github.com/Alia5/splitkb/mailbox"
	"github.com/Alia5/splitkb/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAt(t *testing.T) {
	km := keymap.Default()
	assert.Equal(t, keycode.KeyQ, km.At(0, matrix.Position{Row: 0, Col: 0}))
	assert.Equal(t, keycode.Key1, km.At(1, matrix.Position{Row: 0, Col: 0}))
	assert.Equal(t, keycode.KeyLeftShift, km.At(0, matrix.Position{Row: 3, Col: 0}))
	assert.Equal(t, keycode.KeyP, km.At(0, matrix.Position{Row: 0, Col: 9}))

	assert.Equal(t, keycode.None, km.At(2, matrix.Position{Row: 0, Col: 0}), "layer out of range")
	assert.Equal(t, keycode.None, km.At(0, matrix.NoPosition), "sentinel position")
}

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, keymap.Default().Validate())
}

func TestValidateRejectsMissingLayer(t *testing.T) {
	km := keymap.Default()
	km[0][3][3] = keycode.Layer3
	err := km.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "selects layer 3")
}

func TestLayeredFollowsCell(t *testing.T) {
	cell := mailbox.NewCell[uint8](0)
	l := keymap.Layered{Map: keymap.Default(), Layer: cell}
	p := matrix.Position{Row: 0, Col: 1}

	assert.Equal(t, keycode.KeyW, l.Lookup(p))
	cell.Set(1)
	assert.Equal(t, keycode.Key2, l.Lookup(p))
}

const yamlKeymap = `
name: test
layers:
  - rows:
      - [A, B, C, D, E, F, G, H, I, J]
      - [_, _, _, _, _, _, _, _, _, _]
      - [_, _, _, _, _, _, _, _, _, _]
      - [lshift, _, _, Layer1, spc, "0x28", _, _, _, RightGUI]
  - rows:
      - ["1", "2", "3", "4", "5", "6", "7", "8", "9", "0"]
      - [_, _, _, _, _, _, _, _, _, _]
      - [_, _, _, _, _, _, _, _, _, _]
      - [_, _, _, _, _, _, _, _, _, _]
`

func TestLoadYAML(t *testing.T) {
	km, err := keymap.Load(strings.NewReader(yamlKeymap), keymap.FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, keycode.KeyA, km[0][0][0])
	assert.Equal(t, keycode.KeyJ, km[0][0][9])
	assert.Equal(t, keycode.KeyLeftShift, km[0][3][0])
	assert.Equal(t, keycode.Layer1, km[0][3][3])
	assert.Equal(t, keycode.KeySpace, km[0][3][4])
	assert.Equal(t, keycode.KeyEnter, km[0][3][5])
	assert.Equal(t, keycode.KeyRightGUI, km[0][3][9])
	// bare digits are names, not numbers
	assert.Equal(t, keycode.Key1, km[1][0][0])
	assert.Equal(t, keycode.None, km[1][3][0])
}

const tomlKeymap = `
name = "test"

[[layer]]
rows = [
  ["A", "B", "C", "D", "E", "F", "G", "H", "I", "J"],
  ["_", "_", "_", "_", "_", "_", "_", "_", "_", "_"],
  ["_", "_", "_", "_", "_", "_", "_", "_", "_", "_"],
  ["LeftShift", "_", "_", "Layer1", "Space", "Enter", "_", "_", "_", "_"],
]

[[layer]]
rows = [
  ["_", "_", "_", "_", "_", "_", "_", "_", "_", "_"],
  ["_", "_", "_", "_", "_", "_", "_", "_", "_", "_"],
  ["_", "_", "_", "_", "_", "_", "_", "_", "_", "_"],
  ["_", "_", "_", "_", "_", "_", "_", "_", "_", "Escape"],
]
`

func TestLoadTOML(t *testing.T) {
	km, err := keymap.Load(strings.NewReader(tomlKeymap), keymap.FormatTOML)
	require.NoError(t, err)

	assert.Equal(t, keycode.KeyA, km[0][0][0])
	assert.Equal(t, keycode.Layer1, km[0][3][3])
	assert.Equal(t, keycode.KeyEscape, km[1][3][9])
}

func TestLoadErrors(t *testing.T) {
	type testCase struct {
		name     string
		input    string
		expected string
	}

	cases := []testCase{
		{
			name:     "wrong layer count",
			input:    "layers:\n  - rows: []\n",
			expected: "1 layers, want 2",
		},
		{
			name:     "short row",
			input:    strings.Replace(yamlKeymap, "[A, B, C, D, E, F, G, H, I, J]", "[A, B]", 1),
			expected: "has 2 keys, want 10",
		},
		{
			name:     "unknown keycode",
			input:    strings.Replace(yamlKeymap, "[A, B, C,", "[A, Bogus, C,", 1),
			expected: `unknown keycode "Bogus"`,
		},
		{
			name:     "undefined layer",
			input:    strings.Replace(yamlKeymap, "Layer1", "Layer4", 1),
			expected: "selects layer 4",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := keymap.Load(strings.NewReader(tc.input), keymap.FormatYAML)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expected)
		})
	}
}

func TestShapeErrorIsSentinel(t *testing.T) {
	_, err := keymap.Load(strings.NewReader("layers: []\n"), keymap.FormatYAML)
	assert.ErrorIs(t, err, keymap.ErrShape)
}

func TestEncodeYAMLRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, keymap.Default().Encode(&buf, keymap.FormatYAML))

	km, err := keymap.Load(&buf, keymap.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, keymap.Default(), km)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "map.yml")
	require.NoError(t, os.WriteFile(path, []byte(yamlKeymap), 0o644))

	km, err := keymap.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, keycode.KeyA, km[0][0][0])

	_, err = keymap.LoadFile(filepath.Join(dir, "map.json"))
	assert.Error(t, err)
}
