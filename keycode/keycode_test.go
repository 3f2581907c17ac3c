package keycode_test

import (
	"testing"

	"github.com/Alia5/splitkb/keycode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	type testCase struct {
		name     string
		code     keycode.Keycode
		expected keycode.Class
	}

	cases := []testCase{
		{name: "letter", code: keycode.KeyA, expected: keycode.ClassKey},
		{name: "none", code: keycode.None, expected: keycode.ClassKey},
		{name: "volume", code: keycode.KeyVolumeUp, expected: keycode.ClassKey},
		{name: "left ctrl", code: keycode.KeyLeftCtrl, expected: keycode.ClassModifier},
		{name: "right gui", code: keycode.KeyRightGUI, expected: keycode.ClassModifier},
		{name: "layer 1", code: keycode.Layer1, expected: keycode.ClassLayer},
		{name: "layer 5", code: keycode.Layer5, expected: keycode.ClassLayer},
		{name: "combo", code: keycode.Combo, expected: keycode.ClassCombo},
		{name: "macro", code: keycode.Macro, expected: keycode.ClassMacro},
		{name: "mouse", code: keycode.Mouse, expected: keycode.ClassMouse},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, keycode.Classify(tc.code))
		})
	}
}

func TestModifierBit(t *testing.T) {
	assert.Equal(t, uint8(keycode.ModLeftCtrl), keycode.ModifierBit(keycode.KeyLeftCtrl))
	assert.Equal(t, uint8(keycode.ModLeftShift), keycode.ModifierBit(keycode.KeyLeftShift))
	assert.Equal(t, uint8(keycode.ModLeftGUI), keycode.ModifierBit(keycode.KeyLeftGUI))
	assert.Equal(t, uint8(keycode.ModRightShift), keycode.ModifierBit(keycode.KeyRightShift))
	assert.Equal(t, uint8(keycode.ModRightGUI), keycode.ModifierBit(keycode.KeyRightGUI))
	assert.Zero(t, keycode.ModifierBit(keycode.KeyA))
	assert.Zero(t, keycode.ModifierBit(keycode.Layer1))
}

func TestLayerIndex(t *testing.T) {
	n, ok := keycode.LayerIndex(keycode.Layer1)
	assert.True(t, ok)
	assert.Equal(t, uint8(1), n)

	n, ok = keycode.LayerIndex(keycode.Layer5)
	assert.True(t, ok)
	assert.Equal(t, uint8(5), n)

	_, ok = keycode.LayerIndex(keycode.KeyLeftShift)
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	type testCase struct {
		name        string
		input       string
		expected    keycode.Keycode
		expectedErr string
	}

	cases := []testCase{
		{name: "name", input: "A", expected: keycode.KeyA},
		{name: "lower case", input: "leftshift", expected: keycode.KeyLeftShift},
		{name: "alias", input: "LShift", expected: keycode.KeyLeftShift},
		{name: "layer", input: "Layer2", expected: keycode.Layer2},
		{name: "hex", input: "0x04", expected: keycode.KeyA},
		{name: "decimal", input: "44", expected: keycode.KeySpace},
		{name: "empty", input: "", expected: keycode.None},
		{name: "underscore", input: "_", expected: keycode.None},
		{name: "unknown", input: "Banana", expectedErr: `unknown keycode "Banana"`},
		{name: "overflow", input: "0x100", expectedErr: `unknown keycode "0x100"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kc, err := keycode.Parse(tc.input)
			if tc.expectedErr != "" {
				assert.EqualError(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, kc)
		})
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "A", keycode.KeyA.String())
	assert.Equal(t, "Layer1", keycode.Layer1.String())
	assert.Equal(t, "0xE8", keycode.Keycode(0xE8).String())
	assert.Equal(t, "modifier", keycode.ClassModifier.String())
}
