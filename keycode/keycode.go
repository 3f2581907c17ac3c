// Package keycode defines the keycodes a keymap can hold and classifies them
// by the way the resolver must treat them.
package keycode

import (
	"fmt"
	"strconv"
	"strings"
)

// Keycode is a HID keyboard usage or one of the internal pseudo codes
// (layer select, reserved combo/macro/mouse).
type Keycode uint8

// Class is the behavioral class of a keycode.
type Class uint8

const (
	// ClassKey occupies one of the report's key slots while held.
	ClassKey Class = iota
	// ClassModifier sets a bit of the report's modifier byte while held.
	ClassModifier
	// ClassLayer selects a keymap layer while held.
	ClassLayer
	// ClassCombo, ClassMacro and ClassMouse are reserved. The resolver
	// dispatches them to a no-op.
	ClassCombo
	ClassMacro
	ClassMouse
)

func (c Class) String() string {
	switch c {
	case ClassKey:
		return "key"
	case ClassModifier:
		return "modifier"
	case ClassLayer:
		return "layer"
	case ClassCombo:
		return "combo"
	case ClassMacro:
		return "macro"
	case ClassMouse:
		return "mouse"
	default:
		return "class(" + strconv.Itoa(int(c)) + ")"
	}
}

// Classify returns the behavioral class of kc.
func Classify(kc Keycode) Class {
	switch {
	case kc >= Layer1 && kc <= Layer5:
		return ClassLayer
	case kc >= KeyLeftCtrl && kc <= KeyRightGUI:
		return ClassModifier
	case kc == Combo:
		return ClassCombo
	case kc == Macro:
		return ClassMacro
	case kc == Mouse:
		return ClassMouse
	default:
		return ClassKey
	}
}

// ModifierBit returns the report modifier bit of kc, or 0 if kc is not a
// modifier.
func ModifierBit(kc Keycode) uint8 {
	if Classify(kc) != ClassModifier {
		return 0
	}
	return 1 << (kc - KeyLeftCtrl)
}

// LayerIndex returns the layer selected by a layer pseudo code.
// ok is false for any other keycode.
func LayerIndex(kc Keycode) (n uint8, ok bool) {
	if Classify(kc) != ClassLayer {
		return 0, false
	}
	return uint8(kc-Layer1) + 1, true
}

// String returns the keycode name, or its hex value when unnamed.
func (kc Keycode) String() string {
	if n, ok := names[kc]; ok {
		return n
	}
	return fmt.Sprintf("0x%02X", uint8(kc))
}

var byName = func() map[string]Keycode {
	m := make(map[string]Keycode, len(names)+8)
	for kc, n := range names {
		m[strings.ToLower(n)] = kc
	}
	// short aliases commonly used in keymap files
	m["_"] = None
	m["lshift"] = KeyLeftShift
	m["rshift"] = KeyRightShift
	m["lctrl"] = KeyLeftCtrl
	m["rctrl"] = KeyRightCtrl
	m["lalt"] = KeyLeftAlt
	m["ralt"] = KeyRightAlt
	m["lgui"] = KeyLeftGUI
	m["rgui"] = KeyRightGUI
	m["esc"] = KeyEscape
	m["bspc"] = KeyBackspace
	m["ent"] = KeyEnter
	m["spc"] = KeySpace
	return m
}()

// Parse resolves a keycode by name (case-insensitive, e.g. "A", "LeftShift",
// "Layer1") or by number ("0x04", "4").
func Parse(s string) (Keycode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return None, nil
	}
	if kc, ok := byName[strings.ToLower(s)]; ok {
		return kc, nil
	}
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return None, fmt.Errorf("unknown keycode %q", s)
	}
	return Keycode(n), nil
}
