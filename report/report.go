// Package report holds the 8-byte HID boot keyboard report the resolver
// builds and forwards to the host.
package report

import (
	"fmt"
	"io"

	"github.com/Alia5/splitkb/keycode"
)

// Size is the encoded length of a boot keyboard report.
const Size = 8

// Slots is the number of concurrently reported non-modifier keys.
const Slots = 6

// Builder is implemented by report types that can be sent to a host.
type Builder interface {
	// BuildReport encodes the state into the bytes sent over the wire.
	BuildReport() []byte
}

// Report is the host-facing keyboard state.
//
// Layout (8 bytes):
//
//	Byte 0: Modifiers (LCtrl, LShift, LAlt, LGui, RCtrl, RShift, RAlt, RGui)
//	Byte 1: Reserved (0x00)
//	Bytes 2-7: Keycodes, 0x00 for an empty slot
type Report struct {
	Modifiers uint8
	Keycodes  [Slots]keycode.Keycode
}

var _ Builder = Report{}

// BuildReport encodes the report into its 8-byte wire form.
func (r Report) BuildReport() []byte {
	b := make([]byte, Size)
	b[0] = r.Modifiers
	for i, kc := range r.Keycodes {
		b[2+i] = uint8(kc)
	}
	return b
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (r *Report) MarshalBinary() ([]byte, error) {
	return r.BuildReport(), nil
}

// UnmarshalBinary decodes an 8-byte report. The reserved byte is ignored.
func (r *Report) UnmarshalBinary(data []byte) error {
	if len(data) < Size {
		return io.ErrUnexpectedEOF
	}
	r.Modifiers = data[0]
	for i := range r.Keycodes {
		r.Keycodes[i] = keycode.Keycode(data[2+i])
	}
	return nil
}

// Insert places kc into the first empty slot. It reports false when kc is
// already present or every slot is taken.
func (r *Report) Insert(kc keycode.Keycode) bool {
	if kc == keycode.None || r.Contains(kc) {
		return false
	}
	for i := range r.Keycodes {
		if r.Keycodes[i] == keycode.None {
			r.Keycodes[i] = kc
			return true
		}
	}
	return false
}

// Remove clears every slot holding kc.
func (r *Report) Remove(kc keycode.Keycode) {
	for i := range r.Keycodes {
		if r.Keycodes[i] == kc {
			r.Keycodes[i] = keycode.None
		}
	}
}

// Contains reports whether kc occupies a slot.
func (r Report) Contains(kc keycode.Keycode) bool {
	for _, v := range r.Keycodes {
		if v == kc && kc != keycode.None {
			return true
		}
	}
	return false
}

// Count returns the number of occupied slots.
func (r Report) Count() int {
	n := 0
	for _, v := range r.Keycodes {
		if v != keycode.None {
			n++
		}
	}
	return n
}

// Empty reports whether nothing is held.
func (r Report) Empty() bool {
	return r.Modifiers == 0 && r.Count() == 0
}

func (r Report) String() string {
	return fmt.Sprintf("mods=0x%02X keys=[% X]", r.Modifiers, r.BuildReport()[2:])
}
