package keycode

// Modifier key bitmasks as carried in byte 0 of the keyboard report.
const (
	ModLeftCtrl   = 0x01
	ModLeftShift  = 0x02
	ModLeftAlt    = 0x04
	ModLeftGUI    = 0x08 // Windows/Command key
	ModRightCtrl  = 0x10
	ModRightShift = 0x20
	ModRightAlt   = 0x40
	ModRightGUI   = 0x80
)

// HID Usage codes for keyboard keys (USB HID Keyboard/Keypad usage page)
const (
	None Keycode = 0x00

	// Letters A-Z
	KeyA Keycode = 0x04
	KeyB Keycode = 0x05
	KeyC Keycode = 0x06
	KeyD Keycode = 0x07
	KeyE Keycode = 0x08
	KeyF Keycode = 0x09
	KeyG Keycode = 0x0A
	KeyH Keycode = 0x0B
	KeyI Keycode = 0x0C
	KeyJ Keycode = 0x0D
	KeyK Keycode = 0x0E
	KeyL Keycode = 0x0F
	KeyM Keycode = 0x10
	KeyN Keycode = 0x11
	KeyO Keycode = 0x12
	KeyP Keycode = 0x13
	KeyQ Keycode = 0x14
	KeyR Keycode = 0x15
	KeyS Keycode = 0x16
	KeyT Keycode = 0x17
	KeyU Keycode = 0x18
	KeyV Keycode = 0x19
	KeyW Keycode = 0x1A
	KeyX Keycode = 0x1B
	KeyY Keycode = 0x1C
	KeyZ Keycode = 0x1D

	// Numbers 1-0 (top row)
	Key1 Keycode = 0x1E
	Key2 Keycode = 0x1F
	Key3 Keycode = 0x20
	Key4 Keycode = 0x21
	Key5 Keycode = 0x22
	Key6 Keycode = 0x23
	Key7 Keycode = 0x24
	Key8 Keycode = 0x25
	Key9 Keycode = 0x26
	Key0 Keycode = 0x27

	// Special keys
	KeyEnter      Keycode = 0x28
	KeyEscape     Keycode = 0x29
	KeyBackspace  Keycode = 0x2A
	KeyTab        Keycode = 0x2B
	KeySpace      Keycode = 0x2C
	KeyMinus      Keycode = 0x2D // - and _
	KeyEqual      Keycode = 0x2E // = and +
	KeyLeftBrace  Keycode = 0x2F // [ and {
	KeyRightBrace Keycode = 0x30 // ] and }
	KeyBackslash  Keycode = 0x31 // \ and |
	KeyNonUSHash  Keycode = 0x32 // Non-US # and ~
	KeySemicolon  Keycode = 0x33 // ; and :
	KeyApostrophe Keycode = 0x34 // ' and "
	KeyGrave      Keycode = 0x35 // ` and ~
	KeyComma      Keycode = 0x36 // , and <
	KeyPeriod     Keycode = 0x37 // . and >
	KeySlash      Keycode = 0x38 // / and ?
	KeyCapsLock   Keycode = 0x39

	// Function keys
	KeyF1  Keycode = 0x3A
	KeyF2  Keycode = 0x3B
	KeyF3  Keycode = 0x3C
	KeyF4  Keycode = 0x3D
	KeyF5  Keycode = 0x3E
	KeyF6  Keycode = 0x3F
	KeyF7  Keycode = 0x40
	KeyF8  Keycode = 0x41
	KeyF9  Keycode = 0x42
	KeyF10 Keycode = 0x43
	KeyF11 Keycode = 0x44
	KeyF12 Keycode = 0x45

	// Control keys
	KeyPrintScreen Keycode = 0x46
	KeyScrollLock  Keycode = 0x47
	KeyPause       Keycode = 0x48
	KeyInsert      Keycode = 0x49
	KeyHome        Keycode = 0x4A
	KeyPageUp      Keycode = 0x4B
	KeyDelete      Keycode = 0x4C
	KeyEnd         Keycode = 0x4D
	KeyPageDown    Keycode = 0x4E

	// Arrow keys
	KeyRight Keycode = 0x4F
	KeyLeft  Keycode = 0x50
	KeyDown  Keycode = 0x51
	KeyUp    Keycode = 0x52

	// Numpad
	KeyNumLock    Keycode = 0x53
	KeyKpSlash    Keycode = 0x54
	KeyKpAsterisk Keycode = 0x55
	KeyKpMinus    Keycode = 0x56
	KeyKpPlus     Keycode = 0x57
	KeyKpEnter    Keycode = 0x58
	KeyKp1        Keycode = 0x59
	KeyKp2        Keycode = 0x5A
	KeyKp3        Keycode = 0x5B
	KeyKp4        Keycode = 0x5C
	KeyKp5        Keycode = 0x5D
	KeyKp6        Keycode = 0x5E
	KeyKp7        Keycode = 0x5F
	KeyKp8        Keycode = 0x60
	KeyKp9        Keycode = 0x61
	KeyKp0        Keycode = 0x62
	KeyKpDot      Keycode = 0x63

	KeyNonUSBackslash Keycode = 0x64
	KeyApplication    Keycode = 0x65 // Application (Windows Menu key)
	KeyPower          Keycode = 0x66
	KeyKpEqual        Keycode = 0x67

	KeyMute       Keycode = 0x7F
	KeyVolumeUp   Keycode = 0x80
	KeyVolumeDown Keycode = 0x81

	// Modifiers. Classified as ClassModifier and folded into the report's
	// modifier byte instead of a key slot.
	KeyLeftCtrl   Keycode = 0xE0
	KeyLeftShift  Keycode = 0xE1
	KeyLeftAlt    Keycode = 0xE2
	KeyLeftGUI    Keycode = 0xE3
	KeyRightCtrl  Keycode = 0xE4
	KeyRightShift Keycode = 0xE5
	KeyRightAlt   Keycode = 0xE6
	KeyRightGUI   Keycode = 0xE7
)

// Internal pseudo keycodes. They never reach the host.
const (
	// Layer1..Layer5 select keymap layer 1..5 while held.
	Layer1 Keycode = 0xF0
	Layer2 Keycode = 0xF1
	Layer3 Keycode = 0xF2
	Layer4 Keycode = 0xF3
	Layer5 Keycode = 0xF4

	// Reserved for chords, macro playback and mouse emulation.
	Combo Keycode = 0xF8
	Macro Keycode = 0xF9
	Mouse Keycode = 0xFA
)

var names = map[Keycode]string{
	None: "None",

	KeyA: "A", KeyB: "B", KeyC: "C", KeyD: "D", KeyE: "E", KeyF: "F", KeyG: "G",
	KeyH: "H", KeyI: "I", KeyJ: "J", KeyK: "K", KeyL: "L", KeyM: "M", KeyN: "N",
	KeyO: "O", KeyP: "P", KeyQ: "Q", KeyR: "R", KeyS: "S", KeyT: "T", KeyU: "U",
	KeyV: "V", KeyW: "W", KeyX: "X", KeyY: "Y", KeyZ: "Z",

	Key1: "1", Key2: "2", Key3: "3", Key4: "4", Key5: "5",
	Key6: "6", Key7: "7", Key8: "8", Key9: "9", Key0: "0",

	KeyEnter:      "Enter",
	KeyEscape:     "Escape",
	KeyBackspace:  "Backspace",
	KeyTab:        "Tab",
	KeySpace:      "Space",
	KeyMinus:      "Minus",
	KeyEqual:      "Equal",
	KeyLeftBrace:  "LeftBrace",
	KeyRightBrace: "RightBrace",
	KeyBackslash:  "Backslash",
	KeyNonUSHash:  "NonUSHash",
	KeySemicolon:  "Semicolon",
	KeyApostrophe: "Apostrophe",
	KeyGrave:      "Grave",
	KeyComma:      "Comma",
	KeyPeriod:     "Period",
	KeySlash:      "Slash",
	KeyCapsLock:   "CapsLock",

	KeyF1: "F1", KeyF2: "F2", KeyF3: "F3", KeyF4: "F4", KeyF5: "F5", KeyF6: "F6",
	KeyF7: "F7", KeyF8: "F8", KeyF9: "F9", KeyF10: "F10", KeyF11: "F11", KeyF12: "F12",

	KeyPrintScreen: "PrintScreen",
	KeyScrollLock:  "ScrollLock",
	KeyPause:       "Pause",
	KeyInsert:      "Insert",
	KeyHome:        "Home",
	KeyPageUp:      "PageUp",
	KeyDelete:      "Delete",
	KeyEnd:         "End",
	KeyPageDown:    "PageDown",

	KeyRight: "Right",
	KeyLeft:  "Left",
	KeyDown:  "Down",
	KeyUp:    "Up",

	KeyNumLock:    "NumLock",
	KeyKpSlash:    "KpSlash",
	KeyKpAsterisk: "KpAsterisk",
	KeyKpMinus:    "KpMinus",
	KeyKpPlus:     "KpPlus",
	KeyKpEnter:    "KpEnter",
	KeyKp1:        "Kp1",
	KeyKp2:        "Kp2",
	KeyKp3:        "Kp3",
	KeyKp4:        "Kp4",
	KeyKp5:        "Kp5",
	KeyKp6:        "Kp6",
	KeyKp7:        "Kp7",
	KeyKp8:        "Kp8",
	KeyKp9:        "Kp9",
	KeyKp0:        "Kp0",
	KeyKpDot:      "KpDot",

	KeyNonUSBackslash: "NonUSBackslash",
	KeyApplication:    "Application",
	KeyPower:          "Power",
	KeyKpEqual:        "KpEqual",
	KeyMute:           "Mute",
	KeyVolumeUp:       "VolumeUp",
	KeyVolumeDown:     "VolumeDown",

	KeyLeftCtrl:   "LeftCtrl",
	KeyLeftShift:  "LeftShift",
	KeyLeftAlt:    "LeftAlt",
	KeyLeftGUI:    "LeftGUI",
	KeyRightCtrl:  "RightCtrl",
	KeyRightShift: "RightShift",
	KeyRightAlt:   "RightAlt",
	KeyRightGUI:   "RightGUI",

	Layer1: "Layer1",
	Layer2: "Layer2",
	Layer3: "Layer3",
	Layer4: "Layer4",
	Layer5: "Layer5",

	Combo: "Combo",
	Macro: "Macro",
	Mouse: "Mouse",
}
