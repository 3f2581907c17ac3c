package keymap

import kc "github.com/Alia5/splitkb/keycode"

// Default returns the built-in 40% QWERTY layout. The left half occupies
// columns 0-4 and the right half columns 5-9. Layer1 on the left thumb row
// switches to numbers, symbols and navigation.
func Default() *Keymap {
	return &Keymap{
		{
			{kc.KeyQ, kc.KeyW, kc.KeyE, kc.KeyR, kc.KeyT, kc.KeyY, kc.KeyU, kc.KeyI, kc.KeyO, kc.KeyP},
			{kc.KeyA, kc.KeyS, kc.KeyD, kc.KeyF, kc.KeyG, kc.KeyH, kc.KeyJ, kc.KeyK, kc.KeyL, kc.KeySemicolon},
			{kc.KeyZ, kc.KeyX, kc.KeyC, kc.KeyV, kc.KeyB, kc.KeyN, kc.KeyM, kc.KeyComma, kc.KeyPeriod, kc.KeySlash},
			{kc.KeyLeftShift, kc.KeyLeftCtrl, kc.KeyLeftAlt, kc.Layer1, kc.KeySpace, kc.KeyEnter, kc.KeyBackspace, kc.KeyRightAlt, kc.KeyRightCtrl, kc.KeyRightShift},
		},
		{
			{kc.Key1, kc.Key2, kc.Key3, kc.Key4, kc.Key5, kc.Key6, kc.Key7, kc.Key8, kc.Key9, kc.Key0},
			{kc.KeyTab, kc.KeyGrave, kc.KeyMinus, kc.KeyEqual, kc.KeyBackslash, kc.KeyLeft, kc.KeyDown, kc.KeyUp, kc.KeyRight, kc.KeyApostrophe},
			{kc.KeyEscape, kc.KeyLeftGUI, kc.KeyLeftBrace, kc.KeyRightBrace, kc.KeyCapsLock, kc.KeyHome, kc.KeyPageDown, kc.KeyPageUp, kc.KeyEnd, kc.KeyDelete},
			{kc.KeyLeftShift, kc.KeyLeftCtrl, kc.KeyLeftAlt, kc.Layer1, kc.KeySpace, kc.KeyEnter, kc.KeyBackspace, kc.KeyRightAlt, kc.KeyRightCtrl, kc.KeyRightShift},
		},
	}
}
