package hotkey

import "strings"

// Carbon virtual key codes (kVK_*) for the keys worth binding.
var carbonKeyCodes = map[string]uint32{
	"a": 0, "s": 1, "d": 2, "f": 3, "h": 4, "g": 5, "z": 6, "x": 7, "c": 8, "v": 9,
	"b": 11, "q": 12, "w": 13, "e": 14, "r": 15, "y": 16, "t": 17, "o": 31, "u": 32,
	"i": 34, "p": 35, "l": 37, "j": 38, "k": 40, "n": 45, "m": 46,
	"space": 49, "return": 36, "enter": 36, "tab": 48, "escape": 53,
	"f1": 122, "f2": 120, "f3": 99, "f4": 118, "f5": 96, "f6": 97,
	"f7": 98, "f8": 100, "f9": 101, "f10": 109, "f11": 103, "f12": 111,
}

func carbonKeyCode(key string) (uint32, bool) {
	code, ok := carbonKeyCodes[key]
	return code, ok
}

// carbonModifiers maps to cmdKey, shiftKey, optionKey and controlKey.
func carbonModifiers(m Modifier) uint32 {
	var out uint32
	if m&ModSuper != 0 {
		out |= 0x100
	}
	if m&ModShift != 0 {
		out |= 0x200
	}
	if m&ModAlt != 0 {
		out |= 0x800
	}
	if m&ModCtrl != 0 {
		out |= 0x1000
	}
	return out
}

// x11KeysymName returns the name XStringToKeysym expects.
func x11KeysymName(key string) string {
	switch {
	case key == "enter":
		return "Return"
	case key == "escape":
		return "Escape"
	case key == "return" || key == "tab":
		return strings.ToUpper(key[:1]) + key[1:]
	case len(key) > 1 && key[0] == 'f' && strings.Trim(key[1:], "0123456789") == "":
		return "F" + key[1:]
	}
	return key
}

// x11Modifiers maps to ShiftMask, ControlMask, Mod1Mask and Mod4Mask.
func x11Modifiers(m Modifier) int {
	var out int
	if m&ModShift != 0 {
		out |= 1 << 0
	}
	if m&ModCtrl != 0 {
		out |= 1 << 2
	}
	if m&ModAlt != 0 {
		out |= 1 << 3
	}
	if m&ModSuper != 0 {
		out |= 1 << 6
	}
	return out
}
