package hotkey

import (
	"fmt"
	"strings"
)

// Manager defines the interface for global hotkey management. Callbacks
// fire on both press and release so push-to-talk can track the held state.
type Manager interface {
	Register(accel string, callback func(pressed bool)) error
	Unregister(accel string) error
	Close() error
}

// Modifier is a bit set of modifier keys.
type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModAlt
	ModShift
	ModSuper
)

// Accelerator is a parsed key combination such as "Alt+Space".
type Accelerator struct {
	Mods Modifier
	// Key is the lower-cased key name, e.g. "space", "j", "f9".
	Key string
}

var modifierNames = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"shift":   ModShift,
	"super":   ModSuper,
	"cmd":     ModSuper,
	"command": ModSuper,
	"meta":    ModSuper,
}

// ParseAccelerator parses "Mod+Mod+Key". Exactly one non-modifier key is
// required.
func ParseAccelerator(accel string) (Accelerator, error) {
	var a Accelerator
	parts := strings.Split(accel, "+")
	for i, part := range parts {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			return Accelerator{}, fmt.Errorf("invalid hotkey %q: empty key", accel)
		}
		if mod, ok := modifierNames[name]; ok && i < len(parts)-1 {
			a.Mods |= mod
			continue
		}
		if i != len(parts)-1 {
			return Accelerator{}, fmt.Errorf("invalid hotkey %q: %q is not a modifier", accel, part)
		}
		a.Key = name
	}
	if a.Key == "" {
		return Accelerator{}, fmt.Errorf("invalid hotkey %q: missing key", accel)
	}
	return a, nil
}

func (a Accelerator) String() string {
	var parts []string
	for _, m := range []struct {
		mod  Modifier
		name string
	}{{ModCtrl, "Ctrl"}, {ModAlt, "Alt"}, {ModShift, "Shift"}, {ModSuper, "Super"}} {
		if a.Mods&m.mod != 0 {
			parts = append(parts, m.name)
		}
	}
	key := a.Key
	if len(key) > 0 {
		key = strings.ToUpper(key[:1]) + key[1:]
	}
	return strings.Join(append(parts, key), "+")
}
