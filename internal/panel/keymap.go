package panel

type KeyHandler func()

// KeyMap maps key names like "C-a", "S-Tab" or "F1" to handlers.
type KeyMap map[string]KeyHandler

func CreateKeyMap() KeyMap {
	return KeyMap{}
}

func (km KeyMap) HandleKey(key string) bool {
	if handler, ok := km[key]; ok {
		handler()
		return true
	}
	return false
}

func (km KeyMap) Bind(key string, handler KeyHandler) {
	km[key] = handler
}

// KeyName prefixes a base key name with the modifier notation KeyMap uses:
// S- for shift, M- for alt and C- for control, in that nesting order.
func KeyName(base string, shift, alt, ctrl bool) string {
	if base == "" {
		return ""
	}
	if shift {
		base = "S-" + base
	}
	if alt {
		base = "M-" + base
	}
	if ctrl {
		base = "C-" + base
	}
	return base
}
