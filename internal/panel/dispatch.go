package panel

// Dispatcher routes key and char events to the open prompt, or to the
// global keymap while no prompt is open.
//
// GLFW reports a printable keystroke twice: a key event followed by a char
// event. When the key event opens a prompt, the char event that follows
// belongs to the same keystroke and is dropped.
type Dispatcher struct {
	global KeyMap
	prompt *Prompt
	opened bool
}

func NewDispatcher(global KeyMap) *Dispatcher {
	return &Dispatcher{global: global}
}

// Open makes p the modal receiver of input.
func (d *Dispatcher) Open(p *Prompt) {
	d.prompt = p
	d.opened = true
}

func (d *Dispatcher) Close() {
	d.prompt = nil
}

func (d *Dispatcher) Prompt() *Prompt {
	return d.prompt
}

func (d *Dispatcher) HandleKey(key string) bool {
	d.opened = false
	if d.prompt != nil {
		return d.prompt.HandleKey(key)
	}
	return d.global.HandleKey(key)
}

func (d *Dispatcher) OnChar(char rune) {
	if d.opened {
		d.opened = false
		return
	}
	if d.prompt != nil {
		d.prompt.OnChar(char)
	}
}
