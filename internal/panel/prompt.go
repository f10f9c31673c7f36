package panel

import "fmt"

type PromptInputMode int

const (
	PromptInputModeText PromptInputMode = iota
	PromptInputModeChar
)

type PromptCallbacks struct {
	OnConfirm func(string)
	OnCancel  func()
}

// Prompt is a modal one-line question. A text prompt collects a line of
// input, a char prompt accepts one of a fixed set of characters.
type Prompt struct {
	mode      PromptInputMode
	prompt    string
	chars     []rune
	keymap    KeyMap
	input     *InputField
	callbacks PromptCallbacks
}

func CreateTextPrompt(prompt string, callbacks PromptCallbacks) *Prompt {
	p := &Prompt{
		mode:      PromptInputModeText,
		prompt:    prompt,
		callbacks: callbacks,
	}
	p.input = CreateInputField(InputFieldCallbacks{
		OnConfirm: p.handleTextConfirm,
		OnCancel:  p.handleCancel,
	})
	return p
}

func CreateCharPrompt(prompt string, chars string, callbacks PromptCallbacks) *Prompt {
	p := &Prompt{
		mode:      PromptInputModeChar,
		prompt:    prompt,
		chars:     []rune(chars),
		callbacks: callbacks,
	}
	p.keymap = CreateKeyMap()
	p.keymap.Bind("Escape", p.handleCancel)
	p.keymap.Bind("C-g", p.handleCancel)
	return p
}

func (p *Prompt) SetText(text string) {
	if p.mode == PromptInputModeText {
		p.input.SetText(text)
	}
}

func (p *Prompt) Text() string {
	if p.mode != PromptInputModeText {
		return ""
	}
	return p.input.Text()
}

func (p *Prompt) HandleKey(key string) bool {
	switch p.mode {
	case PromptInputModeText:
		return p.input.HandleKey(key)
	case PromptInputModeChar:
		return p.keymap.HandleKey(key)
	}
	return false
}

func (p *Prompt) OnChar(char rune) {
	switch p.mode {
	case PromptInputModeText:
		p.input.OnChar(char)
	case PromptInputModeChar:
		if p.isAllowedChar(char) && p.callbacks.OnConfirm != nil {
			p.callbacks.OnConfirm(string(char))
		}
	}
}

// Line returns the prompt as displayed in width columns and the cursor
// column, or -1 when there is no cursor.
func (p *Prompt) Line(width int) (string, int) {
	switch p.mode {
	case PromptInputModeText:
		text, cursor := p.input.Visible(width - len([]rune(p.prompt)))
		return p.prompt + text, len([]rune(p.prompt)) + cursor
	default:
		return fmt.Sprintf("%s [%s]", p.prompt, string(p.chars)), -1
	}
}

func (p *Prompt) handleTextConfirm() {
	if p.callbacks.OnConfirm != nil {
		p.callbacks.OnConfirm(p.input.Text())
	}
}

func (p *Prompt) handleCancel() {
	if p.callbacks.OnCancel != nil {
		p.callbacks.OnCancel()
	}
}

func (p *Prompt) isAllowedChar(char rune) bool {
	for _, c := range p.chars {
		if c == char {
			return true
		}
	}
	return false
}
