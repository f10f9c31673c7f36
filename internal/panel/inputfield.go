package panel

import (
	"slices"
	"unicode"
)

type InputFieldCallbacks struct {
	OnConfirm func()
	OnCancel  func()
}

// InputField is a single-line text editor with emacs-style bindings.
type InputField struct {
	runes     []rune
	point     int
	left      int
	keymap    KeyMap
	callbacks InputFieldCallbacks
}

func CreateInputField(callbacks InputFieldCallbacks) *InputField {
	f := &InputField{callbacks: callbacks}
	f.initKeymap()
	return f
}

func (f *InputField) initKeymap() {
	f.keymap = CreateKeyMap()

	f.keymap.Bind("Left", func() { f.AdvanceColumn(-1) })
	f.keymap.Bind("Right", func() { f.AdvanceColumn(1) })
	f.keymap.Bind("Home", f.MoveToBOL)
	f.keymap.Bind("End", f.MoveToEOL)

	f.keymap.Bind("C-Left", f.WordLeft)
	f.keymap.Bind("C-Right", f.WordRight)
	f.keymap.Bind("M-b", f.WordLeft)
	f.keymap.Bind("M-f", f.WordRight)
	f.keymap.Bind("C-a", f.MoveToBOL)
	f.keymap.Bind("C-e", f.MoveToEOL)

	f.keymap.Bind("Backspace", func() { f.Backspace() })
	f.keymap.Bind("Delete", func() { f.DeleteRune() })
	f.keymap.Bind("C-k", func() { f.KillToEnd() })
	f.keymap.Bind("Enter", f.confirm)
	f.keymap.Bind("Escape", f.cancel)
	f.keymap.Bind("C-g", f.cancel)
}

func (f *InputField) confirm() {
	if f.callbacks.OnConfirm != nil {
		f.callbacks.OnConfirm()
	}
}

func (f *InputField) cancel() {
	if f.callbacks.OnCancel != nil {
		f.callbacks.OnCancel()
	}
}

func (f *InputField) HandleKey(key string) bool {
	return f.keymap.HandleKey(key)
}

func (f *InputField) SetText(text string) {
	f.runes = []rune(text)
	f.point = len(f.runes)
	f.left = 0
}

func (f *InputField) Text() string {
	return string(f.runes)
}

func (f *InputField) Point() int {
	return f.point
}

func (f *InputField) AtBOL() bool {
	return f.point == 0
}

func (f *InputField) AtEOL() bool {
	return f.point == len(f.runes)
}

func (f *InputField) CurrentRune() rune {
	if f.AtEOL() {
		return 0
	}
	return f.runes[f.point]
}

func (f *InputField) AdvanceColumn(amount int) {
	f.point = min(max(f.point+amount, 0), len(f.runes))
}

func (f *InputField) MoveToBOL() {
	f.point = 0
}

func (f *InputField) MoveToEOL() {
	f.point = len(f.runes)
}

func isWordConstituent(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}

func (f *InputField) WordLeft() {
	if !f.AtBOL() {
		f.AdvanceColumn(-1)
	}
	for !f.AtBOL() && !isWordConstituent(f.CurrentRune()) {
		f.AdvanceColumn(-1)
	}
	m := f.point
	for !f.AtBOL() && isWordConstituent(f.CurrentRune()) {
		f.AdvanceColumn(-1)
	}
	if f.point != m && !isWordConstituent(f.CurrentRune()) {
		f.AdvanceColumn(1)
	}
}

func (f *InputField) WordRight() {
	for !f.AtEOL() && !isWordConstituent(f.CurrentRune()) {
		f.AdvanceColumn(1)
	}
	for !f.AtEOL() && isWordConstituent(f.CurrentRune()) {
		f.AdvanceColumn(1)
	}
}

func (f *InputField) InsertRune(r rune) {
	if r == '\n' || r == '\r' {
		return
	}
	f.runes = slices.Insert(f.runes, f.point, r)
	f.AdvanceColumn(1)
}

func (f *InputField) DeleteRune() (deleted rune) {
	if f.AtEOL() {
		return 0
	}
	deleted = f.runes[f.point]
	f.runes = slices.Delete(f.runes, f.point, f.point+1)
	return deleted
}

func (f *InputField) Backspace() (deleted rune) {
	if f.AtBOL() {
		return 0
	}
	f.AdvanceColumn(-1)
	return f.DeleteRune()
}

func (f *InputField) KillToEnd() (deleted []rune) {
	if f.AtEOL() {
		return nil
	}
	deleted = slices.Clone(f.runes[f.point:])
	f.runes = f.runes[:f.point]
	return deleted
}

func (f *InputField) OnChar(char rune) {
	if char < 32 {
		return
	}
	f.InsertRune(char)
}

func (f *InputField) Reset() {
	f.runes = nil
	f.point = 0
	f.left = 0
}

// Visible returns the part of the text that fits into width columns with
// the cursor in view, and the cursor's column within it.
func (f *InputField) Visible(width int) (string, int) {
	if width <= 0 {
		return "", 0
	}
	if f.point < f.left {
		f.left = f.point
	}
	if f.point >= f.left+width {
		f.left = f.point - width + 1
	}
	end := min(f.left+width, len(f.runes))
	return string(f.runes[f.left:end]), f.point - f.left
}
