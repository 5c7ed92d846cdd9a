package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	esc      key.Binding
	enter    key.Binding
	quit     key.Binding
	refresh  key.Binding
	external key.Binding
	copy     key.Binding
	info     key.Binding
}

var keys = keyMap{
	esc:      key.NewBinding(key.WithKeys("esc")),
	enter:    key.NewBinding(key.WithKeys("enter")),
	quit:     key.NewBinding(key.WithKeys("q", "ctrl+c")),
	refresh:  key.NewBinding(key.WithKeys("r")),
	external: key.NewBinding(key.WithKeys("x")),
	copy:     key.NewBinding(key.WithKeys("c")),
	info:     key.NewBinding(key.WithKeys("v")),
}
