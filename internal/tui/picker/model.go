// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     picker
// Description: Bubbletea model for the interactive voice picker
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package picker

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/msto63/mSW/internal/catalog"
)

// keyMap defines the picker keybindings
type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "hoch"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "runter"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "übernehmen"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "abbrechen"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Select, k.Quit}}
}

// Model is the Bubbletea model for the voice picker. It lists the
// installed voices and lets the user pick one with the arrow keys.
type Model struct {
	voices       []catalog.Voice
	defaultVoice string
	cursor       int
	chosen       *catalog.Voice
	keys         keyMap
	help         help.Model
	width        int
	height       int
}

// New creates a picker over the given voice snapshot. The cursor starts
// on the current default voice when it is present.
func New(voices []catalog.Voice, defaultVoice string) Model {
	cursor := 0
	for i, v := range voices {
		if v.ID == defaultVoice {
			cursor = i
			break
		}
	}
	return Model{
		voices:       voices,
		defaultVoice: defaultVoice,
		cursor:       cursor,
		keys:         defaultKeyMap(),
		help:         help.New(),
	}
}

// Chosen returns the picked voice, or nil when the picker was cancelled
func (m Model) Chosen() *catalog.Voice {
	return m.chosen
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.voices)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Select):
			if len(m.voices) > 0 {
				v := m.voices[m.cursor]
				m.chosen = &v
			}
			return m, tea.Quit
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}
	}
	return m, nil
}

// View renders the picker
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("mSW Stimmen"))
	b.WriteString("\n")

	if len(m.voices) == 0 {
		b.WriteString(DetailStyle.Render("Keine Stimmen installiert."))
		b.WriteString("\n")
	}

	for i, v := range m.voices {
		line := v.DisplayName
		if v.ID == m.defaultVoice {
			line += " " + DefaultMarkerStyle.Render("(Standard)")
		}
		line += " " + DetailStyle.Render(fmt.Sprintf("%d Hz", v.SampleRate))

		if i == m.cursor {
			b.WriteString(SelectedItemStyle.Render("> " + line))
		} else {
			b.WriteString(ItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))

	return PanelStyle.Render(b.String())
}
