package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/studiowebux/gqlws/internal/keybinds"
)

// handleKeyPress routes key presses based on current mode
func (m *Model) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	switch m.mode {
	case ModeHelp:
		return m.handleHelpKeys(msg)
	case ModePicker:
		return m.handlePickerKeys(msg)
	case ModePrompt:
		return m.handlePromptKeys(msg)
	default:
		return m.handleNormalKeys(msg)
	}
}

// handleNormalKeys resolves bindings for the focused pane. Unbound keys type
// into the editor.
func (m *Model) handleNormalKeys(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()

	if m.focus == paneResult {
		action, complete, partial := m.keybinds.MatchMultiKey(keybinds.ContextResult, key)
		if partial || !complete {
			return nil
		}
		return m.dispatch(action)
	}

	if action, ok := m.keybinds.Match(keybinds.ContextEditor, key); ok {
		return m.dispatch(action)
	}
	return m.handleEditorInput(msg)
}

func (m *Model) handlePickerKeys(msg tea.KeyMsg) tea.Cmd {
	action, ok := m.keybinds.Match(keybinds.ContextPicker, msg.String())
	if ok {
		switch action {
		case keybinds.ActionSelectUp:
			m.movePicker(-1)
			return nil
		case keybinds.ActionSelectDown:
			m.movePicker(1)
			return nil
		case keybinds.ActionSubmit:
			return m.submitPicker()
		case keybinds.ActionCancel:
			return m.closeInput()
		case keybinds.ActionQuitForce:
			return m.dispatch(action)
		}
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.filterPicker()
	}
	return cmd
}

func (m *Model) handlePromptKeys(msg tea.KeyMsg) tea.Cmd {
	action, ok := m.keybinds.Match(keybinds.ContextPrompt, msg.String())
	if ok {
		switch action {
		case keybinds.ActionSubmit:
			return m.submitPrompt()
		case keybinds.ActionCancel:
			return m.closeInput()
		case keybinds.ActionQuitForce:
			return m.dispatch(action)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) handleHelpKeys(msg tea.KeyMsg) tea.Cmd {
	action, ok := m.keybinds.Match(keybinds.ContextHelp, msg.String())
	if !ok {
		return nil
	}

	switch action {
	case keybinds.ActionOpenHelp, keybinds.ActionCancel:
		m.mode = ModeNormal
	case keybinds.ActionQuit, keybinds.ActionQuitForce:
		return m.dispatch(action)
	}
	return nil
}

// handleEditorInput forwards a key to the editor and persists the edit
func (m *Model) handleEditorInput(msg tea.KeyMsg) tea.Cmd {
	before := m.editor.Value()

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)

	after := m.editor.Value()
	if after == before {
		return cmd
	}
	return tea.Batch(cmd, m.editorChanged(after))
}

// dispatch runs a bound action
func (m *Model) dispatch(action keybinds.Action) tea.Cmd {
	switch action {
	case keybinds.ActionQuit, keybinds.ActionQuitForce:
		m.Cleanup()
		return tea.Quit
	case keybinds.ActionOpenHelp:
		m.mode = ModeHelp

	case keybinds.ActionNewTab:
		m.newTab()
	case keybinds.ActionCloseTab:
		m.closeTab()
	case keybinds.ActionReopenTab:
		m.reopenTab()
	case keybinds.ActionNextTab:
		m.cycleTab(1)
	case keybinds.ActionPrevTab:
		m.cycleTab(-1)

	case keybinds.ActionRun:
		return m.run()
	case keybinds.ActionFormat:
		return m.formatEditor()
	case keybinds.ActionIntrospect:
		return m.introspect()

	case keybinds.ActionPickURL:
		return m.openPicker()
	case keybinds.ActionEditURL:
		return m.openPrompt(promptURL)
	case keybinds.ActionRenameTab:
		return m.openPrompt(promptName)
	case keybinds.ActionAddHeader:
		return m.openPrompt(promptHeader)
	case keybinds.ActionToggleProxy:
		m.toggleProxy()

	case keybinds.ActionCopyResult:
		m.copyResult()
	case keybinds.ActionExport:
		return m.openPrompt(promptExport)

	case keybinds.ActionSwitchFocus:
		return m.switchFocus()
	case keybinds.ActionToggleVariables:
		m.toggleVariables()

	case keybinds.ActionScrollUp:
		m.result.LineUp(ScrollLines)
	case keybinds.ActionScrollDown:
		m.result.LineDown(ScrollLines)
	case keybinds.ActionPageUp:
		m.result.ViewUp()
	case keybinds.ActionPageDown:
		m.result.ViewDown()
	case keybinds.ActionGoToTop:
		m.result.GotoTop()
	case keybinds.ActionGoToBottom:
		m.result.GotoBottom()
	}
	return nil
}
