package keybinds

// NewDefaultRegistry creates a registry with all default keybindings
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	registerGlobalBindings(r)
	registerEditorBindings(r)
	registerResultBindings(r)
	registerPickerBindings(r)
	registerPromptBindings(r)
	registerHelpBindings(r)

	return r
}

// registerGlobalBindings uses ctrl/alt chords only, since plain keys type
// into the editor
func registerGlobalBindings(r *Registry) {
	r.Register(ContextGlobal, "ctrl+c", ActionQuitForce)
	r.Register(ContextGlobal, "ctrl+q", ActionQuit)
	r.Register(ContextGlobal, "f1", ActionOpenHelp)

	r.Register(ContextGlobal, "ctrl+t", ActionNewTab)
	r.Register(ContextGlobal, "ctrl+w", ActionCloseTab)
	r.Register(ContextGlobal, "ctrl+r", ActionReopenTab)
	r.RegisterMultiple(ContextGlobal, []string{"ctrl+right", "alt+l"}, ActionNextTab)
	r.RegisterMultiple(ContextGlobal, []string{"ctrl+left", "alt+h"}, ActionPrevTab)

	r.Register(ContextGlobal, "ctrl+s", ActionRun)
	r.Register(ContextGlobal, "ctrl+f", ActionFormat)
	r.Register(ContextGlobal, "ctrl+o", ActionIntrospect)

	r.Register(ContextGlobal, "ctrl+p", ActionPickURL)
	r.Register(ContextGlobal, "ctrl+l", ActionEditURL)
	r.Register(ContextGlobal, "ctrl+n", ActionRenameTab)
	r.Register(ContextGlobal, "ctrl+a", ActionAddHeader)
	r.Register(ContextGlobal, "ctrl+x", ActionToggleProxy)

	r.Register(ContextGlobal, "ctrl+y", ActionCopyResult)
	r.Register(ContextGlobal, "ctrl+e", ActionExport)

	r.Register(ContextGlobal, "tab", ActionSwitchFocus)
	r.Register(ContextGlobal, "ctrl+v", ActionToggleVariables)
}

func registerEditorBindings(r *Registry) {
	r.Register(ContextEditor, "esc", ActionSwitchFocus)
}

func registerResultBindings(r *Registry) {
	r.RegisterMultiple(ContextResult, []string{"up", "k"}, ActionScrollUp)
	r.RegisterMultiple(ContextResult, []string{"down", "j"}, ActionScrollDown)
	r.Register(ContextResult, "pgup", ActionPageUp)
	r.Register(ContextResult, "pgdown", ActionPageDown)
	r.Register(ContextResult, "g", ActionGoToTopPrepare)
	r.RegisterMultiple(ContextResult, []string{"gg", "home"}, ActionGoToTop)
	r.RegisterMultiple(ContextResult, []string{"G", "end"}, ActionGoToBottom)
	r.Register(ContextResult, "q", ActionQuit)
	r.Register(ContextResult, "?", ActionOpenHelp)
	r.Register(ContextResult, "enter", ActionRun)
	r.Register(ContextResult, "c", ActionCopyResult)
}

func registerPickerBindings(r *Registry) {
	r.RegisterMultiple(ContextPicker, []string{"up", "ctrl+k"}, ActionSelectUp)
	r.RegisterMultiple(ContextPicker, []string{"down", "ctrl+j"}, ActionSelectDown)
	r.Register(ContextPicker, "enter", ActionSubmit)
	r.Register(ContextPicker, "esc", ActionCancel)
	r.Register(ContextPicker, "tab", ActionSelectDown)
}

func registerPromptBindings(r *Registry) {
	r.Register(ContextPrompt, "enter", ActionSubmit)
	r.Register(ContextPrompt, "esc", ActionCancel)
}

func registerHelpBindings(r *Registry) {
	r.RegisterMultiple(ContextHelp, []string{"esc", "q", "?", "f1"}, ActionOpenHelp)
}
