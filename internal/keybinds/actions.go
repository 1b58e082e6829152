package keybinds

// Action represents a user action that can be triggered by a keybinding
type Action string

// Context represents the context in which keybindings are active
type Context string

const (
	ContextGlobal Context = "global" // Available everywhere
	ContextEditor Context = "editor" // Query or variables editor focused
	ContextResult Context = "result" // Result viewport focused
	ContextPicker Context = "picker" // Fuzzy URL picker
	ContextPrompt Context = "prompt" // Single line prompt (url, name, header)
	ContextHelp   Context = "help"   // Help overlay
)

const (
	// Global actions
	ActionQuit      Action = "quit"       // Quit application
	ActionQuitForce Action = "quit_force" // Force quit (ctrl+c)
	ActionOpenHelp  Action = "open_help"  // Toggle help overlay

	// Tabs
	ActionNewTab    Action = "new_tab"    // Open a tab seeded with the defaults
	ActionCloseTab  Action = "close_tab"  // Close the active tab
	ActionReopenTab Action = "reopen_tab" // Reopen the most recently closed tab
	ActionNextTab   Action = "next_tab"
	ActionPrevTab   Action = "prev_tab"

	// Requests
	ActionRun        Action = "run"        // Execute the active tab's query
	ActionFormat     Action = "format"     // Format the query now
	ActionIntrospect Action = "introspect" // Fetch the endpoint schema

	// Tab settings
	ActionPickURL     Action = "pick_url"     // Choose a recently used URL
	ActionEditURL     Action = "edit_url"     // Type a URL
	ActionRenameTab   Action = "rename_tab"   // Rename the active tab
	ActionAddHeader   Action = "add_header"   // Add a "Name: value" header
	ActionToggleProxy Action = "toggle_proxy" // Send through the server proxy

	// Output
	ActionCopyResult Action = "copy_result" // Copy the result to the clipboard
	ActionExport     Action = "export"      // Write the workspace snapshot to disk

	// Focus
	ActionSwitchFocus     Action = "switch_focus"     // Editor <-> result
	ActionToggleVariables Action = "toggle_variables" // Query <-> variables editor

	// Result navigation
	ActionScrollUp       Action = "scroll_up"
	ActionScrollDown     Action = "scroll_down"
	ActionPageUp         Action = "page_up"
	ActionPageDown       Action = "page_down"
	ActionGoToTop        Action = "go_to_top"
	ActionGoToTopPrepare Action = "go_to_top_prepare" // First 'g' in 'gg' sequence
	ActionGoToBottom     Action = "go_to_bottom"

	// Picker and prompt
	ActionSelectUp   Action = "select_up"
	ActionSelectDown Action = "select_down"
	ActionSubmit     Action = "submit"
	ActionCancel     Action = "cancel"
)

// ActionInfo contains metadata about an action
type ActionInfo struct {
	Action      Action
	Description string
	Category    string
}

var actionInfos = map[Action]ActionInfo{
	ActionQuit:            {ActionQuit, "Quit", "Global"},
	ActionQuitForce:       {ActionQuitForce, "Force quit", "Global"},
	ActionOpenHelp:        {ActionOpenHelp, "Toggle help", "Global"},
	ActionNewTab:          {ActionNewTab, "New tab", "Tabs"},
	ActionCloseTab:        {ActionCloseTab, "Close tab", "Tabs"},
	ActionReopenTab:       {ActionReopenTab, "Reopen closed tab", "Tabs"},
	ActionNextTab:         {ActionNextTab, "Next tab", "Tabs"},
	ActionPrevTab:         {ActionPrevTab, "Previous tab", "Tabs"},
	ActionRun:             {ActionRun, "Run query", "Requests"},
	ActionFormat:          {ActionFormat, "Format query", "Requests"},
	ActionIntrospect:      {ActionIntrospect, "Introspect schema", "Requests"},
	ActionPickURL:         {ActionPickURL, "Pick recent URL", "Tab"},
	ActionEditURL:         {ActionEditURL, "Edit URL", "Tab"},
	ActionRenameTab:       {ActionRenameTab, "Rename tab", "Tab"},
	ActionAddHeader:       {ActionAddHeader, "Add header", "Tab"},
	ActionToggleProxy:     {ActionToggleProxy, "Toggle proxy", "Tab"},
	ActionCopyResult:      {ActionCopyResult, "Copy result", "Output"},
	ActionExport:          {ActionExport, "Export workspace", "Output"},
	ActionSwitchFocus:     {ActionSwitchFocus, "Switch focus", "Focus"},
	ActionToggleVariables: {ActionToggleVariables, "Edit query/variables", "Focus"},
}

// GetActionInfo returns human-readable information about an action
func GetActionInfo(action Action) ActionInfo {
	if info, ok := actionInfos[action]; ok {
		return info
	}
	return ActionInfo{action, string(action), "Other"}
}

// IsKnownAction reports whether action is one the UI handles
func IsKnownAction(action Action) bool {
	if _, ok := actionInfos[action]; ok {
		return true
	}
	switch action {
	case ActionScrollUp, ActionScrollDown, ActionPageUp, ActionPageDown,
		ActionGoToTop, ActionGoToTopPrepare, ActionGoToBottom,
		ActionSelectUp, ActionSelectDown, ActionSubmit, ActionCancel:
		return true
	}
	return false
}
