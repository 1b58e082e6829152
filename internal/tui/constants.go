package tui

import "time"

// UI layout constants

const (
	// Header: tab bar + URL line
	HeaderLines = 2
	// StatusBarLines is the status line plus the key hint line
	StatusBarLines = 2
	// PromptLines is the height of the input line shown in prompt mode
	PromptLines = 1

	// PaneBorderWidth is consumed by a rounded border on each axis
	PaneBorderWidth = 2
	// PaneTitleLines is the pane title inside the border
	PaneTitleLines = 1

	// EditorWidthPercent is the share of the width given to the editor
	EditorWidthPercent = 50
	// MinPaneWidth keeps both panes usable on narrow terminals
	MinPaneWidth = 20

	// PickerMaxItems caps the number of URLs listed by the picker
	PickerMaxItems = 12

	// ScrollLines is how far one scroll step moves the result
	ScrollLines = 1

	// MaxStatusLength truncates long status messages
	MaxStatusLength = 100
)

// DefaultFormatDelay is how long typing must pause before a format preview
// is requested
const DefaultFormatDelay = 300 * time.Millisecond

// Chroma settings for the result pane
const (
	highlightStyle     = "monokai"
	highlightFormatter = "terminal256"
)
