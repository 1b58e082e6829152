package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/studiowebux/gqlws/internal/client"
	"github.com/studiowebux/gqlws/internal/keybinds"
)

// Adaptive color definitions for light/dark terminal support
var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "#006400", Dark: "#00ff00"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#8b0000", Dark: "#ff0000"}
	colorYellow = lipgloss.AdaptiveColor{Light: "#b8860b", Dark: "#ffff00"}
	colorGray   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "#008b8b", Dark: "#00ffff"}
)

// Style definitions
var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	styleSelected = lipgloss.NewStyle().
			Background(lipgloss.AdaptiveColor{Light: "#d3d3d3", Dark: "#3a3a3a"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"})

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorGreen)

	styleError = lipgloss.NewStyle().
			Foreground(colorRed)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorYellow)

	styleSubtle = lipgloss.NewStyle().
			Foreground(colorGray)

	styleMatch = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)
)

// renderMain renders the tab bar, the two panes and the status bar
func (m *Model) renderMain() string {
	editorWidth, resultWidth := m.paneWidths()
	height := m.paneHeight()

	var body string
	if m.mode == ModePicker {
		body = m.renderPicker(m.width, height)
	} else {
		editor := m.renderPane(m.editorTitle(), m.editor.View(), editorWidth, height, m.focus == paneEditor)
		result := m.renderPane(m.resultTitle(), m.result.View(), resultWidth, height, m.focus == paneResult)
		body = lipgloss.JoinHorizontal(lipgloss.Top, editor, result)
	}

	parts := []string{m.renderTabBar(), m.renderURLLine(), body}
	if m.mode == ModePrompt {
		parts = append(parts, m.input.View())
	}
	parts = append(parts, m.renderStatusBar(), m.renderHints())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) renderPane(title, content string, width, height int, focused bool) string {
	border := colorGray
	if focused {
		border = colorGreen
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(width - PaneBorderWidth).
		Height(height - PaneBorderWidth).
		Render(styleTitle.Render(title) + "\n" + content)
}

func (m *Model) editorTitle() string {
	if m.editingVars {
		return "Variables"
	}
	return "Query"
}

func (m *Model) resultTitle() string {
	v := m.activeView()
	if v == nil {
		return "Result"
	}

	title := "Result"
	switch v.view {
	case viewPreview:
		title = "Preview"
	case viewResponse:
		title = "Response"
	case viewSchema:
		title = "Schema"
	}
	if v.running {
		title += " (running)"
	}
	if v.introspecting {
		title += " (introspecting)"
	}
	return title
}

func (m *Model) renderTabBar() string {
	active := m.ws.ActiveID()

	var labels []string
	for _, tab := range m.ws.Tabs() {
		label := " " + tab.Name() + " "
		if tab.ID() == active {
			labels = append(labels, styleSelected.Render(label))
		} else {
			labels = append(labels, styleSubtle.Render(label))
		}
	}
	return truncateLine(strings.Join(labels, "│"), m.width)
}

func (m *Model) renderURLLine() string {
	tab := m.ws.ActiveTab()
	if tab == nil {
		return ""
	}
	settings := tab.Settings()

	line := styleTitle.Render("POST ") + settings.URL
	if settings.Proxy {
		line += " " + styleWarning.Render("[proxy]")
	}
	if n := len(settings.Headers); n > 0 {
		line += styleSubtle.Render(fmt.Sprintf("  %d header(s)", n))
	}
	if settings.OperationName != "" {
		line += styleSubtle.Render("  op: " + settings.OperationName)
	}
	return line
}

func (m *Model) renderPicker(width, height int) string {
	var sb strings.Builder
	sb.WriteString(m.input.View())
	sb.WriteString("\n\n")

	if len(m.pickerMatches) == 0 {
		sb.WriteString(styleSubtle.Render("No matching URL, enter uses the typed text"))
	}
	for i, match := range m.pickerMatches {
		line := highlightMatch(match.Str, match.MatchedIndexes)
		if i == m.pickerIndex {
			line = styleSelected.Render("> ") + line
		} else {
			line = "  " + line
		}
		sb.WriteString(line + "\n")
	}

	return m.renderPane("Recent URLs", sb.String(), width, height, true)
}

// highlightMatch emphasises the characters a fuzzy match hit
func highlightMatch(s string, indexes []int) string {
	if len(indexes) == 0 {
		return s
	}

	hit := make(map[int]bool, len(indexes))
	for _, idx := range indexes {
		hit[idx] = true
	}

	var sb strings.Builder
	for i, r := range s {
		if hit[i] {
			sb.WriteString(styleMatch.Render(string(r)))
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func (m *Model) renderStatusBar() string {
	right := styleSubtle.Render(fmt.Sprintf("%s · %d tab(s)", m.ws.Key(), len(m.ws.Tabs())))

	var left string
	switch {
	case m.errorMsg != "":
		left = styleError.Render(truncate(firstLine(m.errorMsg), MaxStatusLength))
	case m.statusMsg != "":
		left = truncate(m.statusMsg, MaxStatusLength)
	}

	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) renderHints() string {
	hints := []keybinds.Action{
		keybinds.ActionRun,
		keybinds.ActionFormat,
		keybinds.ActionIntrospect,
		keybinds.ActionPickURL,
		keybinds.ActionNewTab,
		keybinds.ActionOpenHelp,
	}

	context := keybinds.ContextEditor
	if m.focus == paneResult {
		context = keybinds.ContextResult
	}

	var parts []string
	for _, action := range hints {
		keys := m.keybinds.GetBinding(context, action)
		if len(keys) == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s", keys[0], strings.ToLower(keybinds.GetActionInfo(action).Description)))
	}
	return styleSubtle.Render(truncateLine(strings.Join(parts, " · "), m.width))
}

// helpContexts are listed in this order on the help screen
var helpContexts = []keybinds.Context{
	keybinds.ContextGlobal,
	keybinds.ContextEditor,
	keybinds.ContextResult,
	keybinds.ContextPicker,
	keybinds.ContextPrompt,
}

func (m *Model) renderHelp() string {
	var sb strings.Builder
	sb.WriteString(styleTitle.Render("Key bindings") + "\n\n")

	for _, context := range helpContexts {
		var lines []string
		for _, b := range m.keybinds.ListBindings(context) {
			if b.Context != context {
				continue
			}
			lines = append(lines, fmt.Sprintf("  %-14s %s", b.Key, keybinds.GetActionInfo(b.Action).Description))
		}
		if len(lines) == 0 {
			continue
		}

		sb.WriteString(styleTitle.Render(string(context)) + "\n")
		sb.WriteString(strings.Join(lines, "\n") + "\n\n")
	}

	sb.WriteString(styleSubtle.Render("esc to close"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorCyan).
		Width(m.width - PaneBorderWidth).
		Height(m.height - PaneBorderWidth).
		Render(sb.String())
}

// refreshResult renders the active tab's output into the result viewport
func (m *Model) refreshResult() {
	m.result.SetContent(m.renderResult())
}

func (m *Model) renderResult() string {
	v := m.activeView()
	if v == nil {
		return ""
	}

	switch v.view {
	case viewPreview:
		if v.previewErr != nil {
			return styleError.Render(errorText(v.previewErr))
		}
		out := highlight(v.preview, "graphql")
		if v.validation != "" {
			out += "\n" + styleWarning.Render(v.validation)
		}
		return out

	case viewResponse:
		if v.responseErr != nil {
			return styleError.Render(errorText(v.responseErr))
		}
		summary := v.response.Summary()
		if client.IsSuccessStatus(v.response.Status) && len(v.response.Errors()) == 0 {
			summary = styleSuccess.Render(summary)
		} else {
			summary = styleError.Render(summary)
		}
		return summary + "\n\n" + highlight(v.response.Pretty(), "json")

	case viewSchema:
		if v.schemaErr != nil {
			return styleError.Render(errorText(v.schemaErr))
		}
		return highlight(v.schema.SDL, "graphql")
	}

	run := m.keybinds.GetBindingString(keybinds.ContextEditor, keybinds.ActionRun)
	return styleSubtle.Render(fmt.Sprintf("Type a query, %s to run it", run))
}

// resultText is the unstyled content of the result pane
func (m *Model) resultText() string {
	v := m.activeView()
	if v == nil {
		return ""
	}

	switch v.view {
	case viewPreview:
		if v.previewErr != nil {
			return errorText(v.previewErr)
		}
		return v.preview
	case viewResponse:
		if v.responseErr != nil {
			return errorText(v.responseErr)
		}
		return v.response.Pretty()
	case viewSchema:
		if v.schemaErr != nil {
			return errorText(v.schemaErr)
		}
		return v.schema.SDL
	}
	return ""
}

// errorText is the message to show for err; server messages are verbatim
func errorText(err error) string {
	var se *client.ServerError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}

// truncateLine cuts a possibly styled line to width cells
func truncateLine(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
