package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"

	"github.com/studiowebux/gqlws/internal/client"
	"github.com/studiowebux/gqlws/internal/config"
	"github.com/studiowebux/gqlws/internal/gql"
	"github.com/studiowebux/gqlws/internal/history"
	"github.com/studiowebux/gqlws/internal/keybinds"
	"github.com/studiowebux/gqlws/internal/workspace"
)

// loadActiveTab shows the active tab in the editor and result panes
func (m *Model) loadActiveTab() {
	m.loadEditor()
	m.refreshResult()
	m.result.GotoTop()
}

// loadEditor fills the editor with the query or variables of the active tab
func (m *Model) loadEditor() {
	tab := m.ws.ActiveTab()
	if tab == nil {
		m.editor.SetValue("")
		return
	}

	settings := tab.Settings()
	if m.editingVars {
		m.editor.SetValue(settings.Variables)
	} else {
		m.editor.SetValue(settings.Query)
	}
}

// editorChanged persists the editor text and schedules a format preview
func (m *Model) editorChanged(text string) tea.Cmd {
	tab := m.ws.ActiveTab()
	if tab == nil {
		return nil
	}

	if m.editingVars {
		if err := tab.SetVariables(text); err != nil {
			m.setError(err)
		}
		return nil
	}

	if err := tab.SetQuery(text); err != nil {
		m.setError(err)
		return nil
	}
	current := tab.Settings().OperationName
	if op := gql.SelectOperation(text, current); op != current {
		if err := tab.SetOperationName(op); err != nil {
			m.setError(err)
		}
	}

	return m.schedulePreview(tab.ID(), text)
}

// schedulePreview starts a new format generation, which cancels the
// previous one, and asks for a tick once typing pauses
func (m *Model) schedulePreview(tabID, query string) tea.Cmd {
	v := m.view(tabID)
	gen, ctx := v.format.Start(m.ctx)

	// typing after an explicit format wins over it
	if v.formatting {
		v.formatting = false
		m.setStatus("Format cancelled")
	}

	if strings.TrimSpace(query) == "" {
		v.preview, v.previewErr, v.validation = "", nil, ""
		v.view = viewEmpty
		m.refreshResult()
		return nil
	}

	return tea.Tick(m.formatDelay, func(time.Time) tea.Msg {
		return formatTickMsg{gen: gen, ctx: ctx, tabID: tabID, query: query}
	})
}

func (m *Model) handleFormatTick(msg formatTickMsg) tea.Cmd {
	v, ok := m.views[msg.tabID]
	if !ok || !v.format.IsLatest(msg.gen) {
		return nil
	}

	c := m.client
	return func() tea.Msg {
		text, err := c.Format(msg.ctx, msg.query)
		return formattedMsg{gen: msg.gen, tabID: msg.tabID, query: msg.query, text: text, err: err}
	}
}

// formatEditor formats the editor content in place. Variables are
// re-indented locally; queries go through the format server.
func (m *Model) formatEditor() tea.Cmd {
	tab := m.ws.ActiveTab()
	if tab == nil {
		return nil
	}

	if m.editingVars {
		formatted, err := formatVariables(m.editor.Value())
		if err != nil {
			m.setError(err)
			return nil
		}
		m.editor.SetValue(formatted)
		if err := tab.SetVariables(formatted); err != nil {
			m.setError(err)
		}
		return nil
	}

	query := m.editor.Value()
	if strings.TrimSpace(query) == "" {
		return nil
	}

	tabID := tab.ID()
	v := m.view(tabID)
	gen, ctx := v.format.Start(m.ctx)
	v.formatting = true
	c := m.client
	m.setStatus("Formatting...")

	return func() tea.Msg {
		text, err := c.Format(ctx, query)
		return formattedMsg{gen: gen, tabID: tabID, query: query, text: text, err: err, replace: true}
	}
}

func (m *Model) handleFormatted(msg formattedMsg) {
	v, ok := m.views[msg.tabID]
	if !ok || !v.format.Commit(msg.gen, nil) {
		return
	}
	if _, ok := m.ws.Tab(msg.tabID); !ok {
		return
	}

	v.preview, v.previewErr, v.validation = msg.text, msg.err, ""
	v.view = viewPreview
	if msg.err == nil && v.schema != nil {
		if err := v.schema.Validate(msg.query); err != nil {
			v.validation = err.Error()
		}
	}

	if msg.replace {
		v.formatting = false
		m.applyFormatted(msg)
	}
	m.refreshResult()
}

// applyFormatted writes an explicit format back into the tab
func (m *Model) applyFormatted(msg formattedMsg) {
	if msg.err != nil {
		m.setError(msg.err)
		return
	}

	tab, _ := m.ws.Tab(msg.tabID)
	if err := tab.SetQuery(msg.text); err != nil {
		m.setError(err)
		return
	}
	if !m.editingVars && m.ws.ActiveID() == msg.tabID {
		m.editor.SetValue(msg.text)
	}
	m.setStatus("Formatted")
}

func formatVariables(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	compact, err := client.NormalizeVariables(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// run executes the active tab. A new run on the same tab supersedes the
// previous one.
func (m *Model) run() tea.Cmd {
	tab := m.ws.ActiveTab()
	if tab == nil {
		return nil
	}

	settings := tab.Settings()
	if strings.TrimSpace(settings.Query) == "" {
		m.setStatus("Nothing to run")
		return nil
	}

	target := client.TargetFor(settings)
	request := client.RequestFor(settings)
	tabID := tab.ID()

	v := m.view(tabID)
	gen, ctx := v.run.Start(m.ctx)
	v.running = true
	m.setStatus(fmt.Sprintf("Running against %s...", target.URL))

	c := m.client
	return func() tea.Msg {
		result, err := c.Execute(ctx, target, request)
		return executedMsg{gen: gen, tabID: tabID, target: target, request: request, result: result, err: err}
	}
}

func (m *Model) handleExecuted(msg executedMsg) {
	v, ok := m.views[msg.tabID]
	if !ok || !v.run.Commit(msg.gen, nil) {
		return
	}

	v.running = false
	v.response, v.responseErr = msg.result, msg.err
	v.view = viewResponse

	m.recordHistory(msg)

	if msg.err != nil {
		m.setError(msg.err)
	} else {
		if _, err := m.ws.RememberURL(msg.target.URL); err != nil {
			m.logger.Warn("failed to remember url", zap.Error(err))
		}
		m.setStatus(msg.result.Summary())
	}

	if m.ws.ActiveID() == msg.tabID {
		m.refreshResult()
		m.result.GotoTop()
	}
}

func (m *Model) recordHistory(msg executedMsg) {
	if m.history == nil {
		return
	}

	entry := history.Entry{
		TabID:         msg.tabID,
		URL:           msg.target.URL,
		Proxy:         msg.target.Proxy,
		OperationName: msg.request.OperationName,
		Query:         msg.request.Query,
		Variables:     msg.request.Variables,
	}
	if msg.err != nil {
		entry.Error = msg.err.Error()
	} else {
		entry.Status = msg.result.Status
		entry.Duration = msg.result.Duration
		entry.ResponseSize = msg.result.ResponseSize
		if errs := msg.result.Errors(); len(errs) > 0 {
			entry.Error = strings.Join(errs, "; ")
		}
	}

	if _, err := m.history.Save(entry); err != nil {
		m.logger.Warn("failed to record history", zap.Error(err))
	}
}

// introspect fetches the schema of the active tab's endpoint
func (m *Model) introspect() tea.Cmd {
	tab := m.ws.ActiveTab()
	if tab == nil {
		return nil
	}

	target := client.TargetFor(tab.Settings())
	tabID := tab.ID()

	v := m.view(tabID)
	gen, ctx := v.introspect.Start(m.ctx)
	v.introspecting = true
	m.setStatus(fmt.Sprintf("Introspecting %s...", target.URL))

	c := m.client
	return func() tea.Msg {
		schema, err := c.Introspect(ctx, target)
		return introspectedMsg{gen: gen, tabID: tabID, schema: schema, err: err}
	}
}

func (m *Model) handleIntrospected(msg introspectedMsg) {
	v, ok := m.views[msg.tabID]
	if !ok || !v.introspect.Commit(msg.gen, nil) {
		return
	}

	v.introspecting = false
	v.schemaErr = msg.err
	v.view = viewSchema
	if msg.err != nil {
		m.setError(msg.err)
	} else {
		v.schema = msg.schema
		m.setStatus(fmt.Sprintf("Schema loaded: %d types", len(msg.schema.TypeNames())))
	}

	if m.ws.ActiveID() == msg.tabID {
		m.refreshResult()
		m.result.GotoTop()
	}
}

func (m *Model) newTab() {
	tab, err := m.ws.AddTab()
	if err != nil {
		m.setError(err)
		return
	}
	m.loadActiveTab()
	m.setStatus(fmt.Sprintf("Opened %s", tab.Name()))
}

func (m *Model) closeTab() {
	id := m.ws.ActiveID()
	if id == "" {
		return
	}

	m.dropView(id)
	if _, err := m.ws.RemoveTab(id); err != nil {
		m.setError(err)
		return
	}
	m.loadActiveTab()
	m.setStatus("Tab closed")
}

func (m *Model) reopenTab() {
	tab, err := m.ws.ReopenTab()
	if err != nil {
		m.setError(err)
		return
	}
	if tab == nil {
		m.setStatus("No closed tabs")
		return
	}
	m.loadActiveTab()
	m.setStatus(fmt.Sprintf("Reopened %s", tab.Name()))
}

// cycleTab activates the tab delta positions away, wrapping around
func (m *Model) cycleTab(delta int) {
	tabs := m.ws.Tabs()
	if len(tabs) < 2 {
		return
	}

	idx := slices.IndexFunc(tabs, func(t *workspace.Tab) bool { return t.ID() == m.ws.ActiveID() })
	next := ((idx+delta)%len(tabs) + len(tabs)) % len(tabs)
	if err := m.ws.SetActive(tabs[next].ID()); err != nil {
		m.setError(err)
		return
	}
	m.loadActiveTab()
}

func (m *Model) toggleProxy() {
	tab := m.ws.ActiveTab()
	if tab == nil {
		return
	}

	proxy := !tab.Settings().Proxy
	if err := tab.SetProxy(proxy); err != nil {
		m.setError(err)
		return
	}
	if proxy {
		m.setStatus("Requests go through the proxy")
	} else {
		m.setStatus("Requests go direct")
	}
}

func (m *Model) copyResult() {
	text := m.resultText()
	if text == "" {
		m.setStatus("Nothing to copy")
		return
	}
	if err := clipboard.WriteAll(text); err != nil {
		m.setError(fmt.Errorf("failed to copy: %w", err))
		return
	}
	m.setStatus("Copied to clipboard")
}

func (m *Model) switchFocus() tea.Cmd {
	if m.focus == paneEditor {
		m.focus = paneResult
		m.editor.Blur()
		return nil
	}
	m.focus = paneEditor
	m.keybinds.ClearMultiKeyState(keybinds.ContextResult)
	return m.editor.Focus()
}

func (m *Model) toggleVariables() {
	m.editingVars = !m.editingVars
	m.loadEditor()
	if m.editingVars {
		m.setStatus("Editing variables")
	} else {
		m.setStatus("Editing query")
	}
}

func (m *Model) openPicker() tea.Cmd {
	m.mode = ModePicker
	m.input.Prompt = "URL> "
	m.input.Placeholder = "type to filter"
	m.input.SetValue("")
	m.pickerIndex = 0
	m.filterPicker()
	m.editor.Blur()
	m.updateLayout()
	return m.input.Focus()
}

// pickerSource lists the used URLs, most recent first, plus the default URL
func (m *Model) pickerSource() []string {
	urls := m.ws.UsedURLs()
	if def := m.ws.Settings().DefaultURL; def != "" && !slices.Contains(urls, def) {
		urls = append(urls, def)
	}
	return urls
}

func (m *Model) filterPicker() {
	source := m.pickerSource()
	pattern := strings.TrimSpace(m.input.Value())

	if pattern == "" {
		m.pickerMatches = make(fuzzy.Matches, 0, len(source))
		for i, url := range source {
			m.pickerMatches = append(m.pickerMatches, fuzzy.Match{Str: url, Index: i})
		}
	} else {
		m.pickerMatches = fuzzy.Find(pattern, source)
	}

	if len(m.pickerMatches) > PickerMaxItems {
		m.pickerMatches = m.pickerMatches[:PickerMaxItems]
	}
	m.pickerIndex = min(m.pickerIndex, max(0, len(m.pickerMatches)-1))
}

func (m *Model) movePicker(delta int) {
	if len(m.pickerMatches) == 0 {
		return
	}
	m.pickerIndex = (m.pickerIndex + delta + len(m.pickerMatches)) % len(m.pickerMatches)
}

// submitPicker uses the selected URL, or the typed text when nothing matches
func (m *Model) submitPicker() tea.Cmd {
	url := strings.TrimSpace(m.input.Value())
	if len(m.pickerMatches) > 0 {
		url = m.pickerMatches[m.pickerIndex].Str
	}

	cmd := m.closeInput()
	if url != "" {
		m.setURL(url)
	}
	return cmd
}

func (m *Model) setURL(url string) {
	tab := m.ws.ActiveTab()
	if tab == nil {
		return
	}
	if err := tab.SetURL(url); err != nil {
		m.setError(err)
		return
	}
	if _, err := m.ws.RememberURL(url); err != nil {
		m.setError(err)
		return
	}
	m.setStatus(fmt.Sprintf("URL set to %s", url))
}

func (m *Model) openPrompt(kind promptKind) tea.Cmd {
	tab := m.ws.ActiveTab()
	if tab == nil {
		return nil
	}
	settings := tab.Settings()

	m.mode = ModePrompt
	m.prompt = kind
	m.input.Placeholder = ""

	switch kind {
	case promptURL:
		m.input.Prompt = "URL: "
		m.input.SetValue(settings.URL)
	case promptName:
		m.input.Prompt = "Name: "
		m.input.SetValue(settings.Name)
	case promptHeader:
		m.input.Prompt = "Header: "
		m.input.Placeholder = "Authorization: Bearer ..."
		m.input.SetValue("")
	case promptExport:
		m.input.Prompt = "Export to: "
		m.input.SetValue(m.exportPath)
	}

	m.input.CursorEnd()
	m.editor.Blur()
	m.updateLayout()
	return m.input.Focus()
}

func (m *Model) submitPrompt() tea.Cmd {
	value := strings.TrimSpace(m.input.Value())
	cmd := m.closeInput()

	tab := m.ws.ActiveTab()
	if tab == nil {
		return cmd
	}

	switch m.prompt {
	case promptURL:
		if value != "" {
			m.setURL(value)
		}
	case promptName:
		if value == "" {
			break
		}
		if err := tab.SetName(value); err != nil {
			m.setError(err)
		}
	case promptHeader:
		m.addHeader(tab, value)
	case promptExport:
		m.export(value)
	}
	return cmd
}

// closeInput leaves picker or prompt mode and gives the focus back
func (m *Model) closeInput() tea.Cmd {
	m.mode = ModeNormal
	m.input.Blur()
	m.updateLayout()
	if m.focus == paneEditor {
		return m.editor.Focus()
	}
	return nil
}

// addHeader sets a header on tab, replacing one with the same name
func (m *Model) addHeader(tab *workspace.Tab, text string) {
	header, err := workspace.ParseHeader(text)
	if err != nil {
		m.setError(err)
		return
	}

	headers := tab.Settings().Headers
	idx := slices.IndexFunc(headers, func(h workspace.Header) bool { return strings.EqualFold(h.Name, header.Name) })
	if idx >= 0 {
		headers[idx] = header
	} else {
		headers = append(headers, header)
	}

	if err := tab.SetHeaders(headers); err != nil {
		m.setError(err)
		return
	}
	if _, err := m.ws.RememberHeader(header); err != nil {
		m.setError(err)
		return
	}
	m.setStatus(fmt.Sprintf("Header %s set", header.Name))
}

// export writes the workspace snapshot; the extension picks json or yaml
func (m *Model) export(path string) {
	if path == "" {
		return
	}

	format, err := workspace.ParseFormat(filepath.Ext(path))
	if err != nil {
		m.setError(err)
		return
	}
	data, err := workspace.EncodeSnapshot(m.ws.Export(), format)
	if err != nil {
		m.setError(err)
		return
	}
	if err := os.WriteFile(path, data, config.FilePermissions); err != nil {
		m.setError(fmt.Errorf("failed to export workspace: %w", err))
		return
	}

	m.exportPath = path
	m.setStatus(fmt.Sprintf("Workspace exported to %s", path))
}

func (m *Model) setStatus(msg string) {
	m.errorMsg = ""
	m.statusMsg = msg
}

// setError shows err. Messages reported by a server are shown verbatim.
func (m *Model) setError(err error) {
	m.errorMsg = errorText(err)
	m.statusMsg = ""
	m.logger.Debug("tui error", zap.Error(err))
}
