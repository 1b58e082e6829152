package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"

	"github.com/studiowebux/gqlws/internal/client"
	"github.com/studiowebux/gqlws/internal/config"
	"github.com/studiowebux/gqlws/internal/gql"
	"github.com/studiowebux/gqlws/internal/history"
	"github.com/studiowebux/gqlws/internal/keybinds"
	"github.com/studiowebux/gqlws/internal/taskqueue"
	"github.com/studiowebux/gqlws/internal/workspace"
)

// Mode represents the current TUI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModePicker
	ModePrompt
	ModeHelp
)

type pane int

const (
	paneEditor pane = iota
	paneResult
)

type promptKind int

const (
	promptURL promptKind = iota
	promptName
	promptHeader
	promptExport
)

// resultView selects what the result pane shows for a tab
type resultView int

const (
	viewEmpty resultView = iota
	viewPreview
	viewResponse
	viewSchema
)

// tabView is the output of a tab. It lives only as long as the session.
type tabView struct {
	view resultView

	preview    string
	previewErr error
	validation string

	response    *client.Result
	responseErr error

	schema    *gql.Schema
	schemaErr error

	running       bool
	introspecting bool

	// formatting is set while an explicit format waits to replace the editor
	formatting bool

	format     *taskqueue.Queue[string]
	run        *taskqueue.Queue[*client.Result]
	introspect *taskqueue.Queue[*gql.Schema]
}

func (v *tabView) close() {
	v.format.Close()
	v.run.Close()
	v.introspect.Close()
}

// Deps are the collaborators of the TUI
type Deps struct {
	Workspace *workspace.Workspace
	Client    *client.Client
	// History is optional; runs are not recorded when nil
	History  *history.Manager
	Keybinds *keybinds.Registry
	Logger   *zap.Logger

	// Timeout bounds every format, run and introspection
	Timeout     time.Duration
	FormatDelay time.Duration
	ExportPath  string
}

// Model is the Bubble Tea model of the workspace
type Model struct {
	ws       *workspace.Workspace
	client   *client.Client
	history  *history.Manager
	keybinds *keybinds.Registry
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mode        Mode
	focus       pane
	editingVars bool

	editor textarea.Model
	result viewport.Model
	input  textinput.Model

	prompt        promptKind
	pickerMatches fuzzy.Matches
	pickerIndex   int

	views       map[string]*tabView
	timeout     time.Duration
	formatDelay time.Duration
	exportPath  string

	statusMsg string
	errorMsg  string

	width  int
	height int
}

// New creates a new TUI model on the active tab of deps.Workspace
func New(deps Deps) (Model, error) {
	if deps.Workspace == nil || deps.Client == nil {
		return Model{}, errors.New("tui needs a workspace and a client")
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := deps.Keybinds
	if registry == nil {
		registry = keybinds.NewDefaultRegistry()
	}
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	delay := deps.FormatDelay
	if delay <= 0 {
		delay = DefaultFormatDelay
	}
	exportPath := deps.ExportPath
	if exportPath == "" {
		exportPath = deps.Workspace.Key() + ".json"
	}

	if _, err := deps.Workspace.EnsureTab(); err != nil {
		return Model{}, err
	}

	editor := textarea.New()
	editor.ShowLineNumbers = true
	editor.CharLimit = 0
	editor.MaxHeight = 0
	editor.Placeholder = "{ __typename }"

	input := textinput.New()

	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		ws:          deps.Workspace,
		client:      deps.Client,
		history:     deps.History,
		keybinds:    registry,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		mode:        ModeNormal,
		focus:       paneEditor,
		editor:      editor,
		result:      viewport.New(80, 20),
		input:       input,
		views:       make(map[string]*tabView),
		timeout:     timeout,
		formatDelay: delay,
		exportPath:  exportPath,
	}

	m.editor.Focus()
	m.loadActiveTab()

	return m, nil
}

// Init starts the cursor blink
func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd = m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()

	case formatTickMsg:
		cmd = m.handleFormatTick(msg)

	case formattedMsg:
		m.handleFormatted(msg)

	case executedMsg:
		m.handleExecuted(msg)

	case introspectedMsg:
		m.handleIntrospected(msg)

	default:
		// cursor blink and other component messages
		switch m.mode {
		case ModePicker, ModePrompt:
			m.input, cmd = m.input.Update(msg)
		default:
			m.editor, cmd = m.editor.Update(msg)
		}
	}

	return m, cmd
}

// View renders the UI
func (m *Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	if m.mode == ModeHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// Cleanup cancels in-flight work. Results that arrive afterwards are dropped.
func (m *Model) Cleanup() {
	for _, v := range m.views {
		v.close()
	}
	m.cancel()
}

// view returns the output of tab id, creating it on first use
func (m *Model) view(id string) *tabView {
	v, ok := m.views[id]
	if !ok {
		v = &tabView{
			format:     taskqueue.New[string](nil, taskqueue.WithTimeout(m.timeout), taskqueue.WithLogger(m.logger)),
			run:        taskqueue.New[*client.Result](nil, taskqueue.WithTimeout(m.timeout), taskqueue.WithLogger(m.logger)),
			introspect: taskqueue.New[*gql.Schema](nil, taskqueue.WithTimeout(m.timeout), taskqueue.WithLogger(m.logger)),
		}
		m.views[id] = v
	}
	return v
}

// dropView cancels the work of a closed tab and forgets its output
func (m *Model) dropView(id string) {
	if v, ok := m.views[id]; ok {
		v.close()
		delete(m.views, id)
	}
}

// activeView returns the output of the active tab, nil when there is none
func (m *Model) activeView() *tabView {
	tab := m.ws.ActiveTab()
	if tab == nil {
		return nil
	}
	return m.view(tab.ID())
}

// updateLayout resizes the editor and result panes to the window
func (m *Model) updateLayout() {
	editorWidth, resultWidth := m.paneWidths()
	height := m.paneHeight()

	m.editor.SetWidth(max(1, editorWidth-PaneBorderWidth))
	m.editor.SetHeight(max(1, height-PaneBorderWidth-PaneTitleLines))

	m.result.Width = max(1, resultWidth-PaneBorderWidth)
	m.result.Height = max(1, height-PaneBorderWidth-PaneTitleLines)

	m.input.Width = max(1, m.width-len(m.input.Prompt)-2)

	m.refreshResult()
}

func (m *Model) paneWidths() (int, int) {
	editor := max(MinPaneWidth, m.width*EditorWidthPercent/100)
	result := max(MinPaneWidth, m.width-editor)
	return editor, result
}

func (m *Model) paneHeight() int {
	height := m.height - HeaderLines - StatusBarLines
	if m.mode == ModePrompt {
		height -= PromptLines
	}
	return max(PaneBorderWidth+PaneTitleLines+1, height)
}
