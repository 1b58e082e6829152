package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/studiowebux/gqlws/internal/workspace"
)

// ErrSelectionCancelled is returned when the tab selector is dismissed
var ErrSelectionCancelled = errors.New("selection cancelled")

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2).Bold(true)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	helpStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1).MarginLeft(2)
)

type tabItem struct {
	id     string
	name   string
	url    string
	active bool
}

func (i tabItem) FilterValue() string {
	return i.name + " " + i.url
}

func (i tabItem) Title() string {
	title := fmt.Sprintf("%s  %s", i.name, i.url)
	if i.active {
		title += " [active]"
	}
	return title
}

func (i tabItem) Description() string { return "" }

type selectorModel struct {
	list     list.Model
	choice   string
	quitting bool
}

func (m selectorModel) Init() tea.Cmd {
	return nil
}

func (m selectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		// keys go to the filter input while typing a filter
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			m.choice = ""
			return m, tea.Quit

		case "enter":
			if i, ok := m.list.SelectedItem().(tabItem); ok {
				m.choice = i.id
			}
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m selectorModel) View() string {
	if m.quitting {
		return ""
	}

	help := helpStyle.Render("↑/↓: navigate • /: filter • enter: activate • q: cancel")
	return fmt.Sprintf("%s\n\n%s", m.list.View(), help)
}

func newTabSelector(ws *workspace.Workspace) selectorModel {
	active := ws.ActiveID()
	tabs := ws.Tabs()

	items := make([]list.Item, 0, len(tabs))
	selected := 0
	for i, tab := range tabs {
		settings := tab.Settings()
		if settings.ID == active {
			selected = i
		}
		items = append(items, tabItem{
			id:     settings.ID,
			name:   settings.Name,
			url:    settings.URL,
			active: settings.ID == active,
		})
	}

	const defaultWidth = 80
	const listHeight = 14

	l := list.New(items, itemDelegate{}, defaultWidth, listHeight)
	l.Title = fmt.Sprintf("Activate a tab in %s", ws.Key())
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Select(selected)

	return selectorModel{list: l}
}

// SelectTab asks for a tab on the terminal and returns its id
func SelectTab(ws *workspace.Workspace) (string, error) {
	if len(ws.Tabs()) == 0 {
		return "", fmt.Errorf("no tabs")
	}
	if !isTerminal(os.Stdin) {
		return "", fmt.Errorf("no tab id given and stdin is not a terminal")
	}

	p := tea.NewProgram(newTabSelector(ws))
	finalModel, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("error running selector: %w", err)
	}

	result := finalModel.(selectorModel)
	if result.choice == "" {
		return "", ErrSelectionCancelled
	}
	return result.choice, nil
}

// itemDelegate renders one tab per line
type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(tabItem)
	if !ok {
		return
	}

	str := fmt.Sprintf("%s. %s", i.id, i.Title())

	fn := itemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	}

	fmt.Fprint(w, fn(str))
}
