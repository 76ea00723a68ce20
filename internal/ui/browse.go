package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/swcatalog/swindex/internal/component"
)

// browseItem adapts a component for the list widget.
type browseItem struct {
	cpt *component.Component
}

// Title implements list.DefaultItem.
func (i browseItem) Title() string {
	if name := i.cpt.Name(); name != "" {
		return name
	}
	return i.cpt.ID
}

// Description implements list.DefaultItem.
func (i browseItem) Description() string {
	if summary := i.cpt.Summary(); summary != "" {
		return summary
	}
	return i.cpt.ID
}

// FilterValue implements list.Item. Matching covers the display name, the
// component ID and the summary so typing "gimp" or "org.gimp" both work.
func (i browseItem) FilterValue() string {
	return i.Title() + " " + i.cpt.ID + " " + i.cpt.Summary()
}

// browseModel is the bubbletea model for the component browser.
type browseModel struct {
	list   list.Model
	detail *component.Component
	styles Styles
	width  int
	height int
}

// newBrowseModel creates a browser over the given components.
func newBrowseModel(cpts []*component.Component, noColor bool) *browseModel {
	items := make([]list.Item, 0, len(cpts))
	for _, cpt := range cpts {
		items = append(items, browseItem{cpt: cpt})
	}

	styles := GetStyles(noColor)

	delegate := list.NewDefaultDelegate()
	if !noColor {
		delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
			Foreground(lipgloss.Color(ColorLime)).
			BorderLeftForeground(lipgloss.Color(ColorLime))
		delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
			Foreground(lipgloss.Color(ColorLimeDim)).
			BorderLeftForeground(lipgloss.Color(ColorLime))
	}

	l := list.New(items, delegate, 80, 24)
	l.Title = "Software Catalog"
	l.Styles.Title = styles.Header
	l.SetStatusBarItemName("component", "components")

	filter := textinput.New()
	filter.Prompt = "Filter: "
	filter.PromptStyle = styles.Active
	filter.Cursor.Style = styles.Active
	l.FilterInput = filter

	return &browseModel{
		list:   l,
		styles: styles,
		width:  80,
		height: 24,
	}
}

// Init implements tea.Model.
func (m *browseModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if m.detail != nil {
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			case "esc", "enter", "backspace":
				m.detail = nil
			}
			return m, nil
		}

		// While the filter input is focused every key belongs to the list.
		if m.list.FilterState() != list.Filtering && msg.String() == "enter" {
			if item, ok := m.list.SelectedItem().(browseItem); ok {
				m.detail = item.cpt
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *browseModel) View() string {
	if m.detail != nil {
		return m.detailView()
	}
	return m.list.View()
}

// detailView renders the selected component inside a bordered panel.
func (m *browseModel) detailView() string {
	contentWidth := m.width - 8
	if contentWidth < 40 {
		contentWidth = 40
	}

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorDarkGray)).
		Padding(1, 2).
		Width(contentWidth)

	content := strings.Join(DetailLines(m.detail, m.styles), "\n")
	hint := m.styles.Dim.Render("esc to go back  •  q to quit")

	return panel.Render(content) + "\n" + hint
}

// RunBrowser starts the interactive component browser on out.
// Returns an error if out is not a TTY.
func RunBrowser(out io.Writer, cpts []*component.Component, noColor bool) error {
	if !IsTTY(out) {
		return fmt.Errorf("output is not a TTY")
	}

	model := newBrowseModel(cpts, noColor || DetectNoColor())

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if f, ok := out.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}

	_, err := tea.NewProgram(model, opts...).Run()
	return err
}
