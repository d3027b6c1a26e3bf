package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/kioskwm/internal/compositor"
	"github.com/1broseidon/kioskwm/internal/ipc"
	"github.com/1broseidon/kioskwm/internal/kiosk"
)

const refreshInterval = time.Second

// Daemon is the control surface the monitor polls. *ipc.Client implements
// it.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	GetOutputs() ([]kiosk.OutputInfo, error)
	GetWindows() ([]kiosk.WindowInfo, error)
	Activate(surfaceID uint32) error
}

type tickMsg time.Time

type snapshotMsg struct {
	status  *ipc.StatusData
	outputs []kiosk.OutputInfo
	windows []kiosk.WindowInfo
	err     error
}

type activatedMsg struct {
	id  uint32
	err error
}

// model is the root bubbletea model for the TUI.
type model struct {
	daemon Daemon

	activeTab Tab
	windows   table.Model
	outputs   table.Model

	status  *ipc.StatusData
	flash   string
	lastErr error

	// Terminal dimensions
	width  int
	height int
}

func newModel(d Daemon) model {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62"))

	windows := table.New(table.WithColumns(windowColumns(80)), table.WithFocused(true))
	windows.SetStyles(styles)
	outputs := table.New(table.WithColumns(outputColumns(80)))
	outputs.SetStyles(styles)

	return model{
		daemon:    d,
		activeTab: TabWindows,
		windows:   windows,
		outputs:   outputs,
	}
}

func windowColumns(width int) []table.Column {
	title := max(width-62, 10)
	return []table.Column{
		{Title: "ID", Width: 10},
		{Title: "App ID", Width: 18},
		{Title: "Title", Width: title},
		{Title: "Mode", Width: 10},
		{Title: "Output", Width: 10},
		{Title: "Parent", Width: 10},
		{Title: "", Width: 2},
	}
}

func outputColumns(width int) []table.Column {
	apps := max(width-46, 10)
	return []table.Column{
		{Title: "ID", Width: 4},
		{Title: "Name", Width: 12},
		{Title: "Geometry", Width: 20},
		{Title: "Windows", Width: 8},
		{Title: "App IDs", Width: apps},
	}
}

func fetchSnapshot(d Daemon) tea.Cmd {
	return func() tea.Msg {
		status, err := d.GetStatus()
		if err != nil {
			return snapshotMsg{err: err}
		}
		outputs, err := d.GetOutputs()
		if err != nil {
			return snapshotMsg{err: err}
		}
		windows, err := d.GetWindows()
		if err != nil {
			return snapshotMsg{err: err}
		}
		return snapshotMsg{status: status, outputs: outputs, windows: windows}
	}
}

func activate(d Daemon, id uint32) tea.Cmd {
	return func() tea.Msg {
		return activatedMsg{id: id, err: d.Activate(id)}
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(fetchSnapshot(m.daemon), tick())
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.flash = ""
			return m, fetchSnapshot(m.daemon)
		case "tab":
			m.setTab((m.activeTab + 1) % tabCount)
			return m, nil
		case "shift+tab":
			m.setTab((m.activeTab - 1 + tabCount) % tabCount)
			return m, nil
		case "1":
			m.setTab(TabWindows)
			return m, nil
		case "2":
			m.setTab(TabOutputs)
			return m, nil
		case "enter":
			if m.activeTab != TabWindows {
				return m, nil
			}
			id, ok := m.selectedWindow()
			if !ok {
				return m, nil
			}
			return m, activate(m.daemon, id)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tickMsg:
		return m, tea.Batch(fetchSnapshot(m.daemon), tick())

	case snapshotMsg:
		m.apply(msg)
		return m, nil

	case activatedMsg:
		if msg.err != nil {
			m.flash = fmt.Sprintf("activate 0x%x failed: %v", msg.id, msg.err)
			return m, nil
		}
		m.flash = fmt.Sprintf("activated 0x%x", msg.id)
		return m, fetchSnapshot(m.daemon)
	}

	// Delegate navigation to the active table
	var cmd tea.Cmd
	switch m.activeTab {
	case TabWindows:
		m.windows, cmd = m.windows.Update(msg)
	case TabOutputs:
		m.outputs, cmd = m.outputs.Update(msg)
	}
	return m, cmd
}

func (m *model) setTab(tab Tab) {
	m.activeTab = tab
	if tab == TabWindows {
		m.windows.Focus()
		m.outputs.Blur()
	} else {
		m.outputs.Focus()
		m.windows.Blur()
	}
}

// contentHeight returns the height available for the table.
func (m model) contentHeight() int {
	// status bar (1) + tab bar (2 with margin) + help bar (1)
	return max(m.height-4, 1)
}

func (m *model) resize() {
	h := m.contentHeight()
	m.windows.SetColumns(windowColumns(m.width))
	m.windows.SetWidth(m.width)
	m.windows.SetHeight(h)
	m.outputs.SetColumns(outputColumns(m.width))
	m.outputs.SetWidth(m.width)
	m.outputs.SetHeight(h)
}

func (m *model) apply(msg snapshotMsg) {
	m.lastErr = msg.err
	if msg.err != nil {
		m.status = nil
		m.windows.SetRows(nil)
		m.outputs.SetRows(nil)
		return
	}
	m.status = msg.status

	names := make(map[compositor.OutputID]string, len(msg.outputs))
	outputRows := make([]table.Row, 0, len(msg.outputs))
	for _, o := range msg.outputs {
		names[o.ID] = o.Name
		outputRows = append(outputRows, table.Row{
			strconv.Itoa(int(o.ID)),
			o.Name,
			fmt.Sprintf("%dx%d+%d+%d", o.Width, o.Height, o.X, o.Y),
			strconv.Itoa(o.Windows),
			o.AppIDs,
		})
	}

	windowRows := make([]table.Row, 0, len(msg.windows))
	for _, w := range msg.windows {
		windowRows = append(windowRows, windowRow(w, names))
	}

	m.outputs.SetRows(outputRows)
	m.windows.SetRows(windowRows)
	// Keep the cursor on a row after windows disappear
	if n := len(windowRows); n > 0 && m.windows.Cursor() >= n {
		m.windows.SetCursor(n - 1)
	}
}

func windowRow(w kiosk.WindowInfo, outputs map[compositor.OutputID]string) table.Row {
	output := "-"
	if w.Output != compositor.NoOutput {
		output = outputs[w.Output]
		if output == "" {
			output = strconv.Itoa(int(w.Output))
		}
	}
	parent := "-"
	if w.Parent != compositor.NoSurface {
		parent = fmt.Sprintf("0x%x", uint32(w.Parent))
	}
	mode := w.Mode
	if !w.Mapped {
		mode += "*"
	}
	active := ""
	if w.Activated {
		active = "●"
	}
	return table.Row{
		fmt.Sprintf("0x%x", uint32(w.SurfaceID)),
		w.AppID,
		strings.ReplaceAll(w.Title, "\n", " "),
		mode,
		output,
		parent,
		active,
	}
}

func (m model) selectedWindow() (uint32, bool) {
	row := m.windows.SelectedRow()
	if len(row) == 0 {
		return 0, false
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(row[0], "0x"), 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(id), true
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.status, m.width)
	tabBar := renderTabBar(m.activeTab, m.width)
	flash := m.flash
	if m.lastErr != nil {
		flash = m.lastErr.Error()
	}
	helpBar := renderHelpBar(m.activeTab, flash, m.width)

	var content string
	switch m.activeTab {
	case TabWindows:
		content = m.windows.View()
	case TabOutputs:
		content = m.outputs.View()
	}

	usedHeight := lipgloss.Height(statusBar) + lipgloss.Height(tabBar) + lipgloss.Height(helpBar)
	content = lipgloss.NewStyle().Height(max(m.height-usedHeight, 1)).Render(content)

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		tabBar,
		content,
		helpBar,
	)
}
