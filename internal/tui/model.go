// Package tui is the interactive pairing and device control screen.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/arclens/glassctl/internal/connector"
	"github.com/arclens/glassctl/internal/glass"
	"github.com/arclens/glassctl/internal/pairing"
)

type menuItem struct {
	title  string
	action func(m *Model) tea.Cmd
}

// Model is the main Bubbletea model for the TUI.
type Model struct {
	conn   *connector.Connector
	styles Styles

	cursor    int
	items     []menuItem
	spinner   spinner.Model
	busy      bool
	busyLabel string

	connected bool
	discovery pairing.DiscoveryResult
	battery   map[glass.Side]*int
	statusMsg string
	errorMsg  string

	width  int
	height int
}

type discoverDoneMsg struct {
	result pairing.DiscoveryResult
	err    error
}

type pairDoneMsg struct{ err error }
type verifyDoneMsg struct{ err error }
type unpairDoneMsg struct{ err error }
type connectDoneMsg struct{ err error }

type silentDoneMsg struct {
	enabled bool
	err     error
}

type batteryDoneMsg struct {
	levels map[glass.Side]*int
	err    error
}

func newModel(conn *connector.Connector) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		conn:    conn,
		styles:  DefaultStyles(),
		spinner: sp,
	}
	m.items = []menuItem{
		{"Discover glasses", (*Model).discoverCmd},
		{"Pair", (*Model).pairCmd},
		{"Verify pairing", (*Model).verifyCmd},
		{"Connect", (*Model).connectCmd},
		{"Toggle silent mode", (*Model).silentCmd},
		{"Refresh battery", (*Model).batteryCmd},
		{"Unpair", (*Model).unpairCmd},
	}
	return m
}

// Run starts the TUI around an assembled connector.
func Run(conn *connector.Connector) error {
	p := tea.NewProgram(newModel(conn), tea.WithAltScreen())
	_, err := p.Run()
	conn.Disconnect()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *Model) discoverCmd() tea.Cmd {
	c := m.conn
	return func() tea.Msg {
		result, err := c.Pairing.DiscoverGlasses(pairing.DefaultScanTimeout)
		return discoverDoneMsg{result: result, err: err}
	}
}

func (m *Model) pairCmd() tea.Cmd {
	c := m.conn
	return func() tea.Msg {
		return pairDoneMsg{err: c.Pairing.PairGlasses()}
	}
}

func (m *Model) verifyCmd() tea.Cmd {
	c := m.conn
	return func() tea.Msg {
		return verifyDoneMsg{err: c.Pairing.VerifyPairing()}
	}
}

func (m *Model) connectCmd() tea.Cmd {
	c := m.conn
	return func() tea.Msg {
		return connectDoneMsg{err: c.Connect()}
	}
}

func (m *Model) silentCmd() tea.Cmd {
	c := m.conn
	target := !c.Device.SilentMode()
	return func() tea.Msg {
		return silentDoneMsg{enabled: target, err: c.Device.SetSilentMode(target)}
	}
}

func (m *Model) batteryCmd() tea.Cmd {
	c := m.conn
	return func() tea.Msg {
		if err := c.Device.RefreshBatteryLevels(); err != nil {
			return batteryDoneMsg{err: err}
		}
		return batteryDoneMsg{levels: c.Device.BatteryLevel()}
	}
}

func (m *Model) unpairCmd() tea.Cmd {
	c := m.conn
	return func() tea.Msg {
		return unpairDoneMsg{err: c.Pairing.UnpairGlasses()}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "enter":
			item := m.items[m.cursor]
			m.busy = true
			m.busyLabel = item.title
			m.errorMsg = ""
			m.statusMsg = ""
			return m, tea.Batch(m.spinner.Tick, item.action(&m))
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case discoverDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.errorMsg = msg.err.Error()
			return m, nil
		}
		m.discovery = msg.result
		m.statusMsg = fmt.Sprintf("Discovery complete: %d side(s) found", len(msg.result))
		return m, nil

	case pairDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.errorMsg = msg.err.Error()
			return m, nil
		}
		m.statusMsg = "Paired with both glasses"
		return m, nil

	case verifyDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.errorMsg = msg.err.Error()
			return m, nil
		}
		m.statusMsg = "Pairing verified"
		return m, nil

	case connectDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.errorMsg = msg.err.Error()
			return m, nil
		}
		m.connected = true
		m.statusMsg = "Connected to both glasses"
		return m, nil

	case silentDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.errorMsg = msg.err.Error()
			return m, nil
		}
		if msg.enabled {
			m.statusMsg = "Silent mode enabled"
		} else {
			m.statusMsg = "Silent mode disabled"
		}
		return m, nil

	case batteryDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.errorMsg = msg.err.Error()
			return m, nil
		}
		m.battery = msg.levels
		m.statusMsg = "Battery refreshed"
		return m, nil

	case unpairDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.errorMsg = msg.err.Error()
			return m, nil
		}
		m.connected = false
		m.discovery = nil
		m.battery = nil
		m.statusMsg = "Unpaired"
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("glassctl"))
	b.WriteString("\n")
	if m.connected {
		b.WriteString(m.styles.Subtitle.Render("connected"))
	} else {
		b.WriteString(m.styles.Subtitle.Render("not connected"))
	}
	b.WriteString("\n\n")

	for i, item := range m.items {
		style := m.styles.MenuItem
		prefix := "  "
		if i == m.cursor {
			style = m.styles.MenuItemSelected
			prefix = "> "
		}
		b.WriteString(style.Render(prefix + item.title))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.viewState())

	if m.busy {
		b.WriteString(fmt.Sprintf("\n%s %s...\n", m.spinner.View(), m.busyLabel))
	}
	if m.statusMsg != "" {
		b.WriteString("\n" + m.styles.Success.Render(m.statusMsg) + "\n")
	}
	if m.errorMsg != "" {
		b.WriteString("\n" + m.styles.Error.Render(m.errorMsg) + "\n")
	}

	b.WriteString(m.styles.Help.Render("up/down: navigate • enter: run • q: quit"))
	return m.styles.App.Render(b.String())
}

func (m Model) viewState() string {
	var b strings.Builder

	for _, side := range glass.Sides() {
		b.WriteString(m.styles.Label.Render(string(side)))

		parts := []string{}
		if unit, ok := m.discovery[side]; ok {
			parts = append(parts, fmt.Sprintf("%s (%s)", unit.Name, unit.Address))
		}
		if m.battery != nil && m.battery[side] != nil {
			parts = append(parts, fmt.Sprintf("battery %d%%", *m.battery[side]))
		}
		if len(parts) == 0 {
			b.WriteString(m.styles.Muted.Render("—"))
		} else {
			b.WriteString(m.styles.Value.Render(strings.Join(parts, "  ")))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Label.Render("silent mode"))
	if m.conn.Device.SilentMode() {
		b.WriteString(m.styles.Value.Render("on"))
	} else {
		b.WriteString(m.styles.Muted.Render("off"))
	}
	b.WriteString("\n")

	return b.String()
}
