package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/kleypas/netplot/pkg/spec"
	"github.com/kleypas/netplot/pkg/topology"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// inspectEntry is one selectable row: a backbone group or a private network.
type inspectEntry struct {
	group   *spec.BackboneGroup
	network *spec.Network
	level   int // indentation for subnets
}

// inspectModel is the bubbletea model for browsing a declaration. The list
// view shows groups first, then networks in nesting order; enter opens a
// detail view for the entry under the cursor.
type inspectModel struct {
	decl    *spec.Declaration
	topo    *topology.Topology
	entries []inspectEntry

	cursor   int
	offset   int
	height   int
	detail   bool // showing the detail view
}

// newInspectModel builds the entry list: backbone groups in declaration
// order, then each root network followed by its subnet subtree.
func newInspectModel(decl *spec.Declaration, topo *topology.Topology) inspectModel {
	m := inspectModel{
		decl:   decl,
		topo:   topo,
		height: 15,
	}
	for _, g := range decl.Public.AutonomousSystems {
		m.entries = append(m.entries, inspectEntry{group: g})
	}
	for _, root := range topo.Roots() {
		m.appendNetwork(root, 0)
	}
	return m
}

func (m *inspectModel) appendNetwork(name string, level int) {
	n := m.decl.Private.Get(name)
	if n == nil {
		return
	}
	m.entries = append(m.entries, inspectEntry{network: n, level: level})
	for _, child := range m.topo.Children(name) {
		m.appendNetwork(child, level+1)
	}
}

func (m inspectModel) Init() tea.Cmd {
	return nil
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.detail {
				m.detail = false
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if !m.detail && m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if !m.detail && m.cursor < len(m.entries)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter":
			if len(m.entries) > 0 {
				m.detail = true
			}
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m inspectModel) View() string {
	if m.detail {
		return m.detailView()
	}
	return m.listView()
}

func (m inspectModel) listView() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Topology Declaration"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.entries) {
		end = len(m.entries)
	}

	for i := m.offset; i < end; i++ {
		e := m.entries[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		var line string
		switch {
		case e.group != nil:
			line = fmt.Sprintf("%s%s %s  %s", cursor, "AS ", e.group.Name,
				listDimStyle.Render(fmt.Sprintf("%s · %d devices", e.group.Region, len(e.group.Devices))))
		default:
			indent := strings.Repeat("  ", e.level)
			tag := "net"
			if e.level > 0 {
				tag = "sub"
			}
			line = fmt.Sprintf("%s%s%s %s  %s", cursor, indent, tag, e.network.Name,
				listDimStyle.Render(fmt.Sprintf("%s · %d devices", e.network.Subnet, len(e.network.Devices))))
		}

		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.entries))))

	return b.String()
}

func (m inspectModel) detailView() string {
	e := m.entries[m.cursor]
	if e.group != nil {
		return m.groupDetail(e.group)
	}
	return m.networkDetail(e.network)
}

func (m inspectModel) groupDetail(g *spec.BackboneGroup) string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(g.Name))
	b.WriteString("  " + listDimStyle.Render(string(g.Region)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("esc back  q quit"))
	b.WriteString("\n\n")

	b.WriteString(deviceTable(g.Devices))
	b.WriteString("\n")
	return b.String()
}

func (m inspectModel) networkDetail(n *spec.Network) string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(n.Name))
	b.WriteString("  " + listDimStyle.Render(n.Subnet))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("esc back  q quit"))
	b.WriteString("\n\n")

	if parent, ok := m.topo.Parent(n.Name); ok {
		b.WriteString("  parent: " + StyleValue.Render(parent) + "\n")
	}
	if children := m.topo.Children(n.Name); len(children) > 0 {
		b.WriteString("  subnets: " + StyleValue.Render(strings.Join(children, ", ")) + "\n")
	}

	if n.Gateway != nil {
		b.WriteString("\n")
		b.WriteString(StyleValue.Render("  "+n.Gateway.Name) + listDimStyle.Render("  "+n.Gateway.Addr) + "\n")
		for _, iface := range n.Gateway.Interfaces {
			b.WriteString(listDimStyle.Render(fmt.Sprintf("    %-12s %-16s %s", iface.Name, iface.Type, iface.Addr)))
			b.WriteString("\n")
		}
		if n.Gateway.Diversion != nil {
			b.WriteString("    " + diversionLine(n.Gateway.Diversion) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(deviceTable(n.Devices))
	b.WriteString("\n")
	return b.String()
}

// deviceTable renders the device list with name, address, interface, and
// diversion columns.
func deviceTable(devices []*spec.Device) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		iface := d.Interface
		if d.IsSubGateway() {
			names := make([]string, len(d.Interfaces))
			for i, f := range d.Interfaces {
				names[i] = f.Type
			}
			iface = "gw: " + strings.Join(names, ", ")
		}
		div := ""
		if d.Diversion != nil {
			div = diversionLine(d.Diversion)
		}
		rows = append(rows, []string{d.Name, d.Addr, iface, div})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Device", "Address", "Interface", "Diversion").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorWhite)
			}
			return lipgloss.NewStyle().Foreground(colorGray)
		})

	return t.Render()
}

// diversionLine formats a diversion rule for display.
func diversionLine(d *spec.Diversion) string {
	arrow := "→ "
	targets := strings.Join(d.Target, ", ")
	kind := string(d.TargetType)
	if d.Traffic != "" {
		kind = string(d.Traffic)
	}
	if d.Label != "" {
		return arrow + targets + " (" + kind + ", " + d.Label + ")"
	}
	return arrow + targets + " (" + kind + ")"
}
