package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/graphsim/fuzzygraph/pkg/analysis"
	"github.com/graphsim/fuzzygraph/pkg/editor"
	"github.com/graphsim/fuzzygraph/pkg/errors"
	"github.com/graphsim/fuzzygraph/pkg/fuzzy"
	"github.com/graphsim/fuzzygraph/pkg/graph"
)

const maxInputLen = 8

var (
	panelStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1).Width(36)
	panelActiveStyle = panelStyle.BorderForeground(colorCyan)
	cursorStyle      = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	armedStyle       = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	normalStyle      = lipgloss.NewStyle().Foreground(colorWhite)
	helpStyle        = lipgloss.NewStyle().Foreground(colorDim)
)

var slotTitles = map[graph.Slot]string{
	graph.SlotLeft:  "G1",
	graph.SlotRight: "G2",
}

type computeDoneMsg struct{ err error }

type isomorphismDoneMsg struct {
	iso *analysis.Isomorphism
	err error
}

// EditModel is the bubbletea model of the interactive editor.
type EditModel struct {
	ctx     context.Context
	ed      *editor.Editor
	active  graph.Slot
	cursor  map[graph.Slot]int
	input   string
	status  string
	failed  bool
	pending int
}

// NewEditModel wraps ed. Analysis requests run under ctx.
func NewEditModel(ctx context.Context, ed *editor.Editor) EditModel {
	return EditModel{
		ctx:    ctx,
		ed:     ed,
		active: graph.SlotLeft,
		cursor: map[graph.Slot]int{graph.SlotLeft: 0, graph.SlotRight: 0},
	}
}

func (m EditModel) Init() tea.Cmd {
	return nil
}

func (m EditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case computeDoneMsg:
		m.pending--
		if msg.err != nil {
			m.setError(fmt.Errorf("some requests failed: %s", errors.UserMessage(msg.err)))
		} else {
			m.setStatus("Results updated")
		}
	case isomorphismDoneMsg:
		m.pending--
		switch {
		case msg.err != nil:
			m.setError(msg.err)
		case msg.iso.Isomorphic:
			m.setStatus("The graphs are isomorphic")
		default:
			m.setStatus("The graphs are not isomorphic")
		}
	}
	return m, nil
}

func (m EditModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab":
		m.active = m.active.Other()
	case "up", "k":
		if m.cursor[m.active] > 0 {
			m.cursor[m.active]--
		}
	case "down", "j":
		if m.cursor[m.active] < len(m.nodes())-1 {
			m.cursor[m.active]++
		}
	case "backspace":
		if m.input != "" {
			m.input = m.input[:len(m.input)-1]
		}
	case "a":
		m.addNode()
	case " ":
		m.toggle()
	case "e":
		m.addEdge()
	case "x":
		m.removeNode()
	case "d":
		if err := m.ed.ClearGraph(m.active); err != nil {
			m.setError(err)
			break
		}
		m.cursor[m.active] = 0
		m.setStatus("Cleared " + slotTitles[m.active])
	case "t":
		next := m.ed.TNorm().Next()
		if err := m.ed.SetTNorm(next); err != nil {
			m.setError(err)
			break
		}
		m.setStatus("T-norm: " + next.DisplayName())
	case "c":
		m.pending++
		m.setStatus("Computing...")
		return m, m.computeCmd()
	case "i":
		m.pending++
		m.setStatus("Checking isomorphism...")
		return m, m.isomorphismCmd()
	default:
		if isMembershipInput(key) && len(m.input)+len(key) <= maxInputLen {
			m.input += key
		}
	}
	return m, nil
}

// isMembershipInput reports whether s only holds digits and dots.
func isMembershipInput(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}

func (m *EditModel) membership() (float64, bool) {
	if m.input == "" {
		m.setError(errors.New(errors.ErrCodeInvalidArgument, "type a membership degree first"))
		return 0, false
	}
	v, err := fuzzy.ParseMembership(m.input)
	if err != nil {
		m.setError(err)
		return 0, false
	}
	return v, true
}

func (m *EditModel) addNode() {
	v, ok := m.membership()
	if !ok {
		return
	}
	id, err := m.ed.AddNode(m.active, v)
	if err != nil {
		m.setError(err)
		return
	}
	m.cursor[m.active] = len(m.nodes()) - 1
	m.setStatus(fmt.Sprintf("Added %s (%s)", id, fmtDegree(v)))
}

func (m *EditModel) toggle() {
	node, ok := m.cursorNode()
	if !ok {
		return
	}
	ch, err := m.ed.ToggleSelection(m.active, node.ID)
	if err != nil {
		m.setError(err)
		return
	}
	if ch.CanCreateEdge {
		m.setStatus("Press e to connect " + strings.Join(ch.Armed, " and "))
		return
	}
	m.setStatus(fmt.Sprintf("%d selected", len(ch.Armed)))
}

func (m *EditModel) addEdge() {
	if !m.ed.View().Slots[m.active].CanCreateEdge {
		m.setError(errors.New(errors.ErrCodeInvalidArgument, "select two nodes first"))
		return
	}
	v, ok := m.membership()
	if !ok {
		return
	}
	edge, err := m.ed.AddEdge(m.active, v)
	if err != nil {
		m.setError(err)
		return
	}
	m.setStatus(fmt.Sprintf("Added edge %s → %s (%s)", edge.Source, edge.Target, fmtDegree(edge.Membership)))
}

func (m *EditModel) removeNode() {
	node, ok := m.cursorNode()
	if !ok {
		return
	}
	if err := m.ed.RemoveNode(m.active, node.ID); err != nil {
		m.setError(err)
		return
	}
	if n := len(m.nodes()); m.cursor[m.active] >= n && n > 0 {
		m.cursor[m.active] = n - 1
	}
	m.setStatus("Removed " + node.ID)
}

func (m EditModel) computeCmd() tea.Cmd {
	return func() tea.Msg {
		return computeDoneMsg{err: m.ed.ComputeAll(m.ctx)}
	}
}

func (m EditModel) isomorphismCmd() tea.Cmd {
	return func() tea.Msg {
		iso, err := m.ed.RequestIsomorphism(m.ctx)
		return isomorphismDoneMsg{iso: iso, err: err}
	}
}

func (m EditModel) nodes() []graph.Node {
	return m.ed.View().Slots[m.active].Nodes
}

func (m EditModel) cursorNode() (graph.Node, bool) {
	nodes := m.nodes()
	i := m.cursor[m.active]
	if i < 0 || i >= len(nodes) {
		return graph.Node{}, false
	}
	return nodes[i], true
}

func (m *EditModel) setStatus(s string) {
	m.status, m.failed = s, false
}

func (m *EditModel) setError(err error) {
	m.status, m.failed = errors.UserMessage(err), true
}

// =============================================================================
// Rendering
// =============================================================================

func (m EditModel) View() string {
	v := m.ed.View()
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Fuzzy graph editor"))
	b.WriteString("  ")
	b.WriteString(StyleDim.Render("t-norm: ") + StyleHighlight.Render(v.TNorm.DisplayName()))
	b.WriteString("\n\n")

	panels := make([]string, 0, len(graph.Slots))
	for _, s := range graph.Slots {
		panels = append(panels, m.renderSlot(s, v.Slots[s]))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, panels...))
	b.WriteString("\n")

	b.WriteString(m.renderResults(v.Results))
	b.WriteString("\n\n")

	b.WriteString(StyleDim.Render("membership: ") + StyleValue.Render(m.input) + cursorStyle.Render("_"))
	b.WriteString("\n")
	if m.status != "" {
		if m.failed {
			b.WriteString(StyleError.Render(iconError + " " + m.status))
		} else {
			b.WriteString(StyleDim.Render(iconInfo + " " + m.status))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("tab slot  ↑/↓ move  a add node  space select  e edge  x delete  d clear  t t-norm  c compute  i isomorphism  q quit"))
	return b.String()
}

func (m EditModel) renderSlot(s graph.Slot, sv editor.SlotView) string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(slotTitles[s]))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d nodes · %d edges", len(sv.Nodes), len(sv.Edges))))
	b.WriteString("\n")

	armed := make(map[string]bool, len(sv.Armed))
	for _, id := range sv.Armed {
		armed[id] = true
	}
	if len(sv.Nodes) == 0 {
		b.WriteString(StyleDim.Render("(empty)"))
		b.WriteString("\n")
	}
	for i, n := range sv.Nodes {
		pointer := "  "
		if s == m.active && i == m.cursor[s] {
			pointer = cursorStyle.Render("▸ ")
		}
		mark, style := "○", normalStyle
		if armed[n.ID] {
			mark, style = "●", armedStyle
		}
		b.WriteString(pointer + style.Render(fmt.Sprintf("%s %-8s %s", mark, n.ID, fmtDegree(n.Membership))))
		b.WriteString("\n")
	}
	for _, e := range sv.Edges {
		b.WriteString(StyleDim.Render(fmt.Sprintf("  %s → %s  %s", e.Source, e.Target, fmtDegree(e.Membership))))
		b.WriteString("\n")
	}

	if s == m.active {
		return panelActiveStyle.Render(strings.TrimRight(b.String(), "\n"))
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m EditModel) renderResults(res editor.Results) string {
	parts := []string{
		StyleDim.Render("tw(G1) ") + formatValue(res.TwinWidth[graph.SlotLeft]),
		StyleDim.Render("tw(G2) ") + formatValue(res.TwinWidth[graph.SlotRight]),
		StyleDim.Render("similarity ") + formatValue(res.Similarity),
		StyleDim.Render("isomorphic ") + formatIsomorphism(res.Isomorphism),
	}
	line := strings.Join(parts, StyleDim.Render("  ·  "))
	if m.pending > 0 || m.ed.Busy() {
		line += "  " + StyleWarning.Render("computing…")
	}
	return line
}
