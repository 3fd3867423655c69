package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"luabundle/internal/buildpipeline"
)

// maxVisible ограничивает список модулей, дальше показывается "... и ещё N".
const maxVisible = 12

type progressModel struct {
	title      string
	events     <-chan buildpipeline.Event
	spinner    spinner.Model
	prog       progress.Model
	items      []moduleItem
	index      map[string]int
	stage      buildpipeline.Stage
	stageLabel string
	failed     bool
	width      int
	done       bool
}

type moduleItem struct {
	id     string
	kind   string
	status string
}

type eventMsg buildpipeline.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders build progress.
// Modules are added as the resolver discovers them.
func NewProgressModel(title string, events <-chan buildpipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		index:   make(map[string]int),
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(buildpipeline.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.stageLabel != "" {
		header = fmt.Sprintf("%s (%s)", header, m.stageLabel)
	}
	switch {
	case m.done && m.failed:
		header = "failed: " + header
	case m.done:
		header = "done: " + header
	default:
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 10
	kindWidth := 10
	nameWidth := max(m.width-statusWidth-kindWidth-6, 20)

	// последние модули интереснее первых
	visible := m.items
	if len(visible) > maxVisible {
		fmt.Fprintf(&b, "  %s\n", lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf("... %d more", len(visible)-maxVisible)))
		visible = visible[len(visible)-maxVisible:]
	}
	for _, item := range visible {
		statusStyled := styleStatus(item.status).Render(fmt.Sprintf("%*s", statusWidth, item.status))
		kind := lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf("%-*s", kindWidth, item.kind))
		fmt.Fprintf(&b, "  %s %s %s\n", statusStyled, kind, truncate(item.id, nameWidth))
	}

	b.WriteString("\n")
	if m.done && !m.failed {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev buildpipeline.Event) tea.Cmd {
	if ev.Status == buildpipeline.StatusError {
		m.failed = true
	}
	if ev.Module == "" {
		m.stage = ev.Stage
		if label := statusLabel(ev.Stage, ev.Status); label != "" {
			m.stageLabel = label
		}
		return m.prog.SetPercent(m.percent(ev))
	}

	idx, ok := m.index[ev.Module]
	if !ok {
		idx = len(m.items)
		m.index[ev.Module] = idx
		m.items = append(m.items, moduleItem{id: ev.Module, kind: ev.Kind})
	}
	if label := statusLabel(ev.Stage, ev.Status); label != "" {
		m.items[idx].status = label
	}
	return m.prog.SetPercent(m.percent(ev))
}

// percent: разрешение модулей занимает большую часть шкалы,
// остальные стадии добавляют фиксированные доли.
func (m *progressModel) percent(ev buildpipeline.Event) float64 {
	const resolveShare = 0.7
	if m.stage != buildpipeline.StageResolve && m.stage != "" {
		base := stageBase(m.stage)
		if ev.Module == "" && ev.Status == buildpipeline.StatusDone {
			return min(base+0.1, 1.0)
		}
		return base
	}
	if len(m.items) == 0 {
		return 0
	}
	done := 0
	for _, item := range m.items {
		if item.status == "done" {
			done++
		}
	}
	return resolveShare * float64(done) / float64(len(m.items))
}

func stageBase(stage buildpipeline.Stage) float64 {
	switch stage {
	case buildpipeline.StageAssemble:
		return 0.7
	case buildpipeline.StageCheck:
		return 0.8
	case buildpipeline.StageArchive:
		return 0.85
	case buildpipeline.StageWrite:
		return 0.9
	default:
		return 0
	}
}

func statusLabel(stage buildpipeline.Stage, status buildpipeline.Status) string {
	switch status {
	case buildpipeline.StatusQueued:
		return "queued"
	case buildpipeline.StatusDone:
		return "done"
	case buildpipeline.StatusError:
		return "error"
	case buildpipeline.StatusWorking:
		return stageLabel(stage)
	default:
		return ""
	}
}

func stageLabel(stage buildpipeline.Stage) string {
	switch stage {
	case buildpipeline.StageResolve:
		return "resolving"
	case buildpipeline.StageAssemble:
		return "assembling"
	case buildpipeline.StageCheck:
		return "checking"
	case buildpipeline.StageWrite:
		return "writing"
	case buildpipeline.StageArchive:
		return "packing"
	default:
		return ""
	}
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "done":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "queued":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
