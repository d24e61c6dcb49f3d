package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/brensch/toroid/arena"
	"github.com/brensch/toroid/store"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	aStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	bStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	drawStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	boardStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

type MatchUpdate struct {
	WorkerID int
	Match    store.MatchRow
	// Board is the final position, rendered.
	Board string
}

type model struct {
	tally     arena.Tally
	turns     int64
	nodes     int64
	startTime time.Time
	recent    []string
	lastBoard string
	updates   chan MatchUpdate
}

func initialModel(updates chan MatchUpdate) model {
	return model{
		startTime: time.Now(),
		updates:   updates,
	}
}

type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), tickCmd())
}

func waitForUpdate(updates chan MatchUpdate) tea.Cmd {
	return func() tea.Msg {
		return <-updates
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case TickMsg:
		m.turns = totalTurns.Load()
		m.nodes = totalNodes.Load()
		return m, tickCmd()
	case MatchUpdate:
		m.tally.Add(msg.Match)
		m.lastBoard = msg.Board
		line := fmt.Sprintf("Worker %2d: %s in %3d turns (%d-%d) a:%s b:%s",
			msg.WorkerID, winnerLabel(msg.Match.Winner), msg.Match.Turns, msg.Match.ScoreA, msg.Match.ScoreB, msg.Match.CauseA, msg.Match.CauseB)
		m.recent = append([]string{line}, m.recent...)
		if len(m.recent) > 10 {
			m.recent = m.recent[:10]
		}
		return m, waitForUpdate(m.updates)
	}
	return m, nil
}

func winnerLabel(w string) string {
	switch w {
	case "a":
		return aStyle.Render("a wins")
	case "b":
		return bStyle.Render("b wins")
	}
	return drawStyle.Render("draw  ")
}

func (m model) View() string {
	secs := time.Since(m.startTime).Seconds()
	rate := func(n float64) float64 {
		if secs < 1 {
			return 0
		}
		return n / secs
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("toroid arena") + "\n\n")
	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(label) + value + "\n")
	}
	t := m.tally
	row("Matches", fmt.Sprintf("%d", t.Matches))
	row("Wins", fmt.Sprintf("%s  %s  %s",
		aStyle.Render(fmt.Sprintf("a=%d", t.WinsA)),
		bStyle.Render(fmt.Sprintf("b=%d", t.WinsB)),
		drawStyle.Render(fmt.Sprintf("draw=%d", t.Draws))))
	row("Turn limit", fmt.Sprintf("%d", t.TurnLimit))
	row("Mean turns", fmt.Sprintf("%.1f", t.MeanTurns()))
	row("Causes", formatCauses(t.Causes))
	row("Duration", time.Since(m.startTime).Round(time.Second).String())
	row("Matches/Sec", fmt.Sprintf("%.2f", rate(float64(t.Matches))))
	row("Turns/Sec", fmt.Sprintf("%.2f", rate(float64(m.turns))))
	row("Nodes/Sec", fmt.Sprintf("%.0f", rate(float64(m.nodes))))

	sb.WriteString("\nRecent Matches:\n")
	for _, r := range m.recent {
		sb.WriteString(r + "\n")
	}
	if m.lastBoard != "" {
		sb.WriteString("\nLast Final Board:\n")
		sb.WriteString(boardStyle.Render(strings.TrimRight(m.lastBoard, "\n")) + "\n")
	}
	sb.WriteString("\n" + helpStyle.Render("Press q to quit.") + "\n")
	return sb.String()
}

func formatCauses(c map[string]int) string {
	if len(c) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, c[k])
	}
	return strings.Join(parts, " ")
}
