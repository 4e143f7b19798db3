package audit

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/JosephStocks/roberthalf-scraper/internal/store"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)

	statusStyles = map[string]lipgloss.Style{
		"completed": lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		"partial":   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		"failed":    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

type pickerModel struct {
	runs   []store.Run
	now    time.Time
	cursor int
	chosen int // -1 = no choice yet, -2 = quit
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.chosen = -2
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.runs)-1 {
			m.cursor++
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = len(m.runs) - 1
	case "enter":
		m.chosen = m.cursor
		return m, tea.Quit
	}
	return m, nil
}

func (m pickerModel) View() string {
	s := pickerTitleStyle.Render("Scrape History — Select a run")
	s += "\n"

	for i, r := range m.runs {
		label := m.runLine(r)
		if i == m.cursor {
			s += pickerSelectedStyle.Render("> "+label) + "\n"
		} else {
			s += pickerItemStyle.Render(label) + "\n"
		}
	}

	s += pickerHintStyle.Render("↑/↓/j/k navigate  g/G first/last  enter select  q quit")
	return s
}

func (m pickerModel) runLine(r store.Run) string {
	status := r.Status
	if st, ok := statusStyles[status]; ok {
		status = st.Render(status)
	}
	return fmt.Sprintf("#%-4d %s (%s)  %s  %d jobs, %d new",
		r.ID,
		r.StartedAt.Local().Format("Mon Jan 2 15:04"),
		relativeAge(m.now.Sub(r.StartedAt)),
		status, r.TotalJobs, r.NewJobs)
}

// relativeAge renders a duration the way run pickers usually do: "35m ago",
// "6h ago", "3d ago".
func relativeAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// RunPicker shows an interactive selector over recent runs.
// Returns the index of the chosen run, or -1 if the user quit.
func RunPicker(runs []store.Run) (int, error) {
	m := pickerModel{
		runs:   runs,
		now:    time.Now(),
		chosen: -1,
	}

	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return -1, err
	}

	final := result.(pickerModel)
	return final.chosen, nil
}
