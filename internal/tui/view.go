package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/hard75/internal/cli"
	"github.com/julianstephens/hard75/internal/constants"
	"github.com/julianstephens/hard75/internal/models"
)

const pathRowLength = 15

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateToday:
		content = m.viewToday()
	case StatePath:
		content = m.viewPath()
	case StateGallery:
		content = m.viewGallery()
	case StateForm:
		content = m.form.View()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		docStyle.Render(content),
		m.viewStatus(),
		m.help.View(m.keys),
	)
}

func (m Model) viewTabs() string {
	active := m.state
	if active == StateForm {
		active = m.previous
	}
	var tabs []string
	for i, title := range tabTitles {
		if active == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewStatus() string {
	switch {
	case m.err != "":
		return dangerStyle.Render(m.err)
	case m.status != "":
		return mutedStyle.Render(m.status)
	}
	return ""
}

func (m Model) viewToday() string {
	day, ok := m.sess.CurrentDay()
	if !ok {
		return titleStyle.Render("No challenge in progress.") + "\n\nPress R to start day 1 today."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Day %d of %d", day.ID, constants.ChallengeDays)))
	b.WriteString("  " + mutedStyle.Render(day.Date) + "  " + cli.FormatStatus(day.Status) + "\n\n")

	if day.Status == models.DayFailed {
		b.WriteString(dangerStyle.Render(fmt.Sprintf("Day %d was missed.", day.ID)))
		b.WriteString("\nThe challenge starts over from day 1. Press R to restart.")
		return b.String()
	}
	if day.Status == models.DayCompleted {
		if day.ID == constants.ChallengeDays {
			b.WriteString(warningStyle.Render("Challenge complete!") + "\n\n")
		} else {
			b.WriteString(warningStyle.Render("All tasks done. Day "+fmt.Sprint(day.ID+1)+" unlocks tomorrow.") + "\n\n")
		}
	}

	for i, it := range m.items() {
		if i == len(m.sess.TodayTasks()) {
			b.WriteString("\n" + titleStyle.Render("Custom todos") + "\n")
		}
		b.WriteString(m.renderItem(i, it) + "\n")
	}

	if day.Notes != nil && strings.TrimSpace(*day.Notes) != "" {
		b.WriteString("\n" + titleStyle.Render("Journal") + "\n")
		b.WriteString(*day.Notes + "\n")
	}
	return b.String()
}

func (m Model) renderItem(i int, it item) string {
	pointer := "  "
	if i == m.cursor {
		pointer = cursorStyle.Render("> ")
	}
	indent := ""
	if it.kind == itemSubtask {
		indent = "    "
	}

	label := it.label
	if it.kind == itemTask {
		label = fmt.Sprintf("%-17s %s", cli.TaskLabel(it.task.Type), it.task.Value)
	}
	line := fmt.Sprintf("%s %s", cli.Checkbox(it.done), label)
	if it.done {
		line = doneStyle.Render(line)
	}
	return pointer + indent + line
}

func (m Model) viewPath() string {
	days := m.sess.DaysPath()
	if len(days) == 0 {
		return mutedStyle.Render("No challenge in progress.")
	}

	current, _ := m.sess.CurrentDay()
	var rows []string
	var row []string
	for _, d := range days {
		cell := fmt.Sprintf(" %2d ", d.ID)
		if d.ID == current.ID {
			cell = fmt.Sprintf("[%2d]", d.ID)
		}
		row = append(row, cli.StatusStyle(d.Status).Render(cell))
		if len(row) == pathRowLength {
			rows = append(rows, strings.Join(row, ""))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, strings.Join(row, ""))
	}

	legend := strings.Join([]string{
		cli.FormatStatus(models.DayActive),
		cli.FormatStatus(models.DayCompleted),
		cli.FormatStatus(models.DayFailed),
		cli.FormatStatus(models.DayLocked),
	}, "  ")
	return strings.Join(rows, "\n") + "\n\n" + legend
}

func (m Model) viewGallery() string {
	images := m.sess.GalleryImages()
	if len(images) == 0 {
		return mutedStyle.Render("No progress pictures yet.")
	}
	var b strings.Builder
	for _, img := range images {
		fmt.Fprintf(&b, "Day %-3d %s\n", img.DayID, img.URI)
	}
	return b.String()
}
