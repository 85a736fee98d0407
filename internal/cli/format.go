package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/hard75/internal/constants"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/models"
)

var (
	activeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true)
	lockedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	headerStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
)

var taskLabels = map[models.TaskType]string{
	models.TaskWorkoutOutdoor: "Outdoor workout",
	models.TaskWorkoutIndoor:  "Indoor workout",
	models.TaskWater:          "Water",
	models.TaskRead:           "Read",
	models.TaskDiet:           "Diet",
	models.TaskNoAlcohol:      "No alcohol",
	models.TaskPic:            "Progress picture",
}

// TaskLabel returns the display name of a task type.
func TaskLabel(t models.TaskType) string {
	if l, ok := taskLabels[t]; ok {
		return l
	}
	return string(t)
}

// StatusStyle returns the colour used for a day status.
func StatusStyle(s models.DayStatus) lipgloss.Style {
	switch s {
	case models.DayActive:
		return activeStyle
	case models.DayCompleted:
		return completedStyle
	case models.DayFailed:
		return failedStyle
	default:
		return lockedStyle
	}
}

func FormatStatus(s models.DayStatus) string {
	return StatusStyle(s).Render(string(s))
}

func Header(s string) string {
	return headerStyle.Render(s)
}

func Checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

// FormatTask renders one task line.
func FormatTask(t models.Task) string {
	return fmt.Sprintf("%s %-3d %-17s %s", Checkbox(t.Completed), t.ID, TaskLabel(t.Type), t.Value)
}

// FormatDay renders the day heading.
func FormatDay(d models.Day) string {
	return fmt.Sprintf("Day %d/%d  %s  %s", d.ID, constants.ChallengeDays, d.Date, FormatStatus(d.Status))
}

// FormatTodos renders custom todos with their subtasks indented below.
func FormatTodos(todos []models.CustomTodoWithSubtasks) string {
	var b strings.Builder
	for _, todo := range todos {
		fmt.Fprintf(&b, "%s %-3d %s", Checkbox(todo.Completed), todo.ID, todo.Title)
		if todo.Description != nil && *todo.Description != "" {
			fmt.Fprintf(&b, "  (%s)", *todo.Description)
		}
		b.WriteString("\n")
		for _, st := range todo.Subtasks {
			fmt.Fprintf(&b, "    %s %-3d %s\n", Checkbox(st.Completed), st.ID, st.Content)
		}
	}
	return b.String()
}

// ResolveTask finds a task by numeric id or by task type name.
func ResolveTask(tasks []models.Task, ref string) (models.Task, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		for _, t := range tasks {
			if t.ID == id {
				return t, nil
			}
		}
		return models.Task{}, apperrors.NotFound("task", id)
	}
	tt, ok := models.ParseTaskType(strings.ToLower(ref))
	if !ok {
		return models.Task{}, fmt.Errorf("%w: unknown task %q", apperrors.ErrInvalidValue, ref)
	}
	for _, t := range tasks {
		if t.Type == tt {
			return t, nil
		}
	}
	return models.Task{}, apperrors.NotFound("task", ref)
}
