package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/hard75/internal/models"
)

type fakeSession struct {
	day       *models.Day
	tasks     []models.Task
	todos     []models.CustomTodoWithSubtasks
	days      []models.Day
	restarted int
	toggled   []int64
	todoOps   []string
}

func newFakeSession(status models.DayStatus) *fakeSession {
	day := models.Day{ID: 3, Date: "2026-03-03", Status: status}
	s := &fakeSession{day: &day, days: []models.Day{
		{ID: 1, Date: "2026-03-01", Status: models.DayCompleted},
		{ID: 2, Date: "2026-03-02", Status: models.DayCompleted},
		day,
	}}
	for i, dt := range models.DailyTasks {
		s.tasks = append(s.tasks, models.Task{ID: int64(i + 1), DayID: 3, Type: dt.Type, Value: dt.Value})
	}
	s.todos = []models.CustomTodoWithSubtasks{{
		CustomTodo: models.CustomTodo{ID: 50, DayID: 3, Title: "Meal prep"},
		Subtasks:   []models.Subtask{{ID: 60, TodoID: 50, Content: "Buy rice"}},
	}}
	return s
}

func (s *fakeSession) CurrentDay() (models.Day, bool) {
	if s.day == nil {
		return models.Day{}, false
	}
	return *s.day, true
}
func (s *fakeSession) TodayTasks() []models.Task                    { return append([]models.Task{}, s.tasks...) }
func (s *fakeSession) CustomTodos() []models.CustomTodoWithSubtasks { return s.todos }
func (s *fakeSession) DaysPath() []models.Day                       { return s.days }
func (s *fakeSession) GalleryImages() []models.GalleryImage         { return nil }

func (s *fakeSession) ToggleTask(taskID int64) error {
	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			s.tasks[i].Completed = !s.tasks[i].Completed
			s.toggled = append(s.toggled, taskID)
			return nil
		}
	}
	return errors.New("no such task")
}

func (s *fakeSession) CompleteTaskWithValue(taskID int64, value string) error {
	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			s.tasks[i].Completed = true
			s.tasks[i].Value = value
			return nil
		}
	}
	return errors.New("no such task")
}

func (s *fakeSession) RestartChallenge(ctx context.Context) error {
	s.restarted++
	return nil
}
func (s *fakeSession) SaveJournal(ctx context.Context, note string) error { return nil }
func (s *fakeSession) AddCustomTodo(ctx context.Context, title string, description *string) (int64, error) {
	s.todoOps = append(s.todoOps, "add "+title)
	return 51, nil
}
func (s *fakeSession) ToggleCustomTodo(ctx context.Context, todoID int64) error {
	s.todoOps = append(s.todoOps, "toggle todo")
	return nil
}
func (s *fakeSession) DeleteCustomTodo(ctx context.Context, todoID int64) error {
	s.todoOps = append(s.todoOps, "delete todo")
	return nil
}
func (s *fakeSession) AddSubtask(ctx context.Context, todoID int64, content string) (int64, error) {
	s.todoOps = append(s.todoOps, "add subtask")
	return 61, nil
}
func (s *fakeSession) ToggleSubtask(ctx context.Context, subtaskID int64) error {
	s.todoOps = append(s.todoOps, "toggle subtask")
	return nil
}
func (s *fakeSession) DeleteSubtask(ctx context.Context, subtaskID int64) error {
	s.todoOps = append(s.todoOps, "delete subtask")
	return nil
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return model, cmd
}

// drain runs a command and feeds its message back into the model.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	msg := cmd()
	if _, ok := msg.(opResultMsg); !ok {
		return m
	}
	m, _ = press(t, m, msg)
	return m
}

func TestToggleTask(t *testing.T) {
	sess := newFakeSession(models.DayActive)
	m := NewModel(sess, func() error { return nil })

	m, _ = press(t, m, keyRunes("j"))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, m, cmd)

	if len(sess.toggled) != 1 || sess.toggled[0] != 2 {
		t.Fatalf("expected task 2 toggled, got %v", sess.toggled)
	}
	if m.err != "" {
		t.Errorf("unexpected error: %s", m.err)
	}
	if !strings.Contains(m.View(), "[x]") {
		t.Error("expected toggled task rendered as done")
	}
}

func TestToggleTask_WriteFailureShown(t *testing.T) {
	sess := newFakeSession(models.DayActive)
	m := NewModel(sess, func() error { return errors.New("disk full") })

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	m = drain(t, m, cmd)

	if !strings.Contains(m.err, "disk full") {
		t.Errorf("expected write failure reported, got %q", m.err)
	}
	if !strings.Contains(m.View(), "disk full") {
		t.Error("expected failure in the status line")
	}
}

func TestPictureTaskOpensForm(t *testing.T) {
	sess := newFakeSession(models.DayActive)
	m := NewModel(sess, nil)

	for range len(models.DailyTasks) - 1 {
		m, _ = press(t, m, keyRunes("j"))
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.state != StateForm || m.input == nil || m.input.kind != formPicture {
		t.Fatalf("expected picture form, got state %v", m.state)
	}
	if len(sess.toggled) != 0 {
		t.Error("picture task must not be toggled without a file")
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.state != StateToday {
		t.Errorf("expected esc to return to Today, got %v", m.state)
	}
}

func TestCustomTodoRows(t *testing.T) {
	sess := newFakeSession(models.DayActive)
	m := NewModel(sess, nil)

	rows := m.items()
	if len(rows) != len(models.DailyTasks)+2 {
		t.Fatalf("expected tasks plus todo and subtask rows, got %d", len(rows))
	}

	for range len(models.DailyTasks) {
		m, _ = press(t, m, keyRunes("j"))
	}
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, m, cmd)
	m, _ = press(t, m, keyRunes("j"))
	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	drain(t, m, cmd)

	want := []string{"toggle todo", "toggle subtask"}
	if strings.Join(sess.todoOps, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, sess.todoOps)
	}
}

func TestFailedDayBlocksTasks(t *testing.T) {
	sess := newFakeSession(models.DayFailed)
	m := NewModel(sess, nil)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(sess.toggled) != 0 {
		t.Error("expected toggling to be blocked on a failed day")
	}
	if !strings.Contains(m.View(), "was missed") {
		t.Error("expected missed-day banner")
	}

	m, _ = press(t, m, keyRunes("R"))
	if m.state != StateForm || m.input.kind != formConfirmRestart {
		t.Fatalf("expected restart confirmation, got state %v", m.state)
	}
}

func TestRestartWithoutChallenge(t *testing.T) {
	sess := newFakeSession(models.DayActive)
	sess.day = nil
	m := NewModel(sess, nil)

	if !strings.Contains(m.View(), "No challenge in progress") {
		t.Error("expected empty state")
	}
	m, cmd := press(t, m, keyRunes("R"))
	m = drain(t, m, cmd)
	if sess.restarted != 1 {
		t.Errorf("expected challenge started, got %d restarts", sess.restarted)
	}
	if m.status != "Challenge started" {
		t.Errorf("unexpected status %q", m.status)
	}
}

func TestTabsCycle(t *testing.T) {
	m := NewModel(newFakeSession(models.DayActive), nil)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.state != StatePath {
		t.Fatalf("expected Path tab, got %v", m.state)
	}
	if !strings.Contains(m.View(), "[ 3]") {
		t.Error("expected current day marked on the path")
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.state != StateGallery {
		t.Fatalf("expected Gallery tab, got %v", m.state)
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.state != StateToday {
		t.Errorf("expected Today tab, got %v", m.state)
	}
}
