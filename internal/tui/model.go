package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/session"
)

type SessionState int

const (
	StateToday SessionState = iota
	StatePath
	StateGallery
	StateForm
)

var tabTitles = []string{"Today", "Path", "Gallery"}

type formKind int

const (
	formPicture formKind = iota
	formJournal
	formAddTodo
	formAddSubtask
	formConfirmDelete
	formConfirmRestart
)

// formInput holds the values bound to the open huh form. It lives behind a
// pointer so the bindings survive Model copies.
type formInput struct {
	kind      formKind
	value     string
	confirmed bool
	target    item
}

type itemKind int

const (
	itemTask itemKind = iota
	itemTodo
	itemSubtask
)

// item is one selectable row of the Today tab.
type item struct {
	kind   itemKind
	id     int64
	todoID int64
	label  string
	done   bool
	task   models.Task
}

// opResultMsg reports a finished background operation.
type opResultMsg struct {
	status string
	err    error
}

// Session is the part of the session cache the TUI drives.
type Session interface {
	CurrentDay() (models.Day, bool)
	TodayTasks() []models.Task
	CustomTodos() []models.CustomTodoWithSubtasks
	DaysPath() []models.Day
	GalleryImages() []models.GalleryImage

	ToggleTask(taskID int64) error
	CompleteTaskWithValue(taskID int64, value string) error

	RestartChallenge(ctx context.Context) error
	SaveJournal(ctx context.Context, note string) error
	AddCustomTodo(ctx context.Context, title string, description *string) (int64, error)
	ToggleCustomTodo(ctx context.Context, todoID int64) error
	DeleteCustomTodo(ctx context.Context, todoID int64) error
	AddSubtask(ctx context.Context, todoID int64, content string) (int64, error)
	ToggleSubtask(ctx context.Context, subtaskID int64) error
	DeleteSubtask(ctx context.Context, subtaskID int64) error
}

var _ Session = (*session.Cache)(nil)

type Model struct {
	sess     Session
	settle   func() error
	state    SessionState
	previous SessionState
	keys     KeyMap
	help     help.Model
	cursor   int
	form     *huh.Form
	input    *formInput
	status   string
	err      string
	width    int
	height   int
	quitting bool
}

// NewModel builds the TUI over a loaded session. settle waits for queued
// task writes and returns those that failed.
func NewModel(sess Session, settle func() error) Model {
	return Model{
		sess:   sess,
		settle: settle,
		state:  StateToday,
		keys:   DefaultKeyMap(),
		help:   help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// items flattens today's tasks, custom todos and subtasks into rows.
func (m Model) items() []item {
	var rows []item
	for _, t := range m.sess.TodayTasks() {
		rows = append(rows, item{kind: itemTask, id: t.ID, label: t.Value, done: t.Completed, task: t})
	}
	for _, todo := range m.sess.CustomTodos() {
		rows = append(rows, item{kind: itemTodo, id: todo.ID, todoID: todo.ID, label: todo.Title, done: todo.Completed})
		for _, st := range todo.Subtasks {
			rows = append(rows, item{kind: itemSubtask, id: st.ID, todoID: todo.ID, label: st.Content, done: st.Completed})
		}
	}
	return rows
}

func (m Model) selected() (item, bool) {
	rows := m.items()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return item{}, false
	}
	return rows[m.cursor], true
}

// blocked reports whether the Today tab only offers a restart.
func (m Model) blocked() bool {
	day, ok := m.sess.CurrentDay()
	return !ok || day.Status == models.DayFailed
}
