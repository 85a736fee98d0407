package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/hard75/internal/challenge"
	"github.com/julianstephens/hard75/internal/constants"
	"github.com/julianstephens/hard75/internal/models"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case opResultMsg:
		if msg.err != nil {
			m.err = msg.err.Error()
			m.status = ""
		} else {
			m.err = ""
			m.status = msg.status
		}
		m.clampCursor()
		return m, nil
	}

	if m.state == StateForm {
		return m.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(keyMsg, m.keys.Tab):
		m.state = (m.state + 1) % SessionState(len(tabTitles))
		return m, nil
	case key.Matches(keyMsg, m.keys.ShiftTab):
		m.state = (m.state - 1 + SessionState(len(tabTitles))) % SessionState(len(tabTitles))
		return m, nil
	case key.Matches(keyMsg, m.keys.Restart):
		if _, ok := m.sess.CurrentDay(); !ok {
			return m, m.run("Challenge started", m.restart)
		}
		return m.openForm(formConfirmRestart, item{})
	}

	if m.state != StateToday || m.blocked() {
		return m, nil
	}
	return m.updateToday(keyMsg)
}

func (m Model) updateToday(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items())-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m.toggle(it)
	case key.Matches(msg, m.keys.Journal):
		return m.openForm(formJournal, item{})
	case key.Matches(msg, m.keys.AddTodo):
		return m.openForm(formAddTodo, item{})
	case key.Matches(msg, m.keys.AddSubtask):
		if it, ok := m.selected(); ok && it.kind != itemTask {
			return m.openForm(formAddSubtask, it)
		}
	case key.Matches(msg, m.keys.Delete):
		if it, ok := m.selected(); ok && it.kind != itemTask {
			return m.openForm(formConfirmDelete, it)
		}
	}
	return m, nil
}

func (m Model) toggle(it item) (tea.Model, tea.Cmd) {
	switch it.kind {
	case itemTask:
		if it.task.Type == models.TaskPic && !it.done {
			return m.openForm(formPicture, it)
		}
		if err := m.sess.ToggleTask(it.id); err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.err = ""
		return m, m.settleCmd()
	case itemTodo:
		return m, m.run("", func(ctx context.Context) error { return m.sess.ToggleCustomTodo(ctx, it.id) })
	default:
		return m, m.run("", func(ctx context.Context) error { return m.sess.ToggleSubtask(ctx, it.id) })
	}
}

// settleCmd waits for queued task writes and reports failures.
func (m Model) settleCmd() tea.Cmd {
	settle := m.settle
	return func() tea.Msg {
		if settle == nil {
			return opResultMsg{}
		}
		if err := settle(); err != nil {
			return opResultMsg{err: fmt.Errorf("change was not saved and has been undone: %w", err)}
		}
		return opResultMsg{}
	}
}

// run performs a session mutation off the UI goroutine.
func (m Model) run(status string, op func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := op(context.Background()); err != nil {
			return opResultMsg{err: err}
		}
		return opResultMsg{status: status}
	}
}

func (m Model) restart(ctx context.Context) error {
	return m.sess.RestartChallenge(ctx)
}

func (m Model) openForm(kind formKind, target item) (tea.Model, tea.Cmd) {
	in := &formInput{kind: kind, target: target}
	var field huh.Field
	switch kind {
	case formPicture:
		in.value = constants.LocalFilePrefix
		field = huh.NewInput().
			Title("Progress picture").
			Description("Path to today's photo as a file:// reference").
			Value(&in.value).
			Validate(func(s string) error { return challenge.CheckValue(models.TaskPic, strings.TrimSpace(s)) })
	case formJournal:
		if day, ok := m.sess.CurrentDay(); ok && day.Notes != nil {
			in.value = *day.Notes
		}
		field = huh.NewText().
			Title("Journal").
			Value(&in.value)
	case formAddTodo:
		field = huh.NewInput().
			Title("New todo").
			Value(&in.value).
			Validate(required)
	case formAddSubtask:
		field = huh.NewInput().
			Title("New subtask").
			Value(&in.value).
			Validate(required)
	case formConfirmDelete:
		field = huh.NewConfirm().
			Title(fmt.Sprintf("Delete %q?", target.label)).
			Affirmative("Delete").
			Negative("Cancel").
			Value(&in.confirmed)
	case formConfirmRestart:
		field = huh.NewConfirm().
			Title("Restart from day 1? All progress is discarded.").
			Affirmative("Restart").
			Negative("Cancel").
			Value(&in.confirmed)
	}

	m.input = in
	m.form = huh.NewForm(huh.NewGroup(field)).WithShowHelp(false)
	m.previous = m.state
	m.state = StateForm
	return m, m.form.Init()
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("required")
	}
	return nil
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyEsc {
		m.closeForm()
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		submit := m.submit(m.input)
		m.closeForm()
		return m, tea.Batch(cmd, submit)
	case huh.StateAborted:
		m.closeForm()
		return m, nil
	}
	return m, cmd
}

func (m *Model) closeForm() {
	m.form = nil
	m.input = nil
	m.state = m.previous
}

func (m *Model) submit(in *formInput) tea.Cmd {
	value := strings.TrimSpace(in.value)
	switch in.kind {
	case formPicture:
		if err := m.sess.CompleteTaskWithValue(in.target.id, value); err != nil {
			m.err = err.Error()
			return nil
		}
		m.err = ""
		return m.settleCmd()
	case formJournal:
		return m.run("Journal saved", func(ctx context.Context) error { return m.sess.SaveJournal(ctx, in.value) })
	case formAddTodo:
		return m.run("Todo added", func(ctx context.Context) error {
			_, err := m.sess.AddCustomTodo(ctx, value, nil)
			return err
		})
	case formAddSubtask:
		return m.run("Subtask added", func(ctx context.Context) error {
			_, err := m.sess.AddSubtask(ctx, in.target.todoID, value)
			return err
		})
	case formConfirmDelete:
		if !in.confirmed {
			return nil
		}
		target := in.target
		return m.run("Deleted", func(ctx context.Context) error {
			if target.kind == itemTodo {
				return m.sess.DeleteCustomTodo(ctx, target.id)
			}
			return m.sess.DeleteSubtask(ctx, target.id)
		})
	case formConfirmRestart:
		if !in.confirmed {
			return nil
		}
		m.cursor = 0
		return m.run("Challenge restarted", m.restart)
	}
	return nil
}

func (m *Model) clampCursor() {
	n := len(m.items())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
