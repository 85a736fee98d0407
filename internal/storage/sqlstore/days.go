package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/models"
)

const dayColumns = "id, date, status, notes"

type scanner interface {
	Scan(dest ...any) error
}

func scanDay(row scanner) (models.Day, error) {
	var d models.Day
	var status string
	var notes sql.NullString
	if err := row.Scan(&d.ID, &d.Date, &status, &notes); err != nil {
		return models.Day{}, err
	}
	d.Status = models.DayStatus(status)
	if !d.Status.Valid() {
		return models.Day{}, fmt.Errorf("day %d has unknown status %q", d.ID, status)
	}
	d.Notes = stringPtr(notes)
	return d, nil
}

func (q *Queries) InsertDay(ctx context.Context, day models.Day) error {
	_, err := q.exec(ctx,
		"INSERT INTO days (id, date, status, notes) VALUES (?, ?, ?, ?)",
		day.ID, day.Date, string(day.Status), nullString(day.Notes))
	if err != nil {
		return apperrors.StorageFault("insert day", err)
	}
	return nil
}

func (q *Queries) GetDay(ctx context.Context, id int) (models.Day, error) {
	d, err := scanDay(q.queryRow(ctx, "SELECT "+dayColumns+" FROM days WHERE id = ?", id))
	if err != nil {
		return models.Day{}, rowErr("get day", "day", id, err)
	}
	return d, nil
}

// GetDayByStatus returns the lowest-numbered day with the given status.
func (q *Queries) GetDayByStatus(ctx context.Context, status models.DayStatus) (models.Day, error) {
	d, err := scanDay(q.queryRow(ctx,
		"SELECT "+dayColumns+" FROM days WHERE status = ? ORDER BY id LIMIT 1", string(status)))
	if err != nil {
		return models.Day{}, rowErr("get day by status", "day with status", status, err)
	}
	return d, nil
}

func (q *Queries) ListDays(ctx context.Context) ([]models.Day, error) {
	rows, err := q.query(ctx, "SELECT "+dayColumns+" FROM days ORDER BY id")
	if err != nil {
		return nil, apperrors.StorageFault("list days", err)
	}
	defer rows.Close()

	days := []models.Day{}
	for rows.Next() {
		d, err := scanDay(rows)
		if err != nil {
			return nil, apperrors.StorageFault("list days", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StorageFault("list days", err)
	}
	return days, nil
}

func (q *Queries) UpdateDayStatus(ctx context.Context, id int, status models.DayStatus) error {
	return q.update(ctx, "update day status", "day", id,
		"UPDATE days SET status = ? WHERE id = ?", string(status), id)
}

func (q *Queries) UpdateDayNotes(ctx context.Context, id int, notes string) error {
	return q.update(ctx, "update day notes", "day", id,
		"UPDATE days SET notes = ? WHERE id = ?", notes, id)
}

func (q *Queries) DeleteAllDays(ctx context.Context) error {
	if _, err := q.exec(ctx, "DELETE FROM days"); err != nil {
		return apperrors.StorageFault("delete days", err)
	}
	return nil
}
