package repo

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"volunteerflow/internal/domain"
)

func insertTask(ctx context.Context, ex execer, t domain.Task) (int64, error) {
	res, err := ex.ExecContext(ctx, `INSERT INTO tasks(title,description,estimated_hours,deadline,created_by_admin_id,created_at) VALUES (?,?,?,?,?,?)`,
		t.Title, nullable(t.Description), t.EstimatedHours.String(), t.Deadline, t.CreatedByAdminID, t.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) InsertTask(ctx context.Context, t domain.Task) (int64, error) {
	return insertTask(ctx, r.DB, t)
}

func (r Repo) InsertTaskTx(ctx context.Context, tx *sql.Tx, t domain.Task) (int64, error) {
	return insertTask(ctx, tx, t)
}

func updateTask(ctx context.Context, ex execer, t domain.Task) error {
	res, err := ex.ExecContext(ctx, `UPDATE tasks SET title=?, description=?, estimated_hours=?, deadline=? WHERE id=?`,
		t.Title, nullable(t.Description), t.EstimatedHours.String(), t.Deadline, t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) UpdateTask(ctx context.Context, t domain.Task) error {
	return updateTask(ctx, r.DB, t)
}

func (r Repo) UpdateTaskTx(ctx context.Context, tx *sql.Tx, t domain.Task) error {
	return updateTask(ctx, tx, t)
}

func deleteTask(ctx context.Context, ex execer, id int64) error {
	res, err := ex.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteTask(ctx context.Context, id int64) error {
	return deleteTask(ctx, r.DB, id)
}

func (r Repo) DeleteTaskTx(ctx context.Context, tx *sql.Tx, id int64) error {
	return deleteTask(ctx, tx, id)
}

func scanTask(scan func(dest ...any) error) (domain.Task, error) {
	var t domain.Task
	var description sql.NullString
	var estimated string
	err := scan(&t.ID, &t.Title, &description, &estimated, &t.Deadline, &t.CreatedByAdminID, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	if description.Valid {
		t.Description = description.String
	}
	t.EstimatedHours, err = decimal.NewFromString(estimated)
	return t, err
}

const taskColumns = `id,title,description,estimated_hours,deadline,created_by_admin_id,created_at`

func (r Repo) GetTask(ctx context.Context, id int64) (domain.Task, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id)
	return scanTask(row.Scan)
}

func (r Repo) ListTasks(ctx context.Context) ([]domain.Task, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

const assignmentColumns = `id,task_id,volunteer_id,status,decline_reason,completed_at,worked_hours,notes,created_at`

func (r Repo) InsertAssignmentTx(ctx context.Context, tx *sql.Tx, a domain.TaskAssignment) (int64, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO task_assignments(task_id,volunteer_id,status,decline_reason,completed_at,worked_hours,notes,created_at) VALUES (?,?,?,?,?,?,?,?)`,
		a.TaskID, a.VolunteerID, string(a.Status), nullableStringPtr(a.DeclineReason), nullableStringPtr(a.CompletedAt), nullableDecimalPtr(a.WorkedHours), nullableStringPtr(a.Notes), a.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) UpdateAssignmentTx(ctx context.Context, tx *sql.Tx, a domain.TaskAssignment) error {
	_, err := tx.ExecContext(ctx, `UPDATE task_assignments SET status=?, decline_reason=?, completed_at=?, worked_hours=?, notes=? WHERE id=?`,
		string(a.Status), nullableStringPtr(a.DeclineReason), nullableStringPtr(a.CompletedAt), nullableDecimalPtr(a.WorkedHours), nullableStringPtr(a.Notes), a.ID)
	return err
}

func scanAssignment(scan func(dest ...any) error) (domain.TaskAssignment, error) {
	var a domain.TaskAssignment
	var status string
	var declineReason, completedAt, workedHours, notes sql.NullString
	err := scan(&a.ID, &a.TaskID, &a.VolunteerID, &status, &declineReason, &completedAt, &workedHours, &notes, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	if err != nil {
		return a, err
	}
	if a.Status, err = domain.ParseAssignmentStatus(status); err != nil {
		return a, err
	}
	if declineReason.Valid {
		a.DeclineReason = &declineReason.String
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.String
	}
	if workedHours.Valid {
		d, err := decimal.NewFromString(workedHours.String)
		if err != nil {
			return a, err
		}
		a.WorkedHours = &d
	}
	if notes.Valid {
		a.Notes = &notes.String
	}
	return a, nil
}

func (r Repo) GetAssignment(ctx context.Context, id int64) (domain.TaskAssignment, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+assignmentColumns+` FROM task_assignments WHERE id=?`, id)
	return scanAssignment(row.Scan)
}

func (r Repo) GetAssignmentTx(ctx context.Context, tx *sql.Tx, id int64) (domain.TaskAssignment, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+assignmentColumns+` FROM task_assignments WHERE id=?`, id)
	return scanAssignment(row.Scan)
}

func (r Repo) GetAssignmentByPairTx(ctx context.Context, tx *sql.Tx, taskID, volunteerID int64) (domain.TaskAssignment, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+assignmentColumns+` FROM task_assignments WHERE task_id=? AND volunteer_id=?`, taskID, volunteerID)
	return scanAssignment(row.Scan)
}

// AssignmentFilters narrows ListAssignments. Zero values match everything.
type AssignmentFilters struct {
	TaskID      int64
	VolunteerID int64
	Status      domain.AssignmentStatus
}

func (r Repo) ListAssignments(ctx context.Context, f AssignmentFilters) ([]domain.TaskAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM task_assignments WHERE 1=1`
	var args []any
	if f.TaskID != 0 {
		query += ` AND task_id=?`
		args = append(args, f.TaskID)
	}
	if f.VolunteerID != 0 {
		query += ` AND volunteer_id=?`
		args = append(args, f.VolunteerID)
	}
	if f.Status != "" {
		query += ` AND status=?`
		args = append(args, string(f.Status))
	}
	query += ` ORDER BY id ASC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.TaskAssignment
	for rows.Next() {
		a, err := scanAssignment(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func nullableDecimalPtr(v *decimal.Decimal) any {
	if v == nil {
		return nil
	}
	return v.String()
}
