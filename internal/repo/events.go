package repo

import (
	"context"
	"database/sql"

	"volunteerflow/internal/domain"
)

const eventColumns = `id,title,description,start_at,end_at,location,created_by_admin_id,created_at`

func insertEvent(ctx context.Context, ex execer, e domain.Event) (int64, error) {
	res, err := ex.ExecContext(ctx, `INSERT INTO events(title,description,start_at,end_at,location,created_by_admin_id,created_at) VALUES (?,?,?,?,?,?,?)`,
		e.Title, nullable(e.Description), e.StartAt, e.EndAt, nullable(e.Location), e.CreatedByAdminID, e.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) InsertEvent(ctx context.Context, e domain.Event) (int64, error) {
	return insertEvent(ctx, r.DB, e)
}

func (r Repo) InsertEventTx(ctx context.Context, tx *sql.Tx, e domain.Event) (int64, error) {
	return insertEvent(ctx, tx, e)
}

func scanEvent(scan func(dest ...any) error) (domain.Event, error) {
	var e domain.Event
	var description, location sql.NullString
	err := scan(&e.ID, &e.Title, &description, &e.StartAt, &e.EndAt, &location, &e.CreatedByAdminID, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	if err != nil {
		return e, err
	}
	if description.Valid {
		e.Description = description.String
	}
	if location.Valid {
		e.Location = location.String
	}
	return e, nil
}

func (r Repo) GetEvent(ctx context.Context, id int64) (domain.Event, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id=?`, id)
	return scanEvent(row.Scan)
}

func (r Repo) ListEvents(ctx context.Context) ([]domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY start_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

const participationColumns = `id,event_id,volunteer_id,response,occurrence_report,occurrence_notes,created_at`

func (r Repo) InsertParticipationTx(ctx context.Context, tx *sql.Tx, p domain.EventParticipation) (int64, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO event_participations(event_id,volunteer_id,response,occurrence_report,occurrence_notes,created_at) VALUES (?,?,?,?,?,?)`,
		p.EventID, p.VolunteerID, string(p.Response), string(p.OccurrenceReport), nullableStringPtr(p.OccurrenceNotes), p.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) UpdateParticipationTx(ctx context.Context, tx *sql.Tx, p domain.EventParticipation) error {
	_, err := tx.ExecContext(ctx, `UPDATE event_participations SET response=?, occurrence_report=?, occurrence_notes=? WHERE id=?`,
		string(p.Response), string(p.OccurrenceReport), nullableStringPtr(p.OccurrenceNotes), p.ID)
	return err
}

func scanParticipation(scan func(dest ...any) error) (domain.EventParticipation, error) {
	var p domain.EventParticipation
	var response, report string
	var notes sql.NullString
	err := scan(&p.ID, &p.EventID, &p.VolunteerID, &response, &report, &notes, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if p.Response, err = domain.ParseResponse(response); err != nil {
		return p, err
	}
	if p.OccurrenceReport, err = domain.ParseOccurrenceReport(report); err != nil {
		return p, err
	}
	if notes.Valid {
		p.OccurrenceNotes = &notes.String
	}
	return p, nil
}

func (r Repo) GetParticipation(ctx context.Context, id int64) (domain.EventParticipation, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+participationColumns+` FROM event_participations WHERE id=?`, id)
	return scanParticipation(row.Scan)
}

func (r Repo) GetParticipationTx(ctx context.Context, tx *sql.Tx, id int64) (domain.EventParticipation, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+participationColumns+` FROM event_participations WHERE id=?`, id)
	return scanParticipation(row.Scan)
}

func (r Repo) GetParticipationByPairTx(ctx context.Context, tx *sql.Tx, eventID, volunteerID int64) (domain.EventParticipation, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+participationColumns+` FROM event_participations WHERE event_id=? AND volunteer_id=?`, eventID, volunteerID)
	return scanParticipation(row.Scan)
}

func (r Repo) ListParticipationsByEvent(ctx context.Context, eventID int64) ([]domain.EventParticipation, error) {
	return r.listParticipations(ctx, `event_id=?`, eventID)
}

func (r Repo) ListParticipationsByVolunteer(ctx context.Context, volunteerID int64) ([]domain.EventParticipation, error) {
	return r.listParticipations(ctx, `volunteer_id=?`, volunteerID)
}

// ListHappenedParticipations returns participations the volunteer reported as happened.
func (r Repo) ListHappenedParticipations(ctx context.Context, volunteerID int64) ([]domain.EventParticipation, error) {
	return r.listParticipations(ctx, `volunteer_id=? AND occurrence_report='Happened'`, volunteerID)
}

func (r Repo) listParticipations(ctx context.Context, where string, args ...any) ([]domain.EventParticipation, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+participationColumns+` FROM event_participations WHERE `+where+` ORDER BY id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.EventParticipation
	for rows.Next() {
		p, err := scanParticipation(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}
