package repo

import (
	"context"
	"database/sql"

	"volunteerflow/internal/domain"
)

const meetingColumns = `id,title,description,start_at,end_at,location_or_link,created_by_admin_id,created_at`

func insertMeeting(ctx context.Context, ex execer, m domain.Meeting) (int64, error) {
	res, err := ex.ExecContext(ctx, `INSERT INTO meetings(title,description,start_at,end_at,location_or_link,created_by_admin_id,created_at) VALUES (?,?,?,?,?,?,?)`,
		m.Title, nullable(m.Description), m.StartAt, m.EndAt, nullable(m.LocationOrLink), m.CreatedByAdminID, m.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) InsertMeeting(ctx context.Context, m domain.Meeting) (int64, error) {
	return insertMeeting(ctx, r.DB, m)
}

func (r Repo) InsertMeetingTx(ctx context.Context, tx *sql.Tx, m domain.Meeting) (int64, error) {
	return insertMeeting(ctx, tx, m)
}

func scanMeeting(scan func(dest ...any) error) (domain.Meeting, error) {
	var m domain.Meeting
	var description, location sql.NullString
	err := scan(&m.ID, &m.Title, &description, &m.StartAt, &m.EndAt, &location, &m.CreatedByAdminID, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return m, ErrNotFound
	}
	if err != nil {
		return m, err
	}
	if description.Valid {
		m.Description = description.String
	}
	if location.Valid {
		m.LocationOrLink = location.String
	}
	return m, nil
}

func (r Repo) GetMeeting(ctx context.Context, id int64) (domain.Meeting, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id=?`, id)
	return scanMeeting(row.Scan)
}

func (r Repo) ListMeetings(ctx context.Context) ([]domain.Meeting, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+meetingColumns+` FROM meetings ORDER BY start_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

const invitationColumns = `id,meeting_id,volunteer_id,response,attended,attendance_marked_at,created_at`

func (r Repo) InsertInvitationTx(ctx context.Context, tx *sql.Tx, inv domain.MeetingInvitation) (int64, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO meeting_invitations(meeting_id,volunteer_id,response,attended,attendance_marked_at,created_at) VALUES (?,?,?,?,?,?)`,
		inv.MeetingID, inv.VolunteerID, string(inv.Response), nullableBoolPtr(inv.Attended), nullableStringPtr(inv.AttendanceMarkedAt), inv.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) UpdateInvitationTx(ctx context.Context, tx *sql.Tx, inv domain.MeetingInvitation) error {
	_, err := tx.ExecContext(ctx, `UPDATE meeting_invitations SET response=?, attended=?, attendance_marked_at=? WHERE id=?`,
		string(inv.Response), nullableBoolPtr(inv.Attended), nullableStringPtr(inv.AttendanceMarkedAt), inv.ID)
	return err
}

func scanInvitation(scan func(dest ...any) error) (domain.MeetingInvitation, error) {
	var inv domain.MeetingInvitation
	var response string
	var attended sql.NullBool
	var markedAt sql.NullString
	err := scan(&inv.ID, &inv.MeetingID, &inv.VolunteerID, &response, &attended, &markedAt, &inv.CreatedAt)
	if err == sql.ErrNoRows {
		return inv, ErrNotFound
	}
	if err != nil {
		return inv, err
	}
	if inv.Response, err = domain.ParseResponse(response); err != nil {
		return inv, err
	}
	if attended.Valid {
		inv.Attended = &attended.Bool
	}
	if markedAt.Valid {
		inv.AttendanceMarkedAt = &markedAt.String
	}
	return inv, nil
}

func (r Repo) GetInvitation(ctx context.Context, id int64) (domain.MeetingInvitation, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+invitationColumns+` FROM meeting_invitations WHERE id=?`, id)
	return scanInvitation(row.Scan)
}

func (r Repo) GetInvitationTx(ctx context.Context, tx *sql.Tx, id int64) (domain.MeetingInvitation, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+invitationColumns+` FROM meeting_invitations WHERE id=?`, id)
	return scanInvitation(row.Scan)
}

func (r Repo) GetInvitationByPairTx(ctx context.Context, tx *sql.Tx, meetingID, volunteerID int64) (domain.MeetingInvitation, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+invitationColumns+` FROM meeting_invitations WHERE meeting_id=? AND volunteer_id=?`, meetingID, volunteerID)
	return scanInvitation(row.Scan)
}

func (r Repo) ListInvitationsByMeeting(ctx context.Context, meetingID int64) ([]domain.MeetingInvitation, error) {
	return r.listInvitations(ctx, `meeting_id=?`, meetingID)
}

func (r Repo) ListInvitationsByVolunteer(ctx context.Context, volunteerID int64) ([]domain.MeetingInvitation, error) {
	return r.listInvitations(ctx, `volunteer_id=?`, volunteerID)
}

// ListAttendedInvitations returns invitations the admin marked attended.
func (r Repo) ListAttendedInvitations(ctx context.Context, volunteerID int64) ([]domain.MeetingInvitation, error) {
	return r.listInvitations(ctx, `volunteer_id=? AND attended=1`, volunteerID)
}

func (r Repo) listInvitations(ctx context.Context, where string, args ...any) ([]domain.MeetingInvitation, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+invitationColumns+` FROM meeting_invitations WHERE `+where+` ORDER BY id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.MeetingInvitation
	for rows.Next() {
		inv, err := scanInvitation(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, inv)
	}
	return res, rows.Err()
}

func nullableBoolPtr(v *bool) any {
	if v == nil {
		return nil
	}
	return *v
}
