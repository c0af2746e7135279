package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"volunteerflow/internal/audit"
	"volunteerflow/internal/domain"
	"volunteerflow/internal/repo"
)

// MeetingCreateOptions are parameters for scheduling a meeting.
type MeetingCreateOptions struct {
	Title          string
	Description    string
	StartAt        string
	EndAt          string
	LocationOrLink string
	ActorID        int64
}

func validateSchedule(startAt, endAt string) (string, string, error) {
	start, err := parseRFC3339("start_at", startAt)
	if err != nil {
		return "", "", err
	}
	end, err := parseRFC3339("end_at", endAt)
	if err != nil {
		return "", "", err
	}
	if !end.After(start) {
		return "", "", fmt.Errorf("%w: end_at must be after start_at", ErrInvalidArgument)
	}
	return start.UTC().Format(rfc3339Layout), end.UTC().Format(rfc3339Layout), nil
}

func (e Engine) CreateMeeting(ctx context.Context, opts MeetingCreateOptions) (domain.Meeting, error) {
	admin, err := e.requireAdmin(ctx, opts.ActorID)
	if err != nil {
		return domain.Meeting{}, err
	}
	if strings.TrimSpace(opts.Title) == "" {
		return domain.Meeting{}, fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}
	start, end, err := validateSchedule(opts.StartAt, opts.EndAt)
	if err != nil {
		return domain.Meeting{}, err
	}
	m := domain.Meeting{
		Title:            strings.TrimSpace(opts.Title),
		Description:      strings.TrimSpace(opts.Description),
		StartAt:          start,
		EndAt:            end,
		LocationOrLink:   strings.TrimSpace(opts.LocationOrLink),
		CreatedByAdminID: admin.ID,
		CreatedAt:        e.nowRFC3339(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Meeting{}, err
	}
	defer tx.Rollback()
	id, err := e.Repo.InsertMeetingTx(ctx, tx, m)
	if err != nil {
		return domain.Meeting{}, err
	}
	m.ID = id
	if err := e.Audit.Append(ctx, tx, "meeting.created", "meeting", itoa(id), admin.ID, audit.Payload{"title": m.Title}); err != nil {
		return domain.Meeting{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Meeting{}, err
	}
	return m, nil
}

// InviteToMeeting creates Pending invitations for the given volunteers.
// Inviting is idempotent: IDs that are unknown, not volunteers, or already
// invited are skipped without failing the batch. Returns the invitations
// created by this call.
func (e Engine) InviteToMeeting(ctx context.Context, meetingID int64, volunteerIDs []int64, actorID int64) ([]domain.MeetingInvitation, error) {
	if _, err := e.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if _, err := e.Repo.GetMeeting(ctx, meetingID); err != nil {
		return nil, fmt.Errorf("meeting %d: %w", meetingID, err)
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	var created []domain.MeetingInvitation
	for _, vid := range volunteerIDs {
		u, err := e.Repo.GetUser(ctx, vid)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if u.Role != domain.RoleVolunteer {
			continue
		}
		if _, err := e.Repo.GetInvitationByPairTx(ctx, tx, meetingID, vid); err == nil {
			continue
		} else if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
		inv := domain.MeetingInvitation{
			MeetingID:   meetingID,
			VolunteerID: vid,
			Response:    domain.ResponsePending,
			CreatedAt:   e.nowRFC3339(),
		}
		id, err := e.Repo.InsertInvitationTx(ctx, tx, inv)
		if err != nil {
			return nil, err
		}
		inv.ID = id
		created = append(created, inv)
	}
	if len(created) > 0 {
		ids := make([]int64, 0, len(created))
		for _, inv := range created {
			ids = append(ids, inv.VolunteerID)
		}
		if err := e.Audit.Append(ctx, tx, "meeting.invited", "meeting", itoa(meetingID), actorID, audit.Payload{"volunteer_ids": ids}); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

// RespondToInvitation records a volunteer's Going/NotGoing reply. Replies are
// last-write-wins; Pending cannot be submitted back.
func (e Engine) RespondToInvitation(ctx context.Context, invitationID, volunteerID int64, response domain.Response) (domain.MeetingInvitation, error) {
	parsed, err := domain.ParseResponse(string(response))
	if err != nil {
		return domain.MeetingInvitation{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if parsed == domain.ResponsePending {
		return domain.MeetingInvitation{}, fmt.Errorf("%w: response must be Going or NotGoing", ErrInvalidArgument)
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.MeetingInvitation{}, err
	}
	defer tx.Rollback()
	inv, err := e.Repo.GetInvitationTx(ctx, tx, invitationID)
	if err != nil {
		return domain.MeetingInvitation{}, fmt.Errorf("invitation %d: %w", invitationID, err)
	}
	if inv.VolunteerID != volunteerID {
		return domain.MeetingInvitation{}, fmt.Errorf("%w: invitation %d", ErrNotOwner, invitationID)
	}
	inv.Response = parsed
	if err := e.Repo.UpdateInvitationTx(ctx, tx, inv); err != nil {
		return domain.MeetingInvitation{}, err
	}
	if err := e.Audit.Append(ctx, tx, "invitation.responded", "invitation", itoa(inv.ID), volunteerID, audit.Payload{"response": parsed}); err != nil {
		return domain.MeetingInvitation{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.MeetingInvitation{}, err
	}
	return inv, nil
}

// MarkAttendance sets the admin-recorded attendance flag. Attendance is
// independent of the volunteer's response and may be re-marked.
func (e Engine) MarkAttendance(ctx context.Context, invitationID int64, attended bool, actorID int64) (domain.MeetingInvitation, error) {
	if _, err := e.requireAdmin(ctx, actorID); err != nil {
		return domain.MeetingInvitation{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.MeetingInvitation{}, err
	}
	defer tx.Rollback()
	inv, err := e.Repo.GetInvitationTx(ctx, tx, invitationID)
	if err != nil {
		return domain.MeetingInvitation{}, fmt.Errorf("invitation %d: %w", invitationID, err)
	}
	markedAt := e.nowRFC3339()
	inv.Attended = &attended
	inv.AttendanceMarkedAt = &markedAt
	if err := e.Repo.UpdateInvitationTx(ctx, tx, inv); err != nil {
		return domain.MeetingInvitation{}, err
	}
	if err := e.Audit.Append(ctx, tx, "invitation.attendance_marked", "invitation", itoa(inv.ID), actorID, audit.Payload{"attended": attended}); err != nil {
		return domain.MeetingInvitation{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.MeetingInvitation{}, err
	}
	return inv, nil
}
