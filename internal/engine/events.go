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

// EventCreateOptions are parameters for scheduling an event.
type EventCreateOptions struct {
	Title       string
	Description string
	StartAt     string
	EndAt       string
	Location    string
	ActorID     int64
}

func (e Engine) CreateEvent(ctx context.Context, opts EventCreateOptions) (domain.Event, error) {
	admin, err := e.requireAdmin(ctx, opts.ActorID)
	if err != nil {
		return domain.Event{}, err
	}
	if strings.TrimSpace(opts.Title) == "" {
		return domain.Event{}, fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}
	start, end, err := validateSchedule(opts.StartAt, opts.EndAt)
	if err != nil {
		return domain.Event{}, err
	}
	ev := domain.Event{
		Title:            strings.TrimSpace(opts.Title),
		Description:      strings.TrimSpace(opts.Description),
		StartAt:          start,
		EndAt:            end,
		Location:         strings.TrimSpace(opts.Location),
		CreatedByAdminID: admin.ID,
		CreatedAt:        e.nowRFC3339(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Event{}, err
	}
	defer tx.Rollback()
	id, err := e.Repo.InsertEventTx(ctx, tx, ev)
	if err != nil {
		return domain.Event{}, err
	}
	ev.ID = id
	if err := e.Audit.Append(ctx, tx, "event.created", "event", itoa(id), admin.ID, audit.Payload{"title": ev.Title}); err != nil {
		return domain.Event{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Event{}, err
	}
	return ev, nil
}

// InviteToEvent creates Pending participations for the given volunteers,
// with the same idempotent skip rules as meeting invitations. Returns the
// participations created by this call.
func (e Engine) InviteToEvent(ctx context.Context, eventID int64, volunteerIDs []int64, actorID int64) ([]domain.EventParticipation, error) {
	if _, err := e.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if _, err := e.Repo.GetEvent(ctx, eventID); err != nil {
		return nil, fmt.Errorf("event %d: %w", eventID, err)
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	var created []domain.EventParticipation
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
		if _, err := e.Repo.GetParticipationByPairTx(ctx, tx, eventID, vid); err == nil {
			continue
		} else if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
		p := domain.EventParticipation{
			EventID:          eventID,
			VolunteerID:      vid,
			Response:         domain.ResponsePending,
			OccurrenceReport: domain.OccurrenceUnknown,
			CreatedAt:        e.nowRFC3339(),
		}
		id, err := e.Repo.InsertParticipationTx(ctx, tx, p)
		if err != nil {
			return nil, err
		}
		p.ID = id
		created = append(created, p)
	}
	if len(created) > 0 {
		ids := make([]int64, 0, len(created))
		for _, p := range created {
			ids = append(ids, p.VolunteerID)
		}
		if err := e.Audit.Append(ctx, tx, "event.invited", "event", itoa(eventID), actorID, audit.Payload{"volunteer_ids": ids}); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

// RespondToParticipation records a volunteer's Going/NotGoing reply,
// last-write-wins. The occurrence report is untouched.
func (e Engine) RespondToParticipation(ctx context.Context, participationID, volunteerID int64, response domain.Response) (domain.EventParticipation, error) {
	parsed, err := domain.ParseResponse(string(response))
	if err != nil {
		return domain.EventParticipation{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if parsed == domain.ResponsePending {
		return domain.EventParticipation{}, fmt.Errorf("%w: response must be Going or NotGoing", ErrInvalidArgument)
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.EventParticipation{}, err
	}
	defer tx.Rollback()
	p, err := e.Repo.GetParticipationTx(ctx, tx, participationID)
	if err != nil {
		return domain.EventParticipation{}, fmt.Errorf("participation %d: %w", participationID, err)
	}
	if p.VolunteerID != volunteerID {
		return domain.EventParticipation{}, fmt.Errorf("%w: participation %d", ErrNotOwner, participationID)
	}
	p.Response = parsed
	if err := e.Repo.UpdateParticipationTx(ctx, tx, p); err != nil {
		return domain.EventParticipation{}, err
	}
	if err := e.Audit.Append(ctx, tx, "participation.responded", "participation", itoa(p.ID), volunteerID, audit.Payload{"response": parsed}); err != nil {
		return domain.EventParticipation{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.EventParticipation{}, err
	}
	return p, nil
}

// ReportOccurrence records whether the event happened, from the volunteer's
// point of view. Happened/DidNotHappen only; reports may be corrected and are
// independent of the Going/NotGoing response.
func (e Engine) ReportOccurrence(ctx context.Context, participationID, volunteerID int64, report domain.OccurrenceReport, notes *string) (domain.EventParticipation, error) {
	parsed, err := domain.ParseOccurrenceReport(string(report))
	if err != nil {
		return domain.EventParticipation{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if parsed == domain.OccurrenceUnknown {
		return domain.EventParticipation{}, fmt.Errorf("%w: report must be Happened or DidNotHappen", ErrInvalidArgument)
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.EventParticipation{}, err
	}
	defer tx.Rollback()
	p, err := e.Repo.GetParticipationTx(ctx, tx, participationID)
	if err != nil {
		return domain.EventParticipation{}, fmt.Errorf("participation %d: %w", participationID, err)
	}
	if p.VolunteerID != volunteerID {
		return domain.EventParticipation{}, fmt.Errorf("%w: participation %d", ErrNotOwner, participationID)
	}
	p.OccurrenceReport = parsed
	p.OccurrenceNotes = notes
	if err := e.Repo.UpdateParticipationTx(ctx, tx, p); err != nil {
		return domain.EventParticipation{}, err
	}
	if err := e.Audit.Append(ctx, tx, "participation.reported", "participation", itoa(p.ID), volunteerID, audit.Payload{"occurrence_report": parsed}); err != nil {
		return domain.EventParticipation{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.EventParticipation{}, err
	}
	return p, nil
}
