// Package report aggregates volunteer hours from completed task assignments,
// attended meetings and events that happened.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"volunteerflow/internal/domain"
	"volunteerflow/internal/repo"
)

// SourceType identifies which record a detail line was derived from.
type SourceType string

const (
	SourceTask    SourceType = "Task"
	SourceMeeting SourceType = "Meeting"
	SourceEvent   SourceType = "Event"
)

// HourDetail is one contribution line in a volunteer's hours report.
type HourDetail struct {
	SourceType SourceType      `json:"source_type" enum:"Task,Meeting,Event"`
	SourceID   int64           `json:"source_id"`
	Title      string          `json:"title"`
	Date       string          `json:"date" format:"date-time"`
	Hours      decimal.Decimal `json:"hours"`
}

// VolunteerHours is the aggregated report for one volunteer.
type VolunteerHours struct {
	VolunteerID int64           `json:"volunteer_id"`
	FullName    string          `json:"full_name"`
	TotalHours  decimal.Decimal `json:"total_hours"`
	Details     []HourDetail    `json:"details,omitempty"`
}

// Reporter computes hour aggregates from stored records. Reads only.
type Reporter struct {
	Repo repo.Repo
}

// ForVolunteer builds the hours report for one volunteer. Only completed
// assignments, attended meetings and happened events contribute; details are
// sorted by date descending.
func (r Reporter) ForVolunteer(ctx context.Context, volunteerID int64) (VolunteerHours, error) {
	u, err := r.Repo.GetUser(ctx, volunteerID)
	if err != nil {
		return VolunteerHours{}, fmt.Errorf("volunteer %d: %w", volunteerID, err)
	}
	if u.Role != domain.RoleVolunteer {
		return VolunteerHours{}, fmt.Errorf("volunteer %d: %w", volunteerID, repo.ErrNotFound)
	}
	details, err := r.collectDetails(ctx, volunteerID)
	if err != nil {
		return VolunteerHours{}, err
	}
	sort.SliceStable(details, func(i, j int) bool {
		return details[i].Date > details[j].Date
	})
	total := decimal.Zero
	for _, d := range details {
		total = total.Add(d.Hours)
	}
	return VolunteerHours{
		VolunteerID: u.ID,
		FullName:    u.FullName,
		TotalHours:  total,
		Details:     details,
	}, nil
}

// ForAllVolunteers builds a ranked report covering every volunteer, including
// those with zero hours, sorted by total hours descending. Ties keep the
// repository's listing order.
func (r Reporter) ForAllVolunteers(ctx context.Context) ([]VolunteerHours, error) {
	volunteers, err := r.Repo.ListUsers(ctx, domain.RoleVolunteer)
	if err != nil {
		return nil, err
	}
	reports := make([]VolunteerHours, 0, len(volunteers))
	for _, v := range volunteers {
		rep, err := r.ForVolunteer(ctx, v.ID)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].TotalHours.GreaterThan(reports[j].TotalHours)
	})
	return reports, nil
}

// collectDetails appends task, then meeting, then event contributions, so a
// later stable sort keeps that order for equal dates.
func (r Reporter) collectDetails(ctx context.Context, volunteerID int64) ([]HourDetail, error) {
	var details []HourDetail

	assignments, err := r.Repo.ListAssignments(ctx, repo.AssignmentFilters{
		VolunteerID: volunteerID,
		Status:      domain.AssignmentCompleted,
	})
	if err != nil {
		return nil, err
	}
	for _, a := range assignments {
		if a.WorkedHours == nil {
			continue
		}
		task, err := r.Repo.GetTask(ctx, a.TaskID)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", a.TaskID, err)
		}
		date := a.CreatedAt
		if a.CompletedAt != nil {
			date = *a.CompletedAt
		}
		details = append(details, HourDetail{
			SourceType: SourceTask,
			SourceID:   a.TaskID,
			Title:      task.Title,
			Date:       date,
			Hours:      *a.WorkedHours,
		})
	}

	invitations, err := r.Repo.ListAttendedInvitations(ctx, volunteerID)
	if err != nil {
		return nil, err
	}
	for _, inv := range invitations {
		meeting, err := r.Repo.GetMeeting(ctx, inv.MeetingID)
		if err != nil {
			return nil, fmt.Errorf("meeting %d: %w", inv.MeetingID, err)
		}
		hours, err := durationHours(meeting.StartAt, meeting.EndAt)
		if err != nil {
			return nil, fmt.Errorf("meeting %d: %w", inv.MeetingID, err)
		}
		details = append(details, HourDetail{
			SourceType: SourceMeeting,
			SourceID:   inv.MeetingID,
			Title:      meeting.Title,
			Date:       meeting.StartAt,
			Hours:      hours,
		})
	}

	participations, err := r.Repo.ListHappenedParticipations(ctx, volunteerID)
	if err != nil {
		return nil, err
	}
	for _, p := range participations {
		event, err := r.Repo.GetEvent(ctx, p.EventID)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", p.EventID, err)
		}
		hours, err := durationHours(event.StartAt, event.EndAt)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", p.EventID, err)
		}
		details = append(details, HourDetail{
			SourceType: SourceEvent,
			SourceID:   p.EventID,
			Title:      event.Title,
			Date:       event.StartAt,
			Hours:      hours,
		})
	}

	return details, nil
}

// durationHours converts a start/end pair into fractional hours with exact
// decimal arithmetic, rounded to two places: 90 minutes is 1.5, not 1.
func durationHours(startAt, endAt string) (decimal.Decimal, error) {
	start, err := time.Parse(time.RFC3339, startAt)
	if err != nil {
		return decimal.Zero, err
	}
	end, err := time.Parse(time.RFC3339, endAt)
	if err != nil {
		return decimal.Zero, err
	}
	seconds := int64(end.Sub(start) / time.Second)
	if seconds <= 0 {
		return decimal.Zero, nil
	}
	return decimal.NewFromInt(seconds).Div(decimal.NewFromInt(3600)).Round(2), nil
}
