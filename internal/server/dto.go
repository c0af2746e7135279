package server

import (
	"volunteerflow/internal/domain"
	"volunteerflow/internal/report"
)

// Hour quantities cross the wire as decimal strings ("4.5") so that clients
// never round them through binary floats.

type LoginRequest struct {
	Email    string `json:"email" example:"admin@example.com"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Role      string `json:"role" enum:"Admin,Volunteer"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

func userResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func mapUsers(users []domain.User) []UserResponse {
	res := make([]UserResponse, 0, len(users))
	for _, u := range users {
		res = append(res, userResponse(u))
	}
	return res
}

type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role" enum:"Admin,Volunteer"`
}

type UpdateUserRequest struct {
	Email    *string `json:"email,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	Password *string `json:"password,omitempty"`
}

type CreateTaskRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	EstimatedHours string `json:"estimated_hours" example:"2.5"`
	Deadline       string `json:"deadline" format:"date-time"`
}

type TaskResponse struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	EstimatedHours   string `json:"estimated_hours" example:"2.5"`
	Deadline         string `json:"deadline" format:"date-time"`
	CreatedByAdminID int64  `json:"created_by_admin_id"`
	CreatedAt        string `json:"created_at" format:"date-time"`
}

func taskResponse(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:               t.ID,
		Title:            t.Title,
		Description:      t.Description,
		EstimatedHours:   t.EstimatedHours.String(),
		Deadline:         t.Deadline,
		CreatedByAdminID: t.CreatedByAdminID,
		CreatedAt:        t.CreatedAt,
	}
}

func mapTasks(tasks []domain.Task) []TaskResponse {
	res := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		res = append(res, taskResponse(t))
	}
	return res
}

type AssignTaskRequest struct {
	VolunteerID int64 `json:"volunteer_id"`
}

type RespondAssignmentRequest struct {
	Accepted      bool    `json:"accepted"`
	DeclineReason *string `json:"decline_reason,omitempty"`
}

type CompleteAssignmentRequest struct {
	WorkedHours string  `json:"worked_hours" example:"4.5"`
	Notes       *string `json:"notes,omitempty"`
}

type AssignmentResponse struct {
	ID            int64   `json:"id"`
	TaskID        int64   `json:"task_id"`
	VolunteerID   int64   `json:"volunteer_id"`
	Status        string  `json:"status" enum:"Assigned,Accepted,Declined,Completed"`
	DeclineReason *string `json:"decline_reason,omitempty"`
	CompletedAt   *string `json:"completed_at,omitempty" format:"date-time"`
	WorkedHours   *string `json:"worked_hours,omitempty" example:"4.5"`
	Notes         *string `json:"notes,omitempty"`
	CreatedAt     string  `json:"created_at" format:"date-time"`
}

func assignmentResponse(a domain.TaskAssignment) AssignmentResponse {
	var worked *string
	if a.WorkedHours != nil {
		s := a.WorkedHours.String()
		worked = &s
	}
	return AssignmentResponse{
		ID:            a.ID,
		TaskID:        a.TaskID,
		VolunteerID:   a.VolunteerID,
		Status:        string(a.Status),
		DeclineReason: a.DeclineReason,
		CompletedAt:   a.CompletedAt,
		WorkedHours:   worked,
		Notes:         a.Notes,
		CreatedAt:     a.CreatedAt,
	}
}

func mapAssignments(items []domain.TaskAssignment) []AssignmentResponse {
	res := make([]AssignmentResponse, 0, len(items))
	for _, a := range items {
		res = append(res, assignmentResponse(a))
	}
	return res
}

type CreateMeetingRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	StartAt        string `json:"start_at" format:"date-time"`
	EndAt          string `json:"end_at" format:"date-time"`
	LocationOrLink string `json:"location_or_link,omitempty"`
}

type MeetingResponse struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	StartAt          string `json:"start_at" format:"date-time"`
	EndAt            string `json:"end_at" format:"date-time"`
	LocationOrLink   string `json:"location_or_link,omitempty"`
	CreatedByAdminID int64  `json:"created_by_admin_id"`
	CreatedAt        string `json:"created_at" format:"date-time"`
}

func meetingResponse(m domain.Meeting) MeetingResponse {
	return MeetingResponse{
		ID:               m.ID,
		Title:            m.Title,
		Description:      m.Description,
		StartAt:          m.StartAt,
		EndAt:            m.EndAt,
		LocationOrLink:   m.LocationOrLink,
		CreatedByAdminID: m.CreatedByAdminID,
		CreatedAt:        m.CreatedAt,
	}
}

func mapMeetings(items []domain.Meeting) []MeetingResponse {
	res := make([]MeetingResponse, 0, len(items))
	for _, m := range items {
		res = append(res, meetingResponse(m))
	}
	return res
}

type InviteRequest struct {
	VolunteerIDs []int64 `json:"volunteer_ids"`
}

type RespondRequest struct {
	Response string `json:"response" enum:"Going,NotGoing"`
}

type MarkAttendanceRequest struct {
	Attended bool `json:"attended"`
}

type InvitationResponse struct {
	ID                 int64   `json:"id"`
	MeetingID          int64   `json:"meeting_id"`
	VolunteerID        int64   `json:"volunteer_id"`
	Response           string  `json:"response" enum:"Pending,Going,NotGoing"`
	Attended           *bool   `json:"attended,omitempty"`
	AttendanceMarkedAt *string `json:"attendance_marked_at,omitempty" format:"date-time"`
	CreatedAt          string  `json:"created_at" format:"date-time"`
}

func invitationResponse(inv domain.MeetingInvitation) InvitationResponse {
	return InvitationResponse{
		ID:                 inv.ID,
		MeetingID:          inv.MeetingID,
		VolunteerID:        inv.VolunteerID,
		Response:           string(inv.Response),
		Attended:           inv.Attended,
		AttendanceMarkedAt: inv.AttendanceMarkedAt,
		CreatedAt:          inv.CreatedAt,
	}
}

func mapInvitations(items []domain.MeetingInvitation) []InvitationResponse {
	res := make([]InvitationResponse, 0, len(items))
	for _, inv := range items {
		res = append(res, invitationResponse(inv))
	}
	return res
}

type CreateEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	StartAt     string `json:"start_at" format:"date-time"`
	EndAt       string `json:"end_at" format:"date-time"`
	Location    string `json:"location,omitempty"`
}

type EventResponse struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	StartAt          string `json:"start_at" format:"date-time"`
	EndAt            string `json:"end_at" format:"date-time"`
	Location         string `json:"location,omitempty"`
	CreatedByAdminID int64  `json:"created_by_admin_id"`
	CreatedAt        string `json:"created_at" format:"date-time"`
}

func eventResponse(ev domain.Event) EventResponse {
	return EventResponse{
		ID:               ev.ID,
		Title:            ev.Title,
		Description:      ev.Description,
		StartAt:          ev.StartAt,
		EndAt:            ev.EndAt,
		Location:         ev.Location,
		CreatedByAdminID: ev.CreatedByAdminID,
		CreatedAt:        ev.CreatedAt,
	}
}

func mapEvents(items []domain.Event) []EventResponse {
	res := make([]EventResponse, 0, len(items))
	for _, ev := range items {
		res = append(res, eventResponse(ev))
	}
	return res
}

type ReportOccurrenceRequest struct {
	Report string  `json:"report" enum:"Happened,DidNotHappen"`
	Notes  *string `json:"notes,omitempty"`
}

type ParticipationResponse struct {
	ID               int64   `json:"id"`
	EventID          int64   `json:"event_id"`
	VolunteerID      int64   `json:"volunteer_id"`
	Response         string  `json:"response" enum:"Pending,Going,NotGoing"`
	OccurrenceReport string  `json:"occurrence_report" enum:"Unknown,Happened,DidNotHappen"`
	OccurrenceNotes  *string `json:"occurrence_notes,omitempty"`
	CreatedAt        string  `json:"created_at" format:"date-time"`
}

func participationResponse(p domain.EventParticipation) ParticipationResponse {
	return ParticipationResponse{
		ID:               p.ID,
		EventID:          p.EventID,
		VolunteerID:      p.VolunteerID,
		Response:         string(p.Response),
		OccurrenceReport: string(p.OccurrenceReport),
		OccurrenceNotes:  p.OccurrenceNotes,
		CreatedAt:        p.CreatedAt,
	}
}

func mapParticipations(items []domain.EventParticipation) []ParticipationResponse {
	res := make([]ParticipationResponse, 0, len(items))
	for _, p := range items {
		res = append(res, participationResponse(p))
	}
	return res
}

type HourDetailResponse struct {
	SourceType string `json:"source_type" enum:"Task,Meeting,Event"`
	SourceID   int64  `json:"source_id"`
	Title      string `json:"title"`
	Date       string `json:"date" format:"date-time"`
	Hours      string `json:"hours" example:"1.5"`
}

type VolunteerHoursResponse struct {
	VolunteerID int64                `json:"volunteer_id"`
	FullName    string               `json:"full_name"`
	TotalHours  string               `json:"total_hours" example:"8"`
	Details     []HourDetailResponse `json:"details,omitempty"`
}

func hoursResponse(v report.VolunteerHours) VolunteerHoursResponse {
	details := make([]HourDetailResponse, 0, len(v.Details))
	for _, d := range v.Details {
		details = append(details, HourDetailResponse{
			SourceType: string(d.SourceType),
			SourceID:   d.SourceID,
			Title:      d.Title,
			Date:       d.Date,
			Hours:      d.Hours.String(),
		})
	}
	return VolunteerHoursResponse{
		VolunteerID: v.VolunteerID,
		FullName:    v.FullName,
		TotalHours:  v.TotalHours.String(),
		Details:     details,
	}
}

func mapHours(items []report.VolunteerHours) []VolunteerHoursResponse {
	res := make([]VolunteerHoursResponse, 0, len(items))
	for _, v := range items {
		res = append(res, hoursResponse(v))
	}
	return res
}

type CreateAPIKeyRequest struct {
	Name string `json:"name,omitempty"`
}

type APIKeyResponse struct {
	ID        string `json:"id"`
	UserID    int64  `json:"user_id"`
	Name      string `json:"name,omitempty"`
	Key       string `json:"key,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
