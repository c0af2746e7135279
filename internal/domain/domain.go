package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Role of a user account. Every user is exactly one of the two.
type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleVolunteer Role = "Volunteer"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleVolunteer:
		return RoleVolunteer, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// AssignmentStatus is the lifecycle state of a task assignment.
// Assigned -> Accepted -> Completed, or Assigned -> Declined.
// Declined and Completed are terminal.
type AssignmentStatus string

const (
	AssignmentAssigned  AssignmentStatus = "Assigned"
	AssignmentAccepted  AssignmentStatus = "Accepted"
	AssignmentDeclined  AssignmentStatus = "Declined"
	AssignmentCompleted AssignmentStatus = "Completed"
)

func ParseAssignmentStatus(s string) (AssignmentStatus, error) {
	switch AssignmentStatus(s) {
	case AssignmentAssigned, AssignmentAccepted, AssignmentDeclined, AssignmentCompleted:
		return AssignmentStatus(s), nil
	}
	return "", fmt.Errorf("unknown assignment status %q", s)
}

// Response is a volunteer's reply to a meeting invitation or event
// participation. Pending is the initial value; re-submitting Going/NotGoing
// overwrites the previous reply.
type Response string

const (
	ResponsePending  Response = "Pending"
	ResponseGoing    Response = "Going"
	ResponseNotGoing Response = "NotGoing"
)

func ParseResponse(s string) (Response, error) {
	switch Response(s) {
	case ResponsePending, ResponseGoing, ResponseNotGoing:
		return Response(s), nil
	}
	return "", fmt.Errorf("unknown response %q", s)
}

// OccurrenceReport is the volunteer-confirmed outcome of an event.
type OccurrenceReport string

const (
	OccurrenceUnknown      OccurrenceReport = "Unknown"
	OccurrenceHappened     OccurrenceReport = "Happened"
	OccurrenceDidNotHappen OccurrenceReport = "DidNotHappen"
)

func ParseOccurrenceReport(s string) (OccurrenceReport, error) {
	switch OccurrenceReport(s) {
	case OccurrenceUnknown, OccurrenceHappened, OccurrenceDidNotHappen:
		return OccurrenceReport(s), nil
	}
	return "", fmt.Errorf("unknown occurrence report %q", s)
}

type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	Role         Role   `json:"role" enum:"Admin,Volunteer"`
	PasswordHash string `json:"-"`
	CreatedAt    string `json:"created_at" format:"date-time"`
}

type Task struct {
	ID               int64           `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description,omitempty"`
	EstimatedHours   decimal.Decimal `json:"estimated_hours"`
	Deadline         string          `json:"deadline" format:"date-time"`
	CreatedByAdminID int64           `json:"created_by_admin_id"`
	CreatedAt        string          `json:"created_at" format:"date-time"`
}

type TaskAssignment struct {
	ID            int64            `json:"id"`
	TaskID        int64            `json:"task_id"`
	VolunteerID   int64            `json:"volunteer_id"`
	Status        AssignmentStatus `json:"status" enum:"Assigned,Accepted,Declined,Completed"`
	DeclineReason *string          `json:"decline_reason,omitempty"`
	CompletedAt   *string          `json:"completed_at,omitempty" format:"date-time"`
	WorkedHours   *decimal.Decimal `json:"worked_hours,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
	CreatedAt     string           `json:"created_at" format:"date-time"`
}

type Meeting struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	StartAt          string `json:"start_at" format:"date-time"`
	EndAt            string `json:"end_at" format:"date-time"`
	LocationOrLink   string `json:"location_or_link,omitempty"`
	CreatedByAdminID int64  `json:"created_by_admin_id"`
	CreatedAt        string `json:"created_at" format:"date-time"`
}

type MeetingInvitation struct {
	ID                 int64    `json:"id"`
	MeetingID          int64    `json:"meeting_id"`
	VolunteerID        int64    `json:"volunteer_id"`
	Response           Response `json:"response" enum:"Pending,Going,NotGoing"`
	Attended           *bool    `json:"attended,omitempty"`
	AttendanceMarkedAt *string  `json:"attendance_marked_at,omitempty" format:"date-time"`
	CreatedAt          string   `json:"created_at" format:"date-time"`
}

type Event struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	StartAt          string `json:"start_at" format:"date-time"`
	EndAt            string `json:"end_at" format:"date-time"`
	Location         string `json:"location,omitempty"`
	CreatedByAdminID int64  `json:"created_by_admin_id"`
	CreatedAt        string `json:"created_at" format:"date-time"`
}

type EventParticipation struct {
	ID               int64            `json:"id"`
	EventID          int64            `json:"event_id"`
	VolunteerID      int64            `json:"volunteer_id"`
	Response         Response         `json:"response" enum:"Pending,Going,NotGoing"`
	OccurrenceReport OccurrenceReport `json:"occurrence_report" enum:"Unknown,Happened,DidNotHappen"`
	OccurrenceNotes  *string          `json:"occurrence_notes,omitempty"`
	CreatedAt        string           `json:"created_at" format:"date-time"`
}

type APIKey struct {
	ID        string `json:"id"`
	UserID    int64  `json:"user_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type AuditEntry struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Action     string `json:"action"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    int64  `json:"actor_id"`
	Payload    string `json:"payload_json"`
}
