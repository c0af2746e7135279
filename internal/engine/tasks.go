package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"volunteerflow/internal/audit"
	"volunteerflow/internal/domain"
	"volunteerflow/internal/repo"
)

// ensureAssignmentTransition rejects any edge outside the lifecycle graph:
// Assigned -> Accepted | Declined, Accepted -> Completed.
func ensureAssignmentTransition(from, to domain.AssignmentStatus) error {
	switch from {
	case domain.AssignmentAssigned:
		if to == domain.AssignmentAccepted || to == domain.AssignmentDeclined {
			return nil
		}
	case domain.AssignmentAccepted:
		if to == domain.AssignmentCompleted {
			return nil
		}
	case domain.AssignmentDeclined, domain.AssignmentCompleted:
		// terminal states
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// TaskCreateOptions are parameters for creating a task.
type TaskCreateOptions struct {
	Title          string
	Description    string
	EstimatedHours decimal.Decimal
	Deadline       string
	ActorID        int64
}

func (e Engine) validateTaskFields(title, description string, estimated decimal.Decimal, deadline string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(description) == "" {
		return "", fmt.Errorf("%w: description is required", ErrInvalidArgument)
	}
	if estimated.LessThanOrEqual(decimal.Zero) {
		return "", fmt.Errorf("%w: estimated hours must be greater than 0", ErrInvalidArgument)
	}
	t, err := parseRFC3339("deadline", deadline)
	if err != nil {
		return "", err
	}
	if !t.After(e.now()) {
		return "", fmt.Errorf("%w: deadline must be in the future", ErrInvalidArgument)
	}
	return t.UTC().Format(rfc3339Layout), nil
}

func (e Engine) CreateTask(ctx context.Context, opts TaskCreateOptions) (domain.Task, error) {
	admin, err := e.requireAdmin(ctx, opts.ActorID)
	if err != nil {
		return domain.Task{}, err
	}
	deadline, err := e.validateTaskFields(opts.Title, opts.Description, opts.EstimatedHours, opts.Deadline)
	if err != nil {
		return domain.Task{}, err
	}
	t := domain.Task{
		Title:            strings.TrimSpace(opts.Title),
		Description:      strings.TrimSpace(opts.Description),
		EstimatedHours:   opts.EstimatedHours.Round(2),
		Deadline:         deadline,
		CreatedByAdminID: admin.ID,
		CreatedAt:        e.nowRFC3339(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()
	id, err := e.Repo.InsertTaskTx(ctx, tx, t)
	if err != nil {
		return domain.Task{}, err
	}
	t.ID = id
	if err := e.Audit.Append(ctx, tx, "task.created", "task", itoa(id), admin.ID, audit.Payload{"title": t.Title}); err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

// TaskUpdateOptions replaces all mutable task fields.
type TaskUpdateOptions struct {
	ID             int64
	Title          string
	Description    string
	EstimatedHours decimal.Decimal
	Deadline       string
	ActorID        int64
}

func (e Engine) UpdateTask(ctx context.Context, opts TaskUpdateOptions) (domain.Task, error) {
	if _, err := e.requireAdmin(ctx, opts.ActorID); err != nil {
		return domain.Task{}, err
	}
	t, err := e.Repo.GetTask(ctx, opts.ID)
	if err != nil {
		return domain.Task{}, err
	}
	deadline, err := e.validateTaskFields(opts.Title, opts.Description, opts.EstimatedHours, opts.Deadline)
	if err != nil {
		return domain.Task{}, err
	}
	t.Title = strings.TrimSpace(opts.Title)
	t.Description = strings.TrimSpace(opts.Description)
	t.EstimatedHours = opts.EstimatedHours.Round(2)
	t.Deadline = deadline
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateTaskTx(ctx, tx, t); err != nil {
		return domain.Task{}, err
	}
	if err := e.Audit.Append(ctx, tx, "task.updated", "task", itoa(t.ID), opts.ActorID, audit.Payload{"title": t.Title}); err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

func (e Engine) DeleteTask(ctx context.Context, id, actorID int64) error {
	if _, err := e.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteTaskTx(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Audit.Append(ctx, tx, "task.deleted", "task", itoa(id), actorID, audit.Payload{}); err != nil {
		return err
	}
	return tx.Commit()
}

// AssignTask creates an Assigned record linking a task to a volunteer.
// The task and user are validated first; the duplicate check and insert
// share one transaction so two concurrent assigns cannot both succeed.
func (e Engine) AssignTask(ctx context.Context, taskID, volunteerID, actorID int64) (domain.TaskAssignment, error) {
	if _, err := e.requireAdmin(ctx, actorID); err != nil {
		return domain.TaskAssignment{}, err
	}
	if _, err := e.Repo.GetTask(ctx, taskID); err != nil {
		return domain.TaskAssignment{}, fmt.Errorf("task %d: %w", taskID, err)
	}
	if _, err := e.requireVolunteer(ctx, volunteerID); err != nil {
		return domain.TaskAssignment{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.TaskAssignment{}, err
	}
	defer tx.Rollback()
	if _, err := e.Repo.GetAssignmentByPairTx(ctx, tx, taskID, volunteerID); err == nil {
		return domain.TaskAssignment{}, fmt.Errorf("%w: task %d, volunteer %d", ErrDuplicateAssignment, taskID, volunteerID)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return domain.TaskAssignment{}, err
	}
	a := domain.TaskAssignment{
		TaskID:      taskID,
		VolunteerID: volunteerID,
		Status:      domain.AssignmentAssigned,
		CreatedAt:   e.nowRFC3339(),
	}
	id, err := e.Repo.InsertAssignmentTx(ctx, tx, a)
	if err != nil {
		return domain.TaskAssignment{}, err
	}
	a.ID = id
	if err := e.Audit.Append(ctx, tx, "assignment.created", "assignment", itoa(id), actorID, audit.Payload{"task_id": taskID, "volunteer_id": volunteerID}); err != nil {
		return domain.TaskAssignment{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.TaskAssignment{}, err
	}
	return a, nil
}

// RespondToAssignment moves an Assigned record to Accepted or Declined.
// The row is re-read inside the transaction, so of two concurrent responses
// only the first commits; the second sees a non-Assigned status.
func (e Engine) RespondToAssignment(ctx context.Context, assignmentID int64, accepted bool, declineReason *string, actorID int64) (domain.TaskAssignment, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.TaskAssignment{}, err
	}
	defer tx.Rollback()
	a, err := e.Repo.GetAssignmentTx(ctx, tx, assignmentID)
	if err != nil {
		return domain.TaskAssignment{}, fmt.Errorf("assignment %d: %w", assignmentID, err)
	}
	target := domain.AssignmentDeclined
	if accepted {
		target = domain.AssignmentAccepted
	}
	if err := ensureAssignmentTransition(a.Status, target); err != nil {
		return domain.TaskAssignment{}, err
	}
	a.Status = target
	if accepted {
		a.DeclineReason = nil
	} else {
		a.DeclineReason = declineReason
	}
	if err := e.Repo.UpdateAssignmentTx(ctx, tx, a); err != nil {
		return domain.TaskAssignment{}, err
	}
	if err := e.Audit.Append(ctx, tx, "assignment.responded", "assignment", itoa(a.ID), actorID, audit.Payload{"status": a.Status}); err != nil {
		return domain.TaskAssignment{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.TaskAssignment{}, err
	}
	return a, nil
}

// CompleteAssignment moves an Accepted record to Completed, recording worked
// hours, optional notes and the completion timestamp atomically.
func (e Engine) CompleteAssignment(ctx context.Context, assignmentID int64, workedHours decimal.Decimal, notes *string, actorID int64) (domain.TaskAssignment, error) {
	if workedHours.LessThanOrEqual(decimal.Zero) {
		return domain.TaskAssignment{}, fmt.Errorf("%w: worked hours must be greater than 0", ErrInvalidArgument)
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.TaskAssignment{}, err
	}
	defer tx.Rollback()
	a, err := e.Repo.GetAssignmentTx(ctx, tx, assignmentID)
	if err != nil {
		return domain.TaskAssignment{}, fmt.Errorf("assignment %d: %w", assignmentID, err)
	}
	if err := ensureAssignmentTransition(a.Status, domain.AssignmentCompleted); err != nil {
		return domain.TaskAssignment{}, err
	}
	completedAt := e.nowRFC3339()
	worked := workedHours.Round(2)
	a.Status = domain.AssignmentCompleted
	a.CompletedAt = &completedAt
	a.WorkedHours = &worked
	a.Notes = notes
	if err := e.Repo.UpdateAssignmentTx(ctx, tx, a); err != nil {
		return domain.TaskAssignment{}, err
	}
	if err := e.Audit.Append(ctx, tx, "assignment.completed", "assignment", itoa(a.ID), actorID, audit.Payload{"worked_hours": worked}); err != nil {
		return domain.TaskAssignment{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.TaskAssignment{}, err
	}
	return a, nil
}
