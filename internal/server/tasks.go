package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"

	"volunteerflow/internal/domain"
	"volunteerflow/internal/engine"
	"volunteerflow/internal/repo"
)

func parseHours(field, value string) (decimal.Decimal, huma.StatusError) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, newAPIError(http.StatusBadRequest, "bad_request", field+" must be a decimal number", nil)
	}
	return d, nil
}

func registerTasks(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create task",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Body CreateTaskRequest `json:"body"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		p, authErr := requireAdmin(ctx)
		if authErr != nil {
			return nil, authErr
		}
		estimated, badReq := parseHours("estimated_hours", input.Body.EstimatedHours)
		if badReq != nil {
			return nil, badReq
		}
		t, err := e.CreateTask(ctx, engine.TaskCreateOptions{
			Title:          input.Body.Title,
			Description:    input.Body.Description,
			EstimatedHours: estimated,
			Deadline:       input.Body.Deadline,
			ActorID:        p.UserID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: taskResponse(t)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []TaskResponse `json:"body"`
	}, error) {
		if _, authErr := requirePrincipal(ctx); authErr != nil {
			return nil, authErr
		}
		tasks, err := e.Repo.ListTasks(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []TaskResponse `json:"body"`
		}{Body: mapTasks(tasks)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}",
		Summary:     "Get task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		if _, authErr := requirePrincipal(ctx); authErr != nil {
			return nil, authErr
		}
		t, err := e.Repo.GetTask(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: taskResponse(t)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPut,
		Path:        "/tasks/{id}",
		Summary:     "Update task",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   int64             `path:"id"`
		Body CreateTaskRequest `json:"body"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		p, authErr := requireAdmin(ctx)
		if authErr != nil {
			return nil, authErr
		}
		estimated, badReq := parseHours("estimated_hours", input.Body.EstimatedHours)
		if badReq != nil {
			return nil, badReq
		}
		t, err := e.UpdateTask(ctx, engine.TaskUpdateOptions{
			ID:             input.ID,
			Title:          input.Body.Title,
			Description:    input.Body.Description,
			EstimatedHours: estimated,
			Deadline:       input.Body.Deadline,
			ActorID:        p.UserID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: taskResponse(t)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/tasks/{id}",
		Summary:     "Delete task",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*struct{}, error) {
		p, authErr := requireAdmin(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteTask(ctx, input.ID, p.UserID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerAssignments(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "assign-task",
		Method:        http.MethodPost,
		Path:          "/tasks/{id}/assign",
		Summary:       "Assign task to a volunteer",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusForbidden, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ID   int64             `path:"id"`
		Body AssignTaskRequest `json:"body"`
	}) (*struct {
		Body AssignmentResponse `json:"body"`
	}, error) {
		p, authErr := requireAdmin(ctx)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.AssignTask(ctx, input.ID, input.Body.VolunteerID, p.UserID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body AssignmentResponse `json:"body"`
		}{Body: assignmentResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-assignments",
		Method:      http.MethodGet,
		Path:        "/assignments",
		Summary:     "List assignments",
	}, func(ctx context.Context, input *struct {
		TaskID      int64  `query:"task_id"`
		VolunteerID int64  `query:"volunteer_id"`
		Status      string `query:"status" enum:"Assigned,Accepted,Declined,Completed,"`
	}) (*struct {
		Body []AssignmentResponse `json:"body"`
	}, error) {
		p, authErr := requirePrincipal(ctx)
		if authErr != nil {
			return nil, authErr
		}
		filters := repo.AssignmentFilters{
			TaskID:      input.TaskID,
			VolunteerID: input.VolunteerID,
			Status:      domain.AssignmentStatus(input.Status),
		}
		// Volunteers only see their own assignments.
		if p.Role == domain.RoleVolunteer {
			filters.VolunteerID = p.UserID
		}
		items, err := e.Repo.ListAssignments(ctx, filters)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []AssignmentResponse `json:"body"`
		}{Body: mapAssignments(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-assignment",
		Method:      http.MethodGet,
		Path:        "/assignments/{id}",
		Summary:     "Get assignment",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*struct {
		Body AssignmentResponse `json:"body"`
	}, error) {
		p, authErr := requirePrincipal(ctx)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.Repo.GetAssignment(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		if p.Role == domain.RoleVolunteer && a.VolunteerID != p.UserID {
			return nil, newAPIError(http.StatusNotFound, "not_found", "assignment not found", nil)
		}
		return &struct {
			Body AssignmentResponse `json:"body"`
		}{Body: assignmentResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "respond-assignment",
		Method:      http.MethodPost,
		Path:        "/assignments/{id}/respond",
		Summary:     "Accept or decline an assignment",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ID   int64                    `path:"id"`
		Body RespondAssignmentRequest `json:"body"`
	}) (*struct {
		Body AssignmentResponse `json:"body"`
	}, error) {
		p, authErr := requireVolunteer(ctx)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.Repo.GetAssignment(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		if a.VolunteerID != p.UserID {
			return nil, newAPIError(http.StatusForbidden, "forbidden", "assignment belongs to a different volunteer", nil)
		}
		a, err = e.RespondToAssignment(ctx, input.ID, input.Body.Accepted, input.Body.DeclineReason, p.UserID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body AssignmentResponse `json:"body"`
		}{Body: assignmentResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-assignment",
		Method:      http.MethodPost,
		Path:        "/assignments/{id}/complete",
		Summary:     "Complete an accepted assignment",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ID   int64                     `path:"id"`
		Body CompleteAssignmentRequest `json:"body"`
	}) (*struct {
		Body AssignmentResponse `json:"body"`
	}, error) {
		p, authErr := requireVolunteer(ctx)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.Repo.GetAssignment(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		if a.VolunteerID != p.UserID {
			return nil, newAPIError(http.StatusForbidden, "forbidden", "assignment belongs to a different volunteer", nil)
		}
		worked, badReq := parseHours("worked_hours", input.Body.WorkedHours)
		if badReq != nil {
			return nil, badReq
		}
		a, err = e.CompleteAssignment(ctx, input.ID, worked, input.Body.Notes, p.UserID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body AssignmentResponse `json:"body"`
		}{Body: assignmentResponse(a)}, nil
	})
}
