package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"volunteerflow/internal/domain"
	"volunteerflow/internal/engine"
)

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-event",
		Method:        http.MethodPost,
		Path:          "/events",
		Summary:       "Create event",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Body CreateEventRequest `json:"body"`
	}) (*struct {
		Body EventResponse `json:"body"`
	}, error) {
		p, authErr := requireAdmin(ctx)
		if authErr != nil {
			return nil, authErr
		}
		ev, err := e.CreateEvent(ctx, engine.EventCreateOptions{
			Title:       input.Body.Title,
			Description: input.Body.Description,
			StartAt:     input.Body.StartAt,
			EndAt:       input.Body.EndAt,
			Location:    input.Body.Location,
			ActorID:     p.UserID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EventResponse `json:"body"`
		}{Body: eventResponse(ev)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List events",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []EventResponse `json:"body"`
	}, error) {
		if _, authErr := requirePrincipal(ctx); authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListEvents(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []EventResponse `json:"body"`
		}{Body: mapEvents(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-event",
		Method:      http.MethodGet,
		Path:        "/events/{id}",
		Summary:     "Get event",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*struct {
		Body EventResponse `json:"body"`
	}, error) {
		if _, authErr := requirePrincipal(ctx); authErr != nil {
			return nil, authErr
		}
		ev, err := e.Repo.GetEvent(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EventResponse `json:"body"`
		}{Body: eventResponse(ev)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "invite-to-event",
		Method:        http.MethodPost,
		Path:          "/events/{id}/invite",
		Summary:       "Invite volunteers to an event",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   int64         `path:"id"`
		Body InviteRequest `json:"body"`
	}) (*struct {
		Body []ParticipationResponse `json:"body"`
	}, error) {
		p, authErr := requireAdmin(ctx)
		if authErr != nil {
			return nil, authErr
		}
		created, err := e.InviteToEvent(ctx, input.ID, input.Body.VolunteerIDs, p.UserID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []ParticipationResponse `json:"body"`
		}{Body: mapParticipations(created)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-event-participations",
		Method:      http.MethodGet,
		Path:        "/events/{id}/participations",
		Summary:     "List participations for an event",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*struct {
		Body []ParticipationResponse `json:"body"`
	}, error) {
		if _, authErr := requireAdmin(ctx); authErr != nil {
			return nil, authErr
		}
		if _, err := e.Repo.GetEvent(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		items, err := e.Repo.ListParticipationsByEvent(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []ParticipationResponse `json:"body"`
		}{Body: mapParticipations(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-my-participations",
		Method:      http.MethodGet,
		Path:        "/participations",
		Summary:     "List the caller's event participations",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []ParticipationResponse `json:"body"`
	}, error) {
		p, authErr := requireVolunteer(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListParticipationsByVolunteer(ctx, p.UserID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []ParticipationResponse `json:"body"`
		}{Body: mapParticipations(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "respond-participation",
		Method:      http.MethodPost,
		Path:        "/participations/{id}/respond",
		Summary:     "Respond to an event participation",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   int64          `path:"id"`
		Body RespondRequest `json:"body"`
	}) (*struct {
		Body ParticipationResponse `json:"body"`
	}, error) {
		p, authErr := requireVolunteer(ctx)
		if authErr != nil {
			return nil, authErr
		}
		part, err := e.RespondToParticipation(ctx, input.ID, p.UserID, domain.Response(input.Body.Response))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ParticipationResponse `json:"body"`
		}{Body: participationResponse(part)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "report-occurrence",
		Method:      http.MethodPost,
		Path:        "/participations/{id}/occurrence",
		Summary:     "Report whether an event happened",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   int64                   `path:"id"`
		Body ReportOccurrenceRequest `json:"body"`
	}) (*struct {
		Body ParticipationResponse `json:"body"`
	}, error) {
		p, authErr := requireVolunteer(ctx)
		if authErr != nil {
			return nil, authErr
		}
		part, err := e.ReportOccurrence(ctx, input.ID, p.UserID, domain.OccurrenceReport(input.Body.Report), input.Body.Notes)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ParticipationResponse `json:"body"`
		}{Body: participationResponse(part)}, nil
	})
}
