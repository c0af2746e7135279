package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"volunteerflow/internal/domain"
	"volunteerflow/internal/engine"
)

func registerMeetings(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-meeting",
		Method:        http.MethodPost,
		Path:          "/meetings",
		Summary:       "Create meeting",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Body CreateMeetingRequest `json:"body"`
	}) (*struct {
		Body MeetingResponse `json:"body"`
	}, error) {
		p, authErr := requireAdmin(ctx)
		if authErr != nil {
			return nil, authErr
		}
		m, err := e.CreateMeeting(ctx, engine.MeetingCreateOptions{
			Title:          input.Body.Title,
			Description:    input.Body.Description,
			StartAt:        input.Body.StartAt,
			EndAt:          input.Body.EndAt,
			LocationOrLink: input.Body.LocationOrLink,
			ActorID:        p.UserID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MeetingResponse `json:"body"`
		}{Body: meetingResponse(m)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-meetings",
		Method:      http.MethodGet,
		Path:        "/meetings",
		Summary:     "List meetings",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []MeetingResponse `json:"body"`
	}, error) {
		if _, authErr := requirePrincipal(ctx); authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListMeetings(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []MeetingResponse `json:"body"`
		}{Body: mapMeetings(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-meeting",
		Method:      http.MethodGet,
		Path:        "/meetings/{id}",
		Summary:     "Get meeting",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*struct {
		Body MeetingResponse `json:"body"`
	}, error) {
		if _, authErr := requirePrincipal(ctx); authErr != nil {
			return nil, authErr
		}
		m, err := e.Repo.GetMeeting(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MeetingResponse `json:"body"`
		}{Body: meetingResponse(m)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "invite-to-meeting",
		Method:        http.MethodPost,
		Path:          "/meetings/{id}/invite",
		Summary:       "Invite volunteers to a meeting",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   int64         `path:"id"`
		Body InviteRequest `json:"body"`
	}) (*struct {
		Body []InvitationResponse `json:"body"`
	}, error) {
		p, authErr := requireAdmin(ctx)
		if authErr != nil {
			return nil, authErr
		}
		created, err := e.InviteToMeeting(ctx, input.ID, input.Body.VolunteerIDs, p.UserID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []InvitationResponse `json:"body"`
		}{Body: mapInvitations(created)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-meeting-invitations",
		Method:      http.MethodGet,
		Path:        "/meetings/{id}/invitations",
		Summary:     "List invitations for a meeting",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*struct {
		Body []InvitationResponse `json:"body"`
	}, error) {
		if _, authErr := requireAdmin(ctx); authErr != nil {
			return nil, authErr
		}
		if _, err := e.Repo.GetMeeting(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		items, err := e.Repo.ListInvitationsByMeeting(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []InvitationResponse `json:"body"`
		}{Body: mapInvitations(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-my-invitations",
		Method:      http.MethodGet,
		Path:        "/invitations",
		Summary:     "List the caller's meeting invitations",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []InvitationResponse `json:"body"`
	}, error) {
		p, authErr := requireVolunteer(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListInvitationsByVolunteer(ctx, p.UserID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []InvitationResponse `json:"body"`
		}{Body: mapInvitations(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "respond-invitation",
		Method:      http.MethodPost,
		Path:        "/invitations/{id}/respond",
		Summary:     "Respond to a meeting invitation",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   int64          `path:"id"`
		Body RespondRequest `json:"body"`
	}) (*struct {
		Body InvitationResponse `json:"body"`
	}, error) {
		p, authErr := requireVolunteer(ctx)
		if authErr != nil {
			return nil, authErr
		}
		inv, err := e.RespondToInvitation(ctx, input.ID, p.UserID, domain.Response(input.Body.Response))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body InvitationResponse `json:"body"`
		}{Body: invitationResponse(inv)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "mark-attendance",
		Method:      http.MethodPost,
		Path:        "/invitations/{id}/attendance",
		Summary:     "Mark attendance for a meeting invitation",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   int64                 `path:"id"`
		Body MarkAttendanceRequest `json:"body"`
	}) (*struct {
		Body InvitationResponse `json:"body"`
	}, error) {
		p, authErr := requireAdmin(ctx)
		if authErr != nil {
			return nil, authErr
		}
		inv, err := e.MarkAttendance(ctx, input.ID, input.Body.Attended, p.UserID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body InvitationResponse `json:"body"`
		}{Body: invitationResponse(inv)}, nil
	})
}
