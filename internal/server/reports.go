package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"volunteerflow/internal/domain"
	"volunteerflow/internal/report"
)

func registerReports(api huma.API, r report.Reporter) {
	huma.Register(api, huma.Operation{
		OperationID: "volunteer-hours",
		Method:      http.MethodGet,
		Path:        "/reports/volunteers/{id}/hours",
		Summary:     "Hours report for one volunteer",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*struct {
		Body VolunteerHoursResponse `json:"body"`
	}, error) {
		p, authErr := requirePrincipal(ctx)
		if authErr != nil {
			return nil, authErr
		}
		// Volunteers may only read their own report.
		if p.Role == domain.RoleVolunteer && p.UserID != input.ID {
			return nil, newAPIError(http.StatusForbidden, "forbidden", "cannot read another volunteer's report", nil)
		}
		rep, err := r.ForVolunteer(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body VolunteerHoursResponse `json:"body"`
		}{Body: hoursResponse(rep)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "all-volunteer-hours",
		Method:      http.MethodGet,
		Path:        "/reports/volunteers/hours",
		Summary:     "Ranked hours report for all volunteers",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []VolunteerHoursResponse `json:"body"`
	}, error) {
		if _, authErr := requireAdmin(ctx); authErr != nil {
			return nil, authErr
		}
		reps, err := r.ForAllVolunteers(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []VolunteerHoursResponse `json:"body"`
		}{Body: mapHours(reps)}, nil
	})
}
