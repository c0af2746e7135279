package report_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"volunteerflow/internal/config"
	"volunteerflow/internal/db"
	"volunteerflow/internal/domain"
	"volunteerflow/internal/engine"
	"volunteerflow/internal/migrate"
	"volunteerflow/internal/repo"
	"volunteerflow/internal/report"
)

type testEnv struct {
	Engine   engine.Engine
	Reporter report.Reporter
	Ctx      context.Context
	Admin    domain.User
	Vol1     domain.User
	Vol2     domain.User
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default()
	cfg.Auth.BcryptCost = 4
	eng := engine.New(conn, cfg)
	eng.Now = func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	env := testEnv{Engine: eng, Reporter: report.Reporter{Repo: eng.Repo}, Ctx: ctx}
	env.Admin = createUser(t, eng, "admin@example.com", "System Admin", domain.RoleAdmin)
	env.Vol1 = createUser(t, eng, "alice@example.com", "Alice Johnson", domain.RoleVolunteer)
	env.Vol2 = createUser(t, eng, "bob@example.com", "Bob Smith", domain.RoleVolunteer)
	return env
}

func createUser(t *testing.T, eng engine.Engine, email, name string, role domain.Role) domain.User {
	t.Helper()
	u, err := eng.CreateUser(context.Background(), engine.UserCreateOptions{
		Email:    email,
		Password: "Password123!",
		FullName: name,
		Role:     role,
	})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

// completeTask runs the full assignment lifecycle for a volunteer.
func completeTask(t *testing.T, env testEnv, volunteerID int64, title string, workedHours float64) {
	t.Helper()
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		Title:          title,
		Description:    "desc",
		EstimatedHours: decimal.NewFromInt(1),
		Deadline:       "2024-06-01T00:00:00Z",
		ActorID:        env.Admin.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	a, err := env.Engine.AssignTask(env.Ctx, task.ID, volunteerID, env.Admin.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.RespondToAssignment(env.Ctx, a.ID, true, nil, volunteerID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.CompleteAssignment(env.Ctx, a.ID, decimal.NewFromFloat(workedHours), nil, volunteerID); err != nil {
		t.Fatal(err)
	}
}

// attendMeeting invites the volunteer and marks them attended.
func attendMeeting(t *testing.T, env testEnv, volunteerID int64, title, startAt, endAt string) {
	t.Helper()
	m, err := env.Engine.CreateMeeting(env.Ctx, engine.MeetingCreateOptions{
		Title:   title,
		StartAt: startAt,
		EndAt:   endAt,
		ActorID: env.Admin.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	created, err := env.Engine.InviteToMeeting(env.Ctx, m.ID, []int64{volunteerID}, env.Admin.ID)
	if err != nil || len(created) != 1 {
		t.Fatalf("invite: %v", err)
	}
	if _, err := env.Engine.MarkAttendance(env.Ctx, created[0].ID, true, env.Admin.ID); err != nil {
		t.Fatal(err)
	}
}

// joinHappenedEvent invites the volunteer and reports the event as happened.
func joinHappenedEvent(t *testing.T, env testEnv, volunteerID int64, title, startAt, endAt string) {
	t.Helper()
	ev, err := env.Engine.CreateEvent(env.Ctx, engine.EventCreateOptions{
		Title:   title,
		StartAt: startAt,
		EndAt:   endAt,
		ActorID: env.Admin.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	created, err := env.Engine.InviteToEvent(env.Ctx, ev.ID, []int64{volunteerID}, env.Admin.ID)
	if err != nil || len(created) != 1 {
		t.Fatalf("invite: %v", err)
	}
	if _, err := env.Engine.ReportOccurrence(env.Ctx, created[0].ID, volunteerID, domain.OccurrenceHappened, nil); err != nil {
		t.Fatal(err)
	}
}

func TestVolunteerHoursTotals(t *testing.T) {
	env := newTestEnv(t)
	completeTask(t, env, env.Vol1.ID, "Sort donations", 4.5)
	attendMeeting(t, env, env.Vol1.ID, "Monthly sync", "2024-02-01T18:00:00Z", "2024-02-01T20:00:00Z")
	joinHappenedEvent(t, env, env.Vol1.ID, "Park cleanup", "2024-03-09T09:00:00Z", "2024-03-09T10:30:00Z")

	rep, err := env.Reporter.ForVolunteer(env.Ctx, env.Vol1.ID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	// 4.5 task + 2.0 meeting + 1.5 event
	if !rep.TotalHours.Equal(decimal.NewFromFloat(8.0)) {
		t.Fatalf("expected total 8, got %s", rep.TotalHours)
	}
	if len(rep.Details) != 3 {
		t.Fatalf("expected 3 details, got %d", len(rep.Details))
	}
	// date descending: event (Mar), meeting (Feb), task (completed Jan 15)
	want := []report.SourceType{report.SourceEvent, report.SourceMeeting, report.SourceTask}
	for i, d := range rep.Details {
		if d.SourceType != want[i] {
			t.Fatalf("detail %d: expected %s, got %s", i, want[i], d.SourceType)
		}
	}
	if !rep.Details[0].Hours.Equal(decimal.NewFromFloat(1.5)) {
		t.Fatalf("90-minute event should be 1.5 hours, got %s", rep.Details[0].Hours)
	}
	if !rep.Details[1].Hours.Equal(decimal.NewFromFloat(2)) {
		t.Fatalf("2-hour meeting should be 2 hours, got %s", rep.Details[1].Hours)
	}
}

func TestOnlyQualifyingRecordsCount(t *testing.T) {
	env := newTestEnv(t)
	// accepted but not completed: no hours
	task, _ := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		Title: "Pending work", Description: "d", EstimatedHours: decimal.NewFromInt(2),
		Deadline: "2024-06-01T00:00:00Z", ActorID: env.Admin.ID,
	})
	a, _ := env.Engine.AssignTask(env.Ctx, task.ID, env.Vol1.ID, env.Admin.ID)
	_, _ = env.Engine.RespondToAssignment(env.Ctx, a.ID, true, nil, env.Vol1.ID)

	// invited but never marked attended: no hours
	m, _ := env.Engine.CreateMeeting(env.Ctx, engine.MeetingCreateOptions{
		Title: "Skipped", StartAt: "2024-02-01T18:00:00Z", EndAt: "2024-02-01T19:00:00Z", ActorID: env.Admin.ID,
	})
	created, _ := env.Engine.InviteToMeeting(env.Ctx, m.ID, []int64{env.Vol1.ID}, env.Admin.ID)
	_, _ = env.Engine.RespondToInvitation(env.Ctx, created[0].ID, env.Vol1.ID, domain.ResponseGoing)

	// event reported as not happened: no hours
	ev, _ := env.Engine.CreateEvent(env.Ctx, engine.EventCreateOptions{
		Title: "Rained out", StartAt: "2024-03-09T09:00:00Z", EndAt: "2024-03-09T12:00:00Z", ActorID: env.Admin.ID,
	})
	parts, _ := env.Engine.InviteToEvent(env.Ctx, ev.ID, []int64{env.Vol1.ID}, env.Admin.ID)
	_, _ = env.Engine.ReportOccurrence(env.Ctx, parts[0].ID, env.Vol1.ID, domain.OccurrenceDidNotHappen, nil)

	rep, err := env.Reporter.ForVolunteer(env.Ctx, env.Vol1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !rep.TotalHours.IsZero() || len(rep.Details) != 0 {
		t.Fatalf("expected empty report, got total=%s details=%d", rep.TotalHours, len(rep.Details))
	}
}

func TestAttendanceCountsRegardlessOfResponse(t *testing.T) {
	env := newTestEnv(t)
	m, _ := env.Engine.CreateMeeting(env.Ctx, engine.MeetingCreateOptions{
		Title: "Surprise visit", StartAt: "2024-02-01T18:00:00Z", EndAt: "2024-02-01T19:00:00Z", ActorID: env.Admin.ID,
	})
	created, _ := env.Engine.InviteToMeeting(env.Ctx, m.ID, []int64{env.Vol1.ID}, env.Admin.ID)
	// said NotGoing but attended anyway
	_, _ = env.Engine.RespondToInvitation(env.Ctx, created[0].ID, env.Vol1.ID, domain.ResponseNotGoing)
	if _, err := env.Engine.MarkAttendance(env.Ctx, created[0].ID, true, env.Admin.ID); err != nil {
		t.Fatal(err)
	}
	rep, err := env.Reporter.ForVolunteer(env.Ctx, env.Vol1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !rep.TotalHours.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected 1 hour, got %s", rep.TotalHours)
	}
}

func TestEqualDatesKeepTaskMeetingEventOrder(t *testing.T) {
	env := newTestEnv(t)
	// task completes at the fixed clock: 2024-01-15T12:00:00Z
	completeTask(t, env, env.Vol1.ID, "Same-day task", 1)
	attendMeeting(t, env, env.Vol1.ID, "Same-day meeting", "2024-01-15T12:00:00Z", "2024-01-15T13:00:00Z")
	joinHappenedEvent(t, env, env.Vol1.ID, "Same-day event", "2024-01-15T12:00:00Z", "2024-01-15T13:00:00Z")

	rep, err := env.Reporter.ForVolunteer(env.Ctx, env.Vol1.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := []report.SourceType{report.SourceTask, report.SourceMeeting, report.SourceEvent}
	if len(rep.Details) != 3 {
		t.Fatalf("expected 3 details, got %d", len(rep.Details))
	}
	for i, d := range rep.Details {
		if d.SourceType != want[i] {
			t.Fatalf("detail %d: expected %s, got %s", i, want[i], d.SourceType)
		}
	}
}

func TestForVolunteerRejectsNonVolunteers(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Reporter.ForVolunteer(env.Ctx, env.Admin.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found for admin id, got %v", err)
	}
	if _, err := env.Reporter.ForVolunteer(env.Ctx, 9999); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found for unknown id, got %v", err)
	}
}

func TestAllVolunteersRankedWithZeroes(t *testing.T) {
	env := newTestEnv(t)
	completeTask(t, env, env.Vol2.ID, "Big job", 6)
	completeTask(t, env, env.Vol1.ID, "Small job", 2)

	reports, err := env.Reporter.ForAllVolunteers(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	// the admin is excluded; both volunteers present
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if reports[0].VolunteerID != env.Vol2.ID || !reports[0].TotalHours.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("expected Bob first with 6 hours, got %+v", reports[0])
	}
	if reports[1].VolunteerID != env.Vol1.ID {
		t.Fatalf("expected Alice second, got %+v", reports[1])
	}

	// a brand-new volunteer shows up with zero hours
	zero := createUser(t, env.Engine, "carol@example.com", "Carol Zero", domain.RoleVolunteer)
	reports, err = env.Reporter.ForAllVolunteers(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}
	last := reports[len(reports)-1]
	if last.VolunteerID != zero.ID || !last.TotalHours.IsZero() {
		t.Fatalf("expected zero-hour volunteer last, got %+v", last)
	}
}
