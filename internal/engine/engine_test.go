package engine_test

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
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
	Admin  domain.User
	Vol1   domain.User
	Vol2   domain.User
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
	eng.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	env := testEnv{Engine: eng, Ctx: ctx}
	env.Admin = mustCreateUser(t, eng, "admin@example.com", "System Admin", domain.RoleAdmin)
	env.Vol1 = mustCreateUser(t, eng, "alice@example.com", "Alice Johnson", domain.RoleVolunteer)
	env.Vol2 = mustCreateUser(t, eng, "bob@example.com", "Bob Smith", domain.RoleVolunteer)
	return env
}

func mustCreateUser(t *testing.T, eng engine.Engine, email, name string, role domain.Role) domain.User {
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

func mustCreateTask(t *testing.T, env testEnv) domain.Task {
	t.Helper()
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		Title:          "Sort donations",
		Description:    "Sort incoming donation boxes",
		EstimatedHours: decimal.NewFromFloat(3),
		Deadline:       "2024-06-01T00:00:00Z",
		ActorID:        env.Admin.ID,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func TestAssignmentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	task := mustCreateTask(t, env)

	a, err := env.Engine.AssignTask(env.Ctx, task.ID, env.Vol1.ID, env.Admin.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if a.Status != domain.AssignmentAssigned {
		t.Fatalf("expected Assigned, got %s", a.Status)
	}

	a, err = env.Engine.RespondToAssignment(env.Ctx, a.ID, true, nil, env.Vol1.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if a.Status != domain.AssignmentAccepted {
		t.Fatalf("expected Accepted, got %s", a.Status)
	}

	notes := "done early"
	a, err = env.Engine.CompleteAssignment(env.Ctx, a.ID, decimal.NewFromFloat(4.567), &notes, env.Vol1.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if a.Status != domain.AssignmentCompleted {
		t.Fatalf("expected Completed, got %s", a.Status)
	}
	if a.CompletedAt == nil || *a.CompletedAt != "2024-01-01T00:00:00Z" {
		t.Fatalf("unexpected completed_at: %v", a.CompletedAt)
	}
	if a.WorkedHours == nil || !a.WorkedHours.Equal(decimal.NewFromFloat(4.57)) {
		t.Fatalf("expected worked hours rounded to 4.57, got %v", a.WorkedHours)
	}
	if a.Notes == nil || *a.Notes != "done early" {
		t.Fatalf("notes not stored")
	}
}

func TestAssignmentDeclineIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	task := mustCreateTask(t, env)
	a, err := env.Engine.AssignTask(env.Ctx, task.ID, env.Vol1.ID, env.Admin.ID)
	if err != nil {
		t.Fatal(err)
	}
	reason := "on vacation"
	a, err = env.Engine.RespondToAssignment(env.Ctx, a.ID, false, &reason, env.Vol1.ID)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if a.Status != domain.AssignmentDeclined || a.DeclineReason == nil || *a.DeclineReason != "on vacation" {
		t.Fatalf("decline not recorded: %+v", a)
	}
	// declined is terminal
	if _, err := env.Engine.RespondToAssignment(env.Ctx, a.ID, true, nil, env.Vol1.ID); !errors.Is(err, engine.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if _, err := env.Engine.CompleteAssignment(env.Ctx, a.ID, decimal.NewFromInt(1), nil, env.Vol1.ID); !errors.Is(err, engine.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestAcceptClearsDeclineReason(t *testing.T) {
	env := newTestEnv(t)
	task := mustCreateTask(t, env)
	a, _ := env.Engine.AssignTask(env.Ctx, task.ID, env.Vol1.ID, env.Admin.ID)
	reason := "ignored on accept"
	a, err := env.Engine.RespondToAssignment(env.Ctx, a.ID, true, &reason, env.Vol1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if a.DeclineReason != nil {
		t.Fatalf("decline reason should be nil on accept, got %q", *a.DeclineReason)
	}
}

func TestCompleteRequiresAccepted(t *testing.T) {
	env := newTestEnv(t)
	task := mustCreateTask(t, env)
	a, _ := env.Engine.AssignTask(env.Ctx, task.ID, env.Vol1.ID, env.Admin.ID)
	if _, err := env.Engine.CompleteAssignment(env.Ctx, a.ID, decimal.NewFromInt(2), nil, env.Vol1.ID); !errors.Is(err, engine.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition from Assigned, got %v", err)
	}
	if _, err := env.Engine.CompleteAssignment(env.Ctx, a.ID, decimal.Zero, nil, env.Vol1.ID); !errors.Is(err, engine.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for zero hours, got %v", err)
	}
}

func TestCompletedIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	task := mustCreateTask(t, env)
	a, _ := env.Engine.AssignTask(env.Ctx, task.ID, env.Vol1.ID, env.Admin.ID)
	a, _ = env.Engine.RespondToAssignment(env.Ctx, a.ID, true, nil, env.Vol1.ID)
	if _, err := env.Engine.CompleteAssignment(env.Ctx, a.ID, decimal.NewFromInt(2), nil, env.Vol1.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.CompleteAssignment(env.Ctx, a.ID, decimal.NewFromInt(2), nil, env.Vol1.ID); !errors.Is(err, engine.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if _, err := env.Engine.RespondToAssignment(env.Ctx, a.ID, false, nil, env.Vol1.ID); !errors.Is(err, engine.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestDuplicateAssignment(t *testing.T) {
	env := newTestEnv(t)
	task := mustCreateTask(t, env)
	if _, err := env.Engine.AssignTask(env.Ctx, task.ID, env.Vol1.ID, env.Admin.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.AssignTask(env.Ctx, task.ID, env.Vol1.ID, env.Admin.ID); !errors.Is(err, engine.ErrDuplicateAssignment) {
		t.Fatalf("expected duplicate assignment, got %v", err)
	}
	// a different volunteer on the same task is fine
	if _, err := env.Engine.AssignTask(env.Ctx, task.ID, env.Vol2.ID, env.Admin.ID); err != nil {
		t.Fatalf("second volunteer: %v", err)
	}
}

func TestAssignValidation(t *testing.T) {
	env := newTestEnv(t)
	task := mustCreateTask(t, env)
	// assignee must be a volunteer
	if _, err := env.Engine.AssignTask(env.Ctx, task.ID, env.Admin.ID, env.Admin.ID); !errors.Is(err, engine.ErrInvalidRole) {
		t.Fatalf("expected invalid role for admin assignee, got %v", err)
	}
	// actor must be an admin
	if _, err := env.Engine.AssignTask(env.Ctx, task.ID, env.Vol1.ID, env.Vol2.ID); !errors.Is(err, engine.ErrInvalidRole) {
		t.Fatalf("expected invalid role for volunteer actor, got %v", err)
	}
	if _, err := env.Engine.AssignTask(env.Ctx, 9999, env.Vol1.ID, env.Admin.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found for unknown task, got %v", err)
	}
	if _, err := env.Engine.AssignTask(env.Ctx, task.ID, 9999, env.Admin.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found for unknown volunteer, got %v", err)
	}
}

func TestTaskValidation(t *testing.T) {
	env := newTestEnv(t)
	cases := []engine.TaskCreateOptions{
		{Title: "", Description: "d", EstimatedHours: decimal.NewFromInt(1), Deadline: "2024-06-01T00:00:00Z", ActorID: env.Admin.ID},
		{Title: "t", Description: "", EstimatedHours: decimal.NewFromInt(1), Deadline: "2024-06-01T00:00:00Z", ActorID: env.Admin.ID},
		{Title: "t", Description: "d", EstimatedHours: decimal.Zero, Deadline: "2024-06-01T00:00:00Z", ActorID: env.Admin.ID},
		{Title: "t", Description: "d", EstimatedHours: decimal.NewFromInt(1), Deadline: "2023-06-01T00:00:00Z", ActorID: env.Admin.ID},
		{Title: "t", Description: "d", EstimatedHours: decimal.NewFromInt(1), Deadline: "not-a-date", ActorID: env.Admin.ID},
	}
	for i, opts := range cases {
		if _, err := env.Engine.CreateTask(env.Ctx, opts); !errors.Is(err, engine.ErrInvalidArgument) {
			t.Fatalf("case %d: expected invalid argument, got %v", i, err)
		}
	}
	// volunteers cannot create tasks
	opts := engine.TaskCreateOptions{Title: "t", Description: "d", EstimatedHours: decimal.NewFromInt(1), Deadline: "2024-06-01T00:00:00Z", ActorID: env.Vol1.ID}
	if _, err := env.Engine.CreateTask(env.Ctx, opts); !errors.Is(err, engine.ErrInvalidRole) {
		t.Fatalf("expected invalid role, got %v", err)
	}
}

func mustCreateMeeting(t *testing.T, env testEnv) domain.Meeting {
	t.Helper()
	m, err := env.Engine.CreateMeeting(env.Ctx, engine.MeetingCreateOptions{
		Title:   "Monthly sync",
		StartAt: "2024-02-01T18:00:00Z",
		EndAt:   "2024-02-01T19:30:00Z",
		ActorID: env.Admin.ID,
	})
	if err != nil {
		t.Fatalf("create meeting: %v", err)
	}
	return m
}

func TestMeetingScheduleValidation(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.CreateMeeting(env.Ctx, engine.MeetingCreateOptions{
		Title:   "Backwards",
		StartAt: "2024-02-01T19:00:00Z",
		EndAt:   "2024-02-01T18:00:00Z",
		ActorID: env.Admin.ID,
	})
	if !errors.Is(err, engine.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for end before start, got %v", err)
	}
}

func TestMeetingInviteIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	m := mustCreateMeeting(t, env)
	// unknown id and admin id are skipped, not errors
	created, err := env.Engine.InviteToMeeting(env.Ctx, m.ID, []int64{env.Vol1.ID, env.Admin.ID, 9999, env.Vol2.ID}, env.Admin.ID)
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 invitations, got %d", len(created))
	}
	for _, inv := range created {
		if inv.Response != domain.ResponsePending {
			t.Fatalf("new invitation should be Pending, got %s", inv.Response)
		}
	}
	// repeating the batch creates nothing new
	created, err = env.Engine.InviteToMeeting(env.Ctx, m.ID, []int64{env.Vol1.ID, env.Vol2.ID}, env.Admin.ID)
	if err != nil {
		t.Fatalf("re-invite: %v", err)
	}
	if len(created) != 0 {
		t.Fatalf("expected 0 new invitations, got %d", len(created))
	}
	all, err := env.Engine.Repo.ListInvitationsByMeeting(env.Ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 stored invitations, got %d", len(all))
	}
}

func TestInvitationResponseLastWriteWins(t *testing.T) {
	env := newTestEnv(t)
	m := mustCreateMeeting(t, env)
	created, _ := env.Engine.InviteToMeeting(env.Ctx, m.ID, []int64{env.Vol1.ID}, env.Admin.ID)
	inv := created[0]

	inv, err := env.Engine.RespondToInvitation(env.Ctx, inv.ID, env.Vol1.ID, domain.ResponseGoing)
	if err != nil || inv.Response != domain.ResponseGoing {
		t.Fatalf("going: %v %s", err, inv.Response)
	}
	inv, err = env.Engine.RespondToInvitation(env.Ctx, inv.ID, env.Vol1.ID, domain.ResponseNotGoing)
	if err != nil || inv.Response != domain.ResponseNotGoing {
		t.Fatalf("not going: %v %s", err, inv.Response)
	}
	// cannot submit Pending back
	if _, err := env.Engine.RespondToInvitation(env.Ctx, inv.ID, env.Vol1.ID, domain.ResponsePending); !errors.Is(err, engine.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for Pending, got %v", err)
	}
	if _, err := env.Engine.RespondToInvitation(env.Ctx, inv.ID, env.Vol1.ID, "Maybe"); !errors.Is(err, engine.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for unknown response, got %v", err)
	}
	// another volunteer cannot answer
	if _, err := env.Engine.RespondToInvitation(env.Ctx, inv.ID, env.Vol2.ID, domain.ResponseGoing); !errors.Is(err, engine.ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
	if _, err := env.Engine.RespondToInvitation(env.Ctx, 9999, env.Vol1.ID, domain.ResponseGoing); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAttendanceIndependentOfResponse(t *testing.T) {
	env := newTestEnv(t)
	m := mustCreateMeeting(t, env)
	created, _ := env.Engine.InviteToMeeting(env.Ctx, m.ID, []int64{env.Vol1.ID}, env.Admin.ID)
	inv := created[0]
	// volunteer said NotGoing but showed up anyway
	inv, _ = env.Engine.RespondToInvitation(env.Ctx, inv.ID, env.Vol1.ID, domain.ResponseNotGoing)
	inv, err := env.Engine.MarkAttendance(env.Ctx, inv.ID, true, env.Admin.ID)
	if err != nil {
		t.Fatalf("mark attendance: %v", err)
	}
	if inv.Attended == nil || !*inv.Attended {
		t.Fatalf("attended flag not set")
	}
	if inv.AttendanceMarkedAt == nil {
		t.Fatalf("attendance timestamp not set")
	}
	if inv.Response != domain.ResponseNotGoing {
		t.Fatalf("response changed by attendance marking: %s", inv.Response)
	}
	// re-marking overwrites
	inv, err = env.Engine.MarkAttendance(env.Ctx, inv.ID, false, env.Admin.ID)
	if err != nil || inv.Attended == nil || *inv.Attended {
		t.Fatalf("re-mark: %v", err)
	}
	// only admins mark attendance
	if _, err := env.Engine.MarkAttendance(env.Ctx, inv.ID, true, env.Vol2.ID); !errors.Is(err, engine.ErrInvalidRole) {
		t.Fatalf("expected invalid role, got %v", err)
	}
}

func TestEventParticipationFlow(t *testing.T) {
	env := newTestEnv(t)
	ev, err := env.Engine.CreateEvent(env.Ctx, engine.EventCreateOptions{
		Title:   "Park cleanup",
		StartAt: "2024-03-09T09:00:00Z",
		EndAt:   "2024-03-09T13:00:00Z",
		ActorID: env.Admin.ID,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	created, err := env.Engine.InviteToEvent(env.Ctx, ev.ID, []int64{env.Vol1.ID, env.Vol1.ID, 9999}, env.Admin.ID)
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected 1 participation, got %d", len(created))
	}
	p := created[0]
	if p.Response != domain.ResponsePending || p.OccurrenceReport != domain.OccurrenceUnknown {
		t.Fatalf("unexpected initial state: %+v", p)
	}

	p, err = env.Engine.RespondToParticipation(env.Ctx, p.ID, env.Vol1.ID, domain.ResponseGoing)
	if err != nil || p.Response != domain.ResponseGoing {
		t.Fatalf("respond: %v", err)
	}

	notes := "great turnout"
	p, err = env.Engine.ReportOccurrence(env.Ctx, p.ID, env.Vol1.ID, domain.OccurrenceHappened, &notes)
	if err != nil {
		t.Fatalf("report occurrence: %v", err)
	}
	if p.OccurrenceReport != domain.OccurrenceHappened || p.OccurrenceNotes == nil {
		t.Fatalf("occurrence not recorded: %+v", p)
	}
	// response survives the occurrence report
	if p.Response != domain.ResponseGoing {
		t.Fatalf("response changed by occurrence report: %s", p.Response)
	}
	// Unknown cannot be submitted back
	if _, err := env.Engine.ReportOccurrence(env.Ctx, p.ID, env.Vol1.ID, domain.OccurrenceUnknown, nil); !errors.Is(err, engine.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for Unknown, got %v", err)
	}
	// the report can be revised
	p, err = env.Engine.ReportOccurrence(env.Ctx, p.ID, env.Vol1.ID, domain.OccurrenceDidNotHappen, nil)
	if err != nil || p.OccurrenceReport != domain.OccurrenceDidNotHappen {
		t.Fatalf("revise occurrence: %v", err)
	}
	// ownership
	if _, err := env.Engine.ReportOccurrence(env.Ctx, p.ID, env.Vol2.ID, domain.OccurrenceHappened, nil); !errors.Is(err, engine.ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.CreateUser(env.Ctx, engine.UserCreateOptions{
		Email: "admin@example.com", Password: "x", FullName: "Dup", Role: domain.RoleVolunteer,
	}); !errors.Is(err, engine.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for duplicate email, got %v", err)
	}
	if _, err := env.Engine.CreateUser(env.Ctx, engine.UserCreateOptions{
		Email: "new@example.com", Password: "x", FullName: "Bad Role", Role: "Coordinator",
	}); !errors.Is(err, engine.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for bad role, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	u, err := env.Engine.Authenticate(env.Ctx, "alice@example.com", "Password123!")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if u.ID != env.Vol1.ID {
		t.Fatalf("wrong user returned")
	}
	if _, err := env.Engine.Authenticate(env.Ctx, "alice@example.com", "wrong"); !errors.Is(err, engine.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := env.Engine.Authenticate(env.Ctx, "ghost@example.com", "x"); !errors.Is(err, engine.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}
}

func TestUpdateUserDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	taken := "bob@example.com"
	if _, err := env.Engine.UpdateUser(env.Ctx, engine.UserUpdateOptions{
		ID: env.Vol1.ID, Email: &taken, ActorID: env.Admin.ID,
	}); !errors.Is(err, engine.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for taken email, got %v", err)
	}
	// keeping your own email is not a conflict
	own := "alice@example.com"
	name := "Alice J."
	u, err := env.Engine.UpdateUser(env.Ctx, engine.UserUpdateOptions{
		ID: env.Vol1.ID, Email: &own, FullName: &name, ActorID: env.Admin.ID,
	})
	if err != nil {
		t.Fatalf("update with own email: %v", err)
	}
	if u.FullName != "Alice J." {
		t.Fatalf("full name not updated: %s", u.FullName)
	}
}

func TestAuditRowsWrittenAtomically(t *testing.T) {
	env := newTestEnv(t)

	countAudit := func() int {
		t.Helper()
		var n int
		if err := env.Engine.DB.QueryRow(`SELECT count(*) FROM audit_log`).Scan(&n); err != nil {
			t.Fatalf("count audit rows: %v", err)
		}
		return n
	}

	before := countAudit()
	if _, err := env.Engine.CreateUser(env.Ctx, engine.UserCreateOptions{
		Email: "carol@example.com", Password: "x", FullName: "Carol", Role: domain.RoleVolunteer,
		ActorID: env.Admin.ID,
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if got := countAudit(); got != before+1 {
		t.Fatalf("expected one audit row for the create, got %d new", got-before)
	}

	// a rejected mutation leaves neither the entity nor an audit row
	before = countAudit()
	if _, err := env.Engine.CreateUser(env.Ctx, engine.UserCreateOptions{
		Email: "carol@example.com", Password: "x", FullName: "Carol Again", Role: domain.RoleVolunteer,
		ActorID: env.Admin.ID,
	}); !errors.Is(err, engine.ErrInvalidArgument) {
		t.Fatalf("expected duplicate email rejection, got %v", err)
	}
	if got := countAudit(); got != before {
		t.Fatalf("failed create added %d audit rows", got-before)
	}
	var users int
	if err := env.Engine.DB.QueryRow(`SELECT count(*) FROM users WHERE email='carol@example.com'`).Scan(&users); err != nil {
		t.Fatal(err)
	}
	if users != 1 {
		t.Fatalf("expected a single carol account, got %d", users)
	}

	before = countAudit()
	task := mustCreateTask(t, env)
	if got := countAudit(); got != before+1 {
		t.Fatalf("expected one audit row for the task create, got %d new", got-before)
	}
	before = countAudit()
	if err := env.Engine.DeleteTask(env.Ctx, task.ID, env.Admin.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if got := countAudit(); got != before+1 {
		t.Fatalf("expected one audit row for the task delete, got %d new", got-before)
	}
}
