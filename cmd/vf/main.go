package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"volunteerflow/internal/app"
	"volunteerflow/internal/config"
	"volunteerflow/internal/db"
	"volunteerflow/internal/domain"
	"volunteerflow/internal/engine"
	"volunteerflow/internal/migrate"
	"volunteerflow/internal/repo"
	"volunteerflow/internal/report"
	"volunteerflow/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "vf",
	Short: "VolunteerFlow CLI",
	Long: `VolunteerFlow coordinates volunteer work for a small organization.
- Admins create tasks, meetings, and events, assign work, and mark attendance.
- Volunteers accept or decline assignments, log worked hours on completion,
  reply Going/NotGoing to invitations, and report whether events happened.
- The hours report adds up completed task hours, attended meeting durations,
  and happened event durations per volunteer.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("VOLUNTEERFLOW")
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().Int64("actor-id", 1, "acting user id")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(assignmentCmd())
	rootCmd.AddCommand(meetingCmd())
	rootCmd.AddCommand(eventCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(apikeyCmd())
}

func initCmd() *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the workspace database",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfgPath := config.Path(workspace)
			if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
				if err := os.WriteFile(cfgPath, []byte(config.GenerateDefault()), 0o644); err != nil {
					return err
				}
				fmt.Printf("Wrote %s\n", cfgPath)
			}
			conn, eng, err := app.Open(workspace)
			if err != nil {
				return err
			}
			defer conn.Close()
			version, err := migrate.Version(conn)
			if err != nil {
				return err
			}
			if !seed {
				fmt.Printf("Initialized %s (schema version %d)\n", db.Path(workspace), version)
				return nil
			}
			accounts, err := app.Seed(cmd.Context(), eng)
			if err != nil {
				return err
			}
			if accounts == nil {
				fmt.Println("Database already has users; seeding skipped.")
				return nil
			}
			for _, a := range accounts {
				fmt.Printf("Seeded %s (%s)\n", a.Email, a.Role)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "seed default admin and volunteer accounts")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, eng, err := app.Open(workspace)
			if err != nil {
				return err
			}
			defer conn.Close()
			secret := eng.Config.Auth.JWTSecret
			if env := os.Getenv("VOLUNTEERFLOW_JWT_SECRET"); env != "" {
				secret = env
			}
			if secret == "" {
				return fmt.Errorf("jwt secret required: set auth.jwt_secret in %s or VOLUNTEERFLOW_JWT_SECRET", config.Path(workspace))
			}
			if addr == "" {
				addr = eng.Config.Server.Addr
			}
			if basePath == "" {
				basePath = eng.Config.Server.BasePath
			}
			handler, err := server.New(server.Config{
				Engine:   eng,
				Reporter: report.Reporter{Repo: eng.Repo},
				BasePath: basePath,
				Auth: server.AuthConfig{
					JWTSecret:       secret,
					TokenTTLMinutes: eng.Config.Auth.TokenTTLMinutes,
				},
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving VolunteerFlow API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to config)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (defaults to config)")
	return cmd
}

func userCmd() *cobra.Command {
	user := &cobra.Command{Use: "user", Short: "Manage users"}
	user.AddCommand(userCreateCmd())
	user.AddCommand(userListCmd())
	user.AddCommand(userGetCmd())
	user.AddCommand(userDeleteCmd())
	return user
}

func userCreateCmd() *cobra.Command {
	var email, password, fullName, role string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				u, err := e.CreateUser(ctx, engine.UserCreateOptions{
					Email:    email,
					Password: password,
					FullName: fullName,
					Role:     domain.Role(role),
					ActorID:  viper.GetInt64("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email")
	cmd.Flags().StringVar(&password, "password", "", "password")
	cmd.Flags().StringVar(&fullName, "full-name", "", "full name")
	cmd.Flags().StringVar(&role, "role", "Volunteer", "role (Admin or Volunteer)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("full-name")
	return cmd
}

func userListCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				users, err := e.Repo.ListUsers(ctx, domain.Role(role))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(users)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Email", "Name", "Role"})
				for _, u := range users {
					tw.AppendRow(table.Row{u.ID, u.Email, u.FullName, u.Role})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "role filter (Admin or Volunteer)")
	return cmd
}

func userGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Get user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				u, err := e.Repo.GetUser(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	return cmd
}

func userDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteUser(ctx, id, viper.GetInt64("actor-id"))
			})
		},
	}
	return cmd
}

func taskCmd() *cobra.Command {
	task := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
		Long:  "Tasks are units of work with estimated hours and a deadline. Admins assign them to volunteers; volunteers accept, decline, or complete them with worked hours.",
	}
	task.AddCommand(taskCreateCmd())
	task.AddCommand(taskListCmd())
	task.AddCommand(taskGetCmd())
	task.AddCommand(taskDeleteCmd())
	task.AddCommand(taskAssignCmd())
	return task
}

func taskCreateCmd() *cobra.Command {
	var title, description, estimated, deadline string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			hours, err := decimal.NewFromString(estimated)
			if err != nil {
				return fmt.Errorf("invalid --estimated-hours: %w", err)
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.CreateTask(ctx, engine.TaskCreateOptions{
					Title:          title,
					Description:    description,
					EstimatedHours: hours,
					Deadline:       deadline,
					ActorID:        viper.GetInt64("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&estimated, "estimated-hours", "", "estimated hours, e.g. 2.5")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline (RFC3339)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("estimated-hours")
	_ = cmd.MarkFlagRequired("deadline")
	return cmd
}

func taskListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				tasks, err := e.Repo.ListTasks(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(tasks)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Est. Hours", "Deadline"})
				for _, t := range tasks {
					tw.AppendRow(table.Row{t.ID, t.Title, t.EstimatedHours.String(), t.Deadline})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func taskGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Get task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.Repo.GetTask(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	return cmd
}

func taskDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteTask(ctx, id, viper.GetInt64("actor-id"))
			})
		},
	}
	return cmd
}

func taskAssignCmd() *cobra.Command {
	var volunteerID int64
	cmd := &cobra.Command{
		Use:   "assign <task-id>",
		Short: "Assign a task to a volunteer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.AssignTask(ctx, taskID, volunteerID, viper.GetInt64("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().Int64Var(&volunteerID, "volunteer-id", 0, "volunteer user id")
	_ = cmd.MarkFlagRequired("volunteer-id")
	return cmd
}

func assignmentCmd() *cobra.Command {
	a := &cobra.Command{Use: "assignment", Short: "Manage task assignments"}
	a.AddCommand(assignmentListCmd())
	a.AddCommand(assignmentRespondCmd())
	a.AddCommand(assignmentCompleteCmd())
	return a
}

func assignmentListCmd() *cobra.Command {
	var f repo.AssignmentFilters
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.Status = domain.AssignmentStatus(status)
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListAssignments(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Task", "Volunteer", "Status", "Worked Hours"})
				for _, a := range items {
					worked := ""
					if a.WorkedHours != nil {
						worked = a.WorkedHours.String()
					}
					tw.AppendRow(table.Row{a.ID, a.TaskID, a.VolunteerID, a.Status, worked})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&f.TaskID, "task-id", 0, "task filter")
	cmd.Flags().Int64Var(&f.VolunteerID, "volunteer-id", 0, "volunteer filter")
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	return cmd
}

func assignmentRespondCmd() *cobra.Command {
	var accept, decline bool
	var reason string
	cmd := &cobra.Command{
		Use:   "respond <id>",
		Short: "Accept or decline an assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if accept == decline {
				return fmt.Errorf("pass exactly one of --accept or --decline")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.RespondToAssignment(ctx, id, accept, optionalString(reason), viper.GetInt64("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().BoolVar(&accept, "accept", false, "accept the assignment")
	cmd.Flags().BoolVar(&decline, "decline", false, "decline the assignment")
	cmd.Flags().StringVar(&reason, "reason", "", "decline reason")
	return cmd
}

func assignmentCompleteCmd() *cobra.Command {
	var worked, notes string
	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Complete an accepted assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			hours, err := decimal.NewFromString(worked)
			if err != nil {
				return fmt.Errorf("invalid --worked-hours: %w", err)
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.CompleteAssignment(ctx, id, hours, optionalString(notes), viper.GetInt64("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&worked, "worked-hours", "", "actual hours worked, e.g. 4.5")
	cmd.Flags().StringVar(&notes, "notes", "", "completion notes")
	_ = cmd.MarkFlagRequired("worked-hours")
	return cmd
}

func meetingCmd() *cobra.Command {
	m := &cobra.Command{Use: "meeting", Short: "Manage meetings"}
	m.AddCommand(meetingCreateCmd())
	m.AddCommand(meetingListCmd())
	m.AddCommand(meetingInviteCmd())
	m.AddCommand(meetingRespondCmd())
	m.AddCommand(meetingAttendanceCmd())
	return m
}

func meetingCreateCmd() *cobra.Command {
	var title, description, startAt, endAt, location string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a meeting",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				m, err := e.CreateMeeting(ctx, engine.MeetingCreateOptions{
					Title:          title,
					Description:    description,
					StartAt:        startAt,
					EndAt:          endAt,
					LocationOrLink: location,
					ActorID:        viper.GetInt64("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(m)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&startAt, "start-at", "", "start (RFC3339)")
	cmd.Flags().StringVar(&endAt, "end-at", "", "end (RFC3339)")
	cmd.Flags().StringVar(&location, "location", "", "location or link")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("start-at")
	_ = cmd.MarkFlagRequired("end-at")
	return cmd
}

func meetingListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List meetings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListMeetings(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Start", "End"})
				for _, m := range items {
					tw.AppendRow(table.Row{m.ID, m.Title, m.StartAt, m.EndAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func meetingInviteCmd() *cobra.Command {
	var volunteerIDs []int64
	cmd := &cobra.Command{
		Use:   "invite <meeting-id>",
		Short: "Invite volunteers to a meeting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				created, err := e.InviteToMeeting(ctx, id, volunteerIDs, viper.GetInt64("actor-id"))
				if err != nil {
					return err
				}
				fmt.Printf("Created %d invitation(s)\n", len(created))
				return printJSONOrTable(created)
			})
		},
	}
	cmd.Flags().Int64SliceVar(&volunteerIDs, "volunteer-id", []int64{}, "volunteer id (repeatable)")
	_ = cmd.MarkFlagRequired("volunteer-id")
	return cmd
}

func meetingRespondCmd() *cobra.Command {
	var response string
	cmd := &cobra.Command{
		Use:   "respond <invitation-id>",
		Short: "Respond to a meeting invitation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				inv, err := e.RespondToInvitation(ctx, id, viper.GetInt64("actor-id"), domain.Response(response))
				if err != nil {
					return err
				}
				return printJSONOrTable(inv)
			})
		},
	}
	cmd.Flags().StringVar(&response, "response", "", "Going or NotGoing")
	_ = cmd.MarkFlagRequired("response")
	return cmd
}

func meetingAttendanceCmd() *cobra.Command {
	var attended bool
	cmd := &cobra.Command{
		Use:   "attendance <invitation-id>",
		Short: "Mark attendance for an invitation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				inv, err := e.MarkAttendance(ctx, id, attended, viper.GetInt64("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(inv)
			})
		},
	}
	cmd.Flags().BoolVar(&attended, "attended", true, "whether the volunteer attended")
	return cmd
}

func eventCmd() *cobra.Command {
	ev := &cobra.Command{Use: "event", Short: "Manage events"}
	ev.AddCommand(eventCreateCmd())
	ev.AddCommand(eventListCmd())
	ev.AddCommand(eventInviteCmd())
	ev.AddCommand(eventRespondCmd())
	ev.AddCommand(eventOccurrenceCmd())
	return ev
}

func eventCreateCmd() *cobra.Command {
	var title, description, startAt, endAt, location string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				ev, err := e.CreateEvent(ctx, engine.EventCreateOptions{
					Title:       title,
					Description: description,
					StartAt:     startAt,
					EndAt:       endAt,
					Location:    location,
					ActorID:     viper.GetInt64("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(ev)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&startAt, "start-at", "", "start (RFC3339)")
	cmd.Flags().StringVar(&endAt, "end-at", "", "end (RFC3339)")
	cmd.Flags().StringVar(&location, "location", "", "location")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("start-at")
	_ = cmd.MarkFlagRequired("end-at")
	return cmd
}

func eventListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListEvents(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Start", "End", "Location"})
				for _, ev := range items {
					tw.AppendRow(table.Row{ev.ID, ev.Title, ev.StartAt, ev.EndAt, ev.Location})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func eventInviteCmd() *cobra.Command {
	var volunteerIDs []int64
	cmd := &cobra.Command{
		Use:   "invite <event-id>",
		Short: "Invite volunteers to an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				created, err := e.InviteToEvent(ctx, id, volunteerIDs, viper.GetInt64("actor-id"))
				if err != nil {
					return err
				}
				fmt.Printf("Created %d participation(s)\n", len(created))
				return printJSONOrTable(created)
			})
		},
	}
	cmd.Flags().Int64SliceVar(&volunteerIDs, "volunteer-id", []int64{}, "volunteer id (repeatable)")
	_ = cmd.MarkFlagRequired("volunteer-id")
	return cmd
}

func eventRespondCmd() *cobra.Command {
	var response string
	cmd := &cobra.Command{
		Use:   "respond <participation-id>",
		Short: "Respond to an event participation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.RespondToParticipation(ctx, id, viper.GetInt64("actor-id"), domain.Response(response))
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&response, "response", "", "Going or NotGoing")
	_ = cmd.MarkFlagRequired("response")
	return cmd
}

func eventOccurrenceCmd() *cobra.Command {
	var occurred, notes string
	cmd := &cobra.Command{
		Use:   "occurrence <participation-id>",
		Short: "Report whether an event happened",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.ReportOccurrence(ctx, id, viper.GetInt64("actor-id"), domain.OccurrenceReport(occurred), optionalString(notes))
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&occurred, "report", "", "Happened or DidNotHappen")
	cmd.Flags().StringVar(&notes, "notes", "", "occurrence notes")
	_ = cmd.MarkFlagRequired("report")
	return cmd
}

func reportCmd() *cobra.Command {
	rep := &cobra.Command{Use: "report", Short: "Volunteer hour reports"}
	rep.AddCommand(reportVolunteerCmd())
	rep.AddCommand(reportAllCmd())
	return rep
}

func reportVolunteerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "volunteer <id>",
		Short: "Hours report for one volunteer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				r := report.Reporter{Repo: e.Repo}
				rep, err := r.ForVolunteer(ctx, id)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(rep)
				}
				fmt.Printf("%s — total %s hours\n", rep.FullName, rep.TotalHours.String())
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Source", "Title", "Date", "Hours"})
				for _, d := range rep.Details {
					tw.AppendRow(table.Row{d.SourceType, d.Title, d.Date, d.Hours.String()})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func reportAllCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Ranked hours report for all volunteers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				r := report.Reporter{Repo: e.Repo}
				reps, err := r.ForAllVolunteers(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(reps)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Rank", "Volunteer", "Total Hours"})
				for i, rep := range reps {
					tw.AppendRow(table.Row{i + 1, rep.FullName, rep.TotalHours.String()})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func apikeyCmd() *cobra.Command {
	k := &cobra.Command{Use: "apikey", Short: "Manage API keys"}
	k.AddCommand(apikeyCreateCmd())
	k.AddCommand(apikeyListCmd())
	k.AddCommand(apikeyRevokeCmd())
	return k
}

func apikeyCreateCmd() *cobra.Command {
	var userID int64
	var name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == 0 {
				userID = viper.GetInt64("actor-id")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if _, err := e.Repo.GetUser(ctx, userID); err != nil {
					return fmt.Errorf("user %d: %w", userID, err)
				}
				// The raw key is shown once; only its hash is stored.
				raw := "vf_" + strings.ReplaceAll(uuid.NewString(), "-", "")
				key := domain.APIKey{
					ID:        uuid.NewString(),
					UserID:    userID,
					Name:      name,
					KeyHash:   repo.HashAPIKey(raw),
					CreatedAt: e.Now().UTC().Format(time.RFC3339),
				}
				if err := e.Repo.InsertAPIKey(ctx, key); err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{
						"id":         key.ID,
						"user_id":    key.UserID,
						"name":       key.Name,
						"key":        raw,
						"created_at": key.CreatedAt,
					})
				}
				fmt.Printf("Created key %s for user %d\n", key.ID, key.UserID)
				fmt.Printf("Key (save it now, it will not be shown again): %s\n", raw)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&userID, "user-id", 0, "owner user id (defaults to --actor-id)")
	cmd.Flags().StringVar(&name, "name", "", "key label")
	return cmd
}

func apikeyListCmd() *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				keys, err := e.Repo.ListAPIKeys(ctx, userID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(keys)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "User", "Name", "Created"})
				for _, k := range keys {
					tw.AppendRow(table.Row{k.ID, k.UserID, k.Name, k.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&userID, "user-id", 0, "owner filter (0 = all)")
	return cmd
}

func apikeyRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.Repo.DeleteAPIKey(ctx, args[0]); err != nil {
					return err
				}
				fmt.Printf("Revoked key %s\n", args[0])
				return nil
			})
		},
	}
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	conn, eng, err := app.Open(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(ctx, eng)
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
