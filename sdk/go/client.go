package volunteerflowsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a minimal VolunteerFlow HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// User represents an account (partial).
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// Task represents the API task model (partial).
type Task struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	EstimatedHours string `json:"estimated_hours"`
	Deadline       string `json:"deadline"`
}

// Assignment represents a task assignment.
type Assignment struct {
	ID            int64   `json:"id"`
	TaskID        int64   `json:"task_id"`
	VolunteerID   int64   `json:"volunteer_id"`
	Status        string  `json:"status"`
	DeclineReason *string `json:"decline_reason,omitempty"`
	CompletedAt   *string `json:"completed_at,omitempty"`
	WorkedHours   *string `json:"worked_hours,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// HourDetail is one line of a volunteer hours report.
type HourDetail struct {
	SourceType string `json:"source_type"`
	SourceID   int64  `json:"source_id"`
	Title      string `json:"title"`
	Date       string `json:"date"`
	Hours      string `json:"hours"`
}

// VolunteerHours is the hours report for one volunteer.
type VolunteerHours struct {
	VolunteerID int64        `json:"volunteer_id"`
	FullName    string       `json:"full_name"`
	TotalHours  string       `json:"total_hours"`
	Details     []HourDetail `json:"details,omitempty"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Login exchanges credentials for a bearer token and stores it on the client.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	var resp struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "auth/login", map[string]any{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return User{}, err
	}
	c.BearerToken = resp.Token
	return resp.User, nil
}

// CreateTask creates a task. Admin only.
func (c *Client) CreateTask(ctx context.Context, title, description, estimatedHours, deadline string) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPost, "tasks", map[string]any{
		"title":           title,
		"description":     description,
		"estimated_hours": estimatedHours,
		"deadline":        deadline,
	}, &resp)
	return resp, err
}

// AssignTask assigns a task to a volunteer. Admin only.
func (c *Client) AssignTask(ctx context.Context, taskID, volunteerID int64) (Assignment, error) {
	var resp Assignment
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("tasks/%d/assign", taskID), map[string]any{
		"volunteer_id": volunteerID,
	}, &resp)
	return resp, err
}

// RespondToAssignment accepts or declines an assignment.
func (c *Client) RespondToAssignment(ctx context.Context, assignmentID int64, accepted bool, declineReason string) (Assignment, error) {
	body := map[string]any{"accepted": accepted}
	if declineReason != "" {
		body["decline_reason"] = declineReason
	}
	var resp Assignment
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("assignments/%d/respond", assignmentID), body, &resp)
	return resp, err
}

// CompleteAssignment marks an accepted assignment completed.
func (c *Client) CompleteAssignment(ctx context.Context, assignmentID int64, workedHours, notes string) (Assignment, error) {
	body := map[string]any{"worked_hours": workedHours}
	if notes != "" {
		body["notes"] = notes
	}
	var resp Assignment
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("assignments/%d/complete", assignmentID), body, &resp)
	return resp, err
}

// Assignments lists assignments visible to the caller.
func (c *Client) Assignments(ctx context.Context) ([]Assignment, error) {
	var resp []Assignment
	err := c.do(ctx, http.MethodGet, "assignments", nil, &resp)
	return resp, err
}

// VolunteerHours fetches the hours report for one volunteer.
func (c *Client) VolunteerHours(ctx context.Context, volunteerID int64) (VolunteerHours, error) {
	var resp VolunteerHours
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("reports/volunteers/%d/hours", volunteerID), nil, &resp)
	return resp, err
}

// AllVolunteerHours fetches the ranked report for all volunteers. Admin only.
func (c *Client) AllVolunteerHours(ctx context.Context) ([]VolunteerHours, error) {
	var resp []VolunteerHours
	err := c.do(ctx, http.MethodGet, "reports/volunteers/hours", nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/api/v1/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
