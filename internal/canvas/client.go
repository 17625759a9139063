// Package canvas provides a client for the Canvas LMS REST API and the
// course-data tools built on it (assignments, announcements, calendar
// events, courses).
package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ewhitley/campusmate/internal/httpkit"
)

// Client talks to a Canvas instance with a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a Canvas client. baseURL is the institution root,
// e.g. https://youruniversity.instructure.com.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(15 * time.Second),
		),
	}
}

// Configured reports whether both the base URL and token are set.
// Unconfigured clients degrade to a descriptive string at the tool
// layer rather than erroring.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != "" && c.token != ""
}

// get issues an authenticated GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("canvas: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("canvas: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 512)
		return fmt.Errorf("canvas: HTTP %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("canvas: decode response: %w", err)
	}
	return nil
}

// TodoItem is one entry from the user's to-do list.
type TodoItem struct {
	Assignment *Assignment `json:"assignment"`
	ContextName string     `json:"context_name"`
}

// Assignment holds the fields we care about from a Canvas assignment.
type Assignment struct {
	Name  string `json:"name"`
	DueAt string `json:"due_at"` // RFC 3339, may be empty
}

// Todo fetches the user's to-do items (pending assignments).
func (c *Client) Todo(ctx context.Context) ([]TodoItem, error) {
	var items []TodoItem
	if err := c.get(ctx, "/api/v1/users/self/todo", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Announcement is a course announcement.
type Announcement struct {
	Title     string `json:"title"`
	PostedAt  string `json:"posted_at"`
	ReadState string `json:"read_state"`
}

// Announcements fetches announcements, optionally scoped to one course.
func (c *Client) Announcements(ctx context.Context, courseID string) ([]Announcement, error) {
	params := url.Values{}
	if courseID != "" {
		params.Add("context_codes[]", "course_"+courseID)
	}

	var items []Announcement
	if err := c.get(ctx, "/api/v1/announcements", params, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Event is a calendar event.
type Event struct {
	Title   string `json:"title"`
	StartAt string `json:"start_at"`
}

// CalendarEvents fetches events in the [start, end] date range.
// Dates are YYYY-MM-DD strings; empty values are omitted.
func (c *Client) CalendarEvents(ctx context.Context, startDate, endDate string) ([]Event, error) {
	params := url.Values{}
	if startDate != "" {
		params.Set("start_date", startDate)
	}
	if endDate != "" {
		params.Set("end_date", endDate)
	}

	var items []Event
	if err := c.get(ctx, "/api/v1/calendar_events", params, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Course is an enrollment.
type Course struct {
	Name       string `json:"name"`
	CourseCode string `json:"course_code"`
}

// Courses fetches the user's active enrollments.
func (c *Client) Courses(ctx context.Context) ([]Course, error) {
	params := url.Values{"enrollment_state": {"active"}}

	var items []Course
	if err := c.get(ctx, "/api/v1/courses", params, &items); err != nil {
		return nil, err
	}
	return items, nil
}
