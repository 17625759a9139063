package canvas

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// notConfigured is returned as tool content (never as an error) when
// credentials are missing, so the model can tell the user what's wrong.
const notConfigured = "Canvas API is not configured. Set CANVAS_BASE_URL and CANVAS_API_TOKEN."

// AssignmentsHandler returns the get_assignments tool handler.
// Supported args: due_date (today, tomorrow, this_week, or YYYY-MM-DD),
// status (overdue, upcoming). Malformed date filters fall back to
// including everything.
func AssignmentsHandler(c *Client) func(ctx context.Context, args map[string]any) (string, error) {
	return func(ctx context.Context, args map[string]any) (string, error) {
		if !c.Configured() {
			return notConfigured, nil
		}

		items, err := c.Todo(ctx)
		if err != nil {
			return "", err
		}

		now := time.Now()
		dueFilter, _ := args["due_date"].(string)
		status, _ := args["status"].(string)
		window, haveWindow := resolveDateRange(dueFilter, now)

		var lines []string
		for _, item := range items {
			if item.Assignment == nil {
				continue
			}
			due := parseCanvasTime(item.Assignment.DueAt)

			if haveWindow && (due.IsZero() || !window.contains(due)) {
				continue
			}

			switch strings.ToLower(status) {
			case "overdue":
				if due.IsZero() || sameOrAfterDay(due, now) {
					continue
				}
			case "upcoming":
				if due.IsZero() || !sameOrAfterDay(due, now) {
					continue
				}
			}

			lines = append(lines, formatAssignment(item))
		}

		if len(lines) == 0 {
			return emptyAssignments(dueFilter, status), nil
		}
		return fmt.Sprintf("Found %d assignment(s):\n%s", len(lines), strings.Join(lines, "\n")), nil
	}
}

func formatAssignment(item TodoItem) string {
	name := item.Assignment.Name
	if name == "" {
		name = "Unnamed assignment"
	}
	line := "- " + name
	if item.ContextName != "" {
		line += " [" + item.ContextName + "]"
	}
	if due := parseCanvasTime(item.Assignment.DueAt); !due.IsZero() {
		line += " (due " + due.Format("Jan 2, 2006 at 3:04 PM") + ")"
	} else {
		line += " (no due date)"
	}
	return line
}

func emptyAssignments(dueFilter, status string) string {
	var parts []string
	if dueFilter != "" {
		parts = append(parts, "due "+dueFilter)
	}
	if status != "" {
		parts = append(parts, status)
	}
	if len(parts) == 0 {
		return "No assignments found."
	}
	return "No assignments found matching: " + strings.Join(parts, ", ") + "."
}

// AnnouncementsHandler returns the get_announcements tool handler.
// Supported args: unread_only (bool), course_id (string).
func AnnouncementsHandler(c *Client) func(ctx context.Context, args map[string]any) (string, error) {
	return func(ctx context.Context, args map[string]any) (string, error) {
		if !c.Configured() {
			return notConfigured, nil
		}

		courseID, _ := args["course_id"].(string)
		unreadOnly, _ := args["unread_only"].(bool)

		items, err := c.Announcements(ctx, courseID)
		if err != nil {
			return "", err
		}

		var lines []string
		for _, a := range items {
			if unreadOnly && a.ReadState == "read" {
				continue
			}
			line := "- " + a.Title
			if posted := parseCanvasTime(a.PostedAt); !posted.IsZero() {
				line += " (posted " + posted.Format("Jan 2, 2006") + ")"
			}
			lines = append(lines, line)
		}

		if len(lines) == 0 {
			if unreadOnly {
				return "No unread announcements.", nil
			}
			return "No announcements found.", nil
		}
		return fmt.Sprintf("Found %d announcement(s):\n%s", len(lines), strings.Join(lines, "\n")), nil
	}
}

// EventsHandler returns the get_calendar_events tool handler.
// Supported args: start_date, end_date (same keywords as due_date).
// end_date defaults to start_date.
func EventsHandler(c *Client) func(ctx context.Context, args map[string]any) (string, error) {
	return func(ctx context.Context, args map[string]any) (string, error) {
		if !c.Configured() {
			return notConfigured, nil
		}

		now := time.Now()
		startArg, _ := args["start_date"].(string)
		endArg, _ := args["end_date"].(string)

		var startDate, endDate string
		if r, ok := resolveDateRange(startArg, now); ok {
			startDate = r.Start.Format("2006-01-02")
			endDate = r.End.Format("2006-01-02")
		}
		if r, ok := resolveDateRange(endArg, now); ok {
			endDate = r.End.Format("2006-01-02")
		}

		items, err := c.CalendarEvents(ctx, startDate, endDate)
		if err != nil {
			return "", err
		}

		if len(items) == 0 {
			if startDate != "" {
				return fmt.Sprintf("No calendar events between %s and %s.", startDate, endDate), nil
			}
			return "No calendar events found.", nil
		}

		var lines []string
		for _, e := range items {
			title := e.Title
			if title == "" {
				title = "Untitled event"
			}
			if start := parseCanvasTime(e.StartAt); !start.IsZero() {
				lines = append(lines, fmt.Sprintf("- %s at %s", title, start.Format("3:04 PM")))
			} else {
				lines = append(lines, fmt.Sprintf("- %s (all day)", title))
			}
		}
		return fmt.Sprintf("Found %d event(s):\n%s", len(lines), strings.Join(lines, "\n")), nil
	}
}

// CoursesHandler returns the get_courses tool handler.
func CoursesHandler(c *Client) func(ctx context.Context, args map[string]any) (string, error) {
	return func(ctx context.Context, args map[string]any) (string, error) {
		if !c.Configured() {
			return notConfigured, nil
		}

		courses, err := c.Courses(ctx)
		if err != nil {
			return "", err
		}

		if len(courses) == 0 {
			return "No active courses found.", nil
		}

		var lines []string
		for _, course := range courses {
			if course.CourseCode != "" {
				lines = append(lines, fmt.Sprintf("- %s: %s", course.CourseCode, course.Name))
			} else {
				lines = append(lines, "- "+course.Name)
			}
		}
		return fmt.Sprintf("Enrolled in %d course(s):\n%s", len(lines), strings.Join(lines, "\n")), nil
	}
}
