// Package tools holds the external side effects the assistant can perform on
// a user's behalf: calendar events and web search. Both are optional; the
// rest of the system treats their absence or failure as a warning, never as
// a reason to fail the task operation itself.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/marcus/taskpilot/internal/logging"
)

// defaultEventDuration is used when a task only has a deadline, not a span.
const defaultEventDuration = time.Hour

// CalendarConfig locates the Google OAuth material and the target calendar.
type CalendarConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	TokenFile       string `mapstructure:"token_file"`
	CalendarID      string `mapstructure:"calendar_id"`
}

// CalendarClient creates events on a Google calendar.
type CalendarClient struct {
	srv        *calendar.Service
	calendarID string
	log        *logging.Logger
}

// NewCalendarClient builds a calendar client from stored OAuth credentials.
// The token file must already exist; obtaining one interactively is the
// doctor command's job.
func NewCalendarClient(ctx context.Context, cfg CalendarConfig) (*CalendarClient, error) {
	oauthConfig, err := oauthConfigFromFile(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}

	token, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("read calendar token %s: %w", cfg.TokenFile, err)
	}

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(oauthConfig.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}

	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}

	return &CalendarClient{
		srv:        srv,
		calendarID: calendarID,
		log:        logging.Component("calendar"),
	}, nil
}

// AddEvent creates a one-hour event ending at the task's due time and returns
// the created event id.
func (c *CalendarClient) AddEvent(ctx context.Context, title string, due time.Time) (string, error) {
	event := &calendar.Event{
		Summary: title,
		Start: &calendar.EventDateTime{
			DateTime: due.Add(-defaultEventDuration).Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: due.Format(time.RFC3339),
		},
	}

	created, err := c.srv.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert calendar event: %w", err)
	}

	c.log.InfoCtx("calendar event created", map[string]any{"event_id": created.Id, "title": title})
	return created.Id, nil
}

func oauthConfigFromFile(path string) (*oauth2.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calendar credentials %s: %w", path, err)
	}
	oauthConfig, err := google.ConfigFromJSON(raw, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("parse calendar credentials: %w", err)
	}
	return oauthConfig, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return token, nil
}

// SaveToken writes an OAuth token where NewCalendarClient will find it.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
