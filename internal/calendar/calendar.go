// Package calendar mirrors committed amenity bookings to Google Calendar and
// exposes the OAuth2 flow needed to obtain tokens. It is a best-effort
// collaborator: a mirroring failure never fails a booking.
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"amenity-booking-service/internal/booking"
)

// Client wraps the OAuth2 configuration for the Google Calendar API.
type Client struct {
	conf *oauth2.Config
}

// New returns nil when any of the credentials is missing; callers treat a nil
// client as "calendar integration disabled".
func New(clientID, clientSecret, redirectURL string) *Client {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil
	}
	return &Client{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{gcal.CalendarEventsScope},
			Endpoint:     google.Endpoint,
		},
	}
}

func (c *Client) AuthCodeURL(state string) string {
	return c.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return c.conf.Exchange(ctx, code)
}

// ParseToken decodes a JSON-serialized OAuth2 token as handed back to the
// caller by the OAuth callback.
func ParseToken(raw string) (*oauth2.Token, error) {
	var token oauth2.Token
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		return nil, fmt.Errorf("invalid token format: %w", err)
	}
	return &token, nil
}

func (c *Client) service(ctx context.Context, token *oauth2.Token) (*gcal.Service, error) {
	httpClient := c.conf.Client(ctx, token)
	return gcal.NewService(ctx, option.WithHTTPClient(httpClient))
}

// MirrorBooking inserts the booking as an event on the caller's primary
// calendar and returns the created event id.
func (c *Client) MirrorBooking(ctx context.Context, token *oauth2.Token, amenityName string, b *booking.Booking) (string, error) {
	srv, err := c.service(ctx, token)
	if err != nil {
		return "", fmt.Errorf("create calendar service: %w", err)
	}

	event := &gcal.Event{
		Summary:     fmt.Sprintf("%s booking", amenityName),
		Description: fmt.Sprintf("Amenity booking %s", b.ID),
		Start:       &gcal.EventDateTime{DateTime: b.StartTime.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: b.EndTime.Format(time.RFC3339)},
	}

	created, err := srv.Events.Insert("primary", event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert calendar event: %w", err)
	}
	return created.Id, nil
}

// Event is the trimmed calendar event shape returned by Events.
type Event struct {
	ID        string    `json:"id"`
	Summary   string    `json:"summary"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
}

// Events lists events on one of the caller's calendars within an optional
// RFC3339 time window.
func (c *Client) Events(ctx context.Context, token *oauth2.Token, calendarID, timeMin, timeMax string) ([]Event, error) {
	srv, err := c.service(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	call := srv.Events.List(calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(250)
	if timeMin != "" {
		call = call.TimeMin(timeMin)
	}
	if timeMax != "" {
		call = call.TimeMax(timeMax)
	}

	events, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("retrieve events: %w", err)
	}

	var out []Event
	for _, item := range events.Items {
		ev := Event{
			ID:      item.Id,
			Summary: item.Summary,
			Status:  item.Status,
		}
		if item.Start != nil && item.Start.DateTime != "" {
			if start, err := time.Parse(time.RFC3339, item.Start.DateTime); err == nil {
				ev.StartTime = start
			}
		}
		if item.End != nil && item.End.DateTime != "" {
			if end, err := time.Parse(time.RFC3339, item.End.DateTime); err == nil {
				ev.EndTime = end
			}
		}
		out = append(out, ev)
	}
	return out, nil
}
