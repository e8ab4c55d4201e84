// Package google mirrors personal events into Google Calendar through the
// Calendar API v3.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/felixgeelhaar/huddle/internal/calendar/domain"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	defaultBaseURL = "https://www.googleapis.com/calendar/v3"
	tokenURL       = "https://oauth2.googleapis.com/token"
	authURL        = "https://accounts.google.com/o/oauth2/auth"
	calendarScope  = "https://www.googleapis.com/auth/calendar.events"
)

// Private extended property keys tagging mirrored events.
const (
	propMeeting = "huddleMeeting"
	propSource  = "huddleSource"
	propUser    = "huddleUser"
)

// Config configures a Google Calendar mirror.
type Config struct {
	CalendarID string // defaults to "primary"
	BaseURL    string // defaults to the public API
	Location   *time.Location
}

// Mirror writes personal events to one Google calendar.
type Mirror struct {
	client     *http.Client
	baseURL    string
	calendarID string
	location   *time.Location
	logger     *slog.Logger
}

// NewMirror creates a Google Calendar mirror authorized by source.
func NewMirror(source oauth2.TokenSource, config Config, logger *slog.Logger) *Mirror {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.CalendarID == "" {
		config.CalendarID = "primary"
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{
		client: &http.Client{
			Timeout:   15 * time.Second,
			Transport: &oauth2.Transport{Source: source, Base: http.DefaultTransport},
		},
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		calendarID: config.CalendarID,
		location:   config.Location,
		logger:     logger,
	}
}

// RefreshTokenSource builds a token source from an installed-app client
// and a long-lived refresh token.
func RefreshTokenSource(ctx context.Context, clientID, clientSecret, refreshToken string) oauth2.TokenSource {
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL},
		Scopes:       []string{calendarScope},
	}
	return cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
}

// Name identifies the mirror.
func (m *Mirror) Name() string { return "google" }

type eventTime struct {
	DateTime string `json:"dateTime"`
}

type googleEvent struct {
	ID                 string `json:"id,omitempty"`
	Summary            string `json:"summary"`
	Description        string `json:"description,omitempty"`
	Location           string `json:"location,omitempty"`
	ExtendedProperties struct {
		Private map[string]string `json:"private,omitempty"`
	} `json:"extendedProperties"`
	Start eventTime `json:"start"`
	End   eventTime `json:"end"`
}

// eventID maps a personal event ID onto Google's base32hex alphabet.
func eventID(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")
}

func toGoogleEvent(event domain.PersonalEvent, loc *time.Location) (googleEvent, error) {
	start, end, err := event.Span(loc)
	if err != nil {
		return googleEvent{}, err
	}
	ge := googleEvent{
		ID:          eventID(event.ID),
		Summary:     event.Title,
		Description: fmt.Sprintf("Schedule: %s\n\nManaged by Huddle", event.Source),
		Location:    event.Location,
		Start:       eventTime{DateTime: start.Format(time.RFC3339)},
		End:         eventTime{DateTime: end.Format(time.RFC3339)},
	}
	ge.ExtendedProperties.Private = map[string]string{
		propMeeting: event.MeetingID.String(),
		propSource:  string(event.Source),
		propUser:    event.UserID.String(),
	}
	return ge, nil
}

// Publish inserts each event, updating it in place when it already exists.
func (m *Mirror) Publish(ctx context.Context, events []domain.PersonalEvent) error {
	var failed int
	for _, event := range events {
		ge, err := toGoogleEvent(event, m.location)
		if err != nil {
			return err
		}
		if err := m.upsert(ctx, ge); err != nil {
			m.logger.Warn("google calendar upsert failed", "event_id", ge.ID, "error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("google publish: %d of %d events failed", failed, len(events))
	}
	return nil
}

func (m *Mirror) eventsURL() string {
	return fmt.Sprintf("%s/calendars/%s/events", m.baseURL, url.PathEscape(m.calendarID))
}

func (m *Mirror) upsert(ctx context.Context, event googleEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	resp, err := m.do(ctx, http.MethodPost, m.eventsURL(), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		update, err := m.do(ctx, http.MethodPut, m.eventsURL()+"/"+event.ID, body)
		if err != nil {
			return err
		}
		defer update.Body.Close()
		return checkStatus(update)
	}
	return checkStatus(resp)
}

// Retract deletes every event carrying the meeting and source tags.
func (m *Mirror) Retract(ctx context.Context, meetingID uuid.UUID, source domain.Source) (int, error) {
	ids, err := m.listTagged(ctx, meetingID, source)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, id := range ids {
		resp, err := m.do(ctx, http.MethodDelete, m.eventsURL()+"/"+id, nil)
		if err != nil {
			return deleted, err
		}
		_ = resp.Body.Close()
		switch {
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
			// already gone
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			deleted++
		default:
			return deleted, fmt.Errorf("delete event %s: status=%d", id, resp.StatusCode)
		}
	}
	return deleted, nil
}

func (m *Mirror) listTagged(ctx context.Context, meetingID uuid.UUID, source domain.Source) ([]string, error) {
	var ids []string
	pageToken := ""
	for {
		query := url.Values{}
		query.Add("privateExtendedProperty", propMeeting+"="+meetingID.String())
		query.Add("privateExtendedProperty", propSource+"="+string(source))
		query.Set("showDeleted", "false")
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		resp, err := m.do(ctx, http.MethodGet, m.eventsURL()+"?"+query.Encode(), nil)
		if err != nil {
			return nil, err
		}
		var page struct {
			Items []struct {
				ID string `json:"id"`
			} `json:"items"`
			NextPageToken string `json:"nextPageToken"`
		}
		err = checkStatus(resp)
		if err == nil {
			err = json.NewDecoder(resp.Body).Decode(&page)
		}
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			ids = append(ids, item.ID)
		}
		if page.NextPageToken == "" {
			return ids, nil
		}
		pageToken = page.NextPageToken
	}
}

func (m *Mirror) do(ctx context.Context, method, target string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return m.client.Do(req)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("google calendar: status=%d body=%s", resp.StatusCode, string(body))
}
