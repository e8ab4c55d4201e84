// Package caldav mirrors personal events into a CalDAV calendar (Apple
// Calendar, Fastmail, Nextcloud).
package caldav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/felixgeelhaar/huddle/internal/calendar/domain"
	"github.com/google/uuid"
)

// Common CalDAV server URLs
const (
	AppleCalDAVURL    = "https://caldav.icloud.com"
	FastmailCalDAVURL = "https://caldav.fastmail.com"
)

// Custom properties tagging mirrored events.
const (
	PropXMeeting = "X-HUDDLE-MEETING"
	PropXSource  = "X-HUDDLE-SOURCE"
	PropXUser    = "X-HUDDLE-USER"
)

// Config configures a CalDAV mirror.
type Config struct {
	URL          string
	Username     string
	Password     string // app-specific password for Apple
	CalendarPath string // empty means the first calendar of the principal
	Location     *time.Location
}

// Mirror writes personal events to one CalDAV calendar.
type Mirror struct {
	config Config
	client *caldav.Client
	logger *slog.Logger
}

// NewMirror creates a CalDAV mirror.
func NewMirror(config Config, logger *slog.Logger) (*Mirror, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("caldav url not configured")
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := webdav.HTTPClientWithBasicAuth(&http.Client{Timeout: 30 * time.Second}, config.Username, config.Password)
	client, err := caldav.NewClient(httpClient, config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	return &Mirror{config: config, client: client, logger: logger}, nil
}

// Name identifies the mirror.
func (m *Mirror) Name() string { return "caldav" }

// Publish puts every event at a path derived from its ID, so a second
// publish overwrites rather than duplicates.
func (m *Mirror) Publish(ctx context.Context, events []domain.PersonalEvent) error {
	calPath, err := m.findCalendarPath(ctx)
	if err != nil {
		return fmt.Errorf("failed to find calendar: %w", err)
	}

	var failed int
	for _, event := range events {
		cal, err := toICalendar(event, m.config.Location, time.Now())
		if err != nil {
			return err
		}
		if _, err := m.client.PutCalendarObject(ctx, eventPath(calPath, event.ID), cal); err != nil {
			m.logger.Warn("caldav put failed", "event_id", event.ID, "error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("caldav publish: %d of %d events failed", failed, len(events))
	}
	return nil
}

// Retract deletes every mirrored event tagged with the meeting and source.
func (m *Mirror) Retract(ctx context.Context, meetingID uuid.UUID, source domain.Source) (int, error) {
	calPath, err := m.findCalendarPath(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to find calendar: %w", err)
	}

	objects, err := m.client.QueryCalendar(ctx, calPath, tagQuery(meetingID, source))
	if err != nil {
		return 0, fmt.Errorf("failed to query calendar: %w", err)
	}

	deleted := 0
	for _, obj := range objects {
		// Servers may ignore prop-filters, so check the tags again.
		if !hasTag(&obj, meetingID, source) {
			continue
		}
		if err := m.client.RemoveAll(ctx, obj.Path); err != nil {
			return deleted, fmt.Errorf("delete %s: %w", obj.Path, err)
		}
		deleted++
	}
	return deleted, nil
}

func (m *Mirror) findCalendarPath(ctx context.Context) (string, error) {
	if m.config.CalendarPath != "" {
		return m.config.CalendarPath, nil
	}

	principal, err := m.client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal: %w", err)
	}
	homeSet, err := m.client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}
	cals, err := m.client.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}
	if len(cals) == 0 {
		return "", fmt.Errorf("no calendars found")
	}

	m.config.CalendarPath = cals[0].Path
	return cals[0].Path, nil
}

func eventPath(calPath string, id uuid.UUID) string {
	if !strings.HasSuffix(calPath, "/") {
		calPath += "/"
	}
	return calPath + id.String() + ".ics"
}

func tagQuery(meetingID uuid.UUID, source domain.Source) *caldav.CalendarQuery {
	return &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name: "VCALENDAR",
			Comps: []caldav.CalendarCompRequest{
				{Name: "VEVENT", Props: []string{"UID", PropXMeeting, PropXSource}},
			},
		},
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{{
				Name: "VEVENT",
				Props: []caldav.PropFilter{
					{Name: PropXMeeting, TextMatch: &caldav.TextMatch{Text: meetingID.String()}},
					{Name: PropXSource, TextMatch: &caldav.TextMatch{Text: string(source)}},
				},
			}},
		},
	}
}

// hasTag checks the first VEVENT for the meeting and source properties.
func hasTag(obj *caldav.CalendarObject, meetingID uuid.UUID, source domain.Source) bool {
	if obj == nil || obj.Data == nil {
		return false
	}
	for _, child := range obj.Data.Children {
		if child.Name != ical.CompEvent {
			continue
		}
		meeting := child.Props.Get(PropXMeeting)
		src := child.Props.Get(PropXSource)
		return meeting != nil && src != nil &&
			meeting.Value == meetingID.String() && src.Value == string(source)
	}
	return false
}

func toICalendar(event domain.PersonalEvent, loc *time.Location, now time.Time) (*ical.Calendar, error) {
	start, end, err := event.Span(loc)
	if err != nil {
		return nil, err
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//Huddle//Meeting Schedules//EN")

	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, event.ID.String())
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	vevent.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
	vevent.Props.SetDateTime(ical.PropDateTimeEnd, end.UTC())
	vevent.Props.SetText(ical.PropSummary, event.Title)
	if event.Location != "" {
		vevent.Props.SetText(ical.PropLocation, event.Location)
	}
	vevent.Props.SetText(ical.PropDescription, fmt.Sprintf("Schedule: %s\n\nManaged by Huddle", event.Source))

	for name, value := range map[string]string{
		PropXMeeting: event.MeetingID.String(),
		PropXSource:  string(event.Source),
		PropXUser:    event.UserID.String(),
	} {
		prop := ical.NewProp(name)
		prop.Value = value
		vevent.Props.Set(prop)
	}

	cal.Children = append(cal.Children, vevent.Component)
	return cal, nil
}
