// Package setup builds the external calendar mirror from configuration.
package setup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/huddle/internal/calendar/application"
	"github.com/felixgeelhaar/huddle/internal/calendar/domain"
	"github.com/felixgeelhaar/huddle/internal/calendar/infrastructure/caldav"
	googleCal "github.com/felixgeelhaar/huddle/internal/calendar/infrastructure/google"
)

// ErrMissingCredentials is returned when the selected provider lacks credentials.
var ErrMissingCredentials = errors.New("calendar mirror credentials not configured")

// MirrorConfig holds the settings of every supported mirror.
type MirrorConfig struct {
	Provider string // none, google, caldav; empty infers from credentials

	CalDAVURL          string
	CalDAVUsername     string
	CalDAVPassword     string
	CalDAVCalendarPath string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRefreshToken string
	GoogleCalendarID   string

	Location *time.Location
}

// ResolveProvider returns the configured provider, inferring it from the
// credentials present when none was named.
func (c MirrorConfig) ResolveProvider() (domain.ProviderType, error) {
	if c.Provider != "" {
		return domain.ParseProviderType(c.Provider)
	}
	switch {
	case c.CalDAVURL != "":
		return domain.ProviderCalDAV, nil
	case c.GoogleRefreshToken != "":
		return domain.ProviderGoogle, nil
	default:
		return domain.ProviderNone, nil
	}
}

// NewMirror builds the configured mirror. It returns nil when mirroring is off.
func NewMirror(ctx context.Context, config MirrorConfig, logger *slog.Logger) (application.Mirror, error) {
	if logger == nil {
		logger = slog.Default()
	}
	provider, err := config.ResolveProvider()
	if err != nil {
		return nil, err
	}

	switch provider {
	case domain.ProviderCalDAV:
		if config.CalDAVURL == "" {
			return nil, fmt.Errorf("%w: CALDAV_URL", ErrMissingCredentials)
		}
		mirror, err := caldav.NewMirror(caldav.Config{
			URL:          config.CalDAVURL,
			Username:     config.CalDAVUsername,
			Password:     config.CalDAVPassword,
			CalendarPath: config.CalDAVCalendarPath,
			Location:     config.Location,
		}, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("calendar mirror enabled", "provider", provider, "url", config.CalDAVURL)
		return mirror, nil

	case domain.ProviderGoogle:
		if config.GoogleClientID == "" || config.GoogleRefreshToken == "" {
			return nil, fmt.Errorf("%w: GOOGLE_CLIENT_ID and GOOGLE_REFRESH_TOKEN", ErrMissingCredentials)
		}
		source := googleCal.RefreshTokenSource(ctx, config.GoogleClientID, config.GoogleClientSecret, config.GoogleRefreshToken)
		logger.Info("calendar mirror enabled", "provider", provider, "calendar_id", config.GoogleCalendarID)
		return googleCal.NewMirror(source, googleCal.Config{
			CalendarID: config.GoogleCalendarID,
			Location:   config.Location,
		}, logger), nil

	default:
		return nil, nil
	}
}
