package setup

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/huddle/internal/calendar/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirrorConfig_ResolveProvider(t *testing.T) {
	tests := []struct {
		name    string
		config  MirrorConfig
		want    domain.ProviderType
		wantErr bool
	}{
		{"nothing configured", MirrorConfig{}, domain.ProviderNone, false},
		{"caldav inferred", MirrorConfig{CalDAVURL: "https://dav.example.com"}, domain.ProviderCalDAV, false},
		{"google inferred", MirrorConfig{GoogleRefreshToken: "r"}, domain.ProviderGoogle, false},
		{"explicit wins", MirrorConfig{Provider: "none", CalDAVURL: "https://dav.example.com"}, domain.ProviderNone, false},
		{"unknown", MirrorConfig{Provider: "outlook"}, "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.config.ResolveProvider()
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewMirror(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		mirror, err := NewMirror(ctx, MirrorConfig{}, nil)
		require.NoError(t, err)
		assert.Nil(t, mirror)
	})

	t.Run("caldav", func(t *testing.T) {
		mirror, err := NewMirror(ctx, MirrorConfig{CalDAVURL: "https://dav.example.com", CalDAVUsername: "u"}, nil)
		require.NoError(t, err)
		require.NotNil(t, mirror)
		assert.Equal(t, "caldav", mirror.Name())
	})

	t.Run("google", func(t *testing.T) {
		mirror, err := NewMirror(ctx, MirrorConfig{Provider: "google", GoogleClientID: "id", GoogleRefreshToken: "r"}, nil)
		require.NoError(t, err)
		require.NotNil(t, mirror)
		assert.Equal(t, "google", mirror.Name())
	})

	t.Run("google without credentials", func(t *testing.T) {
		_, err := NewMirror(ctx, MirrorConfig{Provider: "google"}, nil)
		assert.ErrorIs(t, err, ErrMissingCredentials)
	})
}
