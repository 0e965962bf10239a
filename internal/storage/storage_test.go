package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kindredapp/kindred/protocol/wire"
	"github.com/stretchr/testify/require"
)

func TestProfileStoreMissingFileIsSignedOut(t *testing.T) {
	t.Parallel()

	s := NewProfileStore(filepath.Join(t.TempDir(), "profile.json"))
	u, err := s.GetUser()
	require.NoError(t, err)
	require.Nil(t, u)
}

func TestProfileStoreSaveLoadClear(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "profile.json")
	s := NewProfileStore(path)

	require.Error(t, s.SaveUser(User{Name: "no id"}))
	require.NoError(t, s.SaveUser(User{ID: "u1", Name: "Alex", PartnerID: "u2", PartnerName: "Sam"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	u, err := s.GetUser()
	require.NoError(t, err)
	require.NotNil(t, u)
	require.Equal(t, "u1", u.ID)
	require.Equal(t, "u2", u.PartnerID)
	require.NotZero(t, u.UpdatedAtMs)

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
	u, err = s.GetUser()
	require.NoError(t, err)
	require.Nil(t, u)
}

func TestProfileStoreCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewProfileStore(path).GetUser()
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"name":"blank id"}`), 0o600))
	u, err := NewProfileStore(path).GetUser()
	require.NoError(t, err)
	require.Nil(t, u)
}

func TestWidgetStoreKeepsLatest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := OpenWidgetStore(filepath.Join(t.TempDir(), "widget.db"))
	require.NoError(t, err)
	defer s.Close()

	latest, err := s.LatestScribble(ctx)
	require.NoError(t, err)
	require.Nil(t, latest)

	base := time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < widgetHistoryLimit+3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return at }
		paths := []wire.PathSegment{{D: "M0 0", Color: "#000", StrokeWidth: float64(i + 1)}}
		require.NoError(t, s.SaveScribblePaths(ctx, paths, ScribbleMeta{SenderName: "Sam", Timestamp: at.Format(time.RFC3339)}))
	}

	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, widgetHistoryLimit, n)

	latest, err = s.LatestScribble(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, "Sam", latest.SenderName)
	require.Equal(t, float64(widgetHistoryLimit+3), latest.Paths[0].StrokeWidth)
	require.NotEmpty(t, latest.ID)
}
