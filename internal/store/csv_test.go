package store

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bodycomp/bodycomp/internal/logging"
	"github.com/bodycomp/bodycomp/internal/models"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.WithOutput(io.Discard))
}

func tempStore(t *testing.T) *CSV {
	t.Helper()
	return NewCSV(filepath.Join(t.TempDir(), "nested", "measurements_withings.csv"), testLogger())
}

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation(TimeLayout, value, time.Local)
	require.NoError(t, err)
	return parsed
}

func TestWriteLoadRoundTrip(t *testing.T) {
	s := tempStore(t)

	in := []models.Measurement{
		{
			Timestamp:    ts(t, "2024-01-15 10:00:00"),
			WeightKg:     models.Float(86.53),
			FatMassKg:    models.Float(12.33),
			BoneMassKg:   models.Float(3.67),
			MuscleMassKg: models.Float(70.53),
			HydrationKg:  models.Float(45.12),
			Source:       models.SourceWithings,
		},
		{
			Timestamp: ts(t, "2024-01-14 08:30:00"),
			WeightKg:  models.Float(86.9),
			Comment:   "after run",
			Source:    models.SourceWithings,
		},
	}
	require.NoError(t, s.Write(in))

	out, err := s.Load()
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.True(t, out[0].Timestamp.Equal(in[0].Timestamp))
	require.NotNil(t, out[0].WeightKg)
	assert.Equal(t, 86.53, *out[0].WeightKg)
	require.NotNil(t, out[0].MuscleMassKg)
	assert.Equal(t, 70.53, *out[0].MuscleMassKg)

	assert.Nil(t, out[1].FatMassKg)
	assert.Nil(t, out[1].BoneMassKg)
	assert.Equal(t, "after run", out[1].Comment)
}

func TestWriteFormat(t *testing.T) {
	s := tempStore(t)

	require.NoError(t, s.Write([]models.Measurement{{
		Timestamp: ts(t, "2024-01-15 10:00:00"),
		WeightKg:  models.Float(86.5), // two decimals on disk, always
		FatMassKg: models.Float(12.333),
	}}))

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, Header, lines[0])
	assert.Equal(t, `"2024-01-15 10:00:00",86.50,12.33,,,,`, lines[1])
}

func TestWriteSortsNewestFirst(t *testing.T) {
	s := tempStore(t)

	require.NoError(t, s.Write([]models.Measurement{
		{Timestamp: ts(t, "2024-01-10 09:00:00")},
		{Timestamp: ts(t, "2024-01-15 10:00:00")},
		{Timestamp: ts(t, "2024-01-12 07:00:00")},
	}))

	out, err := s.Load()
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "2024-01-15 10:00:00", out[0].Timestamp.Format(TimeLayout))
	assert.Equal(t, "2024-01-12 07:00:00", out[1].Timestamp.Format(TimeLayout))
	assert.Equal(t, "2024-01-10 09:00:00", out[2].Timestamp.Format(TimeLayout))
}

func TestLoadMissingFile(t *testing.T) {
	s := tempStore(t)

	out, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.False(t, s.Exists())
}

func TestLoadSkipsMalformedRows(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o755))

	content := strings.Join([]string{
		Header,
		`"2024-01-15 10:00:00",86.53,12.33,3.67,70.53,45.12,`,
		`"not a date",80.00,,,,,`,
		`"2024-01-14 08:30:00",86.90`,
		`"2024-01-13 07:15:00",87.10,,,,,manual entry`,
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(s.Path(), []byte(content), 0o644))

	out, err := s.Load()
	require.NoError(t, err)
	require.Len(t, out, 2, "bad-date and short rows are dropped")
	assert.Equal(t, "2024-01-15 10:00:00", out[0].Timestamp.Format(TimeLayout))
	assert.Equal(t, "manual entry", out[1].Comment)
}

func TestNewestTimestamp(t *testing.T) {
	s := tempStore(t)

	_, ok := s.NewestTimestamp()
	assert.False(t, ok, "empty store has no newest row")

	require.NoError(t, s.Write([]models.Measurement{
		{Timestamp: ts(t, "2024-01-10 09:00:00")},
		{Timestamp: ts(t, "2024-01-15 10:00:00")},
	}))

	newest, ok := s.NewestTimestamp()
	require.True(t, ok)
	assert.Equal(t, "2024-01-15 10:00:00", newest.Format(TimeLayout))
}

func TestCountAndClear(t *testing.T) {
	s := tempStore(t)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, s.Write([]models.Measurement{
		{Timestamp: ts(t, "2024-01-10 09:00:00")},
		{Timestamp: ts(t, "2024-01-11 09:00:00")},
	}))

	n, err = s.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.Clear())
	assert.False(t, s.Exists())
	require.NoError(t, s.Clear(), "clearing an absent store is not an error")
}
