package telemetry

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dsnet/compress/bzip2"
	"github.com/lintang-b-s/Segmentx/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestReader() *Reader {
	return NewReader(DefaultColumns(), []string{"2006-01-02 15:04:05.999999999", time.RFC3339Nano},
		time.UTC, zap.NewNop())
}

func TestReaderRead(t *testing.T) {
	csv := "\ufeffDeviceDateTime,Latitude,Longitute,Di1,Di2,Di3,Speed\n" +
		"2024-03-01 08:00:00,-7.77,110.37,1,1,1,30\n" +
		"2024-03-01 08:00:10.5,-7.771, 110.371,1.0,0,true,31\n" +
		"not a time,-7.772,110.372,1,1,1,0\n" +
		"2024-03-01 08:00:30,abc,110.373,1,1,1,0\n" +
		"2024-03-01 08:00:40,95,110.374,1,1,1,0\n" +
		"2024-03-01T08:00:50Z,-7.775,110.375,0,1,0\n"

	samples, stats, err := newTestReader().Read(strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, ReadStats{Rows: 6, InvalidCoordinate: 2, MalformedTimestamp: 1}, stats)
	require.Len(t, samples, 4)

	assert.True(t, samples[0].HasTime())
	assert.True(t, samples[0].Passenger())
	assert.Equal(t, -7.77, samples[0].Lat())

	assert.Equal(t, 500*time.Millisecond, samples[1].Time().Sub(time.Date(2024, 3, 1, 8, 0, 10, 0, time.UTC)))
	assert.False(t, samples[1].Passenger())
	assert.True(t, samples[1].Gate1())
	assert.True(t, samples[1].Gate3())
	assert.Equal(t, 110.371, samples[1].Lon())

	assert.False(t, samples[2].HasTime())
	assert.True(t, samples[2].Passenger())
	assert.Equal(t, 3, samples[2].Row())

	assert.False(t, samples[3].Gate1())
	assert.Equal(t, 6, samples[3].Row())
}

func TestReaderLongitudeAlias(t *testing.T) {
	csv := "DeviceDateTime,Latitude,Longitude,Di1,Di2,Di3\n2024-03-01 08:00:00,1,2,1,1,1\n"
	samples, _, err := newTestReader().Read(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 2.0, samples[0].Lon())
}

func TestReaderMissingColumn(t *testing.T) {
	csv := "DeviceDateTime,Latitude,Longitude,Di1,Di3\n"
	_, _, err := newTestReader().Read(strings.NewReader(csv))
	require.Error(t, err)
	assert.True(t, util.Is(err, util.ErrBadParamInput))
}

func TestReaderEmpty(t *testing.T) {
	_, _, err := newTestReader().Read(strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, util.Is(err, util.ErrBadParamInput))
}

func TestReaderTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	r := NewReader(DefaultColumns(), []string{"2006-01-02 15:04:05"}, loc, zap.NewNop())

	samples, _, err := r.Read(strings.NewReader("DeviceDateTime,Latitude,Longitute,Di1,Di2,Di3\n2024-03-01 23:30:00,1,1,1,1,1\n"))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, time.Date(2024, 3, 1, 16, 30, 0, 0, time.UTC), samples[0].Time().UTC())
}

func TestReadFileBzip2(t *testing.T) {
	csv := "DeviceDateTime,Latitude,Longitute,Di1,Di2,Di3\n2024-03-01 08:00:00,1,1,1,1,1\n2024-03-01 08:01:00,2,2,1,1,1\n"
	var buf bytes.Buffer
	bz, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{})
	require.NoError(t, err)
	_, err = bz.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, bz.Close())

	path := filepath.Join(t.TempDir(), "trip.csv.bz2")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	samples, stats, err := newTestReader().ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Rows)
	assert.Len(t, samples, 2)
}

func TestReadFileMissing(t *testing.T) {
	_, _, err := newTestReader().ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.True(t, util.Is(err, util.ErrIOFailure))
}
