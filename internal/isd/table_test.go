package isd

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// historyLine builds a fixed-width record with each value placed at the
// documented byte offset, so tests never depend on hand-counted padding.
func historyLine(usaf, wban, name, country, state, icao, lat, lon, elev, begin, end string) string {
	line := []byte(strings.Repeat(" ", endEnd))
	put := func(start int, v string) {
		copy(line[start:], v)
	}
	put(usafStart, usaf)
	put(wbanStart, wban)
	put(nameStart, name)
	put(countryStart, country)
	put(stateStart, state)
	put(icaoStart, icao)
	put(latStart, lat)
	put(lonStart, lon)
	put(elevStart, elev)
	put(beginStart, begin)
	put(endStart, end)
	return string(line)
}

func oymyakonLine() string {
	return historyLine("246880", "99999", "OJMJAKON", "RS", "", "", "+63.250", "+143.150", "+0745.0", "19330101", "20260115")
}

func TestParseLine(t *testing.T) {
	t.Run("full record", func(t *testing.T) {
		m, ok := parseLine(historyLine("719170", "99999", "EUREKA", "CA", "", "CWEU", "+79.983", "-085.933", "+0010.0", "19470101", "20260110"))

		require.True(t, ok)
		assert.Equal(t, "719170", m.USAF)
		assert.Equal(t, "EUREKA", m.Name)
		assert.Equal(t, "CA", m.Country)
		assert.Equal(t, "CWEU", m.ICAO)
		assert.Equal(t, 79.983, m.Lat)
		assert.Equal(t, -85.933, m.Lon)
		assert.Equal(t, 10.0, m.Elevation)
		assert.Equal(t, "19470101", m.Begin)
		assert.Equal(t, "20260110", m.End)
	})

	t.Run("header and separator lines", func(t *testing.T) {
		_, ok := parseLine("USAF   WBAN  STATION NAME" + strings.Repeat(" ", 80))
		assert.False(t, ok)
		_, ok = parseLine(strings.Repeat("-", 99))
		assert.False(t, ok)
	})

	t.Run("short line", func(t *testing.T) {
		_, ok := parseLine("246880 99999 OJMJAKON")
		assert.False(t, ok)
	})

	t.Run("sentinel usaf code", func(t *testing.T) {
		_, ok := parseLine(historyLine("999999", "99999", "SHIP", "US", "", "", "+10.000", "+020.000", "", "", ""))
		assert.False(t, ok)
	})

	t.Run("placeholder names", func(t *testing.T) {
		_, ok := parseLine(historyLine("007018", "99999", "WXPOD 7018", "", "", "", "+00.000", "+010.000", "", "", ""))
		assert.False(t, ok)
		_, ok = parseLine(historyLine("008260", "99999", "BOGUS NORWAY", "NO", "", "", "+60.000", "+010.000", "", "", ""))
		assert.False(t, ok)
	})

	t.Run("empty name", func(t *testing.T) {
		_, ok := parseLine(historyLine("123450", "99999", "", "US", "", "", "+40.000", "-100.000", "", "", ""))
		assert.False(t, ok)
	})

	t.Run("zero-zero coordinates", func(t *testing.T) {
		_, ok := parseLine(historyLine("123450", "99999", "NULL ISLAND", "", "", "", "+00.000", "+000.000", "", "", ""))
		assert.False(t, ok)
	})

	t.Run("unparseable coordinates", func(t *testing.T) {
		_, ok := parseLine(historyLine("123450", "99999", "SOMEWHERE", "", "", "", "", "+010.000", "", "", ""))
		assert.False(t, ok)
	})

	t.Run("unparseable elevation defaults to zero", func(t *testing.T) {
		m, ok := parseLine(historyLine("246880", "99999", "OJMJAKON", "RS", "", "", "+63.250", "+143.150", "", "19330101", ""))
		require.True(t, ok)
		assert.Equal(t, 0.0, m.Elevation)
	})
}

func TestParseTable(t *testing.T) {
	text := strings.Join([]string{
		"USAF   WBAN  STATION NAME                  CTRY ST CALL  LAT     LON      ELEV(M) BEGIN    END",
		strings.Repeat("-", 99),
		oymyakonLine(),
		historyLine("719170", "99999", "EUREKA", "CA", "", "CWEU", "+79.983", "-085.933", "+0010.0", "19470101", "20260110"),
		"",
		"not a record",
	}, "\n")

	table := ParseTable(text)

	assert.Equal(t, 2, table.Len())

	m, ok := table.Get("246880")
	require.True(t, ok)
	assert.Equal(t, "OJMJAKON", m.Name)

	m, ok = table.Get("CWEU")
	require.True(t, ok, "ICAO secondary key is indexed")
	assert.Equal(t, "EUREKA", m.Name)

	_, ok = table.Get("000000")
	assert.False(t, ok)
}

func TestActiveAt(t *testing.T) {
	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	active := StationMetadata{End: "20260115"}
	assert.True(t, active.ActiveAt(now))

	retired := StationMetadata{End: "20191231"}
	assert.False(t, retired.ActiveAt(now))

	openEnded := StationMetadata{}
	assert.True(t, openEnded.ActiveAt(now))
}
