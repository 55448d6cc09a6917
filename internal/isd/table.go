// Package isd parses the NOAA Integrated Surface Database station history
// file and resolves SYNOP station numbers to station metadata.
//
// The history file is fixed-width text, one station per line:
//
//	USAF   WBAN  STATION NAME                  CTRY ST CALL  LAT     LON      ELEV(M) BEGIN    END
//	246880 99999 OJMJAKON                      RS      UEMS  +63.250 +143.150 +0745.0 19330101 20260115
//
// USAF is the 6-character primary code (the WMO number padded by a
// block-dependent convention), CALL the ICAO-style secondary code. SYNOP
// messages carry bare 5-digit WMO numbers, so lookups try the id as-is, with
// a leading zero, and with a trailing zero — the padding convention varies by
// station block and none of the three variants can be assumed canonical.
package isd

import (
	"strconv"
	"strings"
	"time"
)

// Byte offsets of the fixed-width fields, per the isd-history documentation.
const (
	usafStart, usafEnd       = 0, 6
	wbanStart, wbanEnd       = 7, 12
	nameStart, nameEnd       = 13, 43
	countryStart, countryEnd = 43, 47
	stateStart, stateEnd     = 48, 50
	icaoStart, icaoEnd       = 51, 56
	latStart, latEnd         = 57, 64
	lonStart, lonEnd         = 65, 73
	elevStart, elevEnd       = 74, 81
	beginStart, beginEnd     = 82, 90
	endStart, endEnd         = 91, 99
)

// minRecordLen is the shortest line that can still hold coordinates.
const minRecordLen = 80

// usafSentinel marks mobile or unassigned platforms in the history file.
const usafSentinel = "999999"

// StationMetadata is one station record from the history file.
type StationMetadata struct {
	USAF      string // 6-char primary code
	WBAN      string
	Name      string
	Country   string
	State     string
	ICAO      string // secondary code, may be empty
	Lat       float64
	Lon       float64
	Elevation float64
	Begin     string // YYYYMMDD
	End       string // YYYYMMDD
}

// ActiveAt reports whether the station's active range covers t. Stations with
// no end date are considered active. This is a query, not a lookup filter —
// inactive stations still resolve.
func (m StationMetadata) ActiveAt(t time.Time) bool {
	if m.End == "" {
		return true
	}
	return m.End >= t.UTC().Format("20060102")
}

// Table is an immutable station lookup keyed by both USAF and ICAO codes.
type Table struct {
	byKey    map[string]StationMetadata
	stations int
}

// ParseTable parses the full history file text. Unparseable and sentinel
// lines are dropped silently.
func ParseTable(text string) *Table {
	t := &Table{byKey: make(map[string]StationMetadata)}
	for _, line := range strings.Split(text, "\n") {
		m, ok := parseLine(line)
		if !ok {
			continue
		}
		t.stations++
		t.byKey[m.USAF] = m
		if m.ICAO != "" {
			t.byKey[m.ICAO] = m
		}
	}
	return t
}

// Get returns the record for an exact primary or secondary key.
func (t *Table) Get(key string) (StationMetadata, bool) {
	m, ok := t.byKey[key]
	return m, ok
}

// Len returns the number of station records loaded.
func (t *Table) Len() int {
	return t.stations
}

// parseLine parses one fixed-width record. Header and separator lines, short
// lines, sentinel codes, placeholder names, and records without usable
// coordinates all return false.
func parseLine(line string) (StationMetadata, bool) {
	if len(line) < minRecordLen || strings.HasPrefix(line, "USAF") || strings.HasPrefix(line, "-") {
		return StationMetadata{}, false
	}

	usaf := field(line, usafStart, usafEnd)
	name := field(line, nameStart, nameEnd)

	if usaf == "" || usaf == usafSentinel || name == "" {
		return StationMetadata{}, false
	}
	// BOGUS and WXPOD entries are test and mobile platforms, not places.
	if strings.Contains(name, "BOGUS") || strings.Contains(name, "WXPOD") {
		return StationMetadata{}, false
	}

	lat, errLat := strconv.ParseFloat(field(line, latStart, latEnd), 64)
	lon, errLon := strconv.ParseFloat(field(line, lonStart, lonEnd), 64)
	if errLat != nil || errLon != nil {
		return StationMetadata{}, false
	}
	// (0,0) is the data-quality sentinel for "coordinates unknown".
	if lat == 0 && lon == 0 {
		return StationMetadata{}, false
	}

	elevation, err := strconv.ParseFloat(field(line, elevStart, elevEnd), 64)
	if err != nil {
		elevation = 0
	}

	return StationMetadata{
		USAF:      usaf,
		WBAN:      field(line, wbanStart, wbanEnd),
		Name:      name,
		Country:   field(line, countryStart, countryEnd),
		State:     field(line, stateStart, stateEnd),
		ICAO:      field(line, icaoStart, icaoEnd),
		Lat:       lat,
		Lon:       lon,
		Elevation: elevation,
		Begin:     field(line, beginStart, beginEnd),
		End:       field(line, endStart, endEnd),
	}, true
}

// field extracts and trims a fixed-width column, tolerating short lines.
func field(line string, start, end int) string {
	if start >= len(line) {
		return ""
	}
	if end > len(line) {
		end = len(line)
	}
	return strings.TrimSpace(line[start:end])
}
