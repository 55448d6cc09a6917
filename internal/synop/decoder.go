package synop

import (
	"strconv"
	"strings"
	"time"
)

// Report is one decoded station observation from a SYNOP message.
type Report struct {
	StationID  string    // 5-digit WMO station number
	TempTenths int       // signed temperature, tenths of a degree Celsius
	Timestamp  time.Time // bulletin time, UTC
}

// TempC returns the temperature in degrees Celsius.
func (r Report) TempC() float64 {
	return float64(r.TempTenths) / 10
}

const (
	// missingPrefix marks a group as a missing-data placeholder, never a station id.
	missingPrefix = "999"

	// maxMissingMagnitude: TTT values of 900 and above are reserved sentinels.
	maxMissingMagnitude = 900

	// Plausibility fence for decoded temperatures, in tenths of a degree.
	minTempTenths = -900
	maxTempTenths = 600
)

// DecodeBulletin parses the full text of one bulletin into reports.
// Lines that do not decode are skipped; the result may be empty.
func DecodeBulletin(text string) []Report {
	lines := strings.Split(text, "\n")

	timestamp, ok := parseHeaderTime(lines[0])
	if !ok {
		timestamp = clock.Now().UTC()
	}

	var reports []Report
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if skipLine(trimmed) {
			continue
		}
		if report, ok := decodeMessage(trimmed, timestamp); ok {
			reports = append(reports, report)
		}
	}
	return reports
}

// skipLine filters empty lines, repeated bulletin headers (the SM bulletin-type
// prefix), and short trailing terminators such as "NIL=".
func skipLine(trimmed string) bool {
	if trimmed == "" {
		return true
	}
	if strings.HasPrefix(trimmed, "SM") {
		return true
	}
	if strings.HasSuffix(trimmed, "=") && len(trimmed) < 10 {
		return true
	}
	return false
}

// parseHeaderTime reads the header's third token as DDHHMM and combines it
// with the current UTC year and month.
func parseHeaderTime(header string) (time.Time, bool) {
	parts := strings.Fields(header)
	if len(parts) < 3 {
		return time.Time{}, false
	}

	token := parts[2]
	if len(token) != 6 || !allDigits(token) {
		return time.Time{}, false
	}

	day, _ := strconv.Atoi(token[0:2])
	hour, _ := strconv.Atoi(token[2:4])
	minute, _ := strconv.Atoi(token[4:6])

	now := clock.Now().UTC()
	return time.Date(now.Year(), now.Month(), day, hour, minute, 0, 0, time.UTC), true
}

// decodeMessage extracts the station id and temperature from one message.
func decodeMessage(line string, timestamp time.Time) (Report, bool) {
	groups := strings.Fields(strings.TrimSuffix(line, "="))

	// A message carries at least a station id and some data groups.
	if len(groups) < 3 {
		return Report{}, false
	}

	stationIdx := -1
	for i := 0; i < len(groups) && i < 5; i++ {
		if isStationGroup(groups[i]) {
			stationIdx = i
			break
		}
	}
	if stationIdx == -1 {
		return Report{}, false
	}

	type candidate struct {
		tenths   int
		position int
	}
	var candidates []candidate

	for i := stationIdx + 1; i < len(groups); i++ {
		if tenths, ok := decodeTempGroup(groups[i]); ok {
			candidates = append(candidates, candidate{tenths: tenths, position: i})
		}
	}
	if len(candidates) == 0 {
		return Report{}, false
	}

	// Prefer a candidate at least three groups past the station id; that
	// skips the iihVV and Nddff groups, which can accidentally match the
	// temperature shape. Otherwise take the last candidate found.
	chosen := candidates[len(candidates)-1]
	for _, c := range candidates {
		if c.position >= stationIdx+3 {
			chosen = c
			break
		}
	}

	return Report{
		StationID:  groups[stationIdx],
		TempTenths: chosen.tenths,
		Timestamp:  timestamp,
	}, true
}

// isStationGroup reports whether a group is a plausible IIiii station id.
func isStationGroup(group string) bool {
	return len(group) == 5 && allDigits(group) && !strings.HasPrefix(group, missingPrefix)
}

// decodeTempGroup decodes a 1SnTTT temperature group into signed tenths of a
// degree Celsius. Reserved magnitudes and implausible values are rejected.
func decodeTempGroup(group string) (int, bool) {
	if len(group) != 5 || group[0] != '1' {
		return 0, false
	}
	sign := group[1]
	if sign != '0' && sign != '1' {
		return 0, false
	}
	if !allDigits(group[2:]) {
		return 0, false
	}

	magnitude, _ := strconv.Atoi(group[2:])
	if magnitude >= maxMissingMagnitude {
		return 0, false
	}

	tenths := magnitude
	if sign == '1' {
		tenths = -tenths
	}
	if tenths < minTempTenths || tenths > maxTempTenths {
		return 0, false
	}
	return tenths, true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
