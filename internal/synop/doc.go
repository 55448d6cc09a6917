// Package synop decodes WMO FM-12 SYNOP surface weather bulletins.
//
// # Bulletin layout
//
// A bulletin is a text file with a header line followed by SYNOP messages:
//
//	SMRA10 RUHB 090000
//	AAXX 09001
//	30372 12699 61501 11338 21377 39283 40264 52012 60002 85931=
//
// The header's third token is DDHHMM: day of month, hour, and minute UTC.
// Year and month are not transmitted; they are taken from the current clock.
// A header without a six-digit time token leaves the bulletin unstamped and
// every message in it gets the current instant instead. That approximation is
// intentional — bulletins are republished within hours of observation.
//
// # Message groups
//
// Messages are whitespace-delimited five-character groups:
//
//	IIiii  — station identifier, five digits. Found by scanning the first
//	five groups for a 5-digit group not starting with the 999 missing-data
//	marker.
//	1SnTTT — air temperature. Sn is the sign (0 positive, 1 negative), TTT
//	the magnitude in tenths of a degree Celsius. Magnitudes of 900 and above
//	are reserved/missing sentinels. Decoded values outside [-90, +60] °C are
//	rejected as implausible; those bounds are the recorded surface extremes
//	(Vostok -89.2 °C, Death Valley +56.7 °C), a sanity fence rather than a
//	protocol limit.
//
// Several other groups (cloud, wind, pressure) are five digits and can start
// with 1, so a message may contain multiple groups matching the temperature
// shape. The decoder prefers the first candidate positioned at least three
// groups past the station identifier, which skips the iihVV and Nddff groups;
// when no candidate sits that late, it falls back to the last candidate
// found. This is a positional heuristic, not a full FM-12 grammar — it has
// held up against live bulletins but deserves domain review if higher decode
// accuracy is ever required.
//
// Malformed lines are skipped individually. A bulletin that yields nothing is
// an empty result, never an error.
package synop
