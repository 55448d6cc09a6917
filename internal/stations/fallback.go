// Package stations provides a last-resort metadata source for observations
// the ISD history table does not cover: a small table of well-known station
// identifiers plus an ICAO-prefix country guess.
package stations

import "strings"

// Info is the minimal metadata the ranker needs to present a station.
type Info struct {
	Name    string
	Country string
}

// wellKnown covers research stations and airports that show up in coldest
// rankings often enough to deserve a proper name.
var wellKnown = map[string]Info{
	// Antarctic research stations.
	"NZSP": {Name: "Amundsen-Scott South Pole Station", Country: "Antarctica"},
	"NZPG": {Name: "Pegasus Field", Country: "Antarctica"},
	"NZIR": {Name: "McMurdo Station", Country: "Antarctica"},
	"SAWB": {Name: "Belgrano II Base", Country: "Antarctica"},

	// Siberia.
	"UHMM": {Name: "Mirny Airport", Country: "Russia"},
	"UEST": {Name: "Tiksi Airport", Country: "Russia"},
	"UOOO": {Name: "Oymyakon", Country: "Russia"},
	"UEEE": {Name: "Yakutsk Airport", Country: "Russia"},
	"UHPP": {Name: "Pevek Airport", Country: "Russia"},

	// Canada.
	"CYYC": {Name: "Calgary International Airport", Country: "Canada"},
	"CYEG": {Name: "Edmonton International Airport", Country: "Canada"},
	"CYVR": {Name: "Vancouver International Airport", Country: "Canada"},
	"CYYZ": {Name: "Toronto Pearson International", Country: "Canada"},
	"CYUL": {Name: "Montreal-Trudeau International", Country: "Canada"},
	"CYQB": {Name: "Quebec City Jean Lesage International", Country: "Canada"},
	"CYWG": {Name: "Winnipeg James Armstrong Richardson International", Country: "Canada"},
	"CYOW": {Name: "Ottawa Macdonald-Cartier International", Country: "Canada"},
	"CYHZ": {Name: "Halifax Stanfield International", Country: "Canada"},
	"CYYT": {Name: "St. John's International Airport", Country: "Canada"},

	// Greenland.
	"BGBW": {Name: "Narsarsuaq Airport", Country: "Greenland"},
	"BGGH": {Name: "Nuuk Airport", Country: "Greenland"},
	"BGTL": {Name: "Thule Air Base", Country: "Greenland"},

	// Alaska.
	"PANC": {Name: "Ted Stevens Anchorage International", Country: "United States"},
	"PAFA": {Name: "Fairbanks International Airport", Country: "United States"},
	"PABR": {Name: "Wiley Post-Will Rogers Memorial Airport", Country: "United States"},
}

// Describe returns display metadata for a station id, falling back to a
// generic name and an ICAO-prefix country guess. It never returns empty
// fields.
func Describe(stationID string) Info {
	if info, ok := wellKnown[stationID]; ok {
		return info
	}

	return Info{
		Name:    stationID + " Station",
		Country: guessCountry(stationID),
	}
}

// guessCountry maps the leading letter of an ICAO identifier to a coarse
// country or region. The prefix space is far from exact; this is presentation
// filler, not geography.
func guessCountry(stationID string) string {
	if stationID == "" {
		return "Unknown"
	}
	if strings.HasPrefix(stationID, "NZ") {
		return "Antarctica/New Zealand"
	}
	switch stationID[0] {
	case 'K':
		return "United States"
	case 'C':
		return "Canada"
	case 'E':
		return "Europe"
	case 'U':
		return "Russia"
	case 'Y':
		return "Australia"
	case 'S':
		return "South America"
	case 'P':
		return "Pacific"
	default:
		return "Unknown"
	}
}
