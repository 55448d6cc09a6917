// Command synopdump decodes FM-12 SYNOP bulletin files and prints the
// reports, optionally resolving station names against a local copy of the
// ISD station history file. Useful for eyeballing what a bulletin actually
// contains when a station is missing from the ranking.
//
// Usage:
//
//	go run ./cmd/synopdump -history isd-history.txt bulletins/smra10.ruhb..txt
//	cat bulletin.txt | go run ./cmd/synopdump
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/arcticlab/coldwatch/internal/isd"
	"github.com/arcticlab/coldwatch/internal/synop"
)

type dumpedReport struct {
	StationID string  `json:"stationId"`
	TempC     float64 `json:"tempC"`
	Timestamp string  `json:"timestamp"`
	Name      string  `json:"name,omitempty"`
	Country   string  `json:"country,omitempty"`
}

func main() {
	historyPath := flag.String("history", "", "path to a local isd-history.txt for name resolution")
	dedupe := flag.Bool("dedupe", true, "keep only the most recent report per station")
	flag.Parse()

	var table *isd.Table
	if *historyPath != "" {
		data, err := os.ReadFile(*historyPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read history: %v\n", err)
			os.Exit(1)
		}
		table = isd.ParseTable(string(data))
		fmt.Fprintf(os.Stderr, "loaded %d stations\n", table.Len())
	}

	reports, err := decodeInputs(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *dedupe {
		reports = synop.DedupeByStation(reports)
	}

	enc := json.NewEncoder(os.Stdout)
	for _, report := range reports {
		dumped := dumpedReport{
			StationID: report.StationID,
			TempC:     report.TempC(),
			Timestamp: report.Timestamp.UTC().Format(time.RFC3339),
		}
		if table != nil {
			dumped.Name, dumped.Country = resolve(table, report.StationID)
		}
		if err := enc.Encode(dumped); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

// decodeInputs decodes each named file, or stdin when no files are given.
func decodeInputs(paths []string) ([]synop.Report, error) {
	if len(paths) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return synop.DecodeBulletin(string(data)), nil
	}

	var reports []synop.Report
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		reports = append(reports, synop.DecodeBulletin(string(data))...)
	}
	return reports, nil
}

// resolve tries the same key variants the service uses.
func resolve(table *isd.Table, stationID string) (name, country string) {
	keys := []string{stationID}
	if len(stationID) == 5 {
		keys = append(keys, "0"+stationID, stationID+"0")
	}
	for _, key := range keys {
		if meta, ok := table.Get(key); ok {
			return meta.Name, meta.Country
		}
	}
	return "", ""
}
