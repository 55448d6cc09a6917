// Package envcanada scrapes Environment Canada past-conditions pages for a
// fixed set of Arctic and Subarctic stations. Several of the coldest Canadian
// sites (Alert, Eureka, Thomsen River) report there but not through METAR, so
// scraping is the pragmatic way to get them until a structured feed is wired.
package envcanada

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/arcticlab/coldwatch/internal/domain"
)

// maxConcurrentScrapes bounds simultaneous requests to weather.gc.ca.
const maxConcurrentScrapes = 5

// Station is one scraped cold-weather site.
type Station struct {
	Code     string
	Name     string
	Province string
	Lat      float64
	Lon      float64
}

// coldWeatherStations lists the Arctic and Subarctic sites worth scraping.
// These frequently top the coldest rankings and are thin in other feeds.
var coldWeatherStations = []Station{
	// Nunavut, extreme Arctic.
	{Code: "ylt", Name: "Alert", Province: "Nunavut", Lat: 82.52, Lon: -62.28},
	{Code: "yeu", Name: "Eureka", Province: "Nunavut", Lat: 80.00, Lon: -85.93},
	{Code: "cysr", Name: "Resolute Bay", Province: "Nunavut", Lat: 74.72, Lon: -94.98},
	{Code: "cyvt", Name: "Grise Fiord", Province: "Nunavut", Lat: 76.42, Lon: -82.90},
	{Code: "yph", Name: "Hall Beach", Province: "Nunavut", Lat: 68.78, Lon: -81.24},
	{Code: "yco", Name: "Kugluktuk", Province: "Nunavut", Lat: 67.82, Lon: -115.14},
	{Code: "yfb", Name: "Iqaluit", Province: "Nunavut", Lat: 63.75, Lon: -68.56},
	{Code: "ycs", Name: "Chesterfield Inlet", Province: "Nunavut", Lat: 63.35, Lon: -90.73},

	// Northwest Territories.
	{Code: "wyf", Name: "Thomsen River", Province: "Northwest Territories", Lat: 73.23, Lon: -119.54},
	{Code: "wsq", Name: "Nangmagvik Lake (Aulavik NP)", Province: "Northwest Territories", Lat: 73.70, Lon: -119.92},
	{Code: "yck", Name: "Colville Lake", Province: "Northwest Territories", Lat: 67.03, Lon: -126.08},
	{Code: "yev", Name: "Inuvik", Province: "Northwest Territories", Lat: 68.30, Lon: -133.48},
	{Code: "yfs", Name: "Fort Simpson", Province: "Northwest Territories", Lat: 61.76, Lon: -121.24},
	{Code: "yzf", Name: "Yellowknife", Province: "Northwest Territories", Lat: 62.46, Lon: -114.44},

	// Yukon.
	{Code: "yxy", Name: "Whitehorse", Province: "Yukon", Lat: 60.72, Lon: -135.07},
	{Code: "yda", Name: "Dawson City", Province: "Yukon", Lat: 64.04, Lon: -139.13},
	{Code: "yop", Name: "Old Crow", Province: "Yukon", Lat: 67.57, Lon: -139.84},

	// Northern Quebec and Manitoba.
	{Code: "cymu", Name: "Kuujjuaq", Province: "Quebec", Lat: 58.10, Lon: -68.42},
	{Code: "cyph", Name: "Inukjuak", Province: "Quebec", Lat: 58.47, Lon: -78.08},
	{Code: "ycm", Name: "St. Theresa Point", Province: "Manitoba", Lat: 53.85, Lon: -94.85},
}

// tempRe extracts the leading numeric reading from cell text like
// "-49 (-49.3)".
var tempRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// Scraper fetches current temperatures for the cold-weather station list.
type Scraper struct {
	baseURL  string
	client   *http.Client
	logger   *slog.Logger
	stations []Station
}

// NewScraper creates a Scraper. baseURL is the past-conditions endpoint; the
// station code is appended as the station query parameter.
func NewScraper(baseURL string, client *http.Client, logger *slog.Logger) *Scraper {
	return &Scraper{
		baseURL:  baseURL,
		client:   client,
		logger:   logger,
		stations: coldWeatherStations,
	}
}

// Name implements pipeline.ObservationSource.
func (s *Scraper) Name() string {
	return string(domain.SourceEC)
}

// Fetch scrapes every station with bounded concurrency. Stations that fail
// to scrape are dropped; the source as a whole only fails on cancellation.
func (s *Scraper) Fetch(ctx context.Context) ([]domain.Observation, error) {
	var (
		mu           sync.Mutex
		observations []domain.Observation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentScrapes)

	for _, station := range s.stations {
		g.Go(func() error {
			tempC, ok := s.scrapeStation(gctx, station.Code)
			if !ok {
				return nil
			}

			obs, err := domain.NewObservation(
				strings.ToUpper(station.Code),
				station.Lat, station.Lon,
				tempC,
				time.Now().UTC(),
				domain.SourceEC,
			)
			if err != nil {
				return nil
			}
			obs.Name = station.Name
			obs.Country = "Canada"

			mu.Lock()
			observations = append(observations, obs)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("environment canada scrape complete",
		"stations", len(s.stations), "observations", len(observations))
	return observations, nil
}

// scrapeStation fetches one past-conditions page and extracts the most
// recent temperature.
func (s *Scraper) scrapeStation(ctx context.Context, code string) (float64, bool) {
	url := fmt.Sprintf("%s?station=%s", s.baseURL, code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, false
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("station scrape failed", "station", code, "error", err)
		return 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("station scrape failed", "station", code, "status", resp.StatusCode)
		return 0, false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, false
	}

	return extractTemperature(string(body))
}

// extractTemperature finds the first bold reading inside a metricData cell.
// The page layout puts the latest hourly temperature there.
func extractTemperature(page string) (float64, bool) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return 0, false
	}

	cell := findMetricDataCell(doc)
	if cell == nil {
		return 0, false
	}
	bold := findElement(cell, "b")
	if bold == nil {
		return 0, false
	}

	match := tempRe.FindString(nodeText(bold))
	if match == "" {
		return 0, false
	}
	tempC, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return tempC, true
}

// findMetricDataCell walks the document for the first <td class="metricData">.
func findMetricDataCell(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "td" {
		for _, attr := range n.Attr {
			if attr.Key == "class" && strings.Contains(attr.Val, "metricData") {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findMetricDataCell(c); found != nil {
			return found
		}
	}
	return nil
}

// findElement returns the first descendant element with the given tag.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// nodeText concatenates the text content beneath a node.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
