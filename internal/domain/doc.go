// Package domain holds the canonical observation model shared by every feed
// adapter and the reconciliation pipeline.
//
// # Sources
//
// Three upstream feeds are normalized into [Observation]:
//
//	METAR — the NOAA aviation weather cache, a gzipped CSV of ~10,000 global
//	airport reports keyed by ICAO code.
//	SYNOP — WMO FM-12 surface bulletins fetched per cold region and decoded
//	by the synop package, keyed by 5-digit WMO station number.
//	EC    — Environment Canada past-conditions pages scraped for a fixed set
//	of Arctic and Subarctic stations.
//
// Reconciliation merges the three under a fixed priority (SYNOP, then METAR,
// then EC) with case-insensitive station-id deduplication. Priority is
// source-order based, never recency based: a SYNOP record for a station
// always wins over a METAR record for the same station, even when the METAR
// report is fresher. Recency only matters for duplicates within the SYNOP
// feed itself, where the later bulletin wins.
package domain
