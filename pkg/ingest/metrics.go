// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ingestMetrics holds the Prometheus metrics exported by the streamer,
// registered once regardless of how many Streamer values are created.
type ingestMetrics struct {
	once sync.Once

	filesWalked     prometheus.Counter
	filesParsed     prometheus.Counter
	filesSkipped    prometheus.Counter
	entitiesFound   prometheus.Counter
	edgesResolved   prometheus.Counter
	edgesUnresolved prometheus.Counter
	runDuration     prometheus.Histogram
}

var metrics ingestMetrics

func (m *ingestMetrics) init() {
	m.once.Do(func() {
		m.filesWalked = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cie_ingest_files_walked_total", Help: "Files visited by the ingestion walk.",
		})
		m.filesParsed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cie_ingest_files_parsed_total", Help: "Files successfully parsed.",
		})
		m.filesSkipped = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cie_ingest_files_skipped_total", Help: "Files skipped (excluded, too large, unsupported).",
		})
		m.entitiesFound = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cie_ingest_entities_total", Help: "Entities extracted across the run.",
		})
		m.edgesResolved = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cie_ingest_edges_resolved_total", Help: "Call edges resolved to a known entity.",
		})
		m.edgesUnresolved = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cie_ingest_edges_unresolved_total", Help: "Call edges left unresolved.",
		})
		m.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cie_ingest_run_seconds",
			Help:    "Wall-clock duration of a full Streamer.Run call.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		})
		prometheus.MustRegister(
			m.filesWalked, m.filesParsed, m.filesSkipped,
			m.entitiesFound, m.edgesResolved, m.edgesUnresolved,
			m.runDuration,
		)
	})
}
