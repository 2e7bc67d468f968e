package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion and query counters, exposed by the server's /metrics endpoint.
var (
	ReadingsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "energy_readings_ingested_total",
		Help: "Number of new meter readings persisted by ingestion runs.",
	})

	IngestDayFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "energy_ingest_day_failures_total",
		Help: "Number of day fetches or writes that failed during ingestion.",
	})

	ReadingsQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "energy_readings_queries_total",
		Help: "Number of readings queries served, by outcome.",
	}, []string{"outcome"})
)
