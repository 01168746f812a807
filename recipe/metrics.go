package recipe

import (
	"go.opentelemetry.io/otel/metric"
)

type instruments struct {
	mutations       metric.Int64Counter
	saves           metric.Int64Counter
	saveFailures    metric.Int64Counter
	hydrateFailures metric.Int64Counter
	saveDuration    metric.Float64Histogram
	collectionSize  metric.Int64Gauge
}

func newInstruments(m metric.Meter) instruments {
	mutations, _ := m.Int64Counter("recipe_mutations_total",
		metric.WithDescription("Total number of successful create, update and delete operations"))
	saves, _ := m.Int64Counter("recipe_saves_total",
		metric.WithDescription("Total number of save attempts against the persistence bridge"))
	saveFailures, _ := m.Int64Counter("recipe_save_failures_total",
		metric.WithDescription("Total number of save attempts that failed"))
	hydrateFailures, _ := m.Int64Counter("recipe_hydrate_failures_total",
		metric.WithDescription("Total number of hydrations that fell back to an empty collection"))
	saveDuration, _ := m.Float64Histogram("recipe_save_duration_seconds",
		metric.WithDescription("Duration of individual save attempts in seconds"))
	collectionSize, _ := m.Int64Gauge("recipe_collection_size",
		metric.WithDescription("Number of recipes in the collection after the latest change"))

	return instruments{
		mutations:       mutations,
		saves:           saves,
		saveFailures:    saveFailures,
		hydrateFailures: hydrateFailures,
		saveDuration:    saveDuration,
		collectionSize:  collectionSize,
	}
}
