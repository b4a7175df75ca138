package handler

import (
	"maps"
	"slices"
	"time"
)

const defaultMetricNamespace = "SwiftByte"

const (
	UnitCount        = "Count"
	UnitMilliseconds = "Milliseconds"
)

// Metric starts a CloudWatch metric. Metrics are written in embedded metric
// format as part of the story line when the invocation (or SQS message) ends.
func (h *Context) Metric(metricName string) *MetricBuilder {
	return &MetricBuilder{
		handlerCtx: h,
		name:       metricName,
		dimensions: map[string]any{},
	}
}

type MetricBuilder struct {
	handlerCtx     *Context
	name           string
	dimensions     map[string]any
	unit           string
	highResolution bool
	value          any
}

func (m *MetricBuilder) Dimension(key string, value any) *MetricBuilder {
	m.dimensions[key] = value
	return m
}

func (m *MetricBuilder) Unit(value string) *MetricBuilder {
	m.unit = value
	return m
}

// HighResolution stores the metric with one second resolution.
func (m *MetricBuilder) HighResolution() *MetricBuilder {
	m.highResolution = true
	return m
}

// Value records the metric.
func (m *MetricBuilder) Value(value any) {
	m.value = value
	m.handlerCtx.metrics = append(m.handlerCtx.metrics, m)
}

func (h *Context) addMetricsToLogging() {
	if len(h.metrics) == 0 {
		return
	}

	namespace := GetEnvOrDefault("METRIC_NAMESPACE", defaultMetricNamespace)
	doc := emfDocument{Timestamp: time.Now().UnixMilli()}
	for _, m := range h.metrics {
		// Metric values and dimension values are top level members of the log line
		h.storyLogger.AddParam(m.name, m.value)
		for k, v := range m.dimensions {
			h.storyLogger.AddParam(k, v)
		}
		doc.Directives = append(doc.Directives, m.directive(namespace))
	}
	h.storyLogger.AddParam("_aws", doc)
}

func (m *MetricBuilder) directive(namespace string) emfDirective {
	dimensionSets := [][]string{}
	if len(m.dimensions) > 0 {
		dimensionSets = append(dimensionSets, slices.Sorted(maps.Keys(m.dimensions)))
	}

	definition := emfMetric{Name: m.name}
	if m.unit != "" {
		definition.Unit = &m.unit
	}
	if m.highResolution {
		resolution := 1
		definition.StorageResolution = &resolution
	}

	return emfDirective{
		Namespace:  namespace,
		Dimensions: dimensionSets,
		Metrics:    []emfMetric{definition},
	}
}

// emfDocument is the "_aws" member of an embedded metric format log line.
type emfDocument struct {
	Directives []emfDirective `json:"CloudWatchMetrics"`
	Timestamp  int64          `json:"Timestamp"`
}

type emfDirective struct {
	Namespace  string      `json:"Namespace"`
	Dimensions [][]string  `json:"Dimensions"`
	Metrics    []emfMetric `json:"Metrics"`
}

type emfMetric struct {
	Name              string  `json:"Name"`
	Unit              *string `json:"Unit,omitempty"`
	StorageResolution *int    `json:"StorageResolution,omitempty"`
}
