package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Sync metric names
const (
	MetricNamePullsTotal           = "sync_pulls_total"
	MetricNamePullDuration         = "sync_pull_duration_seconds"
	MetricNameEntitiesApplied      = "sync_entities_applied_total"
	MetricNameFilesFetched         = "sync_recording_files_fetched_total"
	MetricNameFilesMissing         = "sync_recording_files_missing_total"
	MetricNameImportRollbacks      = "sync_import_rollbacks_total"
	MetricNameChannelSessionsOpened = "channel_sessions_opened_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Sync metric help text
const (
	HelpTextPullsTotal            = "Total number of pull attempts by outcome"
	HelpTextPullDuration          = "Pull duration in seconds"
	HelpTextEntitiesApplied       = "Total number of entity rows applied by imports"
	HelpTextFilesFetched          = "Total number of recording files fetched from remote nodes"
	HelpTextFilesMissing          = "Total number of recording files reported missing by remote nodes"
	HelpTextImportRollbacks       = "Total number of imports rolled back"
	HelpTextChannelSessionsOpened = "Total number of channel sessions opened by remote nodes"
)

// ============================================================================
// Metric Label Names
// ============================================================================

// Common label names used across metrics
const (
	LabelMethod     = "method"
	LabelPath       = "path"
	LabelStatus     = "status"
	LabelRemoteNode = "remote_node"
	LabelKind       = "kind"
)

// ============================================================================
// Histogram Buckets
// ============================================================================

// HTTPLatencyBuckets defines the histogram buckets for HTTP request duration
// in seconds. These buckets range from 1ms to 10s to capture various latency
// patterns: fast (1-10ms), normal (10-100ms), slow (100ms-1s), very slow (1-10s)
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// PullDurationBuckets covers whole pulls, which move entity pages and
// recording payloads and can legitimately run for minutes.
var PullDurationBuckets = []float64{.1, .5, 1, 5, 15, 30, 60, 120, 300, 600}
