// Package observability provides OpenTelemetry-based metrics and tracing
// extensions for paralleljob. MetricsExtension records system-wide
// counters for job posting, worker starts and retirements, cancellations
// and completions, plus a duration histogram. TracingExtension opens one
// span per job, from posting until completion or cancellation.
//
// Both use the global OTel providers by default and degrade to noops
// when none are configured.
package observability
