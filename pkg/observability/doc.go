/*
Package observability turns engine lifecycle hooks into metrics and audit logs.

Metrics exposes Prometheus collectors for node visits, adapter latency, faults and
finished runs. LoggingHooks writes one structured log line per lifecycle event.
Both return domain.LifecycleHooks and compose with LifecycleHooks.Merge.
*/
package observability
