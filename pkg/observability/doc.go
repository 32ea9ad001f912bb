/*
Package observability turns scheduler lifecycle events into structured logs
and Prometheus metrics.

Both LogHooks and Metrics.Hooks return domain.LifecycleHooks values, so they
can be combined with domain.MergeHooks and passed to the engine.
*/
package observability
