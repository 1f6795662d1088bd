/*
Package observability turns orchestrator lifecycle hooks into structured logs and
Prometheus metrics.

Both producers return a domain.LifecycleHooks value; combine them with Merge and
pass the result to orchestrator.WithLifecycleHooks:

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	hooks := observability.LoggingHooks(logger).Merge(metrics.Hooks())
*/
package observability
