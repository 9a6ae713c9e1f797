// Package observability turns policy lifecycle hooks into Prometheus metrics.
package observability
