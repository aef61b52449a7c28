// Package metrics bundles the daemon's Prometheus instruments.
package metrics
