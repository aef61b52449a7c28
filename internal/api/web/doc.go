// Package web serves the daemon's ops HTTP endpoint: liveness, Prometheus
// metrics and a read-only status document. It is optional and disabled when
// no listen address is configured.
package web
