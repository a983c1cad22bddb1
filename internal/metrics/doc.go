// Package metrics provides observability hooks for build and serve metrics.
//
// The package implements the Null Object pattern so components never nil-check
// their recorder: everything takes a Recorder, and callers that don't care
// inject NoopRecorder, whose methods inline to nothing.
//
// Components receive a Recorder through dependency injection:
//
//	orch := build.New(cfg, src, out, build.WithRecorder(metrics.NoopRecorder{}))
//
// When the metrics endpoint is enabled, serve mode swaps in a
// PrometheusRecorder backed by its own registry and exposes it via
// HTTPHandler on /metrics.
package metrics
