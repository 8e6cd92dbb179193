// Package api provides the HTTP surface of OrderLens: the query endpoint used
// by the chart front end, a health check and the Prometheus metrics endpoint.
package api
