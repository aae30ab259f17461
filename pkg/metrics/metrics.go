// Package metrics holds the prometheus collectors shared by the session
// manager, the contract gateway and the workflow controller.
package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/DeBrosOfficial/filevault/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "filevault"

var (
	sessionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "session", Name: "transitions_total", Help: "Session state transitions by target state."},
		[]string{"state"},
	)
	sessionConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Subsystem: "session", Name: "connected", Help: "1 while a wallet session is connected."},
	)
	contractCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "contract", Name: "calls_total", Help: "Contract calls by method and result code."},
		[]string{"method", "result"},
	)
	contractLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Subsystem: "contract", Name: "call_duration_seconds", Help: "Contract call latency, including receipt waits.", Buckets: prometheus.ExponentialBuckets(0.05, 2, 12)},
		[]string{"method"},
	)
	workflowOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "workflow", Name: "operations_total", Help: "Workflow operations by kind and result code."},
		[]string{"operation", "result"},
	)
	bytesHashed = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "hash", Name: "bytes_total", Help: "Bytes fed through the file hasher."},
	)
)

func init() {
	_ = prometheus.Register(sessionTransitions)
	_ = prometheus.Register(sessionConnected)
	_ = prometheus.Register(contractCalls)
	_ = prometheus.Register(contractLatency)
	_ = prometheus.Register(workflowOps)
	_ = prometheus.Register(bytesHashed)
}

// Result renders err as a low-cardinality label value.
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(errors.GetErrorCode(err))
}

// SessionTransition counts one change of the session into state.
func SessionTransition(state string) {
	sessionTransitions.WithLabelValues(state).Inc()
}

// SessionConnected sets the connected gauge.
func SessionConnected(connected bool) {
	if connected {
		sessionConnected.Set(1)
	} else {
		sessionConnected.Set(0)
	}
}

// ContractCall records one contract call started at start.
func ContractCall(method string, start time.Time, err error) {
	contractCalls.WithLabelValues(method, Result(err)).Inc()
	contractLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

// WorkflowOp records one workflow operation.
func WorkflowOp(op string, err error) {
	workflowOps.WithLabelValues(op, Result(err)).Inc()
}

// BytesHashed adds n to the hashed-bytes counter.
func BytesHashed(n int64) {
	bytesHashed.Add(float64(n))
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
