package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "registry",
		Name:      "requests_created_total",
		Help:      "Change requests recorded, by type.",
	}, []string{"type"})

	requestsRefused = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "registry",
		Name:      "requests_refused_total",
		Help:      "Change requests refused, by error code.",
	}, []string{"code"})

	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "registry",
		Name:      "decisions_total",
		Help:      "Decisions applied, by request type and outcome.",
	}, []string{"type", "decision"})
)
