package service

import (
	"github.com/itchan-dev/askchan/shared/middleware/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	replyAddressesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Name:      "reply_addresses_issued_total",
		Help:      "Reply addresses issued",
	})

	repliesRedeemed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Name:      "replies_redeemed_total",
		Help:      "Reply addresses redeemed, by resulting action",
	}, []string{"action"})

	revisionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Name:      "post_revisions_created_total",
		Help:      "Post revisions created, by revision type",
	}, []string{"type"})
)
