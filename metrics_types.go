package electy

import "github.com/prometheus/client_golang/prometheus"

// metrics holds all prometheus collectors of an election peer
type metrics struct {
	// id of the current peer
	id string

	init      *prometheus.GaugeVec
	follower  *prometheus.GaugeVec
	candidate *prometheus.GaugeVec
	leader    *prometheus.GaugeVec

	// epoch is the current epoch of the peer
	epoch *prometheus.GaugeVec

	electionsStarted *prometheus.CounterVec
	leadersElected   *prometheus.CounterVec

	// messagesSent and messagesReceived are labelled by message kind
	messagesSent     *prometheus.CounterVec
	messagesReceived *prometheus.CounterVec
}
