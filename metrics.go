package electy

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// newMetrics initialize Prometheus metrics for monitoring peer.
// Collectors are registered on registerer when not nil
func newMetrics(peerId, namespace string, registerer prometheus.Registerer) *metrics {
	z := &metrics{
		id:        peerId,
		init:      newStateGauge(namespace, "state_init"),
		follower:  newStateGauge(namespace, "state_follower"),
		candidate: newStateGauge(namespace, "state_candidate"),
		leader:    newStateGauge(namespace, "state_leader"),
		epoch: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "electy",
				Name:      "epoch",
				Help:      "Indicates current peer epoch",
			},
			[]string{"node_id"},
		),
		electionsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "electy",
				Name:      "elections_started_total",
				Help:      "Number of election campaigns started by the peer",
			},
			[]string{"node_id"},
		),
		leadersElected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "electy",
				Name:      "leaders_elected_total",
				Help:      "Number of times the peer stepped up as leader",
			},
			[]string{"node_id"},
		),
		messagesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "electy",
				Name:      "messages_sent_total",
				Help:      "Number of messages sent by kind",
			},
			[]string{"node_id", "kind"},
		),
		messagesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "electy",
				Name:      "messages_received_total",
				Help:      "Number of messages received by kind",
			},
			[]string{"node_id", "kind"},
		),
	}

	if registerer != nil {
		z.init = register(registerer, z.init)
		z.follower = register(registerer, z.follower)
		z.candidate = register(registerer, z.candidate)
		z.leader = register(registerer, z.leader)
		z.epoch = register(registerer, z.epoch)
		z.electionsStarted = register(registerer, z.electionsStarted)
		z.leadersElected = register(registerer, z.leadersElected)
		z.messagesSent = register(registerer, z.messagesSent)
		z.messagesReceived = register(registerer, z.messagesReceived)
	}
	return z
}

func newStateGauge(namespace, name string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "electy",
			Name:      name,
			Help:      "Indicates current peer state",
		},
		[]string{"node_id"},
	)
}

// register registers collector and returns it.
// As all peers of a process share the same collectors,
// the already registered one is returned if any
func register[C prometheus.Collector](registerer prometheus.Registerer, collector C) C {
	if err := registerer.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return collector
}

// setPeerStateGauge will set the current peer gauge state with the provided value
func (m *metrics) setPeerStateGauge(role Role) {
	// Always reset the default values
	m.init.With(prometheus.Labels{"node_id": m.id}).Set(0)
	m.follower.With(prometheus.Labels{"node_id": m.id}).Set(0)
	m.candidate.With(prometheus.Labels{"node_id": m.id}).Set(0)
	m.leader.With(prometheus.Labels{"node_id": m.id}).Set(0)

	switch role {
	case Follower:
		m.follower.With(prometheus.Labels{"node_id": m.id}).Set(1)

	case Candidate:
		m.candidate.With(prometheus.Labels{"node_id": m.id}).Set(1)

	case Leader:
		m.leader.With(prometheus.Labels{"node_id": m.id}).Set(1)

	default:
		m.init.With(prometheus.Labels{"node_id": m.id}).Set(1)
	}
}

func (m *metrics) setEpoch(epoch uint64) {
	m.epoch.With(prometheus.Labels{"node_id": m.id}).Set(float64(epoch))
}

func (m *metrics) electionStarted() {
	m.electionsStarted.With(prometheus.Labels{"node_id": m.id}).Inc()
}

func (m *metrics) leaderElected() {
	m.leadersElected.With(prometheus.Labels{"node_id": m.id}).Inc()
}

func (m *metrics) messageSent(kind MessageKind) {
	m.messagesSent.With(prometheus.Labels{"node_id": m.id, "kind": kind.String()}).Inc()
}

func (m *metrics) messageReceived(kind MessageKind) {
	m.messagesReceived.With(prometheus.Labels{"node_id": m.id, "kind": kind.String()}).Inc()
}
