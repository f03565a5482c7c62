package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ChatMetrics contains Prometheus metrics for the chat pipeline.
type ChatMetrics struct {
	ChatsCreated      *prometheus.CounterVec
	MessagesSent      *prometheus.CounterVec
	QueuePosition     prometheus.Histogram
	ActiveConnections prometheus.Gauge
	RoomEmissions     *prometheus.CounterVec
}

// NewChatMetrics creates and registers chat metrics with the given
// registerer.
func NewChatMetrics(registerer prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		ChatsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atiendo_chats_created_total",
				Help: "Total number of chats created",
			},
			[]string{"department"},
		),
		MessagesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atiendo_messages_sent_total",
				Help: "Total number of messages sent",
			},
			[]string{"message_type", "internal"},
		),
		QueuePosition: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "atiendo_queue_position",
			Help:    "Waiting-room position handed to joining visitors",
			Buckets: []float64{1, 2, 3, 5, 10, 20, 50, 100},
		}),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "atiendo_websocket_connections",
			Help: "Current number of websocket connections",
		}),
		RoomEmissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atiendo_room_emissions_total",
				Help: "Total number of events emitted to rooms",
			},
			[]string{"event"},
		),
	}

	registerer.MustRegister(
		m.ChatsCreated,
		m.MessagesSent,
		m.QueuePosition,
		m.ActiveConnections,
		m.RoomEmissions,
	)

	return m
}
