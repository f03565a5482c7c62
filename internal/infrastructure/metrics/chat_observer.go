package metrics

import (
	"context"
	"encoding/json"
	"strconv"

	domainchat "github.com/atiendo/atiendo/internal/domain/chat"
	"github.com/atiendo/atiendo/internal/domain/event"
	domainmessage "github.com/atiendo/atiendo/internal/domain/message"
)

// payloadEvent is implemented by events deserialized from a broker.
type payloadEvent interface {
	event.DomainEvent
	Payload() json.RawMessage
}

// ChatObserver feeds ChatMetrics from the event stream. It never fails:
// a malformed payload costs one sample, not a redelivery.
type ChatObserver struct {
	metrics *ChatMetrics
}

// NewChatObserver creates a new ChatObserver.
func NewChatObserver(metrics *ChatMetrics) *ChatObserver {
	return &ChatObserver{metrics: metrics}
}

// Handle counts chat.created and message.sent occurrences.
func (o *ChatObserver) Handle(_ context.Context, evt event.DomainEvent) error {
	switch evt.EventType() {
	case domainchat.EventTypeChatCreated:
		o.observeCreated(evt)
	case domainmessage.EventTypeMessageSent:
		o.observeSent(evt)
	}
	return nil
}

func (o *ChatObserver) observeCreated(evt event.DomainEvent) {
	department := ""
	switch e := evt.(type) {
	case *domainchat.Created:
		department = e.ChatMeta.Department
	case payloadEvent:
		var snapshot struct {
			ChatMeta domainchat.Metadata
		}
		if err := json.Unmarshal(e.Payload(), &snapshot); err != nil {
			return
		}
		department = snapshot.ChatMeta.Department
	default:
		return
	}

	o.metrics.ChatsCreated.WithLabelValues(department).Inc()
}

func (o *ChatObserver) observeSent(evt event.DomainEvent) {
	var messageType domainmessage.Type
	var internal bool

	switch e := evt.(type) {
	case *domainmessage.Sent:
		messageType = e.MessageType
		internal = e.IsInternal
	case payloadEvent:
		var snapshot struct {
			MessageType domainmessage.Type
			IsInternal  bool
		}
		if err := json.Unmarshal(e.Payload(), &snapshot); err != nil {
			return
		}
		messageType = snapshot.MessageType
		internal = snapshot.IsInternal
	default:
		return
	}

	o.metrics.MessagesSent.WithLabelValues(string(messageType), strconv.FormatBool(internal)).Inc()
}

// ObserveQueuePosition records one waiting-room position sample.
func (m *ChatMetrics) ObserveQueuePosition(position int) {
	m.QueuePosition.Observe(float64(position))
}

// RoomEmitter pushes a named wire event to every client in a room.
type RoomEmitter interface {
	EmitToRoom(room, eventName string, payload any) error
}

// ClientCounter reports the current number of connected clients.
// Implemented by the websocket hub.
type ClientCounter interface {
	ClientCount() int
}

// InstrumentedRoomEmitter decorates a RoomEmitter with emission counts
// and keeps the connection gauge in step with the hub.
type InstrumentedRoomEmitter struct {
	next    RoomEmitter
	counter ClientCounter
	metrics *ChatMetrics
}

// NewInstrumentedRoomEmitter creates a new InstrumentedRoomEmitter.
func NewInstrumentedRoomEmitter(
	next RoomEmitter,
	counter ClientCounter,
	metrics *ChatMetrics,
) *InstrumentedRoomEmitter {
	return &InstrumentedRoomEmitter{next: next, counter: counter, metrics: metrics}
}

// EmitToRoom forwards the emission and records it.
func (e *InstrumentedRoomEmitter) EmitToRoom(room, eventName string, payload any) error {
	err := e.next.EmitToRoom(room, eventName, payload)
	if err == nil {
		e.metrics.RoomEmissions.WithLabelValues(eventName).Inc()
	}
	if e.counter != nil {
		e.metrics.ActiveConnections.Set(float64(e.counter.ClientCount()))
	}
	return err
}
