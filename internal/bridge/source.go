package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/felicia-viz/viz-relay/internal/model"
)

// Errors
var (
	ErrSourceClosed      = errors.New("source closed")
	ErrAlreadySubscribed = errors.New("source already subscribed")
)

// TypeNameHeader carries the protobuf type name of a payload.
const TypeNameHeader = "Felicia-Type-Name"

// Payload is one producer message for a topic.
type Payload struct {
	Topic      string
	TypeName   string // May be empty; resolved from the Topic Map
	Data       []byte // Protobuf wire bytes
	ReceivedAt time.Time
}

// TopicInfoHandler receives discovery updates.
type TopicInfoHandler func(ctx context.Context, info model.TopicInfo)

// PayloadHandler receives producer payloads.
type PayloadHandler func(ctx context.Context, p Payload)

// Source delivers producer feeds.
type Source interface {
	// Subscribe starts delivery to the handlers. Handlers may be called
	// concurrently. Subscribe may be called once.
	Subscribe(ctx context.Context, onTopic TopicInfoHandler, onPayload PayloadHandler) error

	// Connected reports whether the source currently reaches its producers.
	Connected() bool

	// Name identifies the source in logs and health output.
	Name() string

	// Close stops delivery.
	Close() error
}
