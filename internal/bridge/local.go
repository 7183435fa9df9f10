package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/felicia-viz/viz-relay/internal/model"
)

// LocalSource is an in-process Source. Publish calls run the handlers on the
// caller's goroutine.
type LocalSource struct {
	mu        sync.RWMutex
	ctx       context.Context
	onTopic   TopicInfoHandler
	onPayload PayloadHandler
	closed    bool
}

// NewLocalSource creates an unsubscribed LocalSource.
func NewLocalSource() *LocalSource { return &LocalSource{} }

func (s *LocalSource) Name() string { return "local" }

func (s *LocalSource) Subscribe(ctx context.Context, onTopic TopicInfoHandler, onPayload PayloadHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSourceClosed
	}
	if s.onTopic != nil || s.onPayload != nil {
		return ErrAlreadySubscribed
	}
	s.ctx = ctx
	s.onTopic = onTopic
	s.onPayload = onPayload
	return nil
}

func (s *LocalSource) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed
}

// PublishTopicInfo delivers a discovery update.
func (s *LocalSource) PublishTopicInfo(info model.TopicInfo) error {
	s.mu.RLock()
	ctx, h, closed := s.ctx, s.onTopic, s.closed
	s.mu.RUnlock()

	if closed {
		return ErrSourceClosed
	}
	if h != nil {
		h(ctx, info)
	}
	return nil
}

// PublishPayload delivers a payload for topic.
func (s *LocalSource) PublishPayload(topic, typeName string, data []byte) error {
	s.mu.RLock()
	ctx, h, closed := s.ctx, s.onPayload, s.closed
	s.mu.RUnlock()

	if closed {
		return ErrSourceClosed
	}
	if h != nil {
		h(ctx, Payload{Topic: topic, TypeName: typeName, Data: data, ReceivedAt: time.Now()})
	}
	return nil
}

func (s *LocalSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.onTopic = nil
	s.onPayload = nil
	s.mu.Unlock()
	return nil
}
