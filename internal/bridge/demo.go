package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/felicia-viz/viz-relay/internal/model"
)

// Publisher is the producer side of a Source. LocalSource and NATSPublisher
// implement it.
type Publisher interface {
	PublishTopicInfo(info model.TopicInfo) error
	PublishPayload(topic, typeName string, data []byte) error
}

// DemoTopics are announced by RunDemo.
var DemoTopics = []model.TopicInfo{
	{
		Topic:    "demo/imu",
		TypeName: model.TypeImuFrame,
		Status:   model.TopicRegistered,
		ImplType: "PROTOBUF",
		TopicSource: model.TopicSource{ChannelDefs: []model.ChannelDef{
			{Type: model.ChannelWS, IPEndpoint: &model.IPEndpoint{IP: "127.0.0.1", Port: 0}},
		}},
	},
	{
		Topic:    "demo/pose",
		TypeName: model.TypePosefWithTimestamp,
		Status:   model.TopicRegistered,
		ImplType: "PROTOBUF",
		TopicSource: model.TopicSource{ChannelDefs: []model.ChannelDef{
			{Type: model.ChannelTCP, IPEndpoint: &model.IPEndpoint{IP: "127.0.0.1", Port: 0}},
		}},
	},
}

// DemoPayload encodes a synthetic frame: field 1 is a sequence number
// (varint), field 2 a sample value (double), field 3 a timestamp in
// microseconds (varint).
func DemoPayload(seq uint64, at time.Time) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, seq)
	b = protowire.AppendTag(b, 2, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(math.Sin(float64(seq)/10)))
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(at.UnixMicro()))
	return b
}

// RunDemo announces DemoTopics, publishes a DemoPayload on each of them every
// interval, and withdraws them when ctx is done. It returns nil on ctx
// cancellation.
func RunDemo(ctx context.Context, pub Publisher, interval time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Second
	}

	for _, info := range DemoTopics {
		if err := pub.PublishTopicInfo(info); err != nil {
			return fmt.Errorf("announce %s: %w", info.Topic, err)
		}
	}
	logger.Info("demo topics announced", "count", len(DemoTopics), "interval", interval)

	defer func() {
		for _, info := range DemoTopics {
			info.Status = model.TopicUnregistered
			if err := pub.PublishTopicInfo(info); err != nil && !errors.Is(err, ErrSourceClosed) {
				logger.Warn("failed to withdraw demo topic", "topic", info.Topic, "error", err)
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			seq++
			for _, info := range DemoTopics {
				if err := pub.PublishPayload(info.Topic, info.TypeName, DemoPayload(seq, now)); err != nil {
					return fmt.Errorf("publish %s: %w", info.Topic, err)
				}
			}
		}
	}
}
