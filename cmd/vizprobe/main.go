// vizprobe exercises a running relay from either side.
//
// Watch mode connects like a dashboard browser and prints every frame:
//
//	go run ./cmd/vizprobe --url ws://localhost:8080/ws
//
// Produce mode announces demo topics over NATS and publishes synthetic
// payloads for the relay to forward:
//
//	go run ./cmd/vizprobe --mode produce --nats nats://127.0.0.1:4222
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"

	"github.com/felicia-viz/viz-relay/internal/bridge"
	"github.com/felicia-viz/viz-relay/internal/model"
)

func main() {
	mode := flag.String("mode", "watch", "watch or produce")
	url := flag.String("url", "ws://localhost:8080/ws", "relay websocket URL (watch)")
	subscribe := flag.String("subscribe", model.TypeTopicInfo, "type sent as the first request (watch)")
	verbose := flag.Bool("verbose", false, "print full frame JSON (watch)")
	natsURL := flag.String("nats", nats.DefaultURL, "NATS server URL (produce)")
	prefix := flag.String("prefix", "felicia", "subject prefix (produce)")
	interval := flag.Duration("interval", 500*time.Millisecond, "payload interval (produce)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch *mode {
	case "watch":
		err = watch(ctx, *url, *subscribe, *verbose, logger)
	case "produce":
		err = produce(ctx, *natsURL, *prefix, *interval, logger)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		logger.Error("vizprobe failed", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func watch(ctx context.Context, url, subscribe string, verbose bool, logger *slog.Logger) error {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer ws.Close()
	logger.Info("connected", "url", url)

	requests := []model.InboundEnvelope{
		{Type: subscribe},
		{Type: model.TypeMetaInfo, QueryType: model.QueryTopics},
	}
	for _, req := range requests {
		if err := ws.WriteJSON(req); err != nil {
			return fmt.Errorf("send %s: %w", req.Type, err)
		}
	}

	// Unblock ReadMessage on shutdown.
	go func() {
		<-ctx.Done()
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		ws.Close()
	}()

	frames := 0
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("watch stopped", "frames", frames)
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		frames++
		printFrame(data, verbose)
	}
}

func printFrame(data []byte, verbose bool) {
	if verbose {
		fmt.Printf("[FRAME] %s\n", data)
		return
	}

	var frame struct {
		Type      string          `json:"type"`
		QueryType string          `json:"queryType"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &frame); err != nil {
		fmt.Printf("[INVALID] %s\n", data)
		return
	}

	switch {
	case frame.QueryType != "":
		var topics []model.TopicSummary
		json.Unmarshal(frame.Data, &topics)
		names := make([]string, 0, len(topics))
		for _, t := range topics {
			names = append(names, t.Topic+"="+t.TypeName)
		}
		fmt.Printf("[META %s] %s\n", frame.QueryType, strings.Join(names, " "))
	case frame.Type == model.TypeTopicInfo:
		var topics []model.TopicInfo
		json.Unmarshal(frame.Data, &topics)
		fmt.Printf("[TOPICS] count=%d\n", len(topics))
		for _, t := range topics {
			fmt.Printf("  %s type=%s status=%s impl=%s\n", t.Topic, t.TypeName, t.Status, t.ImplType)
		}
	default:
		var payload []byte
		json.Unmarshal(frame.Data, &payload)
		fmt.Printf("[PAYLOAD] type=%s bytes=%d valid=%t\n", frame.Type, len(payload), bridge.ValidateWire(payload) == nil)
	}
}

func produce(ctx context.Context, natsURL, prefix string, interval time.Duration, logger *slog.Logger) error {
	nc, err := nats.Connect(natsURL, nats.Name("vizprobe"))
	if err != nil {
		return fmt.Errorf("connect nats %s: %w", natsURL, err)
	}
	defer nc.Close()
	logger.Info("connected to nats", "url", nc.ConnectedUrl(), "prefix", prefix)

	pub := bridge.NewNATSPublisher(nc, prefix)
	err = bridge.RunDemo(ctx, pub, interval, logger)
	if flushErr := pub.Flush(); flushErr != nil && err == nil {
		err = fmt.Errorf("flush: %w", flushErr)
	}
	return err
}
