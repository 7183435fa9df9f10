package broadcast

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/felicia-viz/viz-relay/internal/connection"
	"github.com/felicia-viz/viz-relay/internal/connection/conntest"
	"github.com/felicia-viz/viz-relay/internal/model"
)

func newRegistry(t *testing.T, conns ...connection.Conn) *connection.Registry {
	t.Helper()
	r := connection.NewRegistry(connection.RegistryConfig{}, nil, nil)
	for _, c := range conns {
		if err := r.Register(c); err != nil {
			t.Fatalf("Register(%s): %v", c.ID(), err)
		}
	}
	return r
}

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func TestBroadcast_ReachesEveryConnection(t *testing.T) {
	a, b := conntest.New("a"), conntest.New("b")
	a.SetSubscriptionType(model.TypeCameraFrame)

	bc := New(Config{}, newRegistry(t, a, b), nil, nil)

	n, err := bc.Broadcast("camera/front", json.RawMessage(`{"width":640}`), model.TypeCameraFrame)
	if err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Broadcast() = %d, want 2", n)
	}

	for _, c := range []*conntest.Fake{a, b} {
		var got frame
		if !c.Last(&got) {
			t.Fatalf("%s received nothing", c.ID())
		}
		if got.Type != model.TypeCameraFrame {
			t.Errorf("%s type = %q, want %q", c.ID(), got.Type, model.TypeCameraFrame)
		}
		if string(got.Data) != `{"width":640}` {
			t.Errorf("%s data = %s", c.ID(), got.Data)
		}
	}
}

func TestBroadcast_FilterBySubscription(t *testing.T) {
	a, b := conntest.New("a"), conntest.New("b")
	a.SetSubscriptionType(model.TypeCameraFrame)
	b.SetSubscriptionType(model.TypeTopicInfo)

	bc := New(Config{FilterBySubscription: true}, newRegistry(t, a, b), nil, nil)

	n, _ := bc.Broadcast("camera/front", "x", model.TypeCameraFrame)
	if n != 1 {
		t.Errorf("Broadcast() = %d, want 1", n)
	}
	if len(a.Frames()) != 1 {
		t.Errorf("subscribed connection got %d frames, want 1", len(a.Frames()))
	}
	if len(b.Frames()) != 0 {
		t.Errorf("unsubscribed connection got %d frames, want 0", len(b.Frames()))
	}
}

func TestBroadcast_SkipsClosedAndFailing(t *testing.T) {
	a, b, c := conntest.New("a"), conntest.New("b"), conntest.New("c")
	b.Close()
	c.FailSends(errors.New("boom"))

	bc := New(Config{}, newRegistry(t, a, b, c), nil, nil)

	n, err := bc.Broadcast("imu", map[string]int{"seq": 1}, model.TypeImuFrame)
	if err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Broadcast() = %d, want 1", n)
	}
}

func TestBroadcast_BytesAreBase64(t *testing.T) {
	a := conntest.New("a")
	bc := New(Config{}, newRegistry(t, a), nil, nil)

	bc.Broadcast("lidar", []byte{0x08, 0x96, 0x01}, model.TypeLidarFrame)

	frames := a.Frames()
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	want := `{"type":"felicia.LidarFrameMessage","data":"CJYB"}`
	if string(frames[0]) != want {
		t.Errorf("frame = %s, want %s", frames[0], want)
	}
}

func TestBroadcast_NoConnections(t *testing.T) {
	bc := New(Config{}, newRegistry(t), nil, nil)

	n, err := bc.Broadcast("imu", json.RawMessage(`{}`), model.TypeImuFrame)
	if err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Broadcast() = %d, want 0", n)
	}
}

func TestBroadcast_EncodeError(t *testing.T) {
	a := conntest.New("a")
	bc := New(Config{}, newRegistry(t, a), nil, nil)

	_, err := bc.Broadcast("bad", make(chan int), "x")
	if err == nil {
		t.Fatal("Broadcast() expected error for unencodable data")
	}
	if len(a.Frames()) != 0 {
		t.Error("frame sent despite encode error")
	}
}
