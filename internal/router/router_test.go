package router

import (
	"encoding/json"
	"testing"

	"github.com/felicia-viz/viz-relay/internal/connection/conntest"
	"github.com/felicia-viz/viz-relay/internal/model"
	"github.com/felicia-viz/viz-relay/internal/topic"
)

func newTestRouter() (Router, *topic.Map) {
	topics := topic.NewMap()
	topics.Apply(model.TopicInfo{Topic: "camera/front", TypeName: model.TypeCameraFrame, Status: model.TopicRegistered})
	topics.Apply(model.TopicInfo{Topic: "imu", TypeName: model.TypeImuFrame, Status: model.TopicRegistered})
	return NewRouter(topics, nil, nil), topics
}

type topicInfoFrame struct {
	Type string            `json:"type"`
	Data []model.TopicInfo `json:"data"`
}

type topicsQueryFrame struct {
	QueryType string               `json:"queryType"`
	Data      []model.TopicSummary `json:"data"`
}

func TestRouter_MalformedJSON(t *testing.T) {
	r, _ := newTestRouter()
	c := conntest.New("a")
	c.SetSubscriptionType(model.TypeCameraFrame)

	for _, raw := range []string{`{not json`, ``, `null`, `[1,2]`, `{"type": 7}`} {
		r.Route(c, []byte(raw))
	}

	if c.SubscriptionType() != model.TypeCameraFrame {
		t.Errorf("SubscriptionType() = %q, want unchanged %q", c.SubscriptionType(), model.TypeCameraFrame)
	}
	if len(c.Frames()) != 0 {
		t.Errorf("malformed input produced %d frames", len(c.Frames()))
	}
	if c.Closed() {
		t.Error("malformed input closed the connection")
	}

	stats := r.Stats()
	if stats.ParseErrors != 5 {
		t.Errorf("ParseErrors = %d, want 5", stats.ParseErrors)
	}
	if stats.MessagesReceived != 5 {
		t.Errorf("MessagesReceived = %d, want 5", stats.MessagesReceived)
	}
}

func TestRouter_TopicInfo(t *testing.T) {
	r, topics := newTestRouter()
	c := conntest.New("a")

	r.Route(c, []byte(`{"type":"felicia.TopicInfo"}`))

	if c.SubscriptionType() != model.TypeTopicInfo {
		t.Errorf("SubscriptionType() = %q, want %q", c.SubscriptionType(), model.TypeTopicInfo)
	}

	var got topicInfoFrame
	if !c.Last(&got) {
		t.Fatal("no response sent")
	}
	if got.Type != model.TypeTopicInfo {
		t.Errorf("response type = %q, want %q", got.Type, model.TypeTopicInfo)
	}

	want := topics.List()
	if len(got.Data) != len(want) {
		t.Fatalf("len(data) = %d, want %d", len(got.Data), len(want))
	}
	for i := range want {
		if got.Data[i].Topic != want[i].Topic || got.Data[i].TypeName != want[i].TypeName {
			t.Errorf("data[%d] = %s/%s, want %s/%s", i, got.Data[i].Topic, got.Data[i].TypeName, want[i].Topic, want[i].TypeName)
		}
	}
}

func TestRouter_TopicInfoEmptyMap(t *testing.T) {
	r := NewRouter(topic.NewMap(), nil, nil)
	c := conntest.New("a")

	r.Route(c, []byte(`{"type":"felicia.TopicInfo"}`))

	frames := c.Frames()
	if len(frames) != 1 {
		t.Fatalf("sent %d frames, want 1", len(frames))
	}
	if string(frames[0]) != `{"type":"felicia.TopicInfo","data":[]}` {
		t.Errorf("frame = %s", frames[0])
	}
}

func TestRouter_MetaInfoTopics(t *testing.T) {
	r, _ := newTestRouter()
	c := conntest.New("a")

	r.Route(c, []byte(`{"type":"META_INFO","queryType":"Topics"}`))

	var got topicsQueryFrame
	if !c.Last(&got) {
		t.Fatal("no response sent")
	}
	if got.QueryType != model.QueryTopics {
		t.Errorf("queryType = %q, want %q", got.QueryType, model.QueryTopics)
	}
	want := []model.TopicSummary{
		{Topic: "camera/front", TypeName: model.TypeCameraFrame},
		{Topic: "imu", TypeName: model.TypeImuFrame},
	}
	if len(got.Data) != len(want) {
		t.Fatalf("len(data) = %d, want %d", len(got.Data), len(want))
	}
	for i := range want {
		if got.Data[i] != want[i] {
			t.Errorf("data[%d] = %+v, want %+v", i, got.Data[i], want[i])
		}
	}

	// The response carries only topic and typeName.
	var raw struct {
		Data []map[string]json.RawMessage `json:"data"`
	}
	c.Last(&raw)
	if len(raw.Data[0]) != 2 {
		t.Errorf("summary fields = %v, want topic and typeName only", raw.Data[0])
	}
}

func TestRouter_IgnoredMessages(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantSub string
	}{
		{"unknown type", `{"type":"felicia.CameraFrameMessage"}`, model.TypeCameraFrame},
		{"unknown query", `{"type":"META_INFO","queryType":"Nodes"}`, model.TypeMetaInfo},
		{"missing query", `{"type":"META_INFO"}`, model.TypeMetaInfo},
		{"missing type", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter()
			c := conntest.New("a")
			c.SetSubscriptionType("previous")

			r.Route(c, []byte(tt.raw))

			if len(c.Frames()) != 0 {
				t.Errorf("sent %d frames, want 0", len(c.Frames()))
			}
			if c.SubscriptionType() != tt.wantSub {
				t.Errorf("SubscriptionType() = %q, want %q", c.SubscriptionType(), tt.wantSub)
			}
			if r.Stats().UnknownMessages != 1 {
				t.Errorf("UnknownMessages = %d, want 1", r.Stats().UnknownMessages)
			}
		})
	}
}

func TestRouter_SendFailureCounted(t *testing.T) {
	r, _ := newTestRouter()
	c := conntest.New("a")
	c.Close()

	r.Route(c, []byte(`{"type":"felicia.TopicInfo"}`))

	stats := r.Stats()
	if stats.SendErrors != 1 {
		t.Errorf("SendErrors = %d, want 1", stats.SendErrors)
	}
	if stats.ResponsesSent != 0 {
		t.Errorf("ResponsesSent = %d, want 0", stats.ResponsesSent)
	}
}

func TestRouter_ResponseReflectsCurrentMap(t *testing.T) {
	r, topics := newTestRouter()
	c := conntest.New("a")

	topics.Apply(model.TopicInfo{Topic: "imu", Status: model.TopicUnregistered})
	r.Route(c, []byte(`{"type":"felicia.TopicInfo"}`))

	var got topicInfoFrame
	c.Last(&got)
	if len(got.Data) != 1 || got.Data[0].Topic != "camera/front" {
		t.Errorf("data = %+v, want only camera/front", got.Data)
	}
}
