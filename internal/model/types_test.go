package model

import (
	"encoding/json"
	"testing"
)

func TestTopicInfo_HasChannel(t *testing.T) {
	info := TopicInfo{
		Topic:    "camera/front",
		TypeName: TypeCameraFrame,
		TopicSource: TopicSource{
			ChannelDefs: []ChannelDef{
				{Type: ChannelTCP, IPEndpoint: &IPEndpoint{IP: "10.0.0.2", Port: 40001}},
				{Type: ChannelWS, IPEndpoint: &IPEndpoint{IP: "10.0.0.2", Port: 40002}},
			},
		},
		Status: TopicRegistered,
	}

	if !info.HasChannel(ChannelWS) {
		t.Error("expected WS channel")
	}
	if info.HasChannel(ChannelUDS) {
		t.Error("did not expect UDS channel")
	}
}

func TestTopicInfo_Summary(t *testing.T) {
	info := TopicInfo{Topic: "imu", TypeName: TypeImuFrame, ImplType: "PROTOBUF"}

	got := info.Summary()
	if got.Topic != "imu" {
		t.Errorf("Topic = %q, want %q", got.Topic, "imu")
	}
	if got.TypeName != TypeImuFrame {
		t.Errorf("TypeName = %q, want %q", got.TypeName, TypeImuFrame)
	}
}

func TestTopicInfo_JSON(t *testing.T) {
	data := `{"topic":"lidar","typeName":"felicia.LidarFrameMessage","topicSource":{"channelDefs":[{"type":"CHANNEL_TYPE_WS","ipEndpoint":{"ip":"127.0.0.1","port":9000}}]},"status":"REGISTERED","implType":"PROTOBUF"}`

	var info TopicInfo
	if err := json.Unmarshal([]byte(data), &info); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if info.Topic != "lidar" {
		t.Errorf("Topic = %q, want lidar", info.Topic)
	}
	if info.Status != TopicRegistered {
		t.Errorf("Status = %q, want %q", info.Status, TopicRegistered)
	}
	if len(info.TopicSource.ChannelDefs) != 1 {
		t.Fatalf("len(ChannelDefs) = %d, want 1", len(info.TopicSource.ChannelDefs))
	}
	ep := info.TopicSource.ChannelDefs[0].IPEndpoint
	if ep == nil || ep.Port != 9000 {
		t.Errorf("IPEndpoint = %+v, want port 9000", ep)
	}
}
