package model

// -----------------------------------------------------------------------------
// Topic Discovery Types
// -----------------------------------------------------------------------------

// TopicStatus is the registration state carried by a TopicInfo update.
type TopicStatus string

const (
	TopicRegistered   TopicStatus = "REGISTERED"
	TopicUnregistered TopicStatus = "UNREGISTERED"
)

// ChannelType identifies how a topic publisher can be reached.
type ChannelType string

const (
	ChannelTCP          ChannelType = "CHANNEL_TYPE_TCP"
	ChannelUDP          ChannelType = "CHANNEL_TYPE_UDP"
	ChannelWS           ChannelType = "CHANNEL_TYPE_WS"
	ChannelUDS          ChannelType = "CHANNEL_TYPE_UDS"
	ChannelSharedMemory ChannelType = "CHANNEL_TYPE_SHM"
)

// IPEndpoint is a publisher's network address.
type IPEndpoint struct {
	IP   string `json:"ip"`
	Port int    `json:"port"`
}

// ChannelDef describes one channel a publisher serves a topic on.
type ChannelDef struct {
	Type       ChannelType `json:"type"`
	IPEndpoint *IPEndpoint `json:"ipEndpoint,omitempty"`
}

// TopicSource lists the channels a topic is published on.
type TopicSource struct {
	ChannelDefs []ChannelDef `json:"channelDefs"`
}

// TopicInfo is one Topic Map entry, as announced by the discovery feed.
type TopicInfo struct {
	Topic       string      `json:"topic"`       // Unique key
	TypeName    string      `json:"typeName"`    // Protobuf message type
	TopicSource TopicSource `json:"topicSource"` // Publisher channels
	Status      TopicStatus `json:"status"`      // REGISTERED or UNREGISTERED
	ImplType    string      `json:"implType"`    // "PROTOBUF", "ROS", ...
}

// HasChannel reports whether the topic is served on a channel of the given type.
func (t TopicInfo) HasChannel(ct ChannelType) bool {
	for _, def := range t.TopicSource.ChannelDefs {
		if def.Type == ct {
			return true
		}
	}
	return false
}

// TopicSummary is the reduced form returned by the "Topics" meta-info query.
type TopicSummary struct {
	Topic    string `json:"topic"`
	TypeName string `json:"typeName"`
}

// Summary reduces a TopicInfo to its topic/type pair.
func (t TopicInfo) Summary() TopicSummary {
	return TopicSummary{Topic: t.Topic, TypeName: t.TypeName}
}

// -----------------------------------------------------------------------------
// Message Types
// -----------------------------------------------------------------------------

// Well-known protobuf type names published by Felicia nodes.
const (
	TypeTopicInfo              = "felicia.TopicInfo"
	TypeCameraFrame            = "felicia.CameraFrameMessage"
	TypeDepthCameraFrame       = "felicia.DepthCameraFrameMessage"
	TypeImageWithBoundingBoxes = "felicia.ImageWithBoundingBoxesMessage"
	TypeImageWithHumans        = "felicia.ImageWithHumansMessage"
	TypeImuFrame               = "felicia.ImuFrameMessage"
	TypeLidarFrame             = "felicia.LidarFrameMessage"
	TypePointcloudFrame        = "felicia.PointcloudFrameMessage"
	TypeOccupancyGridMap       = "felicia.OccupancyGridMapMessage"
	TypePosefWithTimestamp     = "felicia.PosefWithTimestampMessage"
)
