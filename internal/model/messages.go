package model

import "encoding/json"

// Client protocol discriminators.
const (
	TypeMetaInfo = "META_INFO"
	QueryTopics  = "Topics"
)

// InboundEnvelope is the only shape the relay reads from browsers.
type InboundEnvelope struct {
	Type      string `json:"type"`
	QueryType string `json:"queryType,omitempty"`
}

// OutboundMessage is a typed frame pushed to browsers.
type OutboundMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// QueryResponse answers a META_INFO query.
type QueryResponse struct {
	QueryType string `json:"queryType"`
	Data      any    `json:"data"`
}

// EncodeMessage marshals a {type, data} frame.
func EncodeMessage(msgType string, data any) ([]byte, error) {
	return json.Marshal(OutboundMessage{Type: msgType, Data: data})
}

// EncodeQueryResponse marshals a {queryType, data} frame.
func EncodeQueryResponse(queryType string, data any) ([]byte, error) {
	return json.Marshal(QueryResponse{QueryType: queryType, Data: data})
}
