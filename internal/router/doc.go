// Package router handles inbound browser frames.
//
// Every frame is a JSON envelope {"type": ..., "queryType": ...}. A parsed
// envelope records its type as the connection's subscription type and is
// then dispatched: felicia.TopicInfo returns the whole Topic Map and
// META_INFO answers the query named by queryType. Everything else is
// ignored. Frames that are not valid JSON are logged and dropped.
package router
