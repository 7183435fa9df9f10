package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/felicia-viz/viz-relay/internal/model"
	"github.com/felicia-viz/viz-relay/internal/version"
)

// Health statuses.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

type healthResponse struct {
	Status     string         `json:"status"`
	Version    string         `json:"version"`
	Uptime     string         `json:"uptime"`
	Components map[string]any `json:"components"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := healthResponse{
		Status:     StatusHealthy,
		Version:    version.Version,
		Uptime:     time.Since(s.started).Round(time.Second).String(),
		Components: make(map[string]any),
	}

	health.Components["connections"] = s.deps.Registry.Len()
	health.Components["topics"] = s.deps.Topics.Len()

	if s.deps.Bridge != nil {
		st := s.deps.Bridge.Status()
		health.Components["bridge"] = st
		if !st.Connected {
			health.Status = StatusDegraded
		}
	}

	if s.deps.Database != nil {
		if err := s.deps.Database.Ping(ctx); err != nil {
			health.Status = StatusUnhealthy
			health.Components["database"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["database"] = "connected"
		}
	}

	status := http.StatusOK
	if health.Status == StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, health)
}

// handleTopics lists the Topic Map. ?channel=CHANNEL_TYPE_WS keeps only
// topics served on that channel type.
func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	topics := s.deps.Topics.List()
	if channel := r.URL.Query().Get("channel"); channel != "" {
		filtered := make([]model.TopicInfo, 0, len(topics))
		for _, info := range topics {
			if info.HasChannel(model.ChannelType(channel)) {
				filtered = append(filtered, info)
			}
		}
		topics = filtered
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(topics),
		"topics": topics,
	})
}

func (s *Server) handleTopic(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["topic"]

	info, ok := s.deps.Topics.Get(name)
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "topic not found",
			"topic": name,
		})
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

type connectionView struct {
	ID               string    `json:"id"`
	RemoteAddr       string    `json:"remoteAddr"`
	SubscriptionType string    `json:"subscriptionType"`
	ConnectedAt      time.Time `json:"connectedAt"`
	Closed           bool      `json:"closed"`
}

func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	conns := s.deps.Registry.Snapshot()

	views := make([]connectionView, 0, len(conns))
	for _, c := range conns {
		views = append(views, connectionView{
			ID:               c.ID(),
			RemoteAddr:       c.RemoteAddr(),
			SubscriptionType: c.SubscriptionType(),
			ConnectedAt:      c.ConnectedAt(),
			Closed:           c.Closed(),
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"count":       len(views),
		"connections": views,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("failed to write json response", "status", status, "error", err)
	}
}
