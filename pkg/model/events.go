package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope is the canonical wrapper for events published to NATS.
type Envelope struct {
	ID        uuid.UUID       `json:"id"`
	Topic     string          `json:"topic"`
	EventType string          `json:"event_type"`
	Version   string          `json:"version"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// CatalogChanged is the payload of catalog.views.invalidated events.
type CatalogChanged struct {
	Reason     string   `json:"reason"`
	Generation uint64   `json:"generation"`
	Ticker     string   `json:"ticker,omitempty"`
	Size       int      `json:"size"`
	Favorites  []string `json:"favorites"`
}
