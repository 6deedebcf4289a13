package models

import "github.com/google/uuid"

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type AbuseWarningEvent struct {
	SessionID  uuid.UUID `json:"session_id"`
	SignalType string    `json:"signal_type"`
	Count      int       `json:"count"`
}

type SessionTerminatedEvent struct {
	SessionID uuid.UUID `json:"session_id"`
	Reason    string    `json:"reason"`
}

type GemsAwardedEvent struct {
	SessionID  uuid.UUID `json:"session_id"`
	ActivityID uuid.UUID `json:"activity_id"`
	Amount     float64   `json:"amount"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

type ChatTurn struct {
	Role string `json:"role"` // "user" | "assistant"
	Text string `json:"text"`
}

type ChatRequest struct {
	ActivityID uuid.UUID  `json:"activity_id"`
	Message    string     `json:"message"`
	History    []ChatTurn `json:"history,omitempty"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}
