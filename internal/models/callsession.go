package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Speaker labels used in conversation entries.
const (
	SpeakerAssistant = "AI"
	SpeakerCaller    = "User"
)

// Call session statuses.
const (
	CallStatusActive    = "active"
	CallStatusCompleted = "completed"
)

// ConversationEntry is a single utterance in a call. Entries are append-only;
// once appended they are never mutated.
type ConversationEntry struct {
	Speaker   string    `bson:"speaker" json:"speaker"`
	Text      string    `bson:"text" json:"text"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Language  string    `bson:"language" json:"language"`
}

// CallAnalysis is the post-call transcript analysis returned by the
// completion provider.
type CallAnalysis struct {
	Summary     string  `bson:"summary" json:"summary"`
	Sentiment   string  `bson:"sentiment" json:"sentiment"`
	Intent      string  `bson:"intent" json:"intent"`
	PaymentDate *string `bson:"payment_date,omitempty" json:"payment_date"`
	MidCall     bool    `bson:"mid_call" json:"mid_call"`
}

// CallSession is the persisted record of one phone call. One document per
// call_uuid; the in-memory copy is owned exclusively by the call's stream
// handler while the call is live.
type CallSession struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CallUUID string             `bson:"call_uuid" json:"call_uuid"`
	TenantID string             `bson:"tenant_id" json:"tenant_id"`
	LoanNo   string             `bson:"loan_no,omitempty" json:"loan_no,omitempty"`

	PreferredLanguage string              `bson:"preferred_language" json:"preferred_language"`
	FinalLanguage     string              `bson:"final_language" json:"final_language"`
	Conversation      []ConversationEntry `bson:"conversation" json:"conversation"`
	Analysis          *CallAnalysis       `bson:"ai_analysis,omitempty" json:"ai_analysis,omitempty"`

	Status string `bson:"status" json:"status"`
	// TransportCut marks calls whose audio stream dropped before a farewell
	// was spoken. It overrides the model's own mid-call judgment.
	TransportCut bool `bson:"transport_cut" json:"transport_cut"`

	StartedAt       time.Time  `bson:"started_at" json:"started_at"`
	EndedAt         *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`
	DurationSeconds int64      `bson:"duration_seconds" json:"duration_seconds"`
}

// NotificationDraft is an escalation notice addressed to a human operator.
type NotificationDraft struct {
	To      string `bson:"to" json:"to"`
	Subject string `bson:"subject" json:"subject"`
	Body    string `bson:"body" json:"body"`
}
