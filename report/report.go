package report

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind the report kind
type Kind string

// Kind constants
const (
	KindDaily       Kind = "daily"        // text summary of one user's day
	KindMonthly     Kind = "monthly"      // xlsx export of a full month, all users
	KindMonthlyUser Kind = "monthly-user" // xlsx export of a full month, one user
)

// Trigger sources
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
	TriggerBot      = "bot"
)

// Request identifies one report to build. A request is immutable and
// discarded after processing; exactly one artifact or one error is
// produced per request.
type Request struct {
	ID           string    `json:"id"`
	Kind         Kind      `json:"kind"`
	Date         string    `json:"date,omitempty"`  // dd.mm.yyyy, daily reports
	Month        string    `json:"month,omitempty"` // YYYY-MM, monthly reports
	UserID       int64     `json:"user_id,omitempty"`
	UserName     string    `json:"user_name,omitempty"`
	Destinations []string  `json:"destinations,omitempty"` // empty = all configured
	Trigger      string    `json:"trigger"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewRequest creates a request with a fresh id
func NewRequest(kind Kind, trigger string) *Request {
	return &Request{
		ID:        uuid.NewString(),
		Kind:      kind,
		Trigger:   trigger,
		CreatedAt: time.Now(),
	}
}

// Validate checks the request shape before it is queued
func (req *Request) Validate() error {
	switch req.Kind {
	case KindDaily:
		if req.Date == "" {
			return fmt.Errorf("daily report requires a date")
		}
	case KindMonthly:
		if req.Month == "" {
			return fmt.Errorf("monthly report requires a month")
		}
	case KindMonthlyUser:
		if req.Month == "" {
			return fmt.Errorf("monthly report requires a month")
		}
		if req.UserID == 0 {
			return fmt.Errorf("per-user report requires a user id")
		}
	default:
		return fmt.Errorf("unknown report kind: %s", req.Kind)
	}
	return nil
}

// Artifact the generated report output. Owned by the generator until
// handed to delivery, which takes ownership for transmission.
type Artifact struct {
	RequestID   string    `json:"request_id"`
	Kind        Kind      `json:"kind"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Content     []byte    `json:"-"`
	Checksum    string    `json:"checksum"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NewArtifact creates an artifact and seals its checksum
func NewArtifact(req *Request, filename string, contentType string, content []byte) *Artifact {
	sum := sha256.Sum256(content)
	return &Artifact{
		RequestID:   req.ID,
		Kind:        req.Kind,
		Filename:    filename,
		ContentType: contentType,
		Content:     content,
		Checksum:    hex.EncodeToString(sum[:]),
		GeneratedAt: time.Now(),
	}
}

// DeliveryResult the outcome of delivering one artifact to one destination
type DeliveryResult struct {
	Destination string    `json:"destination"`
	Success     bool      `json:"success"`
	Attempts    int       `json:"attempts"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
