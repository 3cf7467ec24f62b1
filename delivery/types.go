package delivery

import (
	"context"

	"github.com/raportyapp/raporty/report"
)

// Destination defines the interface for delivery channels
type Destination interface {
	// Deliver sends one artifact to the destination. An error marks the
	// attempt as transient and the dispatcher may retry it.
	Deliver(ctx context.Context, artifact *report.Artifact) error

	// Name returns the destination identifier used in requests and results
	Name() string

	// Type returns the channel type (telegram, mailer, s3, ...)
	Type() string

	// Validate validates the destination configuration
	Validate() error
}
