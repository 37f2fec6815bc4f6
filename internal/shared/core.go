// File: internal/shared/core.go
// Package shared holds the cross-feature contracts between the notification
// read side and the product lifecycle engine, so neither package imports the
// other directly.
package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Decision is a donor's response to an outstanding request.
type Decision string

const (
	DecisionAccept  Decision = "accept"
	DecisionDecline Decision = "decline"
)

// Valid reports whether d is a known decision value.
func (d Decision) Valid() bool {
	return d == DecisionAccept || d == DecisionDecline
}

// ProductSnapshot is the read-only view of a product that accompanies a
// notification in donor-facing responses.
type ProductSnapshot struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ImageURL    string    `json:"image_url"`
	Status      string    `json:"status"`
	DonorID     string    `json:"donor_id"`
	RequesterID *string   `json:"requester_id,omitempty"`
	Country     string    `json:"country"`
	City        string    `json:"city"`
	District    string    `json:"district"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProductResolver is implemented by the product service. The notification
// service uses it to resolve snapshots for the donor's queue and to apply the
// donor's decision back onto the listing.
type ProductResolver interface {
	Snapshot(ctx context.Context, id uuid.UUID) (*ProductSnapshot, error)
	ApplyRequestDecision(ctx context.Context, productID uuid.UUID, decision Decision) (*ProductSnapshot, error)
}
