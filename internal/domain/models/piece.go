// internal/domain/models/piece.go
package models

import "time"

// Piece status values. These are the literal values the original client
// stored and the REST API still returns, so they stay in French.
const (
	PieceStatusPending = "En attente"
	PieceStatusFired   = "Prêt"
)

// Piece priority values.
const (
	PriorityNormal = "Normal"
	PriorityUrgent = "Urgent"
)

// Priorities is the full set of accepted priority values.
var Priorities = []string{PriorityNormal, PriorityUrgent}

// DefaultFiringType is used when a submission does not name a firing type.
const DefaultFiringType = "Autre"

// Submitter identifies the practician who owns a piece.
// Email scopes ownership and is the notification address.
type Submitter struct {
	Email     string `bson:"email" json:"email"`
	FirstName string `bson:"first_name" json:"firstName"`
	LastName  string `bson:"last_name" json:"lastName"`
}

// FullName returns "First Last", trimmed when either part is missing.
func (s Submitter) FullName() string {
	switch {
	case s.FirstName == "":
		return s.LastName
	case s.LastName == "":
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// Piece is a ceramic item moving through the kiln-firing workflow.
//
// A piece is created pending and moves to fired exactly once. FiredDate is
// set if and only if Status is PieceStatusFired. ID, CreatedAt and
// SubmittedBy never change after creation.
type Piece struct {
	ID          int64  `bson:"_id" json:"id"`
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description" json:"description"`
	ImageURL    string `bson:"image_url" json:"imageUrl"`
	ClayType    string `bson:"clay_type" json:"clayType"`
	GlazeType   string `bson:"glaze_type" json:"glazeType"`
	FiringType  string `bson:"firing_type" json:"firingType"`

	DesiredDate *time.Time `bson:"desired_date,omitempty" json:"desiredDate"`
	Priority    string     `bson:"priority" json:"priority"`
	Status      string     `bson:"status" json:"status"`

	CreatedAt time.Time  `bson:"created_at" json:"createdAt"`
	FiredDate *time.Time `bson:"fired_date,omitempty" json:"firedDate,omitempty"`

	SubmittedBy Submitter `bson:"submitted_by" json:"submittedBy"`
}

// IsPending reports whether the piece is still waiting for the kiln.
func (p *Piece) IsPending() bool {
	return p.Status == PieceStatusPending
}

// IsFired reports whether the piece has been fired.
func (p *Piece) IsFired() bool {
	return p.Status == PieceStatusFired
}

// PieceInput is the submission payload for a new piece. Optional fields left
// empty receive defaults when the piece is created.
type PieceInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ImageURL    string     `json:"imageUrl"`
	ClayType    string     `json:"clayType"`
	GlazeType   string     `json:"glazeType"`
	FiringType  string     `json:"firingType"`
	DesiredDate *time.Time `json:"desiredDate"`
	Priority    string     `json:"priority"`
	SubmittedBy Submitter  `json:"submittedBy"`
}
