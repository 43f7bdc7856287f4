package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxTextLength bounds thoughtText and reactionBody, counted in characters.
const MaxTextLength = 280

// Thought is a short post owned by one user. Username is a copy taken at
// creation time and is not kept in sync with the owner.
type Thought struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	ThoughtText string     `gorm:"type:varchar(280);not null" bson:"thoughtText" json:"thoughtText" validate:"required,min=1,max=280"`
	Username    string     `gorm:"not null" bson:"username" json:"username" validate:"required"`
	UserID      string     `gorm:"type:varchar(36);not null;index" bson:"userId" json:"userId" validate:"required"`
	Reactions   []Reaction `gorm:"serializer:json;type:text" bson:"reactions" json:"reactions" validate:"dive"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
}

// Reaction is embedded in a Thought and never updated in place.
type Reaction struct {
	ReactionID   string    `bson:"reactionId" json:"reactionId"`
	ReactionBody string    `bson:"reactionBody" json:"reactionBody" validate:"required,max=280"`
	Username     string    `bson:"username" json:"username" validate:"required"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

// ThoughtPatch carries the fields a client may change on an existing thought.
type ThoughtPatch struct {
	ThoughtText *string `json:"thoughtText"`
	Username    *string `json:"username"`
}

// Empty reports whether the patch changes nothing.
func (p ThoughtPatch) Empty() bool {
	return p.ThoughtText == nil && p.Username == nil
}

// Validate checks the supplied fields against the same rules as a new thought.
func (p ThoughtPatch) Validate() error {
	scratch := Thought{ThoughtText: "placeholder", Username: "placeholder", UserID: "placeholder"}
	p.Apply(&scratch)
	return scratch.Validate()
}

// Apply copies the patch onto t.
func (p ThoughtPatch) Apply(t *Thought) {
	if p.ThoughtText != nil {
		t.ThoughtText = *p.ThoughtText
	}
	if p.Username != nil {
		t.Username = strings.TrimSpace(*p.Username)
	}
}

// PrepareForInsert assigns an id and creation time to a new thought.
func (t *Thought) PrepareForInsert(now time.Time) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.Username = strings.TrimSpace(t.Username)
	if t.Reactions == nil {
		t.Reactions = []Reaction{}
	}
}

// BeforeCreate is the GORM hook that mirrors PrepareForInsert.
func (t *Thought) BeforeCreate(_ *gorm.DB) error {
	t.PrepareForInsert(time.Now())
	return nil
}

// Validate checks the schema-level field constraints, including embedded reactions.
func (t *Thought) Validate() error {
	return validateStruct(t)
}

// ReactionCount is the number of embedded reactions.
func (t *Thought) ReactionCount() int {
	return len(t.Reactions)
}

// HasReaction reports whether a reaction with the given id is embedded.
func (t *Thought) HasReaction(reactionID string) bool {
	for _, r := range t.Reactions {
		if r.ReactionID == reactionID {
			return true
		}
	}
	return false
}

// RemoveReaction drops every reaction with the given id and reports whether any matched.
func (t *Thought) RemoveReaction(reactionID string) bool {
	kept := make([]Reaction, 0, len(t.Reactions))
	for _, r := range t.Reactions {
		if r.ReactionID != reactionID {
			kept = append(kept, r)
		}
	}
	removed := len(kept) != len(t.Reactions)
	t.Reactions = kept
	return removed
}

// MarshalJSON renders the thought with a derived reactionCount.
func (t Thought) MarshalJSON() ([]byte, error) {
	type alias Thought
	return json.Marshal(struct {
		alias
		Reactions     []Reaction `json:"reactions"`
		ReactionCount int        `json:"reactionCount"`
	}{
		alias:         alias(t),
		Reactions:     nonNil(t.Reactions),
		ReactionCount: len(t.Reactions),
	})
}

// NewReaction builds a reaction with a fresh id and timestamp.
func NewReaction(body, username string, now time.Time) Reaction {
	return Reaction{
		ReactionID:   uuid.NewString(),
		ReactionBody: body,
		Username:     strings.TrimSpace(username),
		CreatedAt:    now,
	}
}

// Validate checks the reaction's field constraints.
func (r *Reaction) Validate() error {
	return validateStruct(r)
}
