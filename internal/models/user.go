package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a member of the network. Thoughts and Friends hold ids only and are
// maintained by the service layer, not by the store.
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null" bson:"username" json:"username" validate:"required"`
	Email     string    `gorm:"uniqueIndex;not null" bson:"email" json:"email" validate:"required,email"`
	Thoughts  []string  `gorm:"serializer:json;type:text" bson:"thoughts" json:"thoughts"`
	Friends   []string  `gorm:"serializer:json;type:text" bson:"friends" json:"friends"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// UserPatch carries the fields a client may change on an existing user.
type UserPatch struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Username == nil && p.Email == nil
}

// Normalize trims the username and email in place.
func (p *UserPatch) Normalize() {
	if p.Username != nil {
		v := strings.TrimSpace(*p.Username)
		p.Username = &v
	}
	if p.Email != nil {
		v := strings.TrimSpace(*p.Email)
		p.Email = &v
	}
}

// Validate checks the supplied fields against the same rules as a new user.
func (p UserPatch) Validate() error {
	scratch := User{Username: "placeholder", Email: "placeholder@example.com"}
	p.Apply(&scratch)
	return scratch.Validate()
}

// Apply copies the patch onto u.
func (p UserPatch) Apply(u *User) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
}

// Normalize trims text fields and replaces nil reference lists with empty ones.
func (u *User) Normalize() {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.TrimSpace(u.Email)
	if u.Thoughts == nil {
		u.Thoughts = []string{}
	}
	if u.Friends == nil {
		u.Friends = []string{}
	}
}

// PrepareForInsert assigns an id and timestamps to a new user.
func (u *User) PrepareForInsert(now time.Time) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}
	u.Normalize()
}

// BeforeCreate is the GORM hook that mirrors PrepareForInsert.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	u.PrepareForInsert(time.Now())
	return nil
}

// Validate checks the schema-level field constraints.
func (u *User) Validate() error {
	return validateStruct(u)
}

// HasFriend reports whether id appears in the friend list.
func (u *User) HasFriend(id string) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}

// MarshalJSON renders the user with a derived friendCount and empty lists instead of null.
func (u User) MarshalJSON() ([]byte, error) {
	type alias User
	return json.Marshal(struct {
		alias
		Thoughts    []string `json:"thoughts"`
		Friends     []string `json:"friends"`
		FriendCount int      `json:"friendCount"`
	}{
		alias:       alias(u),
		Thoughts:    nonNil(u.Thoughts),
		Friends:     nonNil(u.Friends),
		FriendCount: len(u.Friends),
	})
}

// UserProfile is a user with its thoughts and friends resolved to documents.
type UserProfile struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Thoughts    []Thought `json:"thoughts"`
	Friends     []User    `json:"friends"`
	FriendCount int       `json:"friendCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewUserProfile builds a profile from already-resolved references.
func NewUserProfile(u *User, thoughts []Thought, friends []User) UserProfile {
	if thoughts == nil {
		thoughts = []Thought{}
	}
	if friends == nil {
		friends = []User{}
	}
	return UserProfile{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Thoughts:    thoughts,
		Friends:     friends,
		FriendCount: len(friends),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// RemoveAll returns ids without any occurrence of target, preserving order.
func RemoveAll(ids []string, target string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
