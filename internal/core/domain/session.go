package domain

import "encoding/json"

// CompactVersion is the current compaction format written by this build.
const CompactVersion = 1

// CompactVersionField is the JSON field that marks a record as already compacted.
const CompactVersionField = "_compact_v"

// Session field names recognised by the compactor. They mirror the token
// payload format of the upstream auth client and are not an internal schema.
const (
	FieldAccessToken  = "access_token"
	FieldRefreshToken = "refresh_token"
	FieldTokenType    = "token_type"
	FieldExpiresAt    = "expires_at"
	FieldExpiresIn    = "expires_in"
	FieldUser         = "user"
	FieldUserID       = "id"
	FieldUserEmail    = "email"
	FieldUserMetadata = "user_metadata"
	FieldDisplayName  = "name"
)

// CompactedRecord is the minimized session kept on disk.
//
// Field order is fixed so that compacting the same session always yields
// byte-identical JSON; write deduplication relies on it.
type CompactedRecord struct {
	Version      int          `json:"_compact_v"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    *string      `json:"token_type,omitempty"`
	ExpiresAt    *json.Number `json:"expires_at,omitempty"`
	ExpiresIn    *json.Number `json:"expires_in,omitempty"`
	User         *CompactUser `json:"user,omitempty"`
}

// CompactUser is the minimized user identity.
type CompactUser struct {
	ID           string           `json:"id"`
	Email        string           `json:"email,omitempty"`
	UserMetadata *CompactMetadata `json:"user_metadata,omitempty"`
}

// CompactMetadata keeps only the display name of the user profile.
type CompactMetadata struct {
	Name string `json:"name,omitempty"`
}
