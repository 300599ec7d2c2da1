package compactor

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"unicode/utf8"

	"github.com/yndnr/authstore/internal/core/domain"
)

// Kind tags the outcome of a compaction attempt.
type Kind int

const (
	// NotASession means the payload is not a session and was left unchanged.
	NotASession Kind = iota

	// Compacted means the payload was a session and Value holds its minimized form.
	Compacted

	// FutureVersion means the payload is a session compacted by a newer format
	// version. It is left unchanged rather than downgraded.
	FutureVersion
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Compacted:
		return "compacted"
	case FutureVersion:
		return "future_version"
	default:
		return "not_a_session"
	}
}

// Result is the tagged outcome of Compact.
type Result struct {
	Kind   Kind
	Value  string
	Record *domain.CompactedRecord
}

// DidCompact reports whether Value differs in shape from the input.
func (r Result) DidCompact() bool {
	return r.Kind == Compacted
}

// CompactString is the two-value form of Compact.
func CompactString(raw string) (string, bool) {
	r := Compact(raw)
	return r.Value, r.DidCompact()
}

// Compact minimizes raw if it is a session payload. It never panics and
// never alters payloads it does not recognise.
func Compact(raw string) Result {
	passthrough := Result{Kind: NotASession, Value: raw}

	obj, ok := parseObject(raw)
	if !ok {
		return passthrough
	}

	rec, ok := sessionFrom(obj)
	if !ok {
		return passthrough
	}

	if v, ok := markerVersion(obj); ok && v > domain.CompactVersion {
		return Result{Kind: FutureVersion, Value: raw}
	}

	out, err := encode(rec)
	if err != nil {
		return passthrough
	}
	return Result{Kind: Compacted, Value: out, Record: rec}
}

// parseObject decodes raw as a single JSON object, keeping numbers literal.
// Invalid UTF-8 is rejected: the decoder would replace it with U+FFFD and
// alter the stored tokens.
func parseObject(raw string) (map[string]any, bool) {
	if !utf8.ValidString(raw) {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}

	obj, ok := v.(map[string]any)
	return obj, ok
}

// sessionFrom builds the minimized record, or reports that obj is not a session.
func sessionFrom(obj map[string]any) (*domain.CompactedRecord, bool) {
	access, ok := obj[domain.FieldAccessToken].(string)
	if !ok {
		return nil, false
	}
	refresh, ok := obj[domain.FieldRefreshToken].(string)
	if !ok {
		return nil, false
	}

	rec := &domain.CompactedRecord{
		Version:      domain.CompactVersion,
		AccessToken:  access,
		RefreshToken: refresh,
	}
	if s, ok := obj[domain.FieldTokenType].(string); ok {
		rec.TokenType = &s
	}
	if n, ok := obj[domain.FieldExpiresAt].(json.Number); ok {
		rec.ExpiresAt = &n
	}
	if n, ok := obj[domain.FieldExpiresIn].(json.Number); ok {
		rec.ExpiresIn = &n
	}
	rec.User = compactUser(obj[domain.FieldUser])

	return rec, true
}

func compactUser(v any) *domain.CompactUser {
	user, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	id, ok := user[domain.FieldUserID].(string)
	if !ok {
		return nil
	}

	cu := &domain.CompactUser{ID: id}
	if email, ok := user[domain.FieldUserEmail].(string); ok {
		cu.Email = email
	}
	if meta, ok := user[domain.FieldUserMetadata].(map[string]any); ok {
		if name, ok := meta[domain.FieldDisplayName].(string); ok && name != "" {
			cu.UserMetadata = &domain.CompactMetadata{Name: name}
		}
	}
	return cu
}

// markerVersion returns the compaction marker when it is an integer.
func markerVersion(obj map[string]any) (int64, bool) {
	n, ok := obj[domain.CompactVersionField].(json.Number)
	if !ok {
		return 0, false
	}
	v, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return v, true
}

// encode serializes without HTML escaping so tokens round-trip verbatim.
func encode(rec *domain.CompactedRecord) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
