package checkout

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// ErrReferenceDecode marks client references that cannot be turned back into
// a usable Reference.
var ErrReferenceDecode = errors.New("undecodable client reference")

// maxReferenceField keeps the encoded reference under the provider's 200
// character limit for client_reference_id.
const maxReferenceField = 40

// Reference travels through the payment provider and identifies the pending
// listing a session pays for. Only ID is needed to reconcile; Title and
// Company serve display and the degraded fallback match.
type Reference struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title,omitempty"`
	Company string `json:"company,omitempty"`
	Source  string `json:"source,omitempty"`
}

// HasID reports whether the reference carries a listing identifier.
func (r Reference) HasID() bool {
	return r.ID != ""
}

func (r Reference) usable() bool {
	return r.ID != "" || (r.Title != "" && r.Company != "")
}

// EncodeReference serializes r as unpadded base64url JSON.
func EncodeReference(r Reference) (string, error) {
	r.Title = truncate(r.Title, maxReferenceField)
	r.Company = truncate(r.Company, maxReferenceField)

	b, err := json.Marshal(r)
	if err != nil {
		return "", errors.Wrap(err, "encoding client reference")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeReference accepts the base64url JSON form, the older percent-encoded
// JSON form produced by payment links, and a bare listing UUID.
func DecodeReference(s string) (Reference, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Reference{}, errors.Mark(errors.New("empty client reference"), ErrReferenceDecode)
	}

	if raw, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		var r Reference
		if json.Unmarshal(raw, &r) == nil && r.usable() {
			return r, nil
		}
	}

	if unescaped, err := url.QueryUnescape(s); err == nil && strings.HasPrefix(unescaped, "{") {
		var r Reference
		if err := json.Unmarshal([]byte(unescaped), &r); err != nil {
			return Reference{}, errors.Mark(errors.Wrap(err, "decoding legacy client reference"), ErrReferenceDecode)
		}
		if r.usable() {
			return r, nil
		}
	}

	if _, err := uuid.Parse(s); err == nil {
		return Reference{ID: s}, nil
	}

	return Reference{}, errors.Mark(errors.Newf("client reference %q carries no listing id", s), ErrReferenceDecode)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
