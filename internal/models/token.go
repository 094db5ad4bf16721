package models

import (
	"encoding/json"
	"time"
)

// Token is the OAuth2 token record exchanged with the vendor and
// persisted by the token store. Vendor-supplied fields beyond the ones
// modelled here are preserved opaquely in Extra so that a save/load
// round trip never loses data.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`

	// ExpiresAt is absolute epoch seconds. Zero means the vendor gave
	// no lifetime and the token is treated as non-expiring.
	ExpiresAt int64 `json:"expires_at,omitempty"`

	// Extra carries vendor metadata this tool does not interpret.
	Extra map[string]json.RawMessage `json:"-"`
}

var knownTokenFields = map[string]bool{
	"access_token":  true,
	"refresh_token": true,
	"token_type":    true,
	"scope":         true,
	"expires_at":    true,
}

type tokenAlias Token

// UnmarshalJSON decodes the known fields and stashes everything else
// into Extra untouched.
func (t *Token) UnmarshalJSON(data []byte) error {
	var alias tokenAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range raw {
		if knownTokenFields[k] {
			delete(raw, k)
		}
	}
	if len(raw) > 0 {
		alias.Extra = raw
	}

	*t = Token(alias)
	return nil
}

// MarshalJSON re-merges the preserved vendor fields with the known ones.
func (t Token) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(tokenAlias(t))
	if err != nil {
		return nil, err
	}
	if len(t.Extra) == 0 {
		return data, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range t.Extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// Valid reports whether the record is usable at all. A token without an
// access token must never be treated as usable.
func (t *Token) Valid() bool {
	return t != nil && t.AccessToken != ""
}

// ExpiresWithin reports whether the token expires inside the lookahead
// window. Tokens without an expiry never do.
func (t *Token) ExpiresWithin(lookahead time.Duration) bool {
	if t == nil || t.ExpiresAt == 0 {
		return false
	}
	return time.Now().Add(lookahead).Unix() > t.ExpiresAt
}
