package withings

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/bodycomp/bodycomp/internal/errors"
	"github.com/bodycomp/bodycomp/internal/models"
)

// Measurement type codes used by the Withings measure endpoint.
// Anything else in a response is silently discarded so that new vendor
// metrics never break an import.
const (
	measTypeWeight      = 1
	measTypeFatFreeMass = 5
	measTypeFatMass     = 8
	measTypeHydration   = 77
	measTypeBoneMass    = 88
)

// measTypes is the request parameter listing every code we ask for.
const measTypes = "1,5,8,77,88"

type measure struct {
	Type  int   `json:"type"`
	Value int64 `json:"value"`
	Unit  int   `json:"unit"`
}

// scaled applies the vendor's unit exponent: value * 10^unit.
func (m measure) scaled() float64 {
	return float64(m.Value) * math.Pow(10, float64(m.Unit))
}

type measureGroup struct {
	Date     int64     `json:"date"`
	Measures []measure `json:"measures"`
}

type measureBody struct {
	MeasureGroups []measureGroup `json:"measuregrps"`
}

type measureEnvelope struct {
	Status int         `json:"status"`
	Error  string      `json:"error"`
	Body   measureBody `json:"body"`
}

// decodeMeasureEnvelope validates the vendor's response envelope. A 200
// response can still carry a non-zero vendor status, which is an API
// error, not data.
func decodeMeasureEnvelope(data []byte, endpoint string) (*measureEnvelope, error) {
	var env measureEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &errors.ErrMalformedPayload{Field: "measure envelope", Err: err}
	}
	if env.Status != 0 {
		return nil, &errors.ErrAPI{
			Endpoint:   endpoint,
			VendorCode: env.Status,
			Message:    env.Error,
			StatusCode: vendorStatusToHTTP(env.Status),
		}
	}
	return &env, nil
}

// Withings reports authorization failures as vendor status 401 inside a
// 200 response. Mapping it onto the HTTP code lets the retry policy
// treat both shapes the same way.
func vendorStatusToHTTP(status int) int {
	if status == 401 {
		return 401
	}
	return 0
}

// measurementsFromGroups maps raw vendor groups into domain records,
// applying unit scaling and the muscle-mass derivation. Muscle mass is
// fat-free mass minus bone mass when a positive bone mass is present;
// without a fat-free mass reading it stays absent.
func measurementsFromGroups(groups []measureGroup) []models.Measurement {
	out := make([]models.Measurement, 0, len(groups))
	for _, grp := range groups {
		var weight, fatMass, boneMass, fatFree, hydration *float64
		for _, m := range grp.Measures {
			v := m.scaled()
			switch m.Type {
			case measTypeWeight:
				weight = models.Float(v)
			case measTypeFatMass:
				fatMass = models.Float(v)
			case measTypeBoneMass:
				boneMass = models.Float(v)
			case measTypeFatFreeMass:
				fatFree = models.Float(v)
			case measTypeHydration:
				hydration = models.Float(v)
			}
		}

		out = append(out, models.Measurement{
			Timestamp:    time.Unix(grp.Date, 0),
			WeightKg:     weight,
			FatMassKg:    fatMass,
			BoneMassKg:   boneMass,
			MuscleMassKg: models.DeriveMuscleMass(fatFree, boneMass),
			HydrationKg:  hydration,
			Source:       models.SourceWithings,
		})
	}
	return out
}

// tokenPayload is the set of token fields the vendor returns, whether
// nested or flat.
type tokenPayload struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	Scope        string      `json:"scope"`
	ExpiresIn    int64       `json:"expires_in"`
	ExpiresAt    int64       `json:"expires_at"`
	UserID       json.Number `json:"userid"`
}

type tokenEnvelope struct {
	Status           int             `json:"status"`
	Body             json.RawMessage `json:"body"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
	tokenPayload
}

// decodeTokenResponse handles the vendor's diverging token response
// shapes. Decision table:
//
//	error / error_description set  -> authentication error
//	status != 0                    -> authentication error
//	body object present            -> token fields nested under body
//	otherwise                      -> token fields at the top level
//
// The nested shape is what the current API documents; the flat shape is
// kept because observed vendor behaviour has drifted between the two.
func decodeTokenResponse(data []byte, now time.Time) (*models.Token, error) {
	var env tokenEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &errors.ErrAuthentication{Reason: "unparsable token response", Err: err}
	}

	if env.Error != "" || env.ErrorDescription != "" {
		reason := env.Error
		if env.ErrorDescription != "" {
			reason = fmt.Sprintf("%s: %s", env.Error, env.ErrorDescription)
		}
		return nil, &errors.ErrAuthentication{Reason: reason}
	}
	if env.Status != 0 {
		return nil, &errors.ErrAuthentication{Reason: fmt.Sprintf("vendor status %d", env.Status)}
	}

	payload := env.tokenPayload
	if len(env.Body) > 0 && string(env.Body) != "null" {
		var nested models.Token
		if err := json.Unmarshal(env.Body, &nested); err != nil {
			return nil, &errors.ErrAuthentication{Reason: "unparsable token body", Err: err}
		}
		if !nested.Valid() {
			return nil, &errors.ErrAuthentication{Reason: "token response missing access_token"}
		}
		normalizeExpiry(&nested, env.Body, now)
		return &nested, nil
	}

	if payload.AccessToken == "" {
		return nil, &errors.ErrAuthentication{Reason: "token response missing access_token"}
	}

	tok := &models.Token{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		TokenType:    payload.TokenType,
		Scope:        payload.Scope,
		ExpiresAt:    payload.ExpiresAt,
	}
	if tok.ExpiresAt == 0 && payload.ExpiresIn > 0 {
		tok.ExpiresAt = now.Unix() + payload.ExpiresIn
	}
	return tok, nil
}

// normalizeExpiry converts a relative expires_in into an absolute
// expires_at when the vendor supplied only the former.
func normalizeExpiry(tok *models.Token, raw json.RawMessage, now time.Time) {
	if tok.ExpiresAt != 0 {
		return
	}
	var rel struct {
		ExpiresIn int64 `json:"expires_in"`
	}
	if err := json.Unmarshal(raw, &rel); err == nil && rel.ExpiresIn > 0 {
		tok.ExpiresAt = now.Unix() + rel.ExpiresIn
		delete(tok.Extra, "expires_in")
	}
}
