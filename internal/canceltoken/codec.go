// Package canceltoken issues and verifies the self-service cancellation
// links mailed to attendees. A token is base64url(JSON payload) joined to a
// base64url HMAC-SHA256 signature with a single dot; the shape is a
// compatibility contract, since links already in inboxes must keep working.
package canceltoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
)

// BookingPayload identifies a single booked event for cancellation.
type BookingPayload struct {
	TenantID string `json:"tenantId"`
	EventID  string `json:"eventId"`
	Date     string `json:"date"`
}

// WebinarPayload identifies a webinar sign-up by attendee email.
type WebinarPayload struct {
	TenantID  string `json:"tenantId"`
	ProductID string `json:"productId"`
	Email     string `json:"email"`
}

type Codec struct {
	secret []byte
}

func New(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

func (c *Codec) EncodeBooking(p BookingPayload) (string, error) {
	return c.encode(p)
}

func (c *Codec) EncodeWebinar(p WebinarPayload) (string, error) {
	return c.encode(p)
}

// DecodeBooking verifies token and returns its booking payload. A bad link is
// an expected outcome, not an error: the second return is false on any
// signature mismatch, malformed structure, or missing field.
func (c *Codec) DecodeBooking(token string) (BookingPayload, bool) {
	var p BookingPayload
	if !c.verify(token, &p) {
		return BookingPayload{}, false
	}
	if p.TenantID == "" || p.EventID == "" || p.Date == "" {
		return BookingPayload{}, false
	}
	return p, true
}

func (c *Codec) DecodeWebinar(token string) (WebinarPayload, bool) {
	var p WebinarPayload
	if !c.verify(token, &p) {
		return WebinarPayload{}, false
	}
	if p.TenantID == "" || p.ProductID == "" || p.Email == "" {
		return WebinarPayload{}, false
	}
	return p, true
}

func (c *Codec) encode(payload interface{}) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	segment := base64.RawURLEncoding.EncodeToString(raw)
	return segment + "." + c.sign(segment), nil
}

func (c *Codec) verify(token string, into interface{}) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}

	// hmac.Equal keeps the comparison constant-time.
	expected := c.sign(parts[0])
	if !hmac.Equal([]byte(expected), []byte(parts[1])) {
		return false
	}

	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, into) == nil
}

func (c *Codec) sign(segment string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(segment))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
