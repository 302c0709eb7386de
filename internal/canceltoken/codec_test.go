package canceltoken

import (
	"strings"
	"testing"
)

func TestBookingRoundTrip(t *testing.T) {
	c := New("test-secret")
	payload := BookingPayload{TenantID: "t-1", EventID: "ev-42", Date: "2024-04-08"}

	token, err := c.EncodeBooking(payload)
	if err != nil {
		t.Fatalf("EncodeBooking() error = %v", err)
	}
	if strings.Count(token, ".") != 1 {
		t.Fatalf("token %q does not have exactly one dot", token)
	}

	got, ok := c.DecodeBooking(token)
	if !ok {
		t.Fatal("DecodeBooking() rejected a valid token")
	}
	if got != payload {
		t.Errorf("round trip = %+v, want %+v", got, payload)
	}
}

func TestWebinarRoundTrip(t *testing.T) {
	c := New("test-secret")
	payload := WebinarPayload{TenantID: "t-1", ProductID: "p-7", Email: "ada@example.com"}

	token, err := c.EncodeWebinar(payload)
	if err != nil {
		t.Fatalf("EncodeWebinar() error = %v", err)
	}
	got, ok := c.DecodeWebinar(token)
	if !ok {
		t.Fatal("DecodeWebinar() rejected a valid token")
	}
	if got != payload {
		t.Errorf("round trip = %+v, want %+v", got, payload)
	}
}

func TestDecodeRejectsAnySingleCharFlip(t *testing.T) {
	c := New("test-secret")
	token, err := c.EncodeBooking(BookingPayload{TenantID: "t-1", EventID: "ev-42", Date: "2024-04-08"})
	if err != nil {
		t.Fatal(err)
	}

	for i := range token {
		flipped := []byte(token)
		if flipped[i] == 'A' {
			flipped[i] = 'B'
		} else {
			flipped[i] = 'A'
		}
		if _, ok := c.DecodeBooking(string(flipped)); ok {
			t.Errorf("token accepted after flipping byte %d", i)
		}
	}
}

func TestDecodeRejectsWrongSecret(t *testing.T) {
	token, err := New("secret-one").EncodeBooking(BookingPayload{TenantID: "t-1", EventID: "ev-42", Date: "2024-04-08"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := New("secret-two").DecodeBooking(token); ok {
		t.Error("token signed with a different secret was accepted")
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	c := New("test-secret")
	valid, err := c.EncodeBooking(BookingPayload{TenantID: "t-1", EventID: "ev-42", Date: "2024-04-08"})
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.SplitN(valid, ".", 2)

	tokens := []string{
		"",
		"justonesegment",
		parts[0],
		parts[0] + ".",
		"." + parts[1],
		valid + ".extra",
		"not base64!." + parts[1],
	}
	for _, tok := range tokens {
		if _, ok := c.DecodeBooking(tok); ok {
			t.Errorf("malformed token %q was accepted", tok)
		}
	}
}

func TestDecodeRejectsWrongPayloadShape(t *testing.T) {
	c := New("test-secret")

	// A validly signed webinar token must not decode as a booking token:
	// the booking fields come back empty.
	token, err := c.EncodeWebinar(WebinarPayload{TenantID: "t-1", ProductID: "p-7", Email: "ada@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.DecodeBooking(token); ok {
		t.Error("webinar token decoded as a booking token")
	}

	if _, ok := c.DecodeBooking(mustEncode(t, c, BookingPayload{TenantID: "t-1"})); ok {
		t.Error("token with missing fields was accepted")
	}
}

func mustEncode(t *testing.T, c *Codec, p BookingPayload) string {
	t.Helper()
	token, err := c.EncodeBooking(p)
	if err != nil {
		t.Fatal(err)
	}
	return token
}
