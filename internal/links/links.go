// Package links renders the externally-visible cancellation URLs embedded in
// confirmation and reminder emails.
package links

import (
	"strings"

	"github.com/google/go-querystring/query"
)

type cancelQuery struct {
	Token string `url:"token"`
}

// BookingCancelURL returns {base}/booking/cancel?token=...
func BookingCancelURL(baseURL, token string) string {
	return build(baseURL, "/booking/cancel", token)
}

// WebinarCancelURL returns {base}/webinar/cancel?token=...
func WebinarCancelURL(baseURL, token string) string {
	return build(baseURL, "/webinar/cancel", token)
}

func build(baseURL, path, token string) string {
	v, err := query.Values(cancelQuery{Token: token})
	if err != nil {
		// cancelQuery cannot fail to encode; keep the link usable anyway.
		return strings.TrimSuffix(baseURL, "/") + path
	}
	return strings.TrimSuffix(baseURL, "/") + path + "?" + v.Encode()
}
