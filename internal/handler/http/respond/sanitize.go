package respond

import (
	"regexp"
)

var (
	// Password inside a DSN URL.
	dsnPasswordPattern = regexp.MustCompile(`://([^:/@]+):([^@]+)@`)

	// Password in a key/value DSN such as "host=db password=secret".
	kvPasswordPattern = regexp.MustCompile(`(?i)\bpassword=([^\s&]+)`)
)

// SanitizeError returns the error message with credentials masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	msg = dsnPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	msg = kvPasswordPattern.ReplaceAllString(msg, "password=****")

	return msg
}
