package postgres

import (
	"net/url"
	"regexp"
)

var kvPassword = regexp.MustCompile(`password=\S+`)

// RedactDSN hides the password in a URL or key=value DSN so it can be logged.
func RedactDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
		return u.String()
	}
	return kvPassword.ReplaceAllString(dsn, "password=xxxxx")
}
