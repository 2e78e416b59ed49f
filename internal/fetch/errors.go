package fetch

import "errors"

var (
	// ErrUnknownFetchMode is returned by New for a mode string that is
	// neither static nor browser.
	ErrUnknownFetchMode = errors.New("unknown fetch mode")

	// ErrInvalidProxyAddress is returned when the proxy address is not in
	// "host:port" format.
	ErrInvalidProxyAddress = errors.New("invalid proxy address")

	// ErrBodyTooLarge is returned when a response body exceeds the
	// configured size limit.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrLoginFailed is returned when the login step exhausted its
	// attempts without reaching a success marker.
	ErrLoginFailed = errors.New("login failed")
)
