package middleware

import (
	"net/http"

	"github.com/unrolled/secure"
)

// TLS termination and host checks belong to the proxy in front of the API.
var secureHeaders = secure.New(secure.Options{
	FrameDeny:               true,
	ContentTypeNosniff:      true,
	ReferrerPolicy:          "no-referrer",
	CrossOriginOpenerPolicy: "same-origin",
})

func SecurityHeaders(next http.Handler) http.Handler {
	return secureHeaders.Handler(next)
}
