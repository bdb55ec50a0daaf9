package http

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSOptions allows credentialed requests only for an explicit origin list.
// Browsers reject credentials paired with a wildcard origin.
func CORSOptions(origins []string) cors.Options {
	credentials := len(origins) > 0
	for _, o := range origins {
		if o == "*" {
			credentials = false
			break
		}
	}

	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: credentials,
		MaxAge:           300,
	}
}
