package instance

import (
	"os"

	"github.com/angelmondragon/storefront-backend/pkg/env"
)

// GetID returns the worker instance identifier, falling back to the hostname.
func GetID() string {
	if id := env.First("", "STOREFRONT_WORKER_ID", "WORKER_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
