package instance

import (
	"os"

	"github.com/angelmondragon/cartengine/pkg/env"
)

const (
	envInstanceID = "CARTENGINE_INSTANCE_ID"
	fallbackID    = "cartd-0"
)

// GetID identifies this cartd replica in logs and lock owner values.
// CARTENGINE_INSTANCE_ID wins, then the hostname.
func GetID() string {
	if id := env.Get(envInstanceID, ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
