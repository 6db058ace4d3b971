package instance

import "os"

// GetID returns the worker instance identifier, defaulting when the
// orchestrator did not assign one.
func GetID() string {
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	return "worker-0"
}
