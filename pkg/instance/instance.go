package instance

import "os"

const envWorkerID = "MEMBERCLUB_WORKER_ID"

// GetID returns the worker instance identifier, falling back to the hostname.
func GetID() string {
	if id := os.Getenv(envWorkerID); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
