// Package endpoint persists the configured hub base URL.
package endpoint

// DefaultEndpoint is the gateway address used until something else is configured.
const DefaultEndpoint = "http://192.168.1.100"

// Key names the stored value in every backend.
const Key = "device_api_endpoint"

func orDefault(def string) string {
	if def == "" {
		return DefaultEndpoint
	}
	return def
}
