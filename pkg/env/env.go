package env

import "os"

// Get reads key from the process environment. An unset or empty variable
// yields the fallback instead.
func Get(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}
