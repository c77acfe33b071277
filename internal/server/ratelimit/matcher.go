package ratelimit

import (
	"strings"
	"time"
)

// EndpointConfig is the limit of one route. Path segments written as "*"
// match any single segment.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// DefaultEndpointConfigs returns the limits of the model-backed routes.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		{Path: "/resumes/*/chat", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/resumes/*/analysis", Method: "POST", Limit: 10, Window: time.Hour, Burst: 3},
		{Path: "/resumes", Method: "POST", Limit: 20, Window: time.Hour, Burst: 5},
		{Path: "/resumes/import", Method: "POST", Limit: 20, Window: time.Hour, Burst: 5},
		{Path: "/jobs", Method: "POST", Limit: 60, Window: time.Hour, Burst: 10},
	}
}

// MatchEndpoint returns the configuration for a request or nil when none applies.
// The health check is never limited.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	if path == "/health" {
		return &EndpointConfig{Path: path, Method: method}
	}

	segments := splitPath(path)
	for i := range configs {
		config := &configs[i]
		if config.Method != method {
			continue
		}
		if matchSegments(splitPath(config.Path), segments) {
			return config
		}
	}
	return nil
}

func splitPath(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

func matchSegments(pattern, segments []string) bool {
	if len(pattern) != len(segments) {
		return false
	}
	for i, p := range pattern {
		if p != "*" && p != segments[i] {
			return false
		}
	}
	return true
}
