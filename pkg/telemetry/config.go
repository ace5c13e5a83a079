package telemetry

import (
	"os"
	"strings"
)

// DefaultServiceName is reported when OTEL_SERVICE_NAME is unset.
const DefaultServiceName = "poisson-gamma"

// Config holds the tracing settings read from OTEL_* variables.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string

	// Endpoint of the OTLP collector; empty uses the exporter default.
	Endpoint string
	// Protocol is "grpc" or "http/protobuf".
	Protocol string
	Headers  map[string]string
	Insecure bool

	Sampler    string
	SamplerArg string

	ResourceAttrs map[string]string
}

// LoadFromEnv reads the configuration from the process environment.
func LoadFromEnv() *Config {
	return LoadFromLookup(os.LookupEnv)
}

// LoadFromLookup reads the configuration through lookup, which has the
// signature of os.LookupEnv.
func LoadFromLookup(lookup func(string) (string, bool)) *Config {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}
	isTrue := func(key string) bool {
		return strings.EqualFold(get(key, ""), "true")
	}

	return &Config{
		Enabled:        isTrue("OTEL_ENABLED"),
		ServiceName:    get("OTEL_SERVICE_NAME", DefaultServiceName),
		ServiceVersion: get("OTEL_SERVICE_VERSION", "unknown"),
		Endpoint:       get("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Protocol:       get("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"),
		Headers:        parseKeyValuePairs(get("OTEL_EXPORTER_OTLP_HEADERS", "")),
		Insecure:       isTrue("OTEL_EXPORTER_OTLP_INSECURE"),
		Sampler:        get("OTEL_TRACES_SAMPLER", ""),
		SamplerArg:     get("OTEL_TRACES_SAMPLER_ARG", ""),
		ResourceAttrs:  parseKeyValuePairs(get("OTEL_RESOURCE_ATTRIBUTES", "")),
	}
}

// parseKeyValuePairs parses "k1=v1,k2=v2". Values may contain '='.
func parseKeyValuePairs(s string) map[string]string {
	result := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		result[key] = strings.TrimSpace(value)
	}
	return result
}
