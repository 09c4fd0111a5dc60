package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// LoadEndpoints assembles an endpoint list for one provider using the
// deterministic merge order from §6: a JSON file, then a JSON-array
// environment variable, then a comma-separated array environment variable,
// then numbered single-field environment variables, and finally a
// single-endpoint default built from baseURL/apiKey. The first source that
// yields at least one endpoint wins; sources are not merged together.
//
// Environment variable names are derived from prefix, e.g. for prefix
// "AZURE_OPENAI":
//
//	AZURE_OPENAI_ENDPOINTS_FILE      - path to a JSON file
//	AZURE_OPENAI_ENDPOINTS_JSON      - inline JSON array
//	AZURE_OPENAI_ENDPOINTS           - comma-separated "name|url|key" tuples
//	AZURE_OPENAI_ENDPOINT_1_NAME/_URL/_KEY, _2_..., etc.
func LoadEndpoints(prefix, fallbackBaseURL, fallbackAPIKey string) ([]EndpointConfig, error) {
	if path := os.Getenv(prefix + "_ENDPOINTS_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read endpoints file %s: %w", path, err)
		}
		var endpoints []EndpointConfig
		if err := json.Unmarshal(data, &endpoints); err != nil {
			return nil, fmt.Errorf("parse endpoints file %s: %w", path, err)
		}
		if len(endpoints) > 0 {
			return endpoints, nil
		}
	}

	if raw := os.Getenv(prefix + "_ENDPOINTS_JSON"); raw != "" {
		var endpoints []EndpointConfig
		if err := json.Unmarshal([]byte(raw), &endpoints); err != nil {
			return nil, fmt.Errorf("parse %s_ENDPOINTS_JSON: %w", prefix, err)
		}
		if len(endpoints) > 0 {
			return endpoints, nil
		}
	}

	if raw := os.Getenv(prefix + "_ENDPOINTS"); raw != "" {
		endpoints := parseEndpointArrayEnv(raw)
		if len(endpoints) > 0 {
			return endpoints, nil
		}
	}

	if endpoints := parseNumberedEndpointEnv(prefix); len(endpoints) > 0 {
		return endpoints, nil
	}

	if fallbackBaseURL != "" {
		return []EndpointConfig{{
			Name:     "default",
			Endpoint: fallbackBaseURL,
			APIKey:   fallbackAPIKey,
		}}, nil
	}

	return nil, nil
}

// parseEndpointArrayEnv parses "name1|url1|key1,name2|url2|key2".
func parseEndpointArrayEnv(raw string) []EndpointConfig {
	var endpoints []EndpointConfig
	for _, entry := range splitNonEmpty(raw, ',') {
		parts := splitNonEmpty(entry, '|')
		if len(parts) < 2 {
			continue
		}
		ep := EndpointConfig{Name: parts[0], Endpoint: parts[1]}
		if len(parts) >= 3 {
			ep.APIKey = parts[2]
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints
}

// parseNumberedEndpointEnv reads PREFIX_ENDPOINT_1_NAME/_URL/_KEY/_API_VERSION/_USE_V1,
// PREFIX_ENDPOINT_2_..., stopping at the first gap.
func parseNumberedEndpointEnv(prefix string) []EndpointConfig {
	var endpoints []EndpointConfig
	for i := 1; ; i++ {
		base := fmt.Sprintf("%s_ENDPOINT_%d", prefix, i)
		url := os.Getenv(base + "_URL")
		if url == "" {
			break
		}
		name := os.Getenv(base + "_NAME")
		if name == "" {
			name = fmt.Sprintf("endpoint-%d", i)
		}
		useV1, _ := strconv.ParseBool(os.Getenv(base + "_USE_V1"))
		endpoints = append(endpoints, EndpointConfig{
			Name:       name,
			Endpoint:   url,
			APIKey:     os.Getenv(base + "_KEY"),
			APIVersion: os.Getenv(base + "_API_VERSION"),
			UseV1:      useV1,
		})
	}
	return endpoints
}

func splitNonEmpty(s string, sep byte) []string {
	var result []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			if i > start {
				result = append(result, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		result = append(result, s[start:])
	}
	return result
}
