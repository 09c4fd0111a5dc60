package config

// mergeLLMProviders merges built-in and user-defined LLM provider
// configurations. User-defined providers override built-ins with the same name.
func mergeLLMProviders(builtin, user map[string]LLMProviderConfig) map[string]*LLMProviderConfig {
	result := make(map[string]*LLMProviderConfig, len(builtin)+len(user))

	for name, provider := range builtin {
		providerCopy := provider
		result[name] = &providerCopy
	}

	for name, provider := range user {
		providerCopy := provider
		result[name] = &providerCopy
	}

	return result
}

// mergeEndpointPools merges built-in and user-defined endpoint pool
// configurations. User-defined pools override built-ins with the same provider name.
func mergeEndpointPools(builtin, user map[string]*EndpointPoolConfig) map[string]*EndpointPoolConfig {
	result := make(map[string]*EndpointPoolConfig, len(builtin)+len(user))
	for name, pool := range builtin {
		result[name] = pool
	}
	for name, pool := range user {
		result[name] = pool
	}
	return result
}
