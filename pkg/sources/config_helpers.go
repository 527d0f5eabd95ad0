package sources

import "strings"

// ConfigString returns the trimmed string value for key from source.Config or a fallback.
func ConfigString(src Source, key, fallback string) string {
	if src.Config != nil {
		if raw, ok := src.Config[key]; ok {
			if val, ok := raw.(string); ok {
				if trimmed := strings.TrimSpace(val); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return fallback
}

const (
	ConfigUserAgentKey      = "user_agent"
	ConfigAcceptKey         = "accept"
	ConfigAcceptLanguageKey = "accept_language"
	ConfigCookieKey         = "cookie"
)

// Headers builds the request headers from a source config (skips empty values).
func Headers(src Source) map[string]string {
	headers := make(map[string]string, 4)

	if v := ConfigString(src, ConfigUserAgentKey, ""); v != "" {
		headers["User-Agent"] = v
	}
	if v := ConfigString(src, ConfigAcceptKey, ""); v != "" {
		headers["Accept"] = v
	}
	if v := ConfigString(src, ConfigAcceptLanguageKey, ""); v != "" {
		headers["Accept-Language"] = v
	}
	if v := ConfigString(src, ConfigCookieKey, ""); v != "" {
		headers["Cookie"] = v
	}

	return headers
}
