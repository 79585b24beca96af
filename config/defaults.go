package config

// Defaults returns a fresh copy of the built-in configuration. Values use
// the same dynamic types encoding/json produces, so defaults and loaded
// values are indistinguishable.
func Defaults() map[string]any {
	return map[string]any{
		"auth": map[string]any{
			// antigravity, openai, anthropic or custom
			"provider":          "antigravity",
			"gemini_api_key":    nil,
			"openai_api_key":    nil,
			"anthropic_api_key": nil,
			"custom_api_key":    nil,
			"custom_api_base":   nil,
			"custom_model":      nil,
		},
		"agent": map[string]any{
			"model":         "gemini-2.5-flash",
			"model_variant": "",
			"system_prompt": nil,
			"temperature":   0.7,
			"max_tokens":    float64(8192),
		},
		"personality": map[string]any{
			"user_name":           nil,
			"ai_name":             "Claw",
			"ai_purpose":          nil,
			"ai_style":            "friendly, concise, uses lowercase",
			"ai_emoji":            "🦞",
			"learned_preferences": []any{},
		},
		"gateway": map[string]any{
			"telegram_bot_token": nil,
			"auto_start":         false,
			"allowed_users":      []any{},
		},
		"safety": map[string]any{
			"confirm_destructive": true,
			"blocked_patterns": []any{
				"rm -rf /",
				"mkfs",
				"dd if=",
				":(){:|:&};:",
				"> /dev/sd",
			},
		},
		"search": map[string]any{
			// brave or perplexity
			"provider":           nil,
			"brave_api_key":      nil,
			"perplexity_api_key": nil,
		},
		"cron": map[string]any{
			"jobs":               []any{},
			"heartbeat_interval": float64(300),
			"timezone":           "auto",
		},
		"backups": map[string]any{
			"enabled":   true,
			"max_count": float64(5),
		},
		"workspace": map[string]any{
			"path": "~/.pyclaw/workspace",
		},
		"mcp": map[string]any{
			"servers": []any{},
		},
	}
}

// envOverrides maps environment variables to the keys they shadow.
var envOverrides = map[string]string{
	"PYCLAW_TELEGRAM_TOKEN": "gateway.telegram_bot_token",
	"PYCLAW_MODEL":          "agent.model",
	"GEMINI_API_KEY":        "auth.gemini_api_key",
	"OPENAI_API_KEY":        "auth.openai_api_key",
	"ANTHROPIC_API_KEY":     "auth.anthropic_api_key",
	"BRAVE_API_KEY":         "search.brave_api_key",
	"PERPLEXITY_API_KEY":    "search.perplexity_api_key",
}
