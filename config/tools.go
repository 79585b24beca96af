package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/9v2/pyclaw/tool"
)

type getConfigArgs struct {
	Key string `json:"key" desc:"Dotted config key, e.g. 'agent.model'. Omit to read the whole config."`
}

type setConfigArgs struct {
	Key   string `json:"key" desc:"Dotted config key" required:"true"`
	Value string `json:"value" desc:"Value to set (JSON-encoded for complex types)" required:"true"`
}

type changeModelArgs struct {
	ModelID string `json:"model_id" desc:"Model ID to switch to" required:"true"`
	Variant string `json:"variant" desc:"Optional model variant, e.g. 'thinking'"`
}

// Tools returns the self-configuration tools bound to c. Writes back up
// the config first.
func Tools(c *Config) []*tool.Tool {
	return []*tool.Tool{
		tool.Func("get_config",
			"Read a PyClaw configuration value by its dotted key path. Example keys: 'agent.model', 'personality.ai_name', 'search.provider', 'cron.jobs'.",
			func(ctx context.Context, args getConfigArgs) (any, error) {
				if args.Key == "" {
					return encode(c.Data())
				}
				v, err := c.Get(args.Key)
				if errors.Is(err, ErrNotFound) {
					return "null", nil
				}
				if err != nil {
					return nil, err
				}
				return encode(v)
			}),

		tool.Func("set_config",
			"Set a PyClaw configuration value. Auto-creates a backup before writing. Use dotted keys like 'agent.model', 'personality.ai_name', etc.",
			func(ctx context.Context, args setConfigArgs) (any, error) {
				if _, err := c.AutoBackup(); err != nil {
					return nil, err
				}
				var parsed any
				if err := json.Unmarshal([]byte(args.Value), &parsed); err != nil {
					parsed = args.Value
				}
				c.Set(args.Key, parsed)
				if err := c.Save(); err != nil {
					return nil, err
				}
				text, err := encode(parsed)
				if err != nil {
					return nil, err
				}
				return fmt.Sprintf("Set %s = %s", args.Key, text), nil
			}, tool.RequiresConfirmation()),

		tool.Func("change_model",
			"Switch to a different AI model. The change takes effect on the next message. Examples: 'gemini-2.5-flash', 'claude-sonnet-4-5', 'gpt-4o'.",
			func(ctx context.Context, args changeModelArgs) (any, error) {
				if _, err := c.AutoBackup(); err != nil {
					return nil, err
				}
				c.SetModel(args.ModelID, args.Variant)
				if err := c.Save(); err != nil {
					return nil, err
				}
				return fmt.Sprintf("Model switched to %s. Will take effect on next message.", c.ModelID()), nil
			}),

		tool.Func("backup_config",
			"Create a manual backup of the current PyClaw configuration.",
			func(ctx context.Context, _ struct{}) (any, error) {
				path, err := c.Backup()
				if err != nil {
					return nil, err
				}
				return "Backup created at " + path, nil
			}),
	}
}

func encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
