package agent

import (
	"log/slog"

	"github.com/9v2/pyclaw/config"
	"github.com/9v2/pyclaw/cron"
	"github.com/9v2/pyclaw/identity"
	"github.com/9v2/pyclaw/tool"
)

// Toolset names the collaborators whose tools make up the default registry.
// Nil collaborators contribute nothing.
type Toolset struct {
	Config   *config.Config
	Identity *identity.Store
	Cron     *cron.Manager

	Files []tool.FileOption
	HTTP  []tool.HTTPOption

	// Extra tools, e.g. those bridged from MCP servers.
	Extra []*tool.Tool

	Logger *slog.Logger
}

// DefaultRegistry builds the registry every agent starts from: the builtin
// file, shell and web tools, config, identity and cron tools, web_search
// when search.provider has a key, and any extras. TOOLS.md is regenerated
// from the result.
func DefaultRegistry(ts Toolset) *tool.Registry {
	log := ts.Logger
	if log == nil {
		log = slog.Default()
	}
	reg := tool.NewRegistry(tool.WithLogger(log.With("component", "tools")))
	reg.Add(tool.Builtins(ts.Files, ts.HTTP...)...)

	if ts.Config != nil {
		reg.Add(config.Tools(ts.Config)...)
		if search := webSearch(ts.Config, ts.HTTP, log); search != nil {
			reg.Register(search)
		}
	}
	if ts.Identity != nil {
		reg.Add(ts.Identity.Tools()...)
	}
	if ts.Cron != nil {
		reg.Add(cron.Tools(ts.Cron)...)
	}
	reg.Add(ts.Extra...)

	if ts.Identity != nil {
		if err := ts.Identity.WriteToolsDoc(reg.Tools()); err != nil {
			log.Warn("writing tools doc", "error", err)
		}
	}
	return reg
}

func webSearch(cfg *config.Config, opts []tool.HTTPOption, log *slog.Logger) *tool.Tool {
	provider := cfg.String("search.provider")
	if provider == "" {
		return nil
	}
	key := cfg.String("search." + provider + "_api_key")
	if key == "" {
		log.Warn("search provider has no key, web_search disabled", "provider", provider)
		return nil
	}
	t, err := tool.WebSearch(provider, key, opts...)
	if err != nil {
		log.Warn("web_search disabled", "error", err)
		return nil
	}
	return t
}
