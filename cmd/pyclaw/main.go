// Command pyclaw is a personal AI assistant for the terminal and Telegram.
//
// Usage:
//
//	pyclaw [chat] [-m model]              interactive chat (default)
//	pyclaw gateway start|stop|restart|status|run
//	pyclaw config get KEY | set KEY VALUE | backup | backups | restore [PATH]
//	pyclaw models                         list models for the configured provider
//	pyclaw skills list | install SRC [NAME] | remove NAME
//	pyclaw heartbeat                      run the health checks once
//	pyclaw mcp serve [--gated]            expose the tools over MCP stdio
//
// State lives in ~/.pyclaw (override with PYCLAW_HOME). Set PYCLAW_DEBUG=1
// for debug logging.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

const version = "1.0.0"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, errStyle.Render("error: "+err.Error()))
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	cmd, rest := "chat", args
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, rest = args[0], args[1:]
	}

	switch cmd {
	case "chat", "agent":
		return runChat(ctx, rest, in, out)
	case "gateway":
		return runGateway(ctx, rest, out)
	case "config":
		return runConfig(rest, out)
	case "models":
		return runModels(ctx, out)
	case "skills":
		return runSkills(rest, out)
	case "heartbeat":
		return runHeartbeat(ctx, out)
	case "mcp":
		return runMCP(ctx, rest)
	case "version":
		fmt.Fprintln(out, "pyclaw "+version)
		return nil
	case "help":
		fmt.Fprint(out, usage)
		return nil
	}
	return fmt.Errorf("unknown command %q, see pyclaw help", cmd)
}

const usage = `🦞 pyclaw, your personal AI assistant

commands:
  chat [-m model]                          interactive chat (default)
  gateway start|stop|restart|status|run    manage the telegram gateway
  config get KEY                           print a config value
  config set KEY VALUE                     set a config value (JSON or text)
  config backup|backups|restore [PATH]     manage config backups
  models                                   list available models
  skills list|install SRC [NAME]|remove NAME
  heartbeat                                run the health checks once
  mcp serve [--gated]                      serve the tools over MCP stdio
  version                                  print the version
`

// sub splits a command's action from its arguments.
func sub(args []string, def string) (string, []string) {
	if len(args) == 0 {
		return def, nil
	}
	return args[0], args[1:]
}
