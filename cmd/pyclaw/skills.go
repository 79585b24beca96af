package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/9v2/pyclaw/config"
	"github.com/9v2/pyclaw/skills"
)

func runSkills(args []string, out io.Writer) error {
	action, rest := sub(args, "list")
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	m := skills.NewManager(cfg.WorkspacePath())

	switch action {
	case "list":
		loaded, err := m.Load()
		if err != nil {
			return err
		}
		if len(loaded) == 0 {
			fmt.Fprintln(out, dimStyle.Render("no skills installed."))
			return nil
		}
		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("installed skills (%d):", len(loaded))))
		fmt.Fprintln(out)
		for _, s := range loaded {
			desc := ""
			if s.Description != "" {
				desc = " — " + s.Description
			}
			fmt.Fprintf(out, "  %s %s%s\n", bulletStyle.Render("•"), titleStyle.Render(s.Name), desc)
			fmt.Fprintf(out, "    %s\n", dimStyle.Render(s.Path))
		}

	case "install":
		if len(rest) == 0 || len(rest) > 2 {
			return errors.New("usage: pyclaw skills install SRC [NAME]")
		}
		name := ""
		if len(rest) == 2 {
			name = rest[1]
		}
		s, err := m.Install(config.ExpandHome(rest[0]), name)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, okStyle.Render("✓ installed skill: "+s.Name))
		if s.Description != "" {
			fmt.Fprintln(out, dimStyle.Render("  "+s.Description))
		}

	case "remove":
		if len(rest) != 1 {
			return errors.New("usage: pyclaw skills remove NAME")
		}
		ok, err := m.Remove(rest[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("skill not found: %s", rest[0])
		}
		fmt.Fprintln(out, okStyle.Render("✓ removed skill: "+rest[0]))

	default:
		return fmt.Errorf("unknown skills action %q", action)
	}
	return nil
}
