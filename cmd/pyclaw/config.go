package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/9v2/pyclaw/config"
)

func runConfig(args []string, out io.Writer) error {
	action, rest := sub(args, "show")
	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	switch action {
	case "show":
		return printJSON(out, cfg.Data())

	case "path":
		fmt.Fprintln(out, cfg.Path())

	case "get":
		if len(rest) != 1 {
			return errors.New("usage: pyclaw config get KEY")
		}
		v, err := cfg.Get(rest[0])
		if err != nil {
			return err
		}
		return printJSON(out, v)

	case "set":
		if len(rest) < 2 {
			return errors.New("usage: pyclaw config set KEY VALUE")
		}
		key, raw := rest[0], strings.Join(rest[1:], " ")
		if _, err := cfg.AutoBackup(); err != nil {
			return err
		}
		cfg.Set(key, parseValue(raw))
		if err := cfg.Save(); err != nil {
			return err
		}
		v, _ := cfg.Get(key)
		text, _ := json.Marshal(v)
		fmt.Fprintf(out, "%s set %s = %s\n", okStyle.Render("✓"), titleStyle.Render(key), text)

	case "backup":
		path, err := cfg.Backup()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, okStyle.Render("✓ backup created: ")+path)

	case "backups":
		backups, err := cfg.ListBackups()
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			fmt.Fprintln(out, dimStyle.Render("no backups yet."))
			return nil
		}
		for _, b := range backups {
			fmt.Fprintf(out, "  %s %s\n", bulletStyle.Render("•"), filepath.Base(b))
		}

	case "restore":
		path, err := restoreTarget(cfg, rest)
		if err != nil {
			return err
		}
		if err := cfg.Restore(path); err != nil {
			return err
		}
		fmt.Fprintln(out, okStyle.Render("✓ restored ")+filepath.Base(path))

	default:
		return fmt.Errorf("unknown config action %q", action)
	}
	return nil
}

// parseValue reads JSON when it can, so numbers, booleans, lists and null
// keep their types. Anything else is a string.
func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

// restoreTarget resolves the backup to restore: the newest one, or a path
// or file name inside the pyclaw home.
func restoreTarget(cfg *config.Config, args []string) (string, error) {
	if len(args) == 0 {
		backups, err := cfg.ListBackups()
		if err != nil {
			return "", err
		}
		if len(backups) == 0 {
			return "", errors.New("no backups to restore")
		}
		return backups[len(backups)-1], nil
	}
	if p := args[0]; filepath.IsAbs(p) || strings.ContainsRune(p, filepath.Separator) {
		return config.ExpandHome(p), nil
	}
	return filepath.Join(cfg.Dir(), args[0]), nil
}

func printJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}
