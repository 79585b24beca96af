package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/9v2/pyclaw/tool"
)

type updateIdentityArgs struct {
	File    string `json:"file" desc:"Which file to update" enum:"soul,user,memory,identity,agents,boot,bootstrap,heartbeat,tools" required:"true"`
	Content string `json:"content" desc:"Full content or text to append" required:"true"`
	Append  bool   `json:"append" desc:"Whether to append to the end of the file"`
}

type readIdentityArgs struct {
	File string `json:"file" desc:"Which file to read" enum:"soul,user,memory,identity,agents,boot,bootstrap,heartbeat,tools" required:"true"`
}

type dailyNoteArgs struct {
	Content string `json:"content" desc:"What happened, in one or two lines" required:"true"`
}

// Tools returns the identity tools bound to s.
func (s *Store) Tools() []*tool.Tool {
	return []*tool.Tool{
		tool.Func("update_identity",
			"Update an identity file (SOUL, USER, IDENTITY, AGENTS, etc.). Use append=true to add content to files like USER or MEMORY. Use append=false to completely overwrite.",
			func(ctx context.Context, args updateIdentityArgs) (any, error) {
				f, err := ParseFile(args.File)
				if err != nil {
					return nil, err
				}
				if args.Append {
					if err := s.Append(f, args.Content); err != nil {
						return nil, err
					}
					return "Appended to " + f.Name(), nil
				}
				if err := s.Write(f, args.Content); err != nil {
					return nil, err
				}
				return fmt.Sprintf("Updated %s successfully.", f.Name()), nil
			}, tool.Hidden()),

		tool.Func("read_identity",
			"Read identity files (SOUL, USER, IDENTITY, AGENTS, etc.).",
			func(ctx context.Context, args readIdentityArgs) (any, error) {
				f, err := ParseFile(args.File)
				if err != nil {
					return nil, err
				}
				content, err := s.Read(f)
				if err != nil {
					return nil, err
				}
				if content == "" && s.missing(f) {
					return nil, fmt.Errorf("file does not exist: %s", s.Path(f))
				}
				return fmt.Sprintf("--- %s ---\n%s", f.Name(), content), nil
			}),

		tool.Func("write_daily_note",
			"Append a note to today's daily log in memory/YYYY-MM-DD.md. Use it for raw events worth remembering; curate lasting facts into MEMORY.md.",
			func(ctx context.Context, args dailyNoteArgs) (any, error) {
				content := strings.TrimSpace(args.Content)
				if content == "" {
					return nil, errors.New("content is empty")
				}
				path, err := s.WriteDailyNote(content)
				if err != nil {
					return nil, err
				}
				return "Noted in " + path, nil
			}),
	}
}
