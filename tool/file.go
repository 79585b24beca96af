package tool

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
)

var errEnough = errors.New("result limit reached")

const (
	maxReadChars   = 50000
	maxOutputChars = 20000
	maxDirEntries  = 200
	maxGlobResults = 100
)

// FileOption configures the file tools.
type FileOption func(*fileConfig)

type fileConfig struct {
	baseDir string
}

// WithBaseDir resolves relative paths against dir instead of the process
// working directory.
func WithBaseDir(dir string) FileOption {
	return func(c *fileConfig) { c.baseDir = dir }
}

func applyFileOpts(opts []FileOption) *fileConfig {
	cfg := &fileConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (c *fileConfig) resolve(path string) (string, error) {
	return ExpandPath(path, c.baseDir)
}

// ExpandPath expands a leading ~ and makes path absolute, resolving
// relative paths against base when it is set.
func ExpandPath(path, base string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	if !filepath.IsAbs(path) && base != "" {
		path = filepath.Join(base, path)
	}
	return filepath.Abs(path)
}

// clip shortens s to at most n runes and reports whether it did.
func clip(s string, n int) (string, bool) {
	if utf8.RuneCountInString(s) <= n {
		return s, false
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], true
		}
		i++
	}
	return s, false
}

type readFileArgs struct {
	Path string `json:"path" desc:"Absolute or relative file path to read" required:"true"`
}

// ReadFile creates the read_file tool.
func ReadFile(opts ...FileOption) *Tool {
	cfg := applyFileOpts(opts)
	return Func("read_file", "Read the contents of a file at the given path. Returns the file text content.",
		func(ctx context.Context, args readFileArgs) (any, error) {
			p, err := cfg.resolve(args.Path)
			if err != nil {
				return nil, err
			}
			info, err := os.Stat(p)
			if err != nil {
				return nil, fmt.Errorf("file not found: %s", p)
			}
			if info.IsDir() {
				return nil, fmt.Errorf("not a file: %s", p)
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return nil, fmt.Errorf("error reading file: %w", err)
			}
			text := strings.ToValidUTF8(string(data), "�")
			if clipped, ok := clip(text, maxReadChars); ok {
				return fmt.Sprintf("%s\n\n... (truncated, %d total chars)", clipped, utf8.RuneCountInString(text)), nil
			}
			return text, nil
		})
}

type writeFileArgs struct {
	Path    string `json:"path" desc:"File path to write to" required:"true"`
	Content string `json:"content" desc:"Content to write to the file" required:"true"`
}

// WriteFile creates the write_file tool.
func WriteFile(opts ...FileOption) *Tool {
	cfg := applyFileOpts(opts)
	return Func("write_file", "Write content to a file. Creates parent directories if needed. Overwrites existing content.",
		func(ctx context.Context, args writeFileArgs) (any, error) {
			p, err := cfg.resolve(args.Path)
			if err != nil {
				return nil, err
			}
			if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
				return nil, fmt.Errorf("error writing file: %w", err)
			}
			if err := os.WriteFile(p, []byte(args.Content), 0o644); err != nil {
				return nil, fmt.Errorf("error writing file: %w", err)
			}
			return fmt.Sprintf("Wrote %d chars to %s", utf8.RuneCountInString(args.Content), p), nil
		}, RequiresConfirmation())
}

type sendFileArgs struct {
	Path string `json:"path" desc:"File path to send" required:"true"`
}

// SendFile creates the send_file tool. It only validates the path; the
// gateway delivers the file after a successful result.
func SendFile(opts ...FileOption) *Tool {
	cfg := applyFileOpts(opts)
	return Func("send_file", "Send a file to the user via the gateway. Use this ONLY when the user explicitly requests a file transfer.",
		func(ctx context.Context, args sendFileArgs) (any, error) {
			p, err := cfg.resolve(args.Path)
			if err != nil {
				return nil, err
			}
			if _, err := os.Stat(p); err != nil {
				return nil, fmt.Errorf("file not found: %s", p)
			}
			return "File scheduled for sending: " + p, nil
		})
}

type listDirArgs struct {
	Path string `json:"path" desc:"Directory path to list. Defaults to current directory."`
}

// ListDirectory creates the list_directory tool.
func ListDirectory(opts ...FileOption) *Tool {
	cfg := applyFileOpts(opts)
	return Func("list_directory", "List files and subdirectories in the given directory path.",
		func(ctx context.Context, args listDirArgs) (any, error) {
			if args.Path == "" {
				args.Path = "."
			}
			p, err := cfg.resolve(args.Path)
			if err != nil {
				return nil, err
			}
			entries, err := os.ReadDir(p)
			if err != nil {
				return nil, fmt.Errorf("directory not found: %s", p)
			}
			sort.Slice(entries, func(i, j int) bool {
				if entries[i].IsDir() != entries[j].IsDir() {
					return entries[i].IsDir()
				}
				return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
			})

			var sb strings.Builder
			for i, e := range entries {
				if i == maxDirEntries {
					fmt.Fprintf(&sb, "\n... and %d more entries", len(entries)-maxDirEntries)
					break
				}
				if i > 0 {
					sb.WriteByte('\n')
				}
				if e.IsDir() {
					sb.WriteString("📁 " + e.Name())
					continue
				}
				sb.WriteString("📄 " + e.Name())
				if info, err := e.Info(); err == nil {
					fmt.Fprintf(&sb, " (%s bytes)", groupDigits(info.Size()))
				}
			}
			return sb.String(), nil
		})
}

func groupDigits(n int64) string {
	s := fmt.Sprint(n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}

type searchFilesArgs struct {
	Pattern   string `json:"pattern" desc:"Glob pattern to match (e.g. '*.py', '**/*.js')" required:"true"`
	Directory string `json:"directory" desc:"Root directory to search in. Defaults to current directory."`
}

// SearchFiles creates the search_files tool. Patterns without a directory
// component match at any depth.
func SearchFiles(opts ...FileOption) *Tool {
	cfg := applyFileOpts(opts)
	return Func("search_files", "Search for files matching a glob pattern recursively in a directory.",
		func(ctx context.Context, args searchFilesArgs) (any, error) {
			if args.Directory == "" {
				args.Directory = "."
			}
			root, err := cfg.resolve(args.Directory)
			if err != nil {
				return nil, err
			}
			if _, err := os.Stat(root); err != nil {
				return nil, fmt.Errorf("directory not found: %s", root)
			}
			pattern := args.Pattern
			if !strings.Contains(pattern, "/") {
				pattern = "**/" + pattern
			}
			if !doublestar.ValidatePattern(pattern) {
				return nil, fmt.Errorf("invalid glob pattern: %s", args.Pattern)
			}

			var matches []string
			err = doublestar.GlobWalk(os.DirFS(root), pattern, func(path string, d fs.DirEntry) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				matches = append(matches, path)
				if len(matches) == maxGlobResults {
					return errEnough
				}
				return nil
			})
			if err != nil && !errors.Is(err, errEnough) {
				return nil, err
			}
			if len(matches) == 0 {
				return fmt.Sprintf("No files matching '%s' in %s", args.Pattern, root), nil
			}
			if len(matches) > maxGlobResults {
				matches = matches[:maxGlobResults]
			}
			return strings.Join(matches, "\n"), nil
		})
}

type grepArgs struct {
	Pattern string `json:"pattern" desc:"Text or regular expression to search for" required:"true"`
	Path    string `json:"path" desc:"File or directory path to search in" required:"true"`
	Include string `json:"include" desc:"File glob to include (e.g. '*.py'). Optional."`
}

// Grep creates the grep tool. Output lines have the form path:line:text.
func Grep(opts ...FileOption) *Tool {
	cfg := applyFileOpts(opts)
	return Func("grep", "Search for a text pattern in files. Uses grep-like search.",
		func(ctx context.Context, args grepArgs) (any, error) {
			root, err := cfg.resolve(args.Path)
			if err != nil {
				return nil, err
			}
			re, err := regexp.Compile(args.Pattern)
			if err != nil {
				re = regexp.MustCompile(regexp.QuoteMeta(args.Pattern))
			}

			var out strings.Builder
			walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return nil
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if d.IsDir() {
					if path != root && (d.Name() == ".git" || d.Name() == "node_modules") {
						return filepath.SkipDir
					}
					return nil
				}
				if args.Include != "" {
					if ok, _ := filepath.Match(args.Include, d.Name()); !ok {
						return nil
					}
				}
				if grepFile(path, re, &out) {
					return filepath.SkipAll
				}
				return nil
			})
			if walkErr != nil && ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if out.Len() == 0 {
				return fmt.Sprintf("No matches for '%s' in %s", args.Pattern, args.Path), nil
			}
			text := strings.TrimSpace(out.String())
			if clipped, ok := clip(text, maxOutputChars); ok {
				return clipped + "\n... (truncated)", nil
			}
			return text, nil
		})
}

// grepFile appends matching lines of path to out and reports whether the
// output limit has been reached.
func grepFile(path string, re *regexp.Regexp, out *strings.Builder) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return false
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for n := 1; sc.Scan(); n++ {
		if re.Match(sc.Bytes()) {
			fmt.Fprintf(out, "%s:%d:%s\n", path, n, sc.Text())
			if out.Len() > maxOutputChars*4 {
				return true
			}
		}
	}
	return false
}

// FileTools returns the file tool set.
func FileTools(opts ...FileOption) []*Tool {
	return []*Tool{
		ReadFile(opts...),
		WriteFile(opts...),
		SendFile(opts...),
		ListDirectory(opts...),
		SearchFiles(opts...),
		Grep(opts...),
	}
}
