package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/9v2/pyclaw"
	"github.com/9v2/pyclaw/agent"
	"github.com/9v2/pyclaw/config"
	"github.com/9v2/pyclaw/cron"
	"github.com/9v2/pyclaw/event"
	"github.com/9v2/pyclaw/identity"
	"github.com/9v2/pyclaw/session"
	"github.com/9v2/pyclaw/store"
	"github.com/9v2/pyclaw/tool"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner int64 = 42

// scriptedProvider replays one chunk list per round; the last round repeats.
type scriptedProvider struct {
	mu       sync.Mutex
	rounds   [][]pyclaw.Chunk
	requests []pyclaw.Request
}

func (p *scriptedProvider) Stream(ctx context.Context, req pyclaw.Request) (<-chan pyclaw.Chunk, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	idx := min(len(p.requests)-1, len(p.rounds)-1)
	ch := make(chan pyclaw.Chunk, len(p.rounds[idx]))
	for _, c := range p.rounds[idx] {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func (p *scriptedProvider) FetchModels(ctx context.Context) ([]pyclaw.ModelInfo, error) {
	return nil, nil
}

func (p *scriptedProvider) Requests() []pyclaw.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]pyclaw.Request(nil), p.requests...)
}

func replies(rounds ...pyclaw.Chunk) *scriptedProvider {
	p := &scriptedProvider{}
	for _, r := range rounds {
		p.rounds = append(p.rounds, []pyclaw.Chunk{r})
	}
	return p
}

func text(s string) pyclaw.Chunk {
	return pyclaw.Chunk{Content: &pyclaw.Content{Role: pyclaw.RoleModel, Parts: []pyclaw.Part{pyclaw.TextPart(s)}}}
}

func calls(parts ...pyclaw.Part) pyclaw.Chunk {
	return pyclaw.Chunk{Content: &pyclaw.Content{Role: pyclaw.RoleModel, Parts: parts}}
}

type apiCall struct {
	endpoint string
	params   tgbotapi.Params
}

type fakeBot struct {
	mu             sync.Mutex
	sent           []tgbotapi.Chattable
	requests       []tgbotapi.Chattable
	calls          []string
	apiCalls       []apiCall
	files          []string
	fileURL        string
	rejectMarkdown bool
	stopped        bool
	updates        chan tgbotapi.Update
}

func (b *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return b.updates
}

func (b *fakeBot) StopReceivingUpdates() {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok && b.rejectMarkdown && m.ParseMode != "" {
		return tgbotapi.Message{}, errors.New("Bad Request: can't parse entities")
	}
	b.sent = append(b.sent, c)
	b.calls = append(b.calls, "send")
	return tgbotapi.Message{MessageID: len(b.sent)}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	b.calls = append(b.calls, "request")
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.apiCalls = append(b.apiCalls, apiCall{endpoint: endpoint, params: params})
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetFileDirectURL(fileID string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files = append(b.files, fileID)
	return b.fileURL, nil
}

func (b *fakeBot) Sent() []tgbotapi.Chattable {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]tgbotapi.Chattable(nil), b.sent...)
}

func (b *fakeBot) Messages() []tgbotapi.MessageConfig {
	var out []tgbotapi.MessageConfig
	for _, c := range b.Sent() {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (b *fakeBot) Texts() []string {
	var out []string
	for _, m := range b.Messages() {
		out = append(out, m.Text)
	}
	return out
}

func (b *fakeBot) Edits() []string {
	var out []string
	for _, c := range b.Sent() {
		if e, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, e.Text)
		}
	}
	return out
}

func (b *fakeBot) LastText() string {
	texts := b.Texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

// Keyboard returns the callback data of the newest inline keyboard.
func (b *fakeBot) Keyboard() []string {
	msgs := b.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		kb, ok := msgs[i].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		if !ok {
			continue
		}
		var data []string
		for _, row := range kb.InlineKeyboard {
			for _, btn := range row {
				data = append(data, *btn.CallbackData)
			}
		}
		return data
	}
	return nil
}

type fixture struct {
	g   *Gateway
	bot *fakeBot
	cfg *config.Config
	p   *scriptedProvider
}

func setup(t *testing.T, p *scriptedProvider, reg *tool.Registry, opts ...Option) fixture {
	t.Helper()
	cfg := config.New(filepath.Join(t.TempDir(), "config.json"))
	cfg.Set(AllowedUsersKey, []any{float64(owner)})
	bot := &fakeBot{updates: make(chan tgbotapi.Update)}

	factory := func(s *session.Session) *agent.Agent {
		return agent.New(cfg, p, reg, agent.WithSession(s))
	}
	opts = append([]Option{WithTypingInterval(time.Hour)}, opts...)
	g, err := New(cfg, bot, factory, opts...)
	require.NoError(t, err)
	return fixture{g: g, bot: bot, cfg: cfg, p: p}
}

func message(uid int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 7,
		From:      &tgbotapi.User{ID: uid},
		Chat:      &tgbotapi.Chat{ID: uid, Type: "private"},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		cmd, _, _ := strings.Cut(text, " ")
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return tgbotapi.Update{Message: msg}
}

func callback(uid int64, data, text string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "q1",
		From: &tgbotapi.User{ID: uid},
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: 99,
			Chat:      &tgbotapi.Chat{ID: uid},
			Text:      text,
		},
	}}
}

func (f fixture) handle(u tgbotapi.Update) {
	f.g.HandleUpdate(context.Background(), u)
}

// handleAsync runs an update whose turn blocks on a user decision.
func (f fixture) handleAsync(u tgbotapi.Update) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.handle(u)
	}()
	return done
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not finish")
	}
}

func gatedTool(ran *bool) *tool.Tool {
	return tool.New("danger", "Does something risky", nil, func(ctx context.Context, call tool.Call) (any, error) {
		*ran = true
		return "done it", nil
	}, tool.RequiresConfirmation())
}

func TestSplitMessage(t *testing.T) {
	t.Run("short text is kept", func(t *testing.T) {
		assert.Equal(t, []string{"hello"}, splitMessage("hello", 10))
	})

	t.Run("splits on the last newline", func(t *testing.T) {
		assert.Equal(t, []string{"aaaa\nbbb", "cccc"}, splitMessage("aaaa\nbbb\ncccc", 10))
	})

	t.Run("hard split without newline", func(t *testing.T) {
		assert.Equal(t, []string{"abcde", "fghij", "k"}, splitMessage("abcdefghijk", 5))
	})

	t.Run("never splits a rune", func(t *testing.T) {
		chunks := splitMessage(strings.Repeat("é", 5), 5)
		assert.Equal(t, []string{"éé", "éé", "é"}, chunks)
	})

	t.Run("default limit", func(t *testing.T) {
		long := strings.Repeat(strings.Repeat("x", 99)+"\n", 100)
		chunks := splitMessage(long, MaxMessageLength)
		require.Len(t, chunks, 3)
		for _, c := range chunks {
			assert.LessOrEqual(t, len(c), MaxMessageLength)
		}
	})
}

func TestNew(t *testing.T) {
	cfg := config.New(filepath.Join(t.TempDir(), "config.json"))
	cfg.Set(AllowedUsersKey, "everyone")
	_, err := New(cfg, &fakeBot{}, nil)
	assert.Error(t, err)

	_, err = NewBot(config.New(filepath.Join(t.TempDir(), "config.json")))
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestTextMessage(t *testing.T) {
	adapter := store.NewMemoryAdapter()
	f := setup(t, replies(text("hello **there**")), nil, WithStore(adapter))

	f.handle(message(owner, "hi"))

	msgs := f.bot.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello **there**", msgs[0].Text)
	assert.Equal(t, tgbotapi.ModeMarkdown, msgs[0].ParseMode)
	assert.Equal(t, owner, msgs[0].ChatID)

	t.Run("typing indicator", func(t *testing.T) {
		f.bot.mu.Lock()
		defer f.bot.mu.Unlock()
		require.NotEmpty(t, f.bot.requests)
		action, ok := f.bot.requests[0].(tgbotapi.ChatActionConfig)
		require.True(t, ok)
		assert.Equal(t, tgbotapi.ChatTyping, action.Action)
		assert.Equal(t, "request", f.bot.calls[0], "typing goes out before the reply")
	})

	t.Run("session is persisted", func(t *testing.T) {
		s := session.New()
		require.NoError(t, s.Reload(context.Background(), adapter, "tg-42"))
		require.Equal(t, 2, s.Len())
		last, _ := s.Last()
		assert.Equal(t, "hello **there**", last.Content)
	})

	t.Run("session is restored for a new gateway", func(t *testing.T) {
		p := replies(text("again"))
		g := setup(t, p, nil, WithStore(adapter))
		g.handle(message(owner, "still there?"))

		contents := p.Requests()[0].Contents
		require.Len(t, contents, 3)
		assert.Equal(t, "hi", contents[0].Text())
		assert.Equal(t, "still there?", contents[2].Text())
	})
}

func TestMarkdownFallback(t *testing.T) {
	f := setup(t, replies(text("broken *markdown")), nil)
	f.bot.rejectMarkdown = true

	f.handle(message(owner, "hi"))

	msgs := f.bot.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "broken *markdown", msgs[0].Text)
	assert.Empty(t, msgs[0].ParseMode)
}

func TestLongReplyIsSplit(t *testing.T) {
	long := strings.Repeat(strings.Repeat("y", 79)+"\n", 100)
	f := setup(t, replies(text(long)), nil)

	f.handle(message(owner, "talk a lot"))

	msgs := f.bot.Messages()
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		assert.LessOrEqual(t, len(m.Text), MaxMessageLength)
		assert.False(t, strings.HasPrefix(m.Text, "\n"))
		assert.False(t, strings.HasSuffix(m.Text, "\n\n"))
	}
	assert.Equal(t, long, msgs[0].Text+"\n"+msgs[1].Text, "cut on a line break")

	t.Run("longer reply takes three messages", func(t *testing.T) {
		f := setup(t, replies(text(long+strings.Repeat("z", 79)+"\n")), nil)
		f.handle(message(owner, "talk even more"))
		msgs := f.bot.Messages()
		require.Len(t, msgs, 3)
		assert.Equal(t, strings.Repeat("z", 79)+"\n", msgs[2].Text)
	})
}

func TestUnauthorized(t *testing.T) {
	f := setup(t, replies(text("secret")), nil)

	f.handle(message(7, "hi"))
	assert.Equal(t, []string{"⚠️ unauthorized."}, f.bot.Texts())
	assert.Empty(t, f.p.Requests())

	f.handle(message(7, "/ping"))
	assert.Equal(t, "🏓 pong!", f.bot.LastText())

	f.handle(callback(7, confirmWipe, ""))
	assert.Empty(t, f.bot.Edits())
}

func TestEveryoneAllowed(t *testing.T) {
	f := setup(t, replies(text("hey")), nil)
	f.cfg.Set(AllowedUsersKey, []any{})
	g, err := New(f.cfg, f.bot, f.g.newAgent)
	require.NoError(t, err)

	g.HandleUpdate(context.Background(), message(7, "hi"))
	assert.Equal(t, "hey", f.bot.LastText())
}

func TestCommands(t *testing.T) {
	reg := tool.NewRegistry().Add(
		tool.New("echo", "Echo text back", nil, func(ctx context.Context, call tool.Call) (any, error) { return "", nil }),
		tool.New("secret", "Hidden helper", nil, func(ctx context.Context, call tool.Call) (any, error) { return "", nil }, tool.Hidden()),
	)
	dir := t.TempDir()
	ids := identity.NewStore(dir, filepath.Join(dir, "workspace"))
	f := setup(t, replies(text("ok")), reg, WithIdentity(ids))

	t.Run("start", func(t *testing.T) {
		f.handle(message(owner, "/start"))
		assert.True(t, strings.HasPrefix(f.bot.LastText(), "*Claw 🦞* is ready."))

		require.NoError(t, ids.Write(identity.Soul, "# Nova\n\ncurious"))
		f.handle(message(owner, "/start"))
		assert.True(t, strings.HasPrefix(f.bot.LastText(), "*Nova* is ready."))
	})

	t.Run("new clears the session", func(t *testing.T) {
		f.handle(message(owner, "remember this"))
		u, ok := f.g.existing(owner)
		require.True(t, ok)
		require.Equal(t, 2, u.agent.Session().Len())

		f.handle(message(owner, "/new"))
		assert.Equal(t, "🗑 session history cleared.", f.bot.LastText())
		assert.Zero(t, u.agent.Session().Len())
	})

	t.Run("model", func(t *testing.T) {
		f.handle(message(owner, "/model gpt-5.2 high"))
		assert.Equal(t, "✅ model → `gpt-5.2` (high)", f.bot.LastText())
		assert.Equal(t, "gpt-5.2-high", f.cfg.ModelID())

		saved, err := config.Load(f.cfg.Path())
		require.NoError(t, err)
		assert.Equal(t, "gpt-5.2", saved.String("agent.model"))

		f.handle(message(owner, "/model"))
		assert.Equal(t, "🤖 model: `gpt-5.2` (high)", f.bot.LastText())

		f.handle(message(owner, "/model my-local-model"))
		assert.Contains(t, f.bot.LastText(), "not in the model catalog")
	})

	t.Run("tools", func(t *testing.T) {
		f.handle(message(owner, "/tools"))
		out := f.bot.LastText()
		assert.Contains(t, out, "• `echo` — Echo text back")
		assert.NotContains(t, out, "secret")
	})

	t.Run("status without heartbeat", func(t *testing.T) {
		f.handle(message(owner, "/status"))
		assert.Equal(t, "⚠️ heartbeat disabled.", f.bot.LastText())
	})

	t.Run("stop when idle", func(t *testing.T) {
		f.handle(message(owner, "/stop"))
		assert.Equal(t, "nothing to stop.", f.bot.LastText())
	})

	t.Run("unknown commands reach the agent", func(t *testing.T) {
		before := len(f.p.Requests())
		f.handle(message(owner, "/weather berlin"))
		assert.Len(t, f.p.Requests(), before+1)
		assert.Equal(t, "ok", f.bot.LastText())
	})
}

func TestApproval(t *testing.T) {
	t.Run("approve", func(t *testing.T) {
		ran := false
		p := replies(calls(pyclaw.CallPart("danger", "c1", nil)), text("all done"))
		f := setup(t, p, tool.NewRegistry().Add(gatedTool(&ran)))

		done := f.handleAsync(message(owner, "do it"))
		require.Eventually(t, func() bool { return len(f.bot.Keyboard()) == 2 }, 5*time.Second, 10*time.Millisecond)
		assert.Equal(t, []string{"approve:c1", "deny:c1"}, f.bot.Keyboard())
		prompt := f.bot.LastText()
		assert.True(t, strings.HasPrefix(prompt, "⚠️ allow danger?"))

		f.handle(callback(owner, "approve:c1", prompt))
		wait(t, done)

		assert.True(t, ran)
		assert.Equal(t, "all done", f.bot.LastText())
		assert.Equal(t, []string{prompt + "\n\n✅ approved"}, f.bot.Edits())
	})

	t.Run("deny", func(t *testing.T) {
		ran := false
		p := replies(calls(pyclaw.CallPart("danger", "c1", nil)), text("ok, skipped"))
		f := setup(t, p, tool.NewRegistry().Add(gatedTool(&ran)))

		done := f.handleAsync(message(owner, "do it"))
		require.Eventually(t, func() bool { return len(f.bot.Keyboard()) == 2 }, 5*time.Second, 10*time.Millisecond)
		f.handle(callback(owner, "deny:c1", ""))
		wait(t, done)

		assert.False(t, ran)
		assert.Equal(t, []string{"❌ denied"}, f.bot.Edits())
		contents := p.Requests()[1].Contents
		resp := contents[len(contents)-1].Parts[0].FunctionResponse
		require.NotNil(t, resp)
		assert.Equal(t, agent.ErrDenied.Error(), resp.Response["error"])
	})

	t.Run("stop while waiting", func(t *testing.T) {
		ran := false
		p := replies(calls(pyclaw.CallPart("danger", "c1", nil)), text("never"))
		f := setup(t, p, tool.NewRegistry().Add(gatedTool(&ran)))

		done := f.handleAsync(message(owner, "do it"))
		require.Eventually(t, func() bool { return len(f.bot.Keyboard()) == 2 }, 5*time.Second, 10*time.Millisecond)

		f.handle(message(owner, "/stop"))
		wait(t, done)

		assert.False(t, ran)
		texts := f.bot.Texts()
		require.GreaterOrEqual(t, len(texts), 2)
		assert.Equal(t, []string{"⛔ stopping…", event.StoppedText}, texts[len(texts)-2:])
		assert.Len(t, p.Requests(), 1)
	})

	t.Run("timeout denies", func(t *testing.T) {
		ran := false
		p := replies(calls(pyclaw.CallPart("danger", "c1", nil)), text("too slow"))
		f := setup(t, p, tool.NewRegistry().Add(gatedTool(&ran)), WithApprovalTimeout(20*time.Millisecond))

		f.handle(message(owner, "do it"))
		assert.False(t, ran)
		assert.Equal(t, "too slow", f.bot.LastText())

		f.handle(callback(owner, "approve:c1", ""))
		assert.Equal(t, []string{"⌛ this request has expired."}, f.bot.Edits())
	})
}

func TestFileDelivery(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "report.txt")
	chart := filepath.Join(dir, "chart.png")
	require.NoError(t, os.WriteFile(report, []byte("numbers"), 0o644))
	require.NoError(t, os.WriteFile(chart, []byte("png"), 0o644))

	p := replies(
		calls(
			pyclaw.CallPart("send_file", "f1", map[string]any{"path": "report.txt"}),
			pyclaw.CallPart("send_file", "f2", map[string]any{"path": chart}),
			pyclaw.CallPart("send_file", "f3", map[string]any{"path": "missing.txt"}),
		),
		text("here you go"),
	)
	reg := tool.NewRegistry().Add(tool.SendFile(tool.WithBaseDir(dir)))
	f := setup(t, p, reg, WithBaseDir(dir))

	f.handle(message(owner, "send me the files"))

	var captions []string
	for _, c := range f.bot.Sent() {
		switch v := c.(type) {
		case tgbotapi.DocumentConfig:
			captions = append(captions, v.Caption)
		case tgbotapi.PhotoConfig:
			captions = append(captions, v.Caption)
		}
	}
	assert.Equal(t, []string{"📄 report.txt", "📷 chart.png"}, captions)
	assert.Equal(t, "here you go", f.bot.LastText())
}

func TestPhoto(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/photo" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	photo := func(caption string) tgbotapi.Update {
		u := message(owner, "")
		u.Message.Caption = caption
		u.Message.Photo = []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}}
		return u
	}

	t.Run("default caption", func(t *testing.T) {
		p := replies(text("a cat"))
		f := setup(t, p, nil)
		f.bot.fileURL = srv.URL + "/photo"

		f.handle(photo(""))

		assert.Equal(t, []string{"large"}, f.bot.files)
		parts := p.Requests()[0].Contents[0].Parts
		require.Len(t, parts, 2)
		require.NotNil(t, parts[0].InlineData)
		assert.Equal(t, "image/jpeg", parts[0].InlineData.MimeType)
		data, err := parts[0].InlineData.Bytes()
		require.NoError(t, err)
		assert.Equal(t, "jpeg-bytes", string(data))
		assert.Equal(t, DefaultCaption, parts[1].Text)
		assert.Equal(t, "a cat", f.bot.LastText())
	})

	t.Run("caption is the prompt", func(t *testing.T) {
		p := replies(text("a dog"))
		f := setup(t, p, nil)
		f.bot.fileURL = srv.URL + "/photo"

		f.handle(photo("what breed?"))
		assert.Equal(t, "what breed?", p.Requests()[0].Contents[0].Parts[1].Text)
	})

	t.Run("download failure", func(t *testing.T) {
		p := replies(text("unused"))
		f := setup(t, p, nil)
		f.bot.fileURL = srv.URL + "/gone"

		f.handle(photo(""))
		assert.Equal(t, "⚠️ error processing photo: download failed: 404 Not Found", f.bot.LastText())
		assert.Empty(t, p.Requests())
	})
}

func TestReaction(t *testing.T) {
	p := replies(calls(pyclaw.CallPart("send_reaction", "r1", map[string]any{"emoji": "👍"})), text("noted"))
	f := setup(t, p, nil)

	f.handle(message(owner, "thanks!"))

	f.bot.mu.Lock()
	defer f.bot.mu.Unlock()
	require.Len(t, f.bot.apiCalls, 1)
	call := f.bot.apiCalls[0]
	assert.Equal(t, "setMessageReaction", call.endpoint)
	assert.Equal(t, "42", call.params["chat_id"])
	assert.Equal(t, "7", call.params["message_id"])
	assert.JSONEq(t, `[{"type":"emoji","emoji":"👍"}]`, call.params["reaction"])

	var names []string
	for _, d := range p.Requests()[0].Tools[0].FunctionDeclarations {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"send_reaction"}, names)
}

func TestReset(t *testing.T) {
	dir := t.TempDir()
	ids := identity.NewStore(dir, filepath.Join(dir, "workspace"))
	require.NoError(t, ids.Write(identity.Soul, "# Nova"))
	adapter := store.NewMemoryAdapter()
	require.NoError(t, adapter.Set(context.Background(), "notes", []byte(`{}`)))

	f := setup(t, replies(text("hi")), nil, WithIdentity(ids), WithStore(adapter))
	f.handle(message(owner, "hello"))

	f.handle(message(owner, "/reset"))
	assert.Equal(t, []string{confirmWipe, cancelWipe}, f.bot.Keyboard())

	t.Run("cancel", func(t *testing.T) {
		f.handle(callback(owner, cancelWipe, ""))
		assert.Equal(t, "❌ Reset cancelled.", f.bot.Edits()[0])
		assert.False(t, ids.IsFirstBoot())
	})

	t.Run("confirm", func(t *testing.T) {
		f.handle(callback(owner, confirmWipe, ""))
		edits := f.bot.Edits()
		assert.Contains(t, edits[len(edits)-1], "Factory Reset Complete")
		assert.True(t, ids.IsFirstBoot())

		keys, err := adapter.Keys(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"notes"}, keys)

		_, ok := f.g.existing(owner)
		assert.False(t, ok)
	})
}

func TestCronFire(t *testing.T) {
	t.Run("owner receives the job", func(t *testing.T) {
		p := replies(text("water the plants 🌱"))
		f := setup(t, p, nil)

		f.g.fire(context.Background(), cron.Job{Name: "plants", Action: "remind me to water the plants"})

		reqs := p.Requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, "[Cron Job: plants] remind me to water the plants", reqs[0].Contents[0].Text())
		msgs := f.bot.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, owner, msgs[0].ChatID)
	})

	t.Run("no owner yet", func(t *testing.T) {
		p := replies(text("unused"))
		f := setup(t, p, nil)
		f.cfg.Set(AllowedUsersKey, []any{})
		g, err := New(f.cfg, f.bot, f.g.newAgent)
		require.NoError(t, err)

		g.fire(context.Background(), cron.Job{Name: "n", Action: "a"})
		assert.Empty(t, p.Requests())

		g.HandleUpdate(context.Background(), message(9, "hi"))
		g.fire(context.Background(), cron.Job{Name: "n", Action: "a"})
		assert.Len(t, p.Requests(), 2)
	})
}

func TestRun(t *testing.T) {
	f := setup(t, replies(text("unused")), nil)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- f.g.Run(ctx) }()

	f.bot.updates <- message(owner, "/ping")
	require.Eventually(t, func() bool { return f.bot.LastText() == "🏓 pong!" }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	f.bot.mu.Lock()
	assert.True(t, f.bot.stopped)
	f.bot.mu.Unlock()

	t.Run("closed update channel", func(t *testing.T) {
		f := setup(t, replies(text("unused")), nil)
		close(f.bot.updates)
		assert.Error(t, f.g.Run(context.Background()))
	})
}
