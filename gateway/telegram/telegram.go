// Package telegram bridges the agent to a Telegram bot. Every user gets an
// independent agent and session; sessions are persisted between restarts
// through a store adapter.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/9v2/pyclaw/agent"
	"github.com/9v2/pyclaw/config"
	"github.com/9v2/pyclaw/cron"
	"github.com/9v2/pyclaw/heartbeat"
	"github.com/9v2/pyclaw/identity"
	"github.com/9v2/pyclaw/session"
	"github.com/9v2/pyclaw/store"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	// TokenKey holds the bot token.
	TokenKey = "gateway.telegram_bot_token"
	// AllowedUsersKey lists the user ids allowed to talk to the bot. An
	// empty list allows everyone.
	AllowedUsersKey = "gateway.allowed_users"

	// DefaultCaption is sent with photos that have none.
	DefaultCaption = "What do you see in this image? Describe it and analyze it."

	// DefaultTypingInterval keeps the typing indicator alive; Telegram
	// clears it after five seconds.
	DefaultTypingInterval = 4500 * time.Millisecond

	sessionPrefix = "tg-"
)

// ErrNoToken is returned when no bot token is configured.
var ErrNoToken = errors.New("no telegram bot token, set " + TokenKey)

// Bot is the part of the Bot API the gateway uses. *tgbotapi.BotAPI
// satisfies it.
type Bot interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// NewBot connects to Telegram with the configured token.
func NewBot(cfg *config.Config) (*tgbotapi.BotAPI, error) {
	token := cfg.String(TokenKey)
	if token == "" {
		return nil, ErrNoToken
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return bot, nil
}

// AgentFactory builds the agent for one user around its session.
type AgentFactory func(s *session.Session) *agent.Agent

// Gateway routes Telegram updates to per-user agents.
type Gateway struct {
	cfg      *config.Config
	bot      Bot
	newAgent AgentFactory

	store           store.Adapter
	identity        *identity.Store
	monitor         *heartbeat.Monitor
	cron            *cron.Manager
	client          *http.Client
	baseDir         string
	typingInterval  time.Duration
	approvalTimeout time.Duration
	log             *slog.Logger

	allowed map[int64]bool
	owner   int64

	mu    sync.Mutex
	users map[int64]*user
	last  int64
	wg    sync.WaitGroup
}

type user struct {
	id        int64
	agent     *agent.Agent
	approvals *agent.ApprovalBroker
	running   atomic.Bool
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithStore persists sessions. Without it sessions live in memory.
func WithStore(a store.Adapter) Option {
	return func(g *Gateway) { g.store = a }
}

// WithIdentity enables /start naming and /reset.
func WithIdentity(s *identity.Store) Option {
	return func(g *Gateway) { g.identity = s }
}

// WithMonitor enables /status and runs the heartbeat alongside the bot.
func WithMonitor(m *heartbeat.Monitor) Option {
	return func(g *Gateway) { g.monitor = m }
}

// WithCron fires scheduled jobs into the owner's agent.
func WithCron(m *cron.Manager) Option {
	return func(g *Gateway) { g.cron = m }
}

// WithHTTPClient sets the client used to download photos.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.client = c }
}

// WithBaseDir resolves relative paths of files to deliver against dir.
func WithBaseDir(dir string) Option {
	return func(g *Gateway) { g.baseDir = dir }
}

// WithTypingInterval sets how often the typing indicator is refreshed.
func WithTypingInterval(d time.Duration) Option {
	return func(g *Gateway) { g.typingInterval = d }
}

// WithApprovalTimeout sets how long a confirmation waits before denying.
func WithApprovalTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.approvalTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.log = l }
}

// New creates a gateway. It fails when gateway.allowed_users is malformed.
func New(cfg *config.Config, bot Bot, newAgent AgentFactory, opts ...Option) (*Gateway, error) {
	g := &Gateway{
		cfg:             cfg,
		bot:             bot,
		newAgent:        newAgent,
		client:          &http.Client{Timeout: 60 * time.Second},
		typingInterval:  DefaultTypingInterval,
		approvalTimeout: agent.DefaultApprovalTimeout,
		log:             slog.Default(),
		allowed:         make(map[int64]bool),
		users:           make(map[int64]*user),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.With("component", "telegram")

	var ids []int64
	if err := cfg.Decode(AllowedUsersKey, &ids); err != nil && !errors.Is(err, config.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", AllowedUsersKey, err)
	}
	for i, id := range ids {
		if i == 0 {
			g.owner = id
		}
		g.allowed[id] = true
	}
	return g, nil
}

// Run polls for updates until ctx is done, handling each one concurrently.
// The cron scheduler and heartbeat run alongside when configured.
func (g *Gateway) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if g.cron != nil {
		g.cron.Start(ctx, func(job cron.Job) { g.fire(ctx, job) })
		defer func() {
			cancel()
			g.cron.Stop()
		}()
	}
	if g.monitor != nil {
		go g.monitor.Run(ctx, 0)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := g.bot.GetUpdatesChan(u)
	g.log.Info("telegram gateway started", "allowed_users", len(g.allowed))

	defer func() {
		cancel()
		g.wg.Wait()
	}()
	for {
		select {
		case <-ctx.Done():
			g.bot.StopReceivingUpdates()
			g.log.Info("telegram gateway stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return errors.New("telegram: update channel closed")
			}
			g.wg.Add(1)
			go func() {
				defer g.wg.Done()
				g.HandleUpdate(ctx, update)
			}()
		}
	}
}

// HandleUpdate processes one update and returns when its reply is sent.
func (g *Gateway) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if p := recover(); p != nil {
			g.log.Error("update handler panicked", "update", update.UpdateID, "panic", p)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		g.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil:
		g.handleMessage(ctx, update.Message)
	}
}

func (g *Gateway) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	uid := msg.From.ID
	if msg.IsCommand() && msg.Command() == "ping" {
		g.reply(msg.Chat.ID, "🏓 pong!")
		return
	}
	if !g.isAllowed(uid) {
		g.log.Warn("unauthorized user", "user", uid)
		g.reply(msg.Chat.ID, "⚠️ unauthorized.")
		return
	}

	g.mu.Lock()
	g.last = uid
	g.mu.Unlock()

	if msg.IsCommand() {
		if g.command(ctx, msg) {
			return
		}
	}

	u := g.user(ctx, uid)
	opts := []agent.Option{agent.WithTurnTools(g.reactionTool(msg.Chat.ID, msg.MessageID))}
	if len(msg.Photo) > 0 {
		g.handlePhoto(ctx, u, msg, opts)
		return
	}
	if msg.Text == "" {
		return
	}
	g.converse(ctx, u, msg.Chat.ID, func(ctx context.Context) turn {
		return u.agent.Chat(ctx, msg.Text, opts...)
	})
}

func (g *Gateway) handlePhoto(ctx context.Context, u *user, msg *tgbotapi.Message, opts []agent.Option) {
	photo := msg.Photo[len(msg.Photo)-1]
	data, err := g.download(ctx, photo.FileID)
	if err != nil {
		g.log.Error("photo download failed", "user", u.id, "error", err)
		g.reply(msg.Chat.ID, "⚠️ error processing photo: "+err.Error())
		return
	}
	caption := msg.Caption
	if caption == "" {
		caption = DefaultCaption
	}
	g.converse(ctx, u, msg.Chat.ID, func(ctx context.Context) turn {
		return u.agent.ChatWithImage(ctx, data, "image/jpeg", caption, opts...)
	})
}

func (g *Gateway) isAllowed(uid int64) bool {
	return len(g.allowed) == 0 || g.allowed[uid]
}

// user returns the user's agent, creating it and restoring its session on
// first contact.
func (g *Gateway) user(ctx context.Context, uid int64) *user {
	g.mu.Lock()
	defer g.mu.Unlock()
	if u, ok := g.users[uid]; ok {
		return u
	}

	s := session.New(session.WithID(sessionKey(uid)))
	if g.store != nil {
		if err := s.Reload(ctx, g.store, sessionKey(uid)); err != nil && !errors.Is(err, store.ErrKeyNotFound) {
			g.log.Warn("session not restored", "user", uid, "error", err)
			s = session.New(session.WithID(sessionKey(uid)))
		}
	}

	u := &user{id: uid, agent: g.newAgent(s)}
	u.approvals = agent.NewApprovalBroker(
		agent.WithApprovalTimeout(g.approvalTimeout),
		agent.WithOnSubmit(g.submitApproval(uid)),
	)
	u.agent.SetConfirmCallback(u.approvals.Confirm)
	g.users[uid] = u
	g.log.Info("user session opened", "user", uid, "messages", s.Len())
	return u
}

func (g *Gateway) existing(uid int64) (*user, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	u, ok := g.users[uid]
	return u, ok
}

func (g *Gateway) persist(ctx context.Context, u *user) {
	if g.store == nil {
		return
	}
	if err := u.agent.Session().Sync(ctx, g.store, sessionKey(u.id)); err != nil {
		g.log.Warn("session not saved", "user", u.id, "error", err)
	}
}

// fire sends a cron job's message into the owner's agent: the first
// allowed user, or the last user seen when everyone is allowed.
func (g *Gateway) fire(ctx context.Context, job cron.Job) {
	g.mu.Lock()
	owner := g.owner
	if owner == 0 {
		owner = g.last
	}
	g.mu.Unlock()

	log := g.log.With("job", job.Name)
	if owner == 0 {
		log.Warn("cron job skipped, no owner yet")
		return
	}
	u := g.user(ctx, owner)
	log.Info("cron job fired", "user", owner)
	// Private chats share the user's id.
	g.converse(ctx, u, owner, func(ctx context.Context) turn {
		return u.agent.Chat(ctx, job.Message())
	})
}

func sessionKey(uid int64) string {
	return sessionPrefix + strconv.FormatInt(uid, 10)
}
