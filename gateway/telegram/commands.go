package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/9v2/pyclaw"
	"github.com/9v2/pyclaw/model"
	"github.com/9v2/pyclaw/tool"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data of the inline keyboards.
const (
	confirmWipe   = "confirm_wipe"
	cancelWipe    = "cancel_wipe"
	approvePrefix = "approve:"
	denyPrefix    = "deny:"
)

const startHelp = "send me a message or a photo and i'll respond.\n\n" +
	"commands:\n" +
	"/new — new conversation (clears history)\n" +
	"/stop — stop the current reply\n" +
	"/reset — factory reset (wipes identity)\n" +
	"/model — show/switch model\n" +
	"/tools — list available tools\n" +
	"/ping — health check\n" +
	"/status — heartbeat status"

const resetWarning = "⚠️ *Factory Reset Warning*\n\n" +
	"This will permanently delete:\n" +
	"• `SOUL.md` (Identity)\n" +
	"• `USER.md` (Learned preferences)\n" +
	"• `MEMORY.md` (Long-term memory)\n" +
	"• every chat session\n\n" +
	"Are you sure?"

// command handles a bot command. It reports false for commands the agent
// should receive as ordinary text.
func (g *Gateway) command(ctx context.Context, msg *tgbotapi.Message) bool {
	chatID, uid := msg.Chat.ID, msg.From.ID

	switch msg.Command() {
	case "start":
		name := ""
		if g.identity != nil {
			name = g.identity.AIName()
		}
		if name == "" {
			name = "Claw 🦞"
		}
		g.replyMarkdown(chatID, fmt.Sprintf("*%s* is ready.\n\n%s", name, startHelp))

	case "new":
		u := g.user(ctx, uid)
		u.agent.Session().Clear()
		g.persist(ctx, u)
		g.reply(chatID, "🗑 session history cleared.")

	case "stop":
		if u, ok := g.existing(uid); ok && u.running.Load() {
			u.agent.Cancel()
			g.reply(chatID, "⛔ stopping…")
			if n := u.approvals.RejectAll(); n > 0 {
				g.log.Info("pending approvals denied", "user", uid, "count", n)
			}
			return true
		}
		g.reply(chatID, "nothing to stop.")

	case "reset":
		reply := tgbotapi.NewMessage(chatID, resetWarning)
		reply.ParseMode = tgbotapi.ModeMarkdown
		reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Yes, Wipe Everything", confirmWipe),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", cancelWipe),
		))
		if _, err := g.bot.Send(reply); err != nil {
			g.log.Error("send failed", "chat", chatID, "error", err)
		}

	case "model":
		g.model(chatID, strings.Fields(msg.CommandArguments()))

	case "tools":
		var lines []string
		for _, t := range g.user(ctx, uid).agent.Registry().Tools() {
			if t.Hidden {
				continue
			}
			lines = append(lines, fmt.Sprintf("• `%s` — %s", t.Name, clip(t.Description, 60)))
		}
		g.replyMarkdown(chatID, "🔧 *tools:*\n"+strings.Join(lines, "\n"))

	case "status":
		if g.monitor == nil {
			g.reply(chatID, "⚠️ heartbeat disabled.")
			return true
		}
		st := g.monitor.Check(ctx)
		head := "✅ *heartbeat*"
		if !st.OK {
			head = "⚠️ *heartbeat*"
		}
		lines := []string{head}
		for _, c := range st.Checks {
			lines = append(lines, fmt.Sprintf("• %s: `%s`", c.Name, c.Status))
		}
		g.replyMarkdown(chatID, strings.Join(lines, "\n"))

	default:
		return false
	}
	return true
}

func (g *Gateway) model(chatID int64, args []string) {
	if len(args) == 0 {
		text := fmt.Sprintf("🤖 model: `%s`", g.cfg.String("agent.model"))
		if v := g.cfg.String("agent.model_variant"); v != "" {
			text += fmt.Sprintf(" (%s)", v)
		}
		g.replyMarkdown(chatID, text)
		return
	}

	id, variant := args[0], ""
	if len(args) > 1 {
		variant = args[1]
	}
	g.cfg.SetModel(id, variant)
	if err := g.cfg.Save(); err != nil {
		g.reply(chatID, "⚠️ error: "+err.Error())
		return
	}

	text := fmt.Sprintf("✅ model → `%s`", id)
	if variant != "" {
		text += fmt.Sprintf(" (%s)", variant)
	}
	if _, ok := model.Lookup(id); !ok {
		text += "\n_not in the model catalog, make sure your provider serves it._"
	}
	g.replyMarkdown(chatID, text)
}

func (g *Gateway) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q.From == nil {
		return
	}
	if !g.isAllowed(q.From.ID) {
		g.answer(q, "⚠️ unauthorized.")
		return
	}
	g.answer(q, "")

	switch data := q.Data; {
	case data == confirmWipe:
		if err := g.wipe(ctx); err != nil {
			g.log.Error("reset failed", "error", err)
			g.edit(q, "⚠️ reset failed: "+err.Error())
			return
		}
		g.edit(q, "💥 Factory Reset Complete.\n\nI am a blank slate. Send /start to reboot me.")

	case data == cancelWipe:
		g.edit(q, "❌ Reset cancelled.")

	case strings.HasPrefix(data, approvePrefix), strings.HasPrefix(data, denyPrefix):
		approved := strings.HasPrefix(data, approvePrefix)
		callID := strings.TrimPrefix(strings.TrimPrefix(data, approvePrefix), denyPrefix)

		u, ok := g.existing(q.From.ID)
		if !ok || u.approvals.Decide(callID, approved) != nil {
			g.edit(q, "⌛ this request has expired.")
			return
		}
		verdict := "❌ denied"
		if approved {
			verdict = "✅ approved"
		}
		text := verdict
		if q.Message != nil && q.Message.Text != "" {
			text = q.Message.Text + "\n\n" + verdict
		}
		g.edit(q, text)
	}
}

func (g *Gateway) answer(q *tgbotapi.CallbackQuery, text string) {
	if _, err := g.bot.Request(tgbotapi.NewCallback(q.ID, text)); err != nil {
		g.log.Debug("callback answer failed", "error", err)
	}
}

// wipe deletes the identity files and every stored session, and drops all
// agents so the next message starts from first boot.
func (g *Gateway) wipe(ctx context.Context) error {
	if g.identity != nil {
		if err := g.identity.Wipe(); err != nil {
			return err
		}
	}

	g.mu.Lock()
	for _, u := range g.users {
		u.agent.Cancel()
		u.agent.Session().Clear()
	}
	g.users = make(map[int64]*user)
	g.mu.Unlock()

	if g.store == nil {
		return nil
	}
	keys, err := g.store.Keys(ctx)
	if err != nil {
		return err
	}
	removed := 0
	for _, k := range keys {
		if !strings.HasPrefix(k, sessionPrefix) {
			continue
		}
		if err := g.store.Delete(ctx, k); err != nil {
			return err
		}
		removed++
	}
	g.log.Info("factory reset", "sessions", removed)
	return nil
}

// submitApproval presents a gated call to the user with Approve and Deny
// buttons. Private chats share the user's id.
func (g *Gateway) submitApproval(uid int64) func(ctx context.Context, call pyclaw.FunctionCall) error {
	return func(ctx context.Context, call pyclaw.FunctionCall) error {
		args, _ := json.MarshalIndent(call.Args, "", "  ")
		msg := tgbotapi.NewMessage(uid, fmt.Sprintf("⚠️ allow %s?\n\n%s", call.Name, clip(string(args), 500)))
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", approvePrefix+call.ID),
			tgbotapi.NewInlineKeyboardButtonData("❌ Deny", denyPrefix+call.ID),
		))
		_, err := g.bot.Send(msg)
		return err
	}
}

type reactionArgs struct {
	Emoji string `json:"emoji" desc:"One emoji, e.g. 👍 ❤️ 🔥 😂 🎉" required:"true"`
}

// reactionTool lets the model react to the message that started the turn.
func (g *Gateway) reactionTool(chatID int64, messageID int) *tool.Tool {
	return tool.Func("send_reaction", "React to the user's current message with an emoji.",
		func(ctx context.Context, args reactionArgs) (any, error) {
			reaction, err := json.Marshal([]map[string]string{{"type": "emoji", "emoji": args.Emoji}})
			if err != nil {
				return nil, err
			}
			params := tgbotapi.Params{}
			params.AddNonZero64("chat_id", chatID)
			params.AddNonZero("message_id", messageID)
			params["reaction"] = string(reaction)
			if _, err := g.bot.MakeRequest("setMessageReaction", params); err != nil {
				return nil, fmt.Errorf("reaction failed: %w", err)
			}
			return "Reacted with " + args.Emoji, nil
		})
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}
