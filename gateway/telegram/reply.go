package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/9v2/pyclaw/event"
	"github.com/9v2/pyclaw/tool"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MaxMessageLength is where replies are split. Telegram's hard limit is
// 4096.
const MaxMessageLength = 4000

const maxPhotoSize = 20 << 20

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".bmp": true,
}

type turn = event.Stream

// converse runs one agent turn with the typing indicator on, then sends the
// reply text followed by any files the turn wrote or asked to send.
func (g *Gateway) converse(ctx context.Context, u *user, chatID int64, start func(ctx context.Context) turn) {
	g.sendTyping(chatID)
	typingCtx, stopTyping := context.WithCancel(ctx)
	defer stopTyping()
	go g.typing(typingCtx, chatID)

	u.running.Store(true)
	var (
		sb      strings.Builder
		pending = make(map[string]string)
		files   []string
	)
	for e := range start(ctx) {
		switch e.Type {
		case event.Text:
			sb.WriteString(e.Text)
		case event.ToolCall:
			if e.Name == "write_file" || e.Name == "send_file" {
				if p, _ := e.Args["path"].(string); p != "" {
					pending[e.ID] = p
				}
			}
		case event.ToolResult:
			if p, ok := pending[e.ID]; ok && e.Error == nil {
				files = append(files, p)
			}
			delete(pending, e.ID)
		case event.Error:
			sb.WriteString("\n⚠️ " + e.Message)
		case event.Done:
			if e.Truncated {
				sb.WriteString("\n\n⚠️ stopped after too many tool rounds.")
			}
		}
	}
	u.running.Store(false)
	stopTyping()
	g.persist(ctx, u)

	if text := sb.String(); strings.TrimSpace(text) != "" {
		for _, chunk := range splitMessage(text, MaxMessageLength) {
			g.replyMarkdown(chatID, chunk)
		}
	}
	for _, p := range files {
		g.sendFile(chatID, p)
	}
}

// typing refreshes the indicator until ctx is done. Telegram clears it
// after about five seconds or when a message is sent.
func (g *Gateway) typing(ctx context.Context, chatID int64) {
	ticker := time.NewTicker(g.typingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sendTyping(chatID)
		}
	}
}

func (g *Gateway) sendTyping(chatID int64) {
	if _, err := g.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		g.log.Debug("typing action failed", "chat", chatID, "error", err)
	}
}

func (g *Gateway) reply(chatID int64, text string) {
	if _, err := g.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		g.log.Error("send failed", "chat", chatID, "error", err)
	}
}

// replyMarkdown sends text as Markdown, falling back to plain text when
// Telegram rejects the markup.
func (g *Gateway) replyMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := g.bot.Send(msg); err == nil {
		return
	}
	g.reply(chatID, text)
}

func (g *Gateway) edit(q *tgbotapi.CallbackQuery, text string) {
	if q.Message == nil || q.Message.Chat == nil {
		return
	}
	if _, err := g.bot.Send(tgbotapi.NewEditMessageText(q.Message.Chat.ID, q.Message.MessageID, text)); err != nil {
		g.log.Warn("edit failed", "chat", q.Message.Chat.ID, "error", err)
	}
}

// sendFile delivers a file as a photo when it looks like an image and as a
// document otherwise. Missing files are skipped.
func (g *Gateway) sendFile(chatID int64, path string) {
	p, err := tool.ExpandPath(path, g.baseDir)
	if err != nil {
		g.log.Warn("bad file path", "path", path, "error", err)
		return
	}
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		g.log.Warn("file not sent", "path", p, "error", err)
		return
	}

	name := filepath.Base(p)
	var c tgbotapi.Chattable
	if imageExts[strings.ToLower(filepath.Ext(p))] {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(p))
		photo.Caption = "📷 " + name
		c = photo
	} else {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(p))
		doc.Caption = "📄 " + name
		c = doc
	}
	if _, err := g.bot.Send(c); err != nil {
		g.log.Error("failed to send file", "path", p, "error", err)
	}
}

// download fetches a file the user sent.
func (g *Gateway) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := g.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPhotoSize))
}

// splitMessage cuts text into chunks of at most limit bytes, preferring the
// last newline before the limit and never splitting a rune.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	for text != "" {
		if len(text) <= limit {
			chunks = append(chunks, text)
			break
		}
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimLeft(text[cut:], "\n")
	}
	return chunks
}
