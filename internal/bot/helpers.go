package bot

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gitlab.com/subshare/subshare/internal/catalog"
	"gitlab.com/subshare/subshare/internal/logger"
	appmodels "gitlab.com/subshare/subshare/internal/models"
)

// maxMessageLength is Telegram's limit for one text message.
const maxMessageLength = 4096

// extractCommandArgs strips the /command prefix (and optional @botname suffix)
// from a message and returns the remaining trimmed arguments.
func extractCommandArgs(text, command string) string {
	args := strings.TrimPrefix(text, command)
	if strings.HasPrefix(args, "@") {
		if idx := strings.IndexAny(args, " \n"); idx != -1 {
			args = args[idx:]
		} else {
			args = ""
		}
	}
	return strings.TrimSpace(args)
}

// commandOf returns the leading /command of text, or "text" for anything else.
func commandOf(text string) string {
	if !strings.HasPrefix(text, "/") {
		return "text"
	}
	cmd, _, _ := strings.Cut(strings.Fields(text)[0], "@")
	return cmd
}

// escapeHTML escapes HTML special characters for safe interpolation in Telegram HTML messages.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// splitMessage cuts text into chunks under limit, breaking between lines.
// A single line longer than limit is cut at a rune boundary.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var (
		chunks []string
		cur    strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, strings.TrimRight(cur.String(), "\n"))
			cur.Reset()
		}
	}

	for line := range strings.SplitSeq(text, "\n") {
		for len(line) > limit {
			flush()
			cut := limit
			for cut > 0 && !isRuneStart(line[cut]) {
				cut--
			}
			if cut == 0 {
				_, cut = utf8.DecodeRuneInString(line)
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if cur.Len()+len(line)+1 > limit {
			flush()
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
	}
	flush()
	return chunks
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// send delivers text as HTML, split across messages when it is too long.
func send(ctx context.Context, tg TelegramAPI, chatID int64, text string) {
	for _, chunk := range splitMessage(text, maxMessageLength) {
		_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      chunk,
			ParseMode: models.ParseModeHTML,
		})
		if err != nil {
			logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Msg("Failed to send message")
			return
		}
	}
}

// formatRecord renders one listing as a TXT backup record.
func formatRecord(l *appmodels.Listing) string {
	return "<pre>" + escapeHTML(catalog.ToText([]appmodels.Listing{*l})) + "</pre>"
}

// formatLine renders a listing as one summary line.
func formatLine(l *appmodels.Listing) string {
	var flags string
	if !l.Visible {
		flags += " 🙈"
	}
	if l.Featured {
		flags += " 🌟"
	}
	return "<code>" + escapeHTML(l.Code) + "</code> " + escapeHTML(l.Title) + " · " + escapeHTML(l.Price) + flags
}

// formatWarnings appends notification warnings to a reply.
func formatWarnings(warnings []string) string {
	if len(warnings) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n⚠️ Avisos:")
	for _, w := range warnings {
		b.WriteString("\n• ")
		b.WriteString(escapeHTML(w))
	}
	return b.String()
}
