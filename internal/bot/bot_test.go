package bot

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"

	"gitlab.com/subshare/subshare/internal/bot/mocks"
	"gitlab.com/subshare/subshare/internal/config"
	"gitlab.com/subshare/subshare/internal/lifecycle"
	"gitlab.com/subshare/subshare/internal/lifecycle/lifecycletest"
	"gitlab.com/subshare/subshare/internal/models"
)

var fixedNow = time.Date(2025, 4, 20, 12, 0, 0, 0, time.UTC)

const (
	adminChatID int64 = 100
	adminUserID int64 = 200
)

// testBot is a Bot over in-memory stores with a recording Telegram client.
type testBot struct {
	*Bot
	mem    *lifecycletest.Memory
	mailer *lifecycletest.Mailer
	tg     *mocks.MockBot
}

func newTestBot(t *testing.T, opts ...lifecycle.Option) *testBot {
	t.Helper()

	mem := lifecycletest.NewMemory()
	mailer := &lifecycletest.Mailer{}
	base := []lifecycle.Option{
		lifecycle.WithMailer(mailer),
		lifecycle.WithClock(func() time.Time { return fixedNow }),
	}
	ctrl := lifecycle.New(mem.Stores(), mem,
		lifecycle.Config{CodePrefix: "SF", SupportEmail: "suporte@subshare.app"},
		append(base, opts...)...)

	tg := mocks.NewMockBot()
	b := &Bot{
		cfg: &config.Config{
			WhitelistedUserIDs:  []int64{adminUserID},
			ExpirySweepInterval: time.Hour,
			SupportPollInterval: time.Minute,
		},
		ctrl:          ctrl,
		messageSender: tg,
		httpClient:    &http.Client{Timeout: 5 * time.Second},
		now:           func() time.Time { return fixedNow },
		seenSupport:   make(map[string]bool),
	}
	return &testBot{Bot: b, mem: mem, mailer: mailer, tg: tg}
}

func command(text string) *tgmodels.Update {
	return mocks.CommandUpdate(adminChatID, adminUserID, text)
}

func memberDraft(title string) models.Listing {
	return models.Listing{
		Title:            title,
		Price:            "R$ 20,00",
		PaymentMethod:    "PIX",
		Status:           "Disponível",
		Access:           "LOGIN E SENHA",
		TelegramUsername: "seller1",
	}
}

func (tb *testBot) submit(t *testing.T, title string) models.PendingSubmission {
	t.Helper()
	res, err := tb.ctrl.Submit(context.Background(), memberDraft(title), "user-1", "owner@mail.com")
	require.NoError(t, err)
	return *res.Pending
}

func (tb *testBot) lastText(t *testing.T) string {
	t.Helper()
	last := tb.tg.LastSentMessage()
	require.NotNil(t, last, "no message was sent")
	return last.Text
}

func TestExtractUserID(t *testing.T) {
	t.Parallel()

	t.Run("extracts from message", func(t *testing.T) {
		t.Parallel()
		update := &tgmodels.Update{
			Message: &tgmodels.Message{From: &tgmodels.User{ID: 12345, Username: "ana"}},
		}
		require.Equal(t, int64(12345), extractUserID(update))
		require.Equal(t, "ana", extractUsername(update))
	})

	t.Run("extracts from callback query", func(t *testing.T) {
		t.Parallel()
		update := &tgmodels.Update{
			CallbackQuery: &tgmodels.CallbackQuery{From: tgmodels.User{ID: 67890, Username: "bia"}},
		}
		require.Equal(t, int64(67890), extractUserID(update))
		require.Equal(t, "bia", extractUsername(update))
	})

	t.Run("returns zero for message without from", func(t *testing.T) {
		t.Parallel()
		update := &tgmodels.Update{Message: &tgmodels.Message{}}
		require.Equal(t, int64(0), extractUserID(update))
		require.Empty(t, extractUsername(update))
	})

	t.Run("returns zero for empty update", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, int64(0), extractUserID(&tgmodels.Update{}))
	})
}

func TestExtractCommandArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		command string
		want    string
	}{
		{"plain argument", "/hide sf1001", "/hide", "sf1001"},
		{"no argument", "/pending", "/pending", ""},
		{"bot suffix", "/hide@subshare_bot SF1001", "/hide", "SF1001"},
		{"bot suffix only", "/export@subshare_bot", "/export", ""},
		{"multiline body", "/import 1\n🔢 Código: SF1001", "/import", "1\n🔢 Código: SF1001"},
		{"bot suffix before newline", "/importchat@bot\nbody", "/importchat", "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, extractCommandArgs(tt.text, tt.command))
		})
	}
}

func TestCommandOf(t *testing.T) {
	t.Parallel()

	require.Equal(t, "/import", commandOf("/import 2"))
	require.Equal(t, "/importchat", commandOf("/importchat@subshare_bot"))
	require.Equal(t, "text", commandOf("🖥 NETFLIX"))
	require.Equal(t, "text", commandOf(""))
}

func TestEscapeHTML(t *testing.T) {
	t.Parallel()
	require.Equal(t, "A &amp; B &lt;b&gt;", escapeHTML("A & B <b>"))
}

func TestSplitMessage(t *testing.T) {
	t.Parallel()

	t.Run("short text stays whole", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, []string{"hello"}, splitMessage("hello", 10))
	})

	t.Run("breaks between lines", func(t *testing.T) {
		t.Parallel()
		chunks := splitMessage("aaaa\nbbbb\ncccc", 10)
		require.Equal(t, []string{"aaaa\nbbbb", "cccc"}, chunks)
	})

	t.Run("cuts long lines on rune boundaries", func(t *testing.T) {
		t.Parallel()
		line := strings.Repeat("ç", 10) // 20 bytes
		chunks := splitMessage(line, 7)
		for _, c := range chunks {
			require.LessOrEqual(t, len(c), 7)
			require.True(t, isRuneStart(c[0]))
		}
		require.Equal(t, line, strings.Join(chunks, ""))
	})

	t.Run("every chunk respects the limit", func(t *testing.T) {
		t.Parallel()
		var sb strings.Builder
		for range 500 {
			sb.WriteString("SF1001 NETFLIX PREMIUM · R$ 20,00\n")
		}
		for _, c := range splitMessage(sb.String(), maxMessageLength) {
			require.LessOrEqual(t, len(c), maxMessageLength)
		}
	})
}

func TestSendSplitsLongText(t *testing.T) {
	t.Parallel()

	tg := mocks.NewMockBot()
	text := strings.Repeat(strings.Repeat("x", 99)+"\n", 100)

	send(context.Background(), tg, adminChatID, text)

	require.Equal(t, 3, tg.SentMessageCount())
	require.Equal(t, tgmodels.ParseModeHTML, tg.LastSentMessage().ParseMode)
}

func TestFormatLine(t *testing.T) {
	t.Parallel()

	l := models.Listing{Code: "SF1001", Title: "NETFLIX <4K>", Price: "R$ 20,00", Featured: true}
	require.Equal(t, "<code>SF1001</code> NETFLIX &lt;4K&gt; · R$ 20,00 🙈 🌟", formatLine(&l))
}

func TestDefaultHandlerRouting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("document without import caption gets a hint", func(t *testing.T) {
		t.Parallel()
		tb := newTestBot(t)

		tb.defaultHandlerCore(ctx, tb.tg, mocks.DocumentUpdate(adminChatID, adminUserID, "f", "notes.txt", ""))
		require.Contains(t, tb.lastText(t), "legenda")
	})

	t.Run("photo without extractor gets a hint", func(t *testing.T) {
		t.Parallel()
		tb := newTestBot(t)

		tb.defaultHandlerCore(ctx, tb.tg, mocks.PhotoUpdate(adminChatID, adminUserID, "p"))
		require.Contains(t, tb.lastText(t), "não está configurada")
	})

	t.Run("free text is previewed", func(t *testing.T) {
		t.Parallel()
		tb := newTestBot(t)

		tb.defaultHandlerCore(ctx, tb.tg, command("oi"))
		require.Contains(t, tb.lastText(t), "Não entendi")
	})

	t.Run("updates without a message are ignored", func(t *testing.T) {
		t.Parallel()
		tb := newTestBot(t)

		tb.defaultHandlerCore(ctx, tb.tg, &tgmodels.Update{})
		require.Zero(t, tb.tg.SentMessageCount())
	})
}
