package bot

import (
	"context"
	"testing"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"

	"gitlab.com/subshare/subshare/internal/bot/mocks"
	"gitlab.com/subshare/subshare/internal/models"
)

func (tb *testBot) supportMessage(t *testing.T, name, subject string) models.SupportMessage {
	t.Helper()
	_, err := tb.ctrl.SubmitSupport(context.Background(), models.SupportMessage{
		Name:    name,
		Email:   "ana@mail.com",
		Subject: subject,
		Message: "Não consigo acessar <conta>",
	})
	require.NoError(t, err)

	unread, err := tb.ctrl.UnreadSupport(context.Background())
	require.NoError(t, err)
	return unread[len(unread)-1]
}

func TestHandleSupportCore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("empty inbox", func(t *testing.T) {
		t.Parallel()
		tb := newTestBot(t)

		tb.handleSupportCore(ctx, tb.tg, command("/support"))
		require.Equal(t, "📭 Nenhuma mensagem de suporte não lida.", tb.lastText(t))
	})

	t.Run("sends each unread message with a read button", func(t *testing.T) {
		t.Parallel()
		tb := newTestBot(t)
		msg := tb.supportMessage(t, "Ana", "Acesso")

		tb.handleSupportCore(ctx, tb.tg, command("/support"))

		require.Equal(t, 1, tb.tg.SentMessageCount())
		sent := tb.tg.LastSentMessage()
		require.Contains(t, sent.Text, "✉️ <b>Acesso</b>")
		require.Contains(t, sent.Text, "De: Ana &lt;ana@mail.com&gt;")
		require.Contains(t, sent.Text, "Não consigo acessar &lt;conta&gt;")

		kb, ok := sent.ReplyMarkup.(*tgmodels.InlineKeyboardMarkup)
		require.True(t, ok)
		require.Equal(t, "support_read_"+msg.ID, kb.InlineKeyboard[0][0].CallbackData)
	})
}

func TestHandleSupportCallbackCore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("marks the message read", func(t *testing.T) {
		t.Parallel()
		tb := newTestBot(t)
		msg := tb.supportMessage(t, "Ana", "Acesso")

		update := mocks.CallbackQueryUpdate(adminChatID, adminUserID, 55, "✉️ Acesso", "support_read_"+msg.ID)
		tb.handleSupportCallbackCore(ctx, tb.tg, update)

		unread, err := tb.ctrl.UnreadSupport(ctx)
		require.NoError(t, err)
		require.Empty(t, unread)

		require.Equal(t, "✉️ Acesso\n\n✔️ Lida", tb.tg.LastEditedMessage().Text)
		require.Equal(t, "Marcada como lida", tb.tg.AnsweredCallbacks[0].Text)
	})

	t.Run("unknown message", func(t *testing.T) {
		t.Parallel()
		tb := newTestBot(t)

		update := mocks.CallbackQueryUpdate(adminChatID, adminUserID, 55, "", "support_read_missing")
		tb.handleSupportCallbackCore(ctx, tb.tg, update)

		require.Empty(t, tb.tg.EditedMessages)
		require.Equal(t, "Falha ao marcar como lida", tb.tg.AnsweredCallbacks[0].Text)
	})

	t.Run("malformed data", func(t *testing.T) {
		t.Parallel()
		tb := newTestBot(t)

		tb.handleSupportCallbackCore(ctx, tb.tg, mocks.CallbackQueryUpdate(adminChatID, adminUserID, 55, "", "support_read_"))

		require.Empty(t, tb.tg.AnsweredCallbacks)
	})
}
