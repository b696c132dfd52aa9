package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitlab.com/subshare/subshare/internal/bot/mocks"
	"gitlab.com/subshare/subshare/internal/catalog"
	"gitlab.com/subshare/subshare/internal/config"
	"gitlab.com/subshare/subshare/internal/models"
)

const channelID = int64(-1001234567890)

func announcedListing() *models.Listing {
	return &models.Listing{
		Code:             "SF1001",
		Title:            "⭐ NETFLIX PREMIUM",
		Price:            "R$ 20,00",
		PaymentMethod:    "PIX",
		Status:           "Disponível",
		Access:           "LOGIN E SENHA",
		TelegramUsername: "@seller1",
		WhatsAppNumber:   "5511999998888",
	}
}

func TestFormatAnnouncement(t *testing.T) {
	t.Parallel()

	t.Run("renders channel layout", func(t *testing.T) {
		t.Parallel()
		expected := "🖥 ⭐ NETFLIX PREMIUM\n" +
			"🏦 R$ 20,00 - PIX\n" +
			"📌Disponível\n" +
			"🔐 LOGIN E SENHA\n" +
			"📩@seller1\n" +
			"📱 https://wa.me/5511999998888\n" +
			"\n" +
			"🔢 Código: SF1001"

		require.Equal(t, expected, FormatAnnouncement(announcedListing()))
	})

	t.Run("featured banner and skipped fields", func(t *testing.T) {
		t.Parallel()
		l := &models.Listing{Title: "MAX", Price: "R$ 9,90", Featured: true}

		require.Equal(t, "🔥 DESTAQUE\n🖥 MAX\n🏦 R$ 9,90", FormatAnnouncement(l))
	})

	t.Run("chat importer reads announcements back", func(t *testing.T) {
		t.Parallel()
		l := announcedListing()

		parsed := catalog.ParseOne(FormatAnnouncement(l))

		require.NotNil(t, parsed)
		require.Equal(t, l.Title, parsed.Title)
		require.Equal(t, l.Price, parsed.Price)
		require.Equal(t, l.PaymentMethod, parsed.PaymentMethod)
		require.Equal(t, l.Status, parsed.Status)
		require.Equal(t, l.Access, parsed.Access)
		require.Equal(t, l.TelegramUsername, parsed.TelegramUsername)
		require.Equal(t, l.WhatsAppNumber, parsed.WhatsAppNumber)
	})
}

func TestTelegramRelay(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("publish edit remove", func(t *testing.T) {
		t.Parallel()
		api := mocks.NewMockBot()
		relay := NewTelegramRelay(api, channelID)
		l := announcedListing()

		id, err := relay.Publish(ctx, l)
		require.NoError(t, err)
		require.Equal(t, 1000, id)
		require.Equal(t, channelID, api.LastSentMessage().ChatID)
		require.Contains(t, api.LastSentMessage().Text, "Código: SF1001")

		l.Price = "R$ 25,00"
		require.NoError(t, relay.Edit(ctx, id, l))
		edited := api.LastEditedMessage()
		require.Equal(t, id, edited.MessageID)
		require.Contains(t, edited.Text, "R$ 25,00")

		require.NoError(t, relay.Remove(ctx, id))
		require.Equal(t, []mocks.DeletedMessage{{ChatID: channelID, MessageID: id}}, api.DeletedMessages)
	})

	t.Run("wraps client errors", func(t *testing.T) {
		t.Parallel()
		api := mocks.NewMockBot()
		api.SendMessageError = errors.New("chat not found")
		api.EditMessageError = errors.New("message is not modified")
		api.DeleteMessageError = errors.New("message can't be deleted")
		relay := NewTelegramRelay(api, channelID)

		_, err := relay.Publish(ctx, announcedListing())
		require.ErrorContains(t, err, "chat not found")
		require.ErrorContains(t, relay.Edit(ctx, 1, announcedListing()), "not modified")
		require.ErrorContains(t, relay.Remove(ctx, 1), "can't be deleted")
	})
}

type capturedMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func newTestMailer(cfg config.SMTPConfig, sendErr error) (*SMTPMailer, *capturedMail) {
	captured := &capturedMail{}
	m := NewSMTPMailerWithSender(cfg, func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		if sendErr != nil {
			return sendErr
		}
		captured.addr, captured.auth, captured.from, captured.to, captured.msg = addr, a, from, to, string(msg)
		return nil
	})
	m.now = func() time.Time { return time.Date(2025, 4, 20, 12, 0, 0, 0, time.UTC) }
	return m, captured
}

func TestSMTPMailer_Send(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "relay",
		Password: "secret",
		From:     "no-reply@subshare.app",
	}

	t.Run("builds plain text message", func(t *testing.T) {
		t.Parallel()
		m, captured := newTestMailer(cfg, nil)

		err := m.Send(ctx, models.EmailMessage{
			Name:           "Ana Souza",
			Email:          "ana@mail.com",
			Subject:        "Dúvida sobre assinatura",
			Message:        "Olá\nComo funciona?",
			RecipientEmail: "suporte@subshare.app",
		})
		require.NoError(t, err)

		require.Equal(t, "smtp.example.com:587", captured.addr)
		require.NotNil(t, captured.auth)
		require.Equal(t, "no-reply@subshare.app", captured.from)
		require.Equal(t, []string{"suporte@subshare.app"}, captured.to)
		require.Contains(t, captured.msg, "From: Ana Souza <no-reply@subshare.app>\r\n")
		require.Contains(t, captured.msg, "To: suporte@subshare.app\r\n")
		require.Contains(t, captured.msg, "Subject: =?utf-8?q?D=C3=BAvida_sobre_assinatura?=\r\n")
		require.Contains(t, captured.msg, "Reply-To: ana@mail.com\r\n")
		require.Contains(t, captured.msg, "Date: Sun, 20 Apr 2025 12:00:00 +0000\r\n")
		require.True(t, strings.HasSuffix(captured.msg, "\r\n\r\nOlá\r\nComo funciona?\r\n"))
	})

	t.Run("header injection is flattened", func(t *testing.T) {
		t.Parallel()
		m, captured := newTestMailer(cfg, nil)

		err := m.Send(ctx, models.EmailMessage{
			Subject:        "oi",
			Email:          "x@mail.com\r\nBcc: victim@mail.com",
			Message:        "corpo",
			RecipientEmail: "suporte@subshare.app",
		})
		require.NoError(t, err)
		require.NotContains(t, captured.msg, "\r\nBcc:")
	})

	t.Run("no auth without username", func(t *testing.T) {
		t.Parallel()
		anon := cfg
		anon.Username = ""
		m, captured := newTestMailer(anon, nil)

		require.NoError(t, m.Send(ctx, models.EmailMessage{Message: "x", RecipientEmail: "a@b.com"}))
		require.Nil(t, captured.auth)
	})

	t.Run("requires recipient", func(t *testing.T) {
		t.Parallel()
		m, _ := newTestMailer(cfg, nil)

		require.ErrorContains(t, m.Send(ctx, models.EmailMessage{Message: "x"}), "no recipient")
	})

	t.Run("wraps transport errors", func(t *testing.T) {
		t.Parallel()
		m, _ := newTestMailer(cfg, errors.New("535 authentication failed"))

		err := m.Send(ctx, models.EmailMessage{Message: "x", RecipientEmail: "a@b.com"})
		require.ErrorContains(t, err, "535 authentication failed")
	})

	t.Run("honors cancelled context", func(t *testing.T) {
		t.Parallel()
		m, _ := newTestMailer(cfg, nil)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		require.ErrorIs(t, m.Send(cctx, models.EmailMessage{Message: "x", RecipientEmail: "a@b.com"}), context.Canceled)
	})
}
