package mocks

import (
	"context"
	"errors"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
)

const channelID = int64(-1001234567890)

func reviewKeyboard(pendingID string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{
			{Text: "✅ Aprovar", CallbackData: "review:approve_" + pendingID},
			{Text: "❌ Recusar", CallbackData: "review:reject_" + pendingID},
		}},
	}
}

func TestMockBot_ChannelPostLifecycle(t *testing.T) {
	t.Parallel()

	mockBot := NewMockBot()
	ctx := context.Background()

	posted, err := mockBot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    channelID,
		Text:      "<b>NETFLIX PREMIUM</b>\nR$ 20,00 - PIX",
		ParseMode: models.ParseModeHTML,
	})
	require.NoError(t, err)
	require.Equal(t, 1000, posted.ID)
	require.Equal(t, channelID, posted.Chat.ID)

	edited, err := mockBot.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    channelID,
		MessageID: posted.ID,
		Text:      "<b>NETFLIX PREMIUM</b>\nR$ 25,00 - PIX",
		ParseMode: models.ParseModeHTML,
	})
	require.NoError(t, err)
	require.Equal(t, posted.ID, edited.ID)
	require.Equal(t, "<b>NETFLIX PREMIUM</b>\nR$ 25,00 - PIX", mockBot.LastEditedMessage().Text)

	ok, err := mockBot.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: channelID, MessageID: posted.ID})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []DeletedMessage{{ChatID: channelID, MessageID: posted.ID}}, mockBot.DeletedMessages)

	next, err := mockBot.SendMessage(ctx, &bot.SendMessageParams{ChatID: channelID, Text: "MAX"})
	require.NoError(t, err)
	require.Equal(t, 1001, next.ID)
}

func TestMockBot_ReplyMarkup(t *testing.T) {
	t.Parallel()

	t.Run("review card keeps its buttons", func(t *testing.T) {
		t.Parallel()
		mockBot := NewMockBot()

		_, err := mockBot.SendMessage(context.Background(), &bot.SendMessageParams{
			ChatID:      int64(200),
			Text:        "📝 Nova assinatura pendente",
			ReplyMarkup: reviewKeyboard("p-1"),
		})
		require.NoError(t, err)

		markup, ok := mockBot.LastSentMessage().ReplyMarkup.(*models.InlineKeyboardMarkup)
		require.True(t, ok)
		require.Len(t, markup.InlineKeyboard[0], 2)
		require.Equal(t, "review:approve_p-1", markup.InlineKeyboard[0][0].CallbackData)
	})

	t.Run("edit can drop the buttons", func(t *testing.T) {
		t.Parallel()
		mockBot := NewMockBot()

		_, err := mockBot.EditMessageText(context.Background(), &bot.EditMessageTextParams{
			ChatID:    int64(200),
			MessageID: 55,
			Text:      "✅ Aprovada como SF1001",
		})
		require.NoError(t, err)
		require.Nil(t, mockBot.LastEditedMessage().ReplyMarkup)
	})

	t.Run("callback answers are recorded", func(t *testing.T) {
		t.Parallel()
		mockBot := NewMockBot()

		ok, err := mockBot.AnswerCallbackQuery(context.Background(), &bot.AnswerCallbackQueryParams{
			CallbackQueryID: "cb-9",
			Text:            "Assinatura não encontrada",
			ShowAlert:       true,
		})
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, []AnsweredCallback{{CallbackQueryID: "cb-9", Text: "Assinatura não encontrada", ShowAlert: true}},
			mockBot.AnsweredCallbacks)
	})
}

func TestMockBot_Uploads(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("catalog backup document", func(t *testing.T) {
		t.Parallel()
		mockBot := NewMockBot()

		msg, err := mockBot.SendDocument(ctx, &bot.SendDocumentParams{
			ChatID:   int64(200),
			Document: &models.InputFileUpload{Filename: "catalogo.txt"},
			Caption:  "📦 12 assinaturas",
		})
		require.NoError(t, err)
		require.Equal(t, "catalogo.txt", msg.Document.FileName)
		require.Equal(t, 1, mockBot.SentDocumentCount())
		require.Equal(t, "📦 12 assinaturas", mockBot.LastSentDocument().Caption)
	})

	t.Run("stats chart photo", func(t *testing.T) {
		t.Parallel()
		mockBot := NewMockBot()

		msg, err := mockBot.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:  int64(200),
			Photo:   &models.InputFileUpload{Filename: "stats.png"},
			Caption: "Catálogo por serviço",
		})
		require.NoError(t, err)
		require.Equal(t, "Catálogo por serviço", msg.Caption)
		require.Equal(t, []SentPhoto{{ChatID: int64(200), Filename: "stats.png", Caption: "Catálogo por serviço"}},
			mockBot.SentPhotos)
	})

	t.Run("photo sent by file id has no filename", func(t *testing.T) {
		t.Parallel()
		mockBot := NewMockBot()

		_, err := mockBot.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID: int64(200),
			Photo:  &models.InputFileString{Data: "AgACAgEAAx"},
		})
		require.NoError(t, err)
		require.Empty(t, mockBot.SentPhotos[0].Filename)
	})
}

func TestMockBot_ScreenshotDownload(t *testing.T) {
	t.Parallel()

	mockBot := NewMockBot()
	file, err := mockBot.GetFile(context.Background(), &bot.GetFileParams{FileID: "shot"})
	require.NoError(t, err)
	require.Equal(t, "test-file-id", file.FileID)
	require.Contains(t, mockBot.FileDownloadLink(file), "api.telegram.org")

	mockBot.FileToReturn = &models.File{FileID: "shot", FilePath: "photos/shot.png"}
	mockBot.FileDownloadLinkToReturn = "http://127.0.0.1:9999/photos/shot.png"
	file, err = mockBot.GetFile(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, "photos/shot.png", file.FilePath)
	require.Equal(t, "http://127.0.0.1:9999/photos/shot.png", mockBot.FileDownloadLink(file))
}

func TestMockBot_ConfiguredErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	boom := errors.New("Bad Request: chat not found")

	tests := []struct {
		name   string
		arm    func(m *MockBot)
		call   func(m *MockBot) error
		counts func(m *MockBot) int
	}{
		{
			name: "send message",
			arm:  func(m *MockBot) { m.SendMessageError = boom },
			call: func(m *MockBot) error {
				_, err := m.SendMessage(ctx, &bot.SendMessageParams{ChatID: channelID, Text: "x"})
				return err
			},
			counts: func(m *MockBot) int { return m.SentMessageCount() },
		},
		{
			name: "edit message",
			arm:  func(m *MockBot) { m.EditMessageError = boom },
			call: func(m *MockBot) error {
				_, err := m.EditMessageText(ctx, &bot.EditMessageTextParams{ChatID: channelID, MessageID: 1})
				return err
			},
			counts: func(m *MockBot) int { return len(m.EditedMessages) },
		},
		{
			name: "send document",
			arm:  func(m *MockBot) { m.SendDocumentError = boom },
			call: func(m *MockBot) error {
				_, err := m.SendDocument(ctx, &bot.SendDocumentParams{ChatID: channelID})
				return err
			},
			counts: func(m *MockBot) int { return m.SentDocumentCount() },
		},
		{
			name: "send photo",
			arm:  func(m *MockBot) { m.SendPhotoError = boom },
			call: func(m *MockBot) error {
				_, err := m.SendPhoto(ctx, &bot.SendPhotoParams{ChatID: channelID})
				return err
			},
			counts: func(m *MockBot) int { return m.SentPhotoCount() },
		},
		{
			name: "delete message",
			arm:  func(m *MockBot) { m.DeleteMessageError = boom },
			call: func(m *MockBot) error {
				_, err := m.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: channelID, MessageID: 1})
				return err
			},
			counts: func(m *MockBot) int { return len(m.DeletedMessages) },
		},
		{
			name: "get file",
			arm:  func(m *MockBot) { m.GetFileError = boom },
			call: func(m *MockBot) error {
				_, err := m.GetFile(ctx, nil)
				return err
			},
			counts: func(*MockBot) int { return 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mockBot := NewMockBot()
			tt.arm(mockBot)

			require.ErrorIs(t, tt.call(mockBot), boom)
			require.Zero(t, tt.counts(mockBot))

			mockBot.Reset()
			require.NoError(t, tt.call(mockBot))
		})
	}
}

func TestMockBot_Reset(t *testing.T) {
	t.Parallel()

	mockBot := NewMockBot()
	ctx := context.Background()
	_, _ = mockBot.SendMessage(ctx, &bot.SendMessageParams{ChatID: channelID, Text: "a"})
	_, _ = mockBot.SendPhoto(ctx, &bot.SendPhotoParams{ChatID: channelID})
	_, _ = mockBot.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: channelID, MessageID: 1000})

	mockBot.Reset()

	require.Nil(t, mockBot.LastSentMessage())
	require.Nil(t, mockBot.LastEditedMessage())
	require.Nil(t, mockBot.LastSentDocument())
	require.Zero(t, mockBot.SentPhotoCount())
	require.Empty(t, mockBot.DeletedMessages)
}

func TestChatIDToInt64(t *testing.T) {
	t.Parallel()

	require.Equal(t, channelID, chatIDToInt64(channelID))
	require.Equal(t, int64(200), chatIDToInt64(200))
	require.Zero(t, chatIDToInt64("@subshare"))
	require.Zero(t, chatIDToInt64(nil))
}
