package bot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gitlab.com/subshare/subshare/internal/logger"
)

// ExportFilename names the TXT backup sent by /export.
const ExportFilename = "assinaturas.txt"

// maxDownloadBytes caps documents and photos fetched from Telegram.
const maxDownloadBytes = 8 << 20

// parseImportArgs splits the text after an import command into an optional
// category digit on the first line and the body that follows.
func parseImportArgs(args string) (category int, body string, err error) {
	first, rest, _ := strings.Cut(args, "\n")
	first = strings.TrimSpace(first)
	if first == "" {
		return 0, strings.TrimSpace(rest), nil
	}

	n, convErr := strconv.Atoi(first)
	if convErr != nil {
		// No category: the first line already belongs to the body.
		return 0, strings.TrimSpace(args), nil
	}
	if n < 0 || n > 9 {
		return 0, "", fmt.Errorf("category must be a digit from 0 to 9")
	}
	return n, strings.TrimSpace(rest), nil
}

// handleExport handles the /export command.
func (b *Bot) handleExport(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleExportCore(ctx, tgBot, update)
}

// handleExportCore is the testable implementation of handleExport.
func (b *Bot) handleExportCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	text, err := b.ctrl.ExportText(ctx)
	if err != nil {
		replyError(ctx, tg, chatID, "exportar o catálogo", err)
		return
	}
	if text == "" {
		send(ctx, tg, chatID, "O catálogo está vazio.")
		return
	}

	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: chatID,
		Document: &models.InputFileUpload{
			Filename: ExportFilename,
			Data:     bytes.NewReader([]byte(text)),
		},
		Caption: fmt.Sprintf("📦 Backup do catálogo (%s)", b.now().Format("02/01/2006 15:04")),
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send catalog export")
		send(ctx, tg, chatID, "❌ Falha ao enviar o arquivo. Tente novamente.")
	}
}

// handleImport handles the /import command sent as text.
func (b *Bot) handleImport(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleImportCore(ctx, tgBot, update)
}

// handleImportCore replaces the catalog with the TXT backup pasted after the command.
func (b *Bot) handleImportCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.importText(ctx, tg, update.Message.Chat.ID, extractCommandArgs(update.Message.Text, "/import"))
}

// handleImportChat handles the /importchat command sent as text.
func (b *Bot) handleImportChat(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleImportChatCore(ctx, tgBot, update)
}

// handleImportChatCore adds the listings in the chat history pasted after the command.
func (b *Bot) handleImportChatCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.importChat(ctx, tg, update.Message.Chat.ID, extractCommandArgs(update.Message.Text, "/importchat"))
}

func (b *Bot) importText(ctx context.Context, tg TelegramAPI, chatID int64, args string) {
	category, body, err := parseImportArgs(args)
	if err != nil {
		send(ctx, tg, chatID, "❌ Categoria inválida: use um dígito de 0 a 9.")
		return
	}
	if body == "" {
		send(ctx, tg, chatID, "Uso: envie o TXT com a legenda <code>/import [categoria]</code> ou cole o conteúdo depois do comando.")
		return
	}

	n, err := b.ctrl.ImportText(ctx, body, category)
	if err != nil {
		replyError(ctx, tg, chatID, "importar o catálogo", err)
		return
	}
	send(ctx, tg, chatID, fmt.Sprintf("✅ Catálogo substituído: %d assinatura(s).", n))
}

func (b *Bot) importChat(ctx context.Context, tg TelegramAPI, chatID int64, args string) {
	category, body, err := parseImportArgs(args)
	if err != nil {
		send(ctx, tg, chatID, "❌ Categoria inválida: use um dígito de 0 a 9.")
		return
	}
	if body == "" {
		send(ctx, tg, chatID, "Uso: <code>/importchat [categoria]</code> seguido das mensagens copiadas do canal.")
		return
	}

	res, err := b.ctrl.ImportChat(ctx, body, category)
	if err != nil {
		replyError(ctx, tg, chatID, "importar as mensagens", err)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📥 Importação do chat: %d criada(s), %d com erro.\n", res.Success, res.Errors)
	fmt.Fprintf(&sb, "Mensagens: %d · lidas: %d · descartadas: %d",
		res.Stats.Fragments, res.Stats.Parsed, res.Stats.Discarded)
	if res.Stats.SuspectedMerges > 0 {
		fmt.Fprintf(&sb, "\n⚠️ %d mensagem(ns) com mais de um título. Confira o separador configurado.", res.Stats.SuspectedMerges)
	}
	for _, f := range res.Failures {
		sb.WriteString("\n• ")
		sb.WriteString(escapeHTML(f))
	}
	send(ctx, tg, chatID, sb.String())
}

// handleDocumentCore imports an uploaded TXT file according to its caption.
func (b *Bot) handleDocumentCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	msg := update.Message
	chatID := msg.Chat.ID

	caption := strings.TrimSpace(msg.Caption)
	command := commandOf(caption)
	if command != "/import" && command != "/importchat" {
		send(ctx, tg, chatID, "📎 Para importar, envie o arquivo com a legenda <code>/import [categoria]</code> ou <code>/importchat [categoria]</code>.")
		return
	}

	data, err := b.downloadFile(ctx, tg, msg.Document.FileID)
	if err != nil {
		logger.Log.Error().Err(err).Str("filename", msg.Document.FileName).Msg("Failed to download document")
		send(ctx, tg, chatID, "❌ Falha ao baixar o arquivo. Tente novamente.")
		return
	}

	args := extractCommandArgs(caption, command) + "\n" + string(data)
	if command == "/importchat" {
		b.importChat(ctx, tg, chatID, args)
		return
	}
	b.importText(ctx, tg, chatID, args)
}

// downloadFile fetches a Telegram file by id.
func (b *Bot) downloadFile(ctx context.Context, tg TelegramAPI, fileID string) ([]byte, error) {
	file, err := tg.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tg.FileDownloadLink(file), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) > maxDownloadBytes {
		return nil, fmt.Errorf("file exceeds %d bytes", maxDownloadBytes)
	}
	return data, nil
}
