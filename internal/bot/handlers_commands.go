package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gitlab.com/subshare/subshare/internal/catalog"
	"gitlab.com/subshare/subshare/internal/lifecycle"
	"gitlab.com/subshare/subshare/internal/logger"
	appmodels "gitlab.com/subshare/subshare/internal/models"
)

// formatGreeting returns a greeting suffix with the user's name.
func formatGreeting(firstName string) string {
	if firstName == "" {
		return ""
	}
	return ", " + escapeHTML(firstName)
}

// replyError tells the admin why action failed.
func replyError(ctx context.Context, tg TelegramAPI, chatID int64, action string, err error) {
	var ve *lifecycle.ValidationError
	switch {
	case errors.As(err, &ve):
		send(ctx, tg, chatID, "❌ Dados inválidos: "+escapeHTML(ve.Error()))
	case lifecycle.IsNotFound(err):
		send(ctx, tg, chatID, "❌ Registro não encontrado.")
	case errors.Is(err, appmodels.ErrCatalogEmptied):
		logger.Log.Error().Err(err).Msg("Import left the catalog empty")
		send(ctx, tg, chatID, "🚨 A importação falhou depois de apagar o catálogo. Repita a importação agora.")
	case errors.Is(err, appmodels.ErrConflict):
		send(ctx, tg, chatID, "❌ Código já está em uso.")
	default:
		logger.Log.Error().Err(err).Str("action", action).Msg("Admin command failed")
		send(ctx, tg, chatID, fmt.Sprintf("❌ Falha ao %s. Tente novamente.", action))
	}
}

// handleStart handles the /start command.
func (b *Bot) handleStart(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleStartCore(ctx, tgBot, update)
}

// handleStartCore is the testable implementation of handleStart.
func (b *Bot) handleStartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	firstName := ""
	if update.Message.From != nil {
		firstName = update.Message.From.FirstName
	}

	text := fmt.Sprintf(`👋 Olá%s!

Eu cuido do catálogo de assinaturas compartilhadas.

<b>Comece por aqui:</b>
• /pending para revisar envios de membros
• /list para ver o catálogo
• Envie uma mensagem do canal para ver como ela seria importada

Use /help para ver todos os comandos.`,
		formatGreeting(firstName))

	send(ctx, tg, update.Message.Chat.ID, text)
}

// handleHelp handles the /help command.
func (b *Bot) handleHelp(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleHelpCore(ctx, tgBot, update)
}

// handleHelpCore is the testable implementation of handleHelp.
func (b *Bot) handleHelpCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	text := `📚 <b>Comandos</b>

<b>Revisão:</b>
• <code>/pending</code> - Envios aguardando aprovação
• <code>/approve &lt;id&gt;</code> - Aprovar envio
• <code>/reject &lt;id&gt; [motivo]</code> - Recusar envio

<b>Catálogo:</b>
• <code>/list [busca]</code> - Listar assinaturas
• <code>/hide &lt;código&gt;</code> / <code>/show &lt;código&gt;</code> - Ocultar ou mostrar
• <code>/feature &lt;código&gt;</code> / <code>/unfeature &lt;código&gt;</code> - Destacar
• <code>/expire &lt;código&gt;</code> - Arquivar como expirada
• <code>/delete &lt;código&gt;</code> - Apagar de vez
• <code>/stats</code> - Resumo e gráfico por categoria

<b>Backup:</b>
• <code>/export</code> - Baixar o catálogo em TXT
• <code>/import [categoria]</code> - Substituir o catálogo (envie o TXT com esta legenda)
• <code>/importchat [categoria]</code> - Adicionar mensagens copiadas do canal

<b>Suporte:</b>
• <code>/support</code> - Mensagens não lidas

Fotos de anúncios são lidas automaticamente quando a extração está ativa.`

	send(ctx, tg, update.Message.Chat.ID, text)
}

// handleList handles the /list command.
func (b *Bot) handleList(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleListCore(ctx, tgBot, update)
}

// handleListCore is the testable implementation of handleList.
func (b *Bot) handleListCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	listings, err := b.ctrl.Stores().Listings.List(ctx, appmodels.ListingFilter{OrderBy: appmodels.OrderCode})
	if err != nil {
		replyError(ctx, tg, chatID, "listar o catálogo", err)
		return
	}

	search := extractCommandArgs(update.Message.Text, "/list")
	listings = catalog.Query{Search: search}.Apply(listings)
	if len(listings) == 0 {
		send(ctx, tg, chatID, "Nenhuma assinatura encontrada.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 <b>Catálogo</b> (%d)\n\n", len(listings))
	for i := range listings {
		sb.WriteString(formatLine(&listings[i]))
		sb.WriteByte('\n')
	}
	send(ctx, tg, chatID, sb.String())
}
