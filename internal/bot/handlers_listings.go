package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gitlab.com/subshare/subshare/internal/lifecycle"
	appmodels "gitlab.com/subshare/subshare/internal/models"
)

// listingAction is one moderation command applied to a listing found by code.
type listingAction struct {
	command string
	verb    string
	done    string
	run     func(ctx context.Context, ctrl *lifecycle.Controller, id string) (*lifecycle.Result, error)
}

var (
	hideAction = listingAction{
		command: "/hide", verb: "ocultar", done: "🙈 Oculta",
		run: func(ctx context.Context, c *lifecycle.Controller, id string) (*lifecycle.Result, error) {
			return c.SetVisible(ctx, id, false)
		},
	}
	showAction = listingAction{
		command: "/show", verb: "mostrar", done: "👀 Visível",
		run: func(ctx context.Context, c *lifecycle.Controller, id string) (*lifecycle.Result, error) {
			return c.SetVisible(ctx, id, true)
		},
	}
	featureAction = listingAction{
		command: "/feature", verb: "destacar", done: "🌟 Em destaque",
		run: func(ctx context.Context, c *lifecycle.Controller, id string) (*lifecycle.Result, error) {
			return c.SetFeatured(ctx, id, true)
		},
	}
	unfeatureAction = listingAction{
		command: "/unfeature", verb: "remover o destaque", done: "Destaque removido",
		run: func(ctx context.Context, c *lifecycle.Controller, id string) (*lifecycle.Result, error) {
			return c.SetFeatured(ctx, id, false)
		},
	}
	expireAction = listingAction{
		command: "/expire", verb: "arquivar", done: "📦 Arquivada",
		run: func(ctx context.Context, c *lifecycle.Controller, id string) (*lifecycle.Result, error) {
			return c.Expire(ctx, id, appmodels.ExpiryAdmin)
		},
	}
	deleteAction = listingAction{
		command: "/delete", verb: "apagar", done: "🗑 Apagada",
		run: func(ctx context.Context, c *lifecycle.Controller, id string) (*lifecycle.Result, error) {
			return c.Delete(ctx, id)
		},
	}
)

// handleHide handles the /hide command.
func (b *Bot) handleHide(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleListingActionCore(ctx, tgBot, update, hideAction)
}

// handleShow handles the /show command.
func (b *Bot) handleShow(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleListingActionCore(ctx, tgBot, update, showAction)
}

// handleFeature handles the /feature command.
func (b *Bot) handleFeature(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleListingActionCore(ctx, tgBot, update, featureAction)
}

// handleUnfeature handles the /unfeature command.
func (b *Bot) handleUnfeature(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleListingActionCore(ctx, tgBot, update, unfeatureAction)
}

// handleExpire handles the /expire command.
func (b *Bot) handleExpire(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleListingActionCore(ctx, tgBot, update, expireAction)
}

// handleDelete handles the /delete command.
func (b *Bot) handleDelete(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleListingActionCore(ctx, tgBot, update, deleteAction)
}

// handleListingActionCore looks up the listing named by the command's code
// argument and applies action to it.
func (b *Bot) handleListingActionCore(ctx context.Context, tg TelegramAPI, update *models.Update, action listingAction) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	code := strings.ToUpper(extractCommandArgs(update.Message.Text, action.command))
	if code == "" {
		send(ctx, tg, chatID, fmt.Sprintf("Uso: <code>%s &lt;código&gt;</code>", action.command))
		return
	}

	l, err := b.ctrl.Stores().Listings.GetByCode(ctx, code)
	if err != nil {
		replyError(ctx, tg, chatID, "localizar "+code, err)
		return
	}

	res, err := action.run(ctx, b.ctrl, l.ID)
	if err != nil {
		replyError(ctx, tg, chatID, action.verb+" "+code, err)
		return
	}

	send(ctx, tg, chatID, fmt.Sprintf("%s: <code>%s</code> %s%s",
		action.done, escapeHTML(code), escapeHTML(l.Title), formatWarnings(res.Warnings)))
}
