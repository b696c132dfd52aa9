package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"gitlab.com/subshare/subshare/internal/lifecycle"
	"gitlab.com/subshare/subshare/internal/lifecycle/lifecycletest"
	"gitlab.com/subshare/subshare/internal/models"
)

func TestHandleListingActionCore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	seed := func(tb *testBot) models.Listing {
		return tb.mem.AddListing(models.Listing{
			Code:    "SF1001",
			Title:   "NETFLIX",
			Price:   "R$ 20,00",
			Visible: true,
		})
	}

	t.Run("hide and show toggle visibility", func(t *testing.T) {
		t.Parallel()
		tb := newTestBot(t)
		l := seed(tb)

		tb.handleListingActionCore(ctx, tb.tg, command("/hide sf1001"), hideAction)
		require.Equal(t, "🙈 Oculta: <code>SF1001</code> NETFLIX", tb.lastText(t))
		got, err := tb.mem.Stores().Listings.GetByID(ctx, l.ID)
		require.NoError(t, err)
		require.False(t, got.Visible)

		tb.handleListingActionCore(ctx, tb.tg, command("/show SF1001"), showAction)
		require.Contains(t, tb.lastText(t), "👀 Visível")
		got, err = tb.mem.Stores().Listings.GetByID(ctx, l.ID)
		require.NoError(t, err)
		require.True(t, got.Visible)
	})

	t.Run("feature and unfeature", func(t *testing.T) {
		t.Parallel()
		tb := newTestBot(t)
		l := seed(tb)

		tb.handleListingActionCore(ctx, tb.tg, command("/feature SF1001"), featureAction)
		got, err := tb.mem.Stores().Listings.GetByID(ctx, l.ID)
		require.NoError(t, err)
		require.True(t, got.Featured)

		tb.handleListingActionCore(ctx, tb.tg, command("/unfeature SF1001"), unfeatureAction)
		require.Contains(t, tb.lastText(t), "Destaque removido")
		got, err = tb.mem.Stores().Listings.GetByID(ctx, l.ID)
		require.NoError(t, err)
		require.False(t, got.Featured)
	})

	t.Run("expire archives the listing", func(t *testing.T) {
		t.Parallel()
		tb := newTestBot(t)
		seed(tb)

		tb.handleListingActionCore(ctx, tb.tg, command("/expire SF1001"), expireAction)

		require.Contains(t, tb.lastText(t), "📦 Arquivada")
		require.Empty(t, tb.mem.Listings())
		expired := tb.mem.Expired()
		require.Len(t, expired, 1)
		require.Equal(t, models.ExpiryAdmin, expired[0].ExpiryReason)
	})

	t.Run("delete removes the listing for good", func(t *testing.T) {
		t.Parallel()
		tb := newTestBot(t)
		seed(tb)

		tb.handleListingActionCore(ctx, tb.tg, command("/delete SF1001"), deleteAction)

		require.Contains(t, tb.lastText(t), "🗑 Apagada")
		require.Empty(t, tb.mem.Listings())
		require.Empty(t, tb.mem.Expired())
	})

	t.Run("announcement failures are shown as warnings", func(t *testing.T) {
		t.Parallel()
		announcer := &lifecycletest.Announcer{Err: errors.New("channel unreachable")}
		tb := newTestBot(t, lifecycle.WithAnnouncer(announcer))
		l := seed(tb)
		l.TelegramMessageID = 9
		tb.mem.AddListing(l)

		tb.handleListingActionCore(ctx, tb.tg, command("/delete SF1001"), deleteAction)

		require.Contains(t, tb.lastText(t), "⚠️ Avisos:")
		require.Contains(t, tb.lastText(t), "channel unreachable")
		require.Empty(t, tb.mem.Listings())
	})

	t.Run("unknown code", func(t *testing.T) {
		t.Parallel()
		tb := newTestBot(t)

		tb.handleListingActionCore(ctx, tb.tg, command("/hide SF9999"), hideAction)
		require.Equal(t, "❌ Registro não encontrado.", tb.lastText(t))
	})

	t.Run("usage without code", func(t *testing.T) {
		t.Parallel()
		tb := newTestBot(t)

		tb.handleListingActionCore(ctx, tb.tg, command("/feature"), featureAction)
		require.Equal(t, "Uso: <code>/feature &lt;código&gt;</code>", tb.lastText(t))
	})
}

func TestHandleListCore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("lists by code with flags", func(t *testing.T) {
		t.Parallel()
		tb := newTestBot(t)
		tb.mem.AddListing(models.Listing{Code: "SF2001", Title: "SPOTIFY", Price: "R$ 8,50", Visible: true})
		tb.mem.AddListing(models.Listing{Code: "SF1001", Title: "NETFLIX", Price: "R$ 20,00", Visible: true, Featured: true})
		tb.mem.AddListing(models.Listing{Code: "SF1002", Title: "MAX", Price: "R$ 9,90"})

		tb.handleListCore(ctx, tb.tg, command("/list"))

		text := tb.lastText(t)
		require.Contains(t, text, "📋 <b>Catálogo</b> (3)")
		require.Contains(t, text, "<code>SF1001</code> NETFLIX · R$ 20,00 🌟\n<code>SF1002</code> MAX · R$ 9,90 🙈\n<code>SF2001</code>")
	})

	t.Run("filters by search", func(t *testing.T) {
		t.Parallel()
		tb := newTestBot(t)
		tb.mem.AddListing(models.Listing{Code: "SF2001", Title: "SPOTIFY", Visible: true})
		tb.mem.AddListing(models.Listing{Code: "SF1001", Title: "NETFLIX", Visible: true})

		tb.handleListCore(ctx, tb.tg, command("/list spot"))
		text := tb.lastText(t)
		require.Contains(t, text, "(1)")
		require.NotContains(t, text, "NETFLIX")

		tb.handleListCore(ctx, tb.tg, command("/list hbo"))
		require.Equal(t, "Nenhuma assinatura encontrada.", tb.lastText(t))
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()
		tb := newTestBot(t)
		tb.mem.Fail["listings.list"] = errors.New("db down")

		tb.handleListCore(ctx, tb.tg, command("/list"))
		require.Equal(t, "❌ Falha ao listar o catálogo. Tente novamente.", tb.lastText(t))
	})
}

func TestHandleStartAndHelp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tb := newTestBot(t)

	tb.handleStartCore(ctx, tb.tg, command("/start"))
	require.Contains(t, tb.lastText(t), "👋 Olá, Admin!")

	tb.handleHelpCore(ctx, tb.tg, command("/help"))
	help := tb.lastText(t)
	for _, cmd := range []string{"/pending", "/approve", "/hide", "/export", "/importchat", "/support"} {
		require.Contains(t, help, cmd)
	}

	require.Empty(t, formatGreeting(""))
	require.Equal(t, ", Ana &amp; Bia", formatGreeting("Ana & Bia"))
}
