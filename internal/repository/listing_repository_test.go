package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"gitlab.com/subshare/subshare/internal/database"
	"gitlab.com/subshare/subshare/internal/models"
)

func sampleListing(code, title string) *models.Listing {
	return &models.Listing{
		Code:             code,
		Title:            title,
		Price:            "R$ 20,00",
		PaymentMethod:    "PIX",
		Status:           "Assinado",
		Access:           "LOGIN E SENHA",
		TelegramUsername: "@seller",
		WhatsAppNumber:   "5511999999999",
		Icon:             "netflix",
		AddedDate:        "01/04/2025",
		Visible:          true,
	}
}

// withoutBegin hides Begin so ReplaceAll takes its non-transactional path.
type withoutBegin struct {
	database.PGXDB
}

func TestListingRepository_CRUD(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and retrieves listing", func(t *testing.T) {
		repo := NewListingRepository(database.TestTx(t))
		l := sampleListing("SF1001", "NETFLIX")

		require.NoError(t, repo.Create(ctx, l))
		require.NotEmpty(t, l.ID)
		require.False(t, l.CreatedAt.IsZero())

		byID, err := repo.GetByID(ctx, l.ID)
		require.NoError(t, err)
		require.Equal(t, "NETFLIX", byID.Title)
		require.Equal(t, "5511999999999", byID.WhatsAppNumber)

		byCode, err := repo.GetByCode(ctx, "SF1001")
		require.NoError(t, err)
		require.Equal(t, l.ID, byCode.ID)
	})

	t.Run("returns not found for unknown id", func(t *testing.T) {
		repo := NewListingRepository(database.TestTx(t))

		_, err := repo.GetByID(ctx, "missing")
		require.ErrorIs(t, err, ErrNotFound)

		require.ErrorIs(t, repo.Delete(ctx, "missing"), ErrNotFound)
		require.ErrorIs(t, repo.SetVisible(ctx, "missing", true), ErrNotFound)
	})

	t.Run("rejects duplicate code", func(t *testing.T) {
		repo := NewListingRepository(database.TestTx(t))
		require.NoError(t, repo.Create(ctx, sampleListing("SF1001", "A")))

		err := repo.Create(ctx, sampleListing("SF1001", "B"))
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("updates listing", func(t *testing.T) {
		repo := NewListingRepository(database.TestTx(t))
		l := sampleListing("SF1001", "NETFLIX")
		require.NoError(t, repo.Create(ctx, l))

		l.Price = "R$ 25,00"
		l.TelegramMessageID = 77
		require.NoError(t, repo.Update(ctx, l))

		got, err := repo.GetByID(ctx, l.ID)
		require.NoError(t, err)
		require.Equal(t, "R$ 25,00", got.Price)
		require.Equal(t, 77, got.TelegramMessageID)
	})

	t.Run("toggles flags", func(t *testing.T) {
		repo := NewListingRepository(database.TestTx(t))
		l := sampleListing("SF1001", "NETFLIX")
		require.NoError(t, repo.Create(ctx, l))

		require.NoError(t, repo.SetVisible(ctx, l.ID, false))
		require.NoError(t, repo.SetFeatured(ctx, l.ID, true))
		require.NoError(t, repo.SetTelegramMessageID(ctx, l.ID, 12))

		got, err := repo.GetByID(ctx, l.ID)
		require.NoError(t, err)
		require.False(t, got.Visible)
		require.True(t, got.Featured)
		require.Equal(t, 12, got.TelegramMessageID)
	})

	t.Run("deletes listing", func(t *testing.T) {
		repo := NewListingRepository(database.TestTx(t))
		l := sampleListing("SF1001", "NETFLIX")
		require.NoError(t, repo.Create(ctx, l))

		require.NoError(t, repo.Delete(ctx, l.ID))

		_, err := repo.GetByID(ctx, l.ID)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("deleted codes stay issued", func(t *testing.T) {
		repo := NewListingRepository(database.TestTx(t))
		l := sampleListing("SF1001", "NETFLIX")
		require.NoError(t, repo.Create(ctx, l))
		require.NoError(t, repo.Create(ctx, sampleListing("SF2001", "SPOTIFY")))
		require.NoError(t, repo.Delete(ctx, l.ID))

		live, err := repo.Codes(ctx, "SF")
		require.NoError(t, err)
		require.Equal(t, []string{"SF2001"}, live)

		issued, err := repo.IssuedCodes(ctx, "SF")
		require.NoError(t, err)
		require.Equal(t, []string{"SF1001", "SF2001"}, issued)
	})
}

func TestListingRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository(database.TestTx(t))
	require.NoError(t, repo.ReplaceAll(ctx, nil))

	visible := sampleListing("SF1002", "NETFLIX")
	hidden := sampleListing("SF1001", "DISNEY")
	hidden.Visible = false
	featured := sampleListing("SF2001", "SPOTIFY")
	featured.Featured = true
	featured.Icon = "spotify"
	featured.UserID = "member-1"
	for _, l := range []*models.Listing{visible, hidden, featured} {
		require.NoError(t, repo.Create(ctx, l))
	}

	t.Run("visible only", func(t *testing.T) {
		got, err := repo.List(ctx, models.ListingFilter{VisibleOnly: true, OrderBy: models.OrderCode})
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, "SF1002", got[0].Code)
		require.Equal(t, "SF2001", got[1].Code)
	})

	t.Run("featured only", func(t *testing.T) {
		got, err := repo.List(ctx, models.ListingFilter{FeaturedOnly: true})
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "SF2001", got[0].Code)
	})

	t.Run("by owner", func(t *testing.T) {
		got, err := repo.List(ctx, models.ListingFilter{UserID: "member-1"})
		require.NoError(t, err)
		require.Len(t, got, 1)
	})

	t.Run("codes by prefix", func(t *testing.T) {
		codes, err := repo.Codes(ctx, "SF1")
		require.NoError(t, err)
		require.Equal(t, []string{"SF1001", "SF1002"}, codes)
	})

	t.Run("counts by icon", func(t *testing.T) {
		counts, err := repo.CountByIcon(ctx)
		require.NoError(t, err)
		require.Equal(t, map[string]int{"netflix": 2, "spotify": 1}, counts)
	})
}

func TestListingRepository_ReplaceAll(t *testing.T) {
	ctx := context.Background()

	t.Run("leaves exactly the new listings", func(t *testing.T) {
		repo := NewListingRepository(database.TestTx(t))
		require.NoError(t, repo.Create(ctx, sampleListing("SF9001", "OLD")))

		require.NoError(t, repo.ReplaceAll(ctx, []models.Listing{}))
		all, err := repo.List(ctx, models.ListingFilter{})
		require.NoError(t, err)
		require.Empty(t, all)

		require.NoError(t, repo.ReplaceAll(ctx, []models.Listing{
			*sampleListing("SF1001", "L1"),
			*sampleListing("SF1002", "L2"),
		}))
		all, err = repo.List(ctx, models.ListingFilter{OrderBy: models.OrderCode})
		require.NoError(t, err)
		require.Len(t, all, 2)
		require.Equal(t, "L1", all[0].Title)
		require.Equal(t, "L2", all[1].Title)
	})

	t.Run("restores previous catalog when insert fails", func(t *testing.T) {
		repo := NewListingRepository(database.TestTx(t))
		require.NoError(t, repo.ReplaceAll(ctx, []models.Listing{*sampleListing("SF9001", "KEEP")}))

		err := repo.ReplaceAll(ctx, []models.Listing{
			*sampleListing("SF1001", "A"),
			*sampleListing("SF1001", "DUPLICATE"),
		})
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrCatalogEmptied)

		got, err := repo.GetByCode(ctx, "SF9001")
		require.NoError(t, err)
		require.Equal(t, "KEEP", got.Title)
	})

	t.Run("reports emptied catalog without transaction support", func(t *testing.T) {
		tx := database.TestTx(t)
		repo := NewListingRepository(withoutBegin{tx})
		require.NoError(t, repo.Create(ctx, sampleListing("SF9001", "GONE")))

		err := repo.ReplaceAll(ctx, []models.Listing{
			*sampleListing("SF1001", "A"),
			*sampleListing("SF1001", "DUPLICATE"),
		})
		require.ErrorIs(t, err, ErrCatalogEmptied)
		require.ErrorIs(t, err, ErrConflict)
	})
}
