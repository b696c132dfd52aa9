package catalog

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"gitlab.com/subshare/subshare/internal/models"
)

func netflixListing() models.Listing {
	return models.Listing{
		Code:             "SF1001",
		Title:            "NETFLIX",
		Price:            "R$ 20,00",
		PaymentMethod:    "PIX",
		Status:           "Assinado",
		Access:           "LOGIN E SENHA",
		TelegramUsername: "@x",
		WhatsAppNumber:   "5511999999999",
		AddedDate:        "01/04/2025",
	}
}

func TestToText(t *testing.T) {
	t.Parallel()

	t.Run("renders fixed record layout", func(t *testing.T) {
		t.Parallel()
		expected := "🔢 Código: SF1001\n" +
			"🖥 NETFLIX\n" +
			"🏦 R$ 20,00 - PIX\n" +
			"📌 Assinado\n" +
			"🔐 LOGIN E SENHA\n" +
			"📩 @x\n" +
			"📱 5511999999999\n" +
			"\n" +
			"📅 Adicionado em: 01/04/2025"

		require.Equal(t, expected, ToText([]models.Listing{netflixListing()}))
	})

	t.Run("separates records with two blank lines", func(t *testing.T) {
		t.Parallel()
		second := netflixListing()
		second.Code = "SF1002"

		text := ToText([]models.Listing{netflixListing(), second})

		require.Equal(t, 1, strings.Count(text, RecordSeparator))
		require.Contains(t, text, "01/04/2025\n\n\n🔢 Código: SF1002")
	})

	t.Run("price without method has no joiner", func(t *testing.T) {
		t.Parallel()
		l := netflixListing()
		l.PaymentMethod = ""

		require.Contains(t, ToText([]models.Listing{l}), "🏦 R$ 20,00\n")
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		require.Empty(t, ToText(nil))
	})
}

func TestFromText(t *testing.T) {
	t.Parallel()

	t.Run("round trips a listing", func(t *testing.T) {
		t.Parallel()
		in := []models.Listing{netflixListing()}

		out := FromText(ToText(in))

		require.Equal(t, in, out)
	})

	t.Run("round trips several listings in order", func(t *testing.T) {
		t.Parallel()
		a := netflixListing()
		b := netflixListing()
		b.Code, b.Title, b.Price, b.PaymentMethod = "SF2001", "SPOTIFY", "R$ 8,50", "PIX (Mensal)"
		c := netflixListing()
		c.Code, c.Title, c.AddedDate = "", "⭐ MAX", ""

		in := []models.Listing{a, b, c}
		require.Equal(t, in, FromText(ToText(in)))
	})

	t.Run("hyphenated price without method stays whole", func(t *testing.T) {
		t.Parallel()
		l := netflixListing()
		l.Price, l.PaymentMethod = "R$ 10-15", ""

		out := FromText(ToText([]models.Listing{l}))

		require.Len(t, out, 1)
		require.Equal(t, "R$ 10-15", out[0].Price)
		require.Empty(t, out[0].PaymentMethod)
	})

	t.Run("skips records without title", func(t *testing.T) {
		t.Parallel()
		text := "🔢 Código: SF1001\n🏦 R$ 5,00 - PIX\n\n\n🖥 DEEZER\n🏦 R$ 4,00 - PIX"

		out := FromText(text)

		require.Len(t, out, 1)
		require.Equal(t, "DEEZER", out[0].Title)
	})

	t.Run("skips records without price or method", func(t *testing.T) {
		t.Parallel()
		require.Empty(t, FromText("🔢 Código: SF1001\n🖥 DEEZER\n📌 Assinado"))
	})

	t.Run("does not apply presentation defaults", func(t *testing.T) {
		t.Parallel()
		out := FromText("🖥 NETFLIX\n🏦 R$ 20,00")

		require.Len(t, out, 1)
		require.Empty(t, out[0].Icon)
		require.Empty(t, out[0].PaymentMethod)
	})

	t.Run("accepts CRLF and unaccented label", func(t *testing.T) {
		t.Parallel()
		text := "🔢 Codigo: SF3001\r\n🖥 CANVA\r\n🏦 R$ 5,00 - PIX\r\n\r\n\r\n🖥 ALURA\r\n🏦 R$ 9,00"

		out := FromText(text)

		require.Len(t, out, 2)
		require.Equal(t, "SF3001", out[0].Code)
		require.Equal(t, "R$ 9,00", out[1].Price)
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		require.Empty(t, FromText(""))
	})
}

func TestFromText_RoundTripProperty(t *testing.T) {
	t.Parallel()

	field := rapid.StringMatching(`[A-Za-z0-9@$,.()+ ]{0,20}`)
	word := rapid.StringMatching(`[A-Za-z0-9]{1,12}`)
	price := rapid.StringMatching(`[A-Za-z0-9$,.-]{1,12}`)
	method := rapid.StringMatching(`[A-Za-z0-9 -]{0,20}`)

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 8).Draw(t, "n")
		in := make([]models.Listing, n)
		for i := range in {
			in[i] = models.Listing{
				Code:             strings.TrimSpace(field.Draw(t, "code")),
				Title:            word.Draw(t, "title"),
				Price:            price.Draw(t, "price"),
				PaymentMethod:    strings.TrimSpace(method.Draw(t, "method")),
				Status:           strings.TrimSpace(field.Draw(t, "status")),
				Access:           strings.TrimSpace(field.Draw(t, "access")),
				TelegramUsername: strings.TrimSpace(field.Draw(t, "telegram")),
				WhatsAppNumber:   strings.TrimSpace(field.Draw(t, "whatsapp")),
				AddedDate:        strings.TrimSpace(field.Draw(t, "date")),
			}
		}

		out := FromText(ToText(in))
		if len(out) != len(in) {
			t.Fatalf("got %d records, want %d", len(out), len(in))
		}
		for i := range in {
			if out[i] != in[i] {
				t.Fatalf("record %d differs:\n got %+v\nwant %+v", i, out[i], in[i])
			}
		}
	})
}

func TestRecord_JSON(t *testing.T) {
	t.Parallel()

	t.Run("writes both spellings of aliased fields", func(t *testing.T) {
		t.Parallel()
		data, err := json.Marshal(Record{Listing: netflixListing()})
		require.NoError(t, err)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(data, &raw))
		require.Equal(t, "PIX", raw["payment_method"])
		require.Equal(t, "PIX", raw["paymentMethod"])
		require.Equal(t, "5511999999999", raw["whatsapp_number"])
		require.Equal(t, "5511999999999", raw["whatsappNumber"])
		require.Equal(t, "@x", raw["telegram_username"])
		require.Equal(t, "@x", raw["telegramUsername"])
		require.Equal(t, "01/04/2025", raw["added_date"])
		require.Equal(t, "01/04/2025", raw["addedDate"])
	})

	t.Run("reads camelCase only payload", func(t *testing.T) {
		t.Parallel()
		payload := `{"title":"MAX","price":"R$ 9,90","paymentMethod":"PIX","whatsappNumber":"55","telegramUsername":"@m","addedDate":"02/02/2025"}`

		var r Record
		require.NoError(t, json.Unmarshal([]byte(payload), &r))
		require.Equal(t, "PIX", r.PaymentMethod)
		require.Equal(t, "55", r.WhatsAppNumber)
		require.Equal(t, "@m", r.TelegramUsername)
		require.Equal(t, "02/02/2025", r.AddedDate)
	})

	t.Run("snake case wins when both present", func(t *testing.T) {
		t.Parallel()
		var r Record
		require.NoError(t, json.Unmarshal([]byte(`{"payment_method":"PIX","paymentMethod":"Cartão"}`), &r))
		require.Equal(t, "PIX", r.PaymentMethod)
	})

	t.Run("records from text carry aliases", func(t *testing.T) {
		t.Parallel()
		records := FromTextRecords(ToText([]models.Listing{netflixListing()}))
		require.Len(t, records, 1)

		data, err := json.Marshal(records)
		require.NoError(t, err)
		require.Contains(t, string(data), `"paymentMethod":"PIX"`)
		require.Contains(t, string(data), `"payment_method":"PIX"`)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		t.Parallel()
		var r Record
		require.Error(t, json.Unmarshal([]byte(`{"title":`), &r))
	})
}

func FuzzFromText(f *testing.F) {
	f.Add(ToText([]models.Listing{netflixListing()}))
	f.Add("")
	f.Add("🖥\n🏦 -")
	f.Add("🔢 Código:\n\n\n\n\n🖥 A\n🏦 B")
	f.Add("📅 Adicionado em: 99/99/9999")

	f.Fuzz(func(t *testing.T, input string) {
		for _, l := range FromText(input) {
			if l.Title == "" {
				t.Errorf("FromText(%q) emitted record without title", input)
			}
			if l.Price == "" && l.PaymentMethod == "" {
				t.Errorf("FromText(%q) emitted record without price or method", input)
			}
		}
	})
}
