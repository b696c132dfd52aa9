package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"gitlab.com/subshare/subshare/internal/catalog"
	"gitlab.com/subshare/subshare/internal/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// run executes the CLI with stdin and returns stdout and stderr.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func channelMessage(title, price string) string {
	return catalog.DefaultBatchSeparator + ", [09/04/2025 10:00]\n" +
		"🖥 " + title + "\n" +
		"🏦 " + price + "\n" +
		"📱 https://wa.me/5511999998888\n"
}

func TestParseCommand(t *testing.T) {
	t.Parallel()

	dump := channelMessage("NETFLIX", "R$ 20,00 - PIX") + channelMessage("MAX", "R$ 9,90")

	t.Run("prints TXT records with codes", func(t *testing.T) {
		t.Parallel()
		out, errOut, err := run(t, dump, "parse", "--category", "1", "--prefix", "SF")
		require.NoError(t, err)

		listings := catalog.FromText(out)
		require.Len(t, listings, 2)
		require.Equal(t, "SF1001", listings[0].Code)
		require.Equal(t, "SF1002", listings[1].Code)
		require.Equal(t, "09/04/2025", listings[0].AddedDate)
		require.Contains(t, errOut, "messages: 2, parsed: 2, discarded: 0, suspected merges: 0")
	})

	t.Run("prints JSON records", func(t *testing.T) {
		t.Parallel()
		out, _, err := run(t, dump, "parse", "--json")
		require.NoError(t, err)

		var records []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &records))
		require.Len(t, records, 2)
		require.Equal(t, "NETFLIX", records[0]["title"])
		require.Equal(t, "PIX", records[0]["paymentMethod"])
	})

	t.Run("custom separator", func(t *testing.T) {
		t.Parallel()
		text := "--- [01/02/2025]\n🖥 CANVA\n🏦 R$ 5,00\n--- [02/02/2025]\n🖥 DEEZER\n🏦 R$ 4,00\n"
		out, _, err := run(t, text, "parse", "--separator", "---", "--category", "3")
		require.NoError(t, err)
		require.Len(t, catalog.FromText(out), 2)
	})

	t.Run("nothing to parse", func(t *testing.T) {
		t.Parallel()
		_, _, err := run(t, "bom dia", "parse")
		require.ErrorContains(t, err, "no listings found")
	})

	t.Run("category out of range", func(t *testing.T) {
		t.Parallel()
		_, _, err := run(t, dump, "parse", "--category", "10")
		require.ErrorContains(t, err, "single digit")
	})
}

func TestCodesCommand(t *testing.T) {
	t.Parallel()

	t.Run("fills in missing codes and moves duplicates", func(t *testing.T) {
		t.Parallel()
		backup := catalog.ToText([]models.Listing{
			{Code: "SF2001", Title: "SPOTIFY", Price: "R$ 8,50"},
			{Code: "SF2001", Title: "DEEZER", Price: "R$ 4,00"},
			{Title: "TIDAL", Price: "R$ 6,00"},
		})

		out, _, err := run(t, backup, "codes", "--category", "2")
		require.NoError(t, err)

		listings := catalog.FromText(out)
		require.Len(t, listings, 3)
		codes := []string{listings[0].Code, listings[1].Code, listings[2].Code}
		require.Equal(t, []string{"SF2001", "SF2004", "SF2003"}, codes)
	})

	t.Run("input without records", func(t *testing.T) {
		t.Parallel()
		_, _, err := run(t, "", "codes")
		require.ErrorContains(t, err, "no records found")
	})
}

func TestTokenCommand(t *testing.T) {
	t.Parallel()

	t.Run("issues a verifiable token", func(t *testing.T) {
		t.Parallel()
		out, _, err := run(t, "", "token", "user-42", "--secret", testSecret, "--email", "ana@mail.com")
		require.NoError(t, err)

		claims := jwt.MapClaims{}
		_, err = jwt.ParseWithClaims(strings.TrimSpace(out), claims, func(*jwt.Token) (any, error) {
			return []byte(testSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		require.NoError(t, err)
		require.Equal(t, "user-42", claims["sub"])
		require.Equal(t, "ana@mail.com", claims["email"])
	})

	t.Run("requires a secret", func(t *testing.T) {
		t.Parallel()
		_, _, err := run(t, "", "token", "user-42", "--secret", "")
		require.ErrorContains(t, err, "SESSION_SECRET")
	})
}

func TestDatabaseCommandsNeedURL(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{
		{"export", "--database-url", ""},
		{"import", "--database-url", ""},
		{"admin", "list", "--database-url", ""},
	} {
		t.Run(strings.Join(args[:len(args)-2], " "), func(t *testing.T) {
			t.Parallel()
			_, _, err := run(t, "🔢 Código: SF1001\n🖥 NETFLIX\n🏦 R$ 1,00", args...)
			require.ErrorContains(t, err, "DATABASE_URL is required")
		})
	}
}
