// Package catalog holds the listing text formats and the pure helpers around them:
// display codes, the chat-message parser, the TXT backup codec, date and price handling.
package catalog

import (
	"strings"

	"gitlab.com/subshare/subshare/internal/models"
)

// Listing categories. The digit is embedded in the listing code.
const (
	CategoryStreaming    = 1
	CategoryMusic        = 2
	CategoryProductivity = 3
	CategoryEducation    = 4
	CategoryGames        = 5
	CategoryOther        = 9
)

// CategoryNames maps category digits to display names.
var CategoryNames = map[int]string{
	CategoryStreaming:    "Streaming",
	CategoryMusic:        "Música",
	CategoryProductivity: "Produtividade",
	CategoryEducation:    "Educação",
	CategoryGames:        "Jogos",
	CategoryOther:        "Outros",
}

// Presentation defaults.
const (
	DefaultIcon        = "default"
	DefaultHeaderColor = "bg-gray-700"
	DefaultPriceColor  = "text-green-600"
	FeaturedPriceColor = "text-yellow-500"
)

// Service is a known subscription service recognized in listing titles.
type Service struct {
	Keyword     string
	Icon        string
	Category    int
	HeaderColor string
}

// Services is matched in order against lowercased titles; the first hit wins.
var Services = []Service{
	{Keyword: "netflix", Icon: "netflix", Category: CategoryStreaming, HeaderColor: "bg-red-600"},
	{Keyword: "disney", Icon: "disney", Category: CategoryStreaming, HeaderColor: "bg-blue-800"},
	{Keyword: "hbo", Icon: "max", Category: CategoryStreaming, HeaderColor: "bg-purple-700"},
	{Keyword: "prime", Icon: "prime", Category: CategoryStreaming, HeaderColor: "bg-sky-600"},
	{Keyword: "paramount", Icon: "paramount", Category: CategoryStreaming, HeaderColor: "bg-blue-600"},
	{Keyword: "globoplay", Icon: "globoplay", Category: CategoryStreaming, HeaderColor: "bg-orange-600"},
	{Keyword: "crunchyroll", Icon: "crunchyroll", Category: CategoryStreaming, HeaderColor: "bg-orange-500"},
	{Keyword: "apple tv", Icon: "appletv", Category: CategoryStreaming, HeaderColor: "bg-gray-800"},
	{Keyword: "youtube", Icon: "youtube", Category: CategoryStreaming, HeaderColor: "bg-red-500"},
	{Keyword: "spotify", Icon: "spotify", Category: CategoryMusic, HeaderColor: "bg-green-600"},
	{Keyword: "deezer", Icon: "deezer", Category: CategoryMusic, HeaderColor: "bg-purple-600"},
	{Keyword: "apple music", Icon: "applemusic", Category: CategoryMusic, HeaderColor: "bg-pink-600"},
	{Keyword: "chatgpt", Icon: "chatgpt", Category: CategoryProductivity, HeaderColor: "bg-emerald-700"},
	{Keyword: "canva", Icon: "canva", Category: CategoryProductivity, HeaderColor: "bg-cyan-600"},
	{Keyword: "microsoft", Icon: "office", Category: CategoryProductivity, HeaderColor: "bg-blue-700"},
	{Keyword: "office", Icon: "office", Category: CategoryProductivity, HeaderColor: "bg-blue-700"},
	{Keyword: "duolingo", Icon: "duolingo", Category: CategoryEducation, HeaderColor: "bg-lime-600"},
	{Keyword: "coursera", Icon: "coursera", Category: CategoryEducation, HeaderColor: "bg-blue-500"},
	{Keyword: "alura", Icon: "alura", Category: CategoryEducation, HeaderColor: "bg-indigo-600"},
	{Keyword: "xbox", Icon: "xbox", Category: CategoryGames, HeaderColor: "bg-green-700"},
	{Keyword: "playstation", Icon: "playstation", Category: CategoryGames, HeaderColor: "bg-blue-900"},
}

// MatchService returns the first known service whose keyword appears in the title.
func MatchService(title string) (Service, bool) {
	lower := strings.ToLower(title)
	for _, s := range Services {
		if strings.Contains(lower, s.Keyword) {
			return s, true
		}
	}
	return Service{}, false
}

// IconFor returns the icon key for a title.
func IconFor(title string) string {
	if s, ok := MatchService(title); ok {
		return s.Icon
	}
	return DefaultIcon
}

// CategoryFor returns the category digit for a title.
func CategoryFor(title string) int {
	if s, ok := MatchService(title); ok {
		return s.Category
	}
	return CategoryOther
}

// ApplyDefaults fills icon and colors that were not supplied.
func ApplyDefaults(l *models.Listing) {
	s, matched := MatchService(l.Title)
	if l.Icon == "" {
		l.Icon = DefaultIcon
		if matched {
			l.Icon = s.Icon
		}
	}
	if l.HeaderColor == "" {
		l.HeaderColor = DefaultHeaderColor
		if matched {
			l.HeaderColor = s.HeaderColor
		}
	}
	if l.PriceColor == "" {
		l.PriceColor = DefaultPriceColor
		if l.Featured {
			l.PriceColor = FeaturedPriceColor
		}
	}
}
