package bot

import (
	"fmt"
	"slices"
	"time"

	"github.com/go-analyze/charts"

	"gitlab.com/subshare/subshare/internal/catalog"
	"gitlab.com/subshare/subshare/internal/models"
)

// categoryCount is the number of listings in one catalog category.
type categoryCount struct {
	Name  string
	Count int
}

// countByCategory groups listings by the category their title maps to,
// largest first, then by name.
func countByCategory(listings []models.Listing) []categoryCount {
	counts := make(map[string]int)
	for i := range listings {
		name, ok := catalog.CategoryNames[catalog.CategoryFor(listings[i].Title)]
		if !ok {
			name = catalog.CategoryNames[catalog.CategoryOther]
		}
		counts[name]++
	}

	out := make([]categoryCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, categoryCount{Name: name, Count: n})
	}
	slices.SortFunc(out, func(a, b categoryCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return out
}

// GenerateCatalogChart creates a pie chart of listings per category.
// Returns PNG image as bytes.
func GenerateCatalogChart(listings []models.Listing) ([]byte, error) {
	if len(listings) == 0 {
		return nil, fmt.Errorf("no listings to chart")
	}

	groups := countByCategory(listings)
	values := make([]float64, len(groups))
	names := make([]string, len(groups))
	for i, g := range groups {
		values[i] = float64(g.Count)
		names[i] = fmt.Sprintf("%s (%d)", g.Name, g.Count)
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: "Assinaturas por categoria",
		}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf, nil
}

// generateChartFilename creates filename like "catalogo_2025-04-20.png".
func generateChartFilename(now time.Time) string {
	return fmt.Sprintf("catalogo_%s.png", now.Format("2006-01-02"))
}
