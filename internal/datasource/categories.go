package datasource

import (
	"context"

	"github.com/vanderheijden86/techtree/pkg/debug"
	"github.com/vanderheijden86/techtree/pkg/metrics"
	"github.com/vanderheijden86/techtree/pkg/model"
)

// Category is one entry of the category selector. An empty Value means all.
type Category struct {
	Label string
	Value string
}

// AllCategory is the unfiltered selector entry.
var AllCategory = Category{Label: "전체", Value: ""}

// DefaultCategories is the static selector list.
func DefaultCategories() []Category {
	return []Category{
		AllCategory,
		{Label: "IT", Value: "IT"},
		{Label: "전기", Value: "전기"},
		{Label: "건설", Value: "건설"},
		{Label: "기계", Value: "기계"},
		{Label: "화학", Value: "화학"},
	}
}

// CategoriesFromNames builds a selector list, always led by AllCategory.
// Empty and duplicate names are skipped.
func CategoriesFromNames(names []string) []Category {
	out := []Category{AllCategory}
	seen := map[string]bool{"": true}
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, Category{Label: n, Value: n})
	}
	return out
}

// CategorySource lists the categories available for filtering.
type CategorySource interface {
	LoadCategories(ctx context.Context) []Category
}

// StaticCategorySource returns a fixed list, DefaultCategories when empty.
type StaticCategorySource struct {
	Categories []Category
}

// LoadCategories implements CategorySource.
func (s StaticCategorySource) LoadCategories(context.Context) []Category {
	if len(s.Categories) == 0 {
		return DefaultCategories()
	}
	return append([]Category(nil), s.Categories...)
}

// CategoryClient is the part of api.Client the live category source needs.
type CategoryClient interface {
	FetchCategories(ctx context.Context) ([]model.CategoryTree, error)
}

// LiveCategorySource lists main categories from the backend and falls back
// to Static when the call fails or returns nothing.
type LiveCategorySource struct {
	Client CategoryClient
	Static StaticCategorySource
}

// LoadCategories implements CategorySource.
func (s LiveCategorySource) LoadCategories(ctx context.Context) []Category {
	if s.Client == nil {
		return s.Static.LoadCategories(ctx)
	}
	trees, err := s.Client.FetchCategories(ctx)
	if err != nil || len(trees) == 0 {
		debug.Log("datasource: categories unavailable, using static list: %v", err)
		metrics.FallbackTotal.WithLabelValues("categories").Inc()
		return s.Static.LoadCategories(ctx)
	}
	names := make([]string, 0, len(trees))
	for _, t := range trees {
		names = append(names, t.Main)
	}
	return CategoriesFromNames(names)
}
