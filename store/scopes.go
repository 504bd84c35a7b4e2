package store

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type ContentSort string

const (
	SortNewest    ContentSort = "newest"
	SortTopScore  ContentSort = "top"
	SortRelevance ContentSort = "relevance"
	SortDate      ContentSort = "date"
	SortAIScore   ContentSort = "aiScore"
	SortViews     ContentSort = "views"
	SortLikes     ContentSort = "likes"
)

// ParseSearchSort maps the ?sort= query value, defaulting to relevance.
func ParseSearchSort(raw string) ContentSort {
	switch ContentSort(raw) {
	case SortDate, SortAIScore, SortViews, SortLikes, SortRelevance:
		return ContentSort(raw)
	}
	return SortRelevance
}

type GeoFilter struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

type ContentFilter struct {
	AuthorIDs       []uint
	ExcludeAuthorID uint
	Near            *GeoFilter
	Sort            ContentSort
}

type SearchQuery struct {
	Text         string
	Tags         []string
	ContentTypes []string
	Near         *GeoFilter
	Sort         ContentSort
}

const (
	kmPerDegree = 111.0

	distanceSQL = `(6371 * acos(GREATEST(-1.0, LEAST(1.0,
		cos(radians(?)) * cos(radians(contents.latitude)) *
		cos(radians(contents.longitude) - radians(?)) +
		sin(radians(?)) * sin(radians(contents.latitude))))))`

	scoreSQL = "(contents.likes_count * 3 + contents.comments_count * 2 + contents.views)"
	rankSQL  = "ts_rank(contents.search_vector, plainto_tsquery('simple', ?))"
)

// withinRadius keeps rows inside the great-circle radius. The latitude band
// lets the planner use idx_contents_location before the exact distance check.
func withinRadius(g *GeoFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if g == nil {
			return db
		}
		band := g.RadiusKm / kmPerDegree
		return db.
			Where("contents.latitude BETWEEN ? AND ?", g.Latitude-band, g.Latitude+band).
			Where("contents.longitude IS NOT NULL").
			Where(distanceSQL+" <= ?", g.Latitude, g.Longitude, g.Latitude, g.RadiusKm)
	}
}

func contentFilter(f ContentFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(f.AuthorIDs) > 0 {
			db = db.Where("contents.author_id IN ?", f.AuthorIDs)
		}
		if f.ExcludeAuthorID != 0 {
			db = db.Where("contents.author_id <> ?", f.ExcludeAuthorID)
		}
		return db.Scopes(withinRadius(f.Near))
	}
}

func searchFilter(q SearchQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("contents.search_vector @@ plainto_tsquery('simple', ?)", q.Text)
		if len(q.Tags) > 0 {
			db = db.Where("contents.tags && ?", pq.StringArray(q.Tags))
		}
		if len(q.ContentTypes) > 0 {
			db = db.Where("contents.content_type IN ?", q.ContentTypes)
		}
		return db.Scopes(withinRadius(q.Near))
	}
}

// orderContent applies the sort and, for score based sorts, selects the
// computed score column. text is only used by SortRelevance.
func orderContent(sort ContentSort, text string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch sort {
		case SortTopScore:
			db = db.Select("contents.*, " + scoreSQL + " AS score").Order("score DESC")
		case SortRelevance:
			db = db.Select("contents.*, "+rankSQL+" AS score", text).Order("score DESC")
		case SortAIScore:
			db = db.Order("contents.ai_score DESC")
		case SortViews:
			db = db.Order("contents.views DESC")
		case SortLikes:
			db = db.Order("contents.likes_count DESC")
		}
		return db.Order("contents.created_at DESC").Order("contents.id DESC")
	}
}

func paginate(p Page) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if p.Limit > 0 {
			db = db.Limit(p.Limit)
		}
		if p.Offset > 0 {
			db = db.Offset(p.Offset)
		}
		return db
	}
}
