package store

import (
	"errors"
	"strings"
	"testing"

	"github.com/bluewhale-protocol/api-go/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dryRunDB builds a gorm handle that renders SQL without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=test dbname=test sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("open dry run db: %v", err)
	}
	return db
}

func renderContentQuery(t *testing.T, scopes ...func(*gorm.DB) *gorm.DB) (string, []interface{}) {
	t.Helper()
	var items []models.Content
	stmt := dryRunDB(t).Model(&models.Content{}).Scopes(scopes...).Find(&items).Statement
	return stmt.SQL.String(), stmt.Vars
}

func TestSearchFilterSQL(t *testing.T) {
	q := SearchQuery{
		Text:         "blue whale",
		Tags:         []string{"ocean"},
		ContentTypes: []string{"article", "news"},
		Near:         &GeoFilter{Latitude: 41, Longitude: 29, RadiusKm: 10},
		Sort:         SortRelevance,
	}
	sql, vars := renderContentQuery(t, searchFilter(q), orderContent(q.Sort, q.Text))

	for _, want := range []string{
		"ts_rank(contents.search_vector, plainto_tsquery('simple',",
		"contents.search_vector @@ plainto_tsquery('simple',",
		"contents.tags &&",
		"contents.content_type IN (",
		"contents.latitude BETWEEN",
		"6371 * acos(",
		"ORDER BY score DESC,contents.created_at DESC,contents.id DESC",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("expected SQL to contain %q\n%s", want, sql)
		}
	}

	if len(vars) == 0 || vars[0] != "blue whale" {
		t.Errorf("expected rank argument first, got %v", vars)
	}
}

func TestSearchFilterOmitsOptionalClauses(t *testing.T) {
	sql, _ := renderContentQuery(t, searchFilter(SearchQuery{Text: "whale"}), orderContent(SortDate, "whale"))

	for _, unwanted := range []string{"tags &&", "content_type IN", "acos", "ts_rank"} {
		if strings.Contains(sql, unwanted) {
			t.Errorf("did not expect %q in\n%s", unwanted, sql)
		}
	}
	if !strings.Contains(sql, "ORDER BY contents.created_at DESC") {
		t.Errorf("expected date ordering in\n%s", sql)
	}
}

func TestOrderContentTopScore(t *testing.T) {
	sql, _ := renderContentQuery(t, orderContent(SortTopScore, ""))

	if !strings.Contains(sql, "(contents.likes_count * 3 + contents.comments_count * 2 + contents.views) AS score") {
		t.Errorf("expected weighted score select in\n%s", sql)
	}
	if !strings.Contains(sql, "ORDER BY score DESC,contents.created_at DESC") {
		t.Errorf("expected score ordering in\n%s", sql)
	}
}

func TestOrderContentColumns(t *testing.T) {
	cases := map[ContentSort]string{
		SortAIScore: "ORDER BY contents.ai_score DESC",
		SortViews:   "ORDER BY contents.views DESC",
		SortLikes:   "ORDER BY contents.likes_count DESC",
		SortNewest:  "ORDER BY contents.created_at DESC",
	}
	for sort, want := range cases {
		sql, _ := renderContentQuery(t, orderContent(sort, ""))
		if !strings.Contains(sql, want) {
			t.Errorf("sort %s: expected %q in\n%s", sort, want, sql)
		}
	}
}

func TestContentFilterSQL(t *testing.T) {
	f := ContentFilter{AuthorIDs: []uint{2, 3}, ExcludeAuthorID: 9}
	sql, vars := renderContentQuery(t, contentFilter(f), paginate(Page{Offset: 20, Limit: 10}))

	if !strings.Contains(sql, "contents.author_id IN (") || !strings.Contains(sql, "contents.author_id <>") {
		t.Errorf("expected author filters in\n%s", sql)
	}
	if !strings.Contains(sql, "LIMIT") || !strings.Contains(sql, "OFFSET") {
		t.Errorf("expected pagination in\n%s", sql)
	}
	if strings.Contains(sql, "acos") {
		t.Errorf("no geo filter expected in\n%s", sql)
	}
	if len(vars) < 3 {
		t.Errorf("expected author vars, got %v", vars)
	}
}

func TestWithinRadiusBand(t *testing.T) {
	_, vars := renderContentQuery(t, withinRadius(&GeoFilter{Latitude: 40, Longitude: 30, RadiusKm: 111}))

	if len(vars) < 2 {
		t.Fatalf("expected band vars, got %v", vars)
	}
	if vars[0] != 39.0 || vars[1] != 41.0 {
		t.Errorf("expected a one degree band around 40, got %v %v", vars[0], vars[1])
	}
}

func TestParseSearchSort(t *testing.T) {
	cases := map[string]ContentSort{
		"":          SortRelevance,
		"relevance": SortRelevance,
		"date":      SortDate,
		"aiScore":   SortAIScore,
		"views":     SortViews,
		"likes":     SortLikes,
		"random":    SortRelevance,
	}
	for in, want := range cases {
		if got := ParseSearchSort(in); got != want {
			t.Errorf("ParseSearchSort(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestTranslate(t *testing.T) {
	if translate(nil) != nil {
		t.Error("nil should stay nil")
	}
	if !errors.Is(translate(gorm.ErrRecordNotFound), ErrNotFound) {
		t.Error("expected ErrNotFound")
	}
	if !errors.Is(translate(gorm.ErrDuplicatedKey), ErrAlreadyExists) {
		t.Error("expected ErrAlreadyExists")
	}
	other := errors.New("boom")
	if translate(other) != other {
		t.Error("unknown errors pass through")
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Errorf("unexpected escape %q", got)
	}
}
