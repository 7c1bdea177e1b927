package posts

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"blog/app/models"
	"blog/core/cache"
	"blog/core/logger"
	"blog/core/router"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ArticlesPerPage = 6
	RelatedPosts    = 6
	PageCacheTTL    = 300 * time.Second
	RelatedCacheTTL = 3600 * time.Second
)

//go:embed templates/*.html
var templateFS embed.FS

// Searcher runs the public full-text search
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.Post, error)
}

// ArticleCard is the cached projection of a post shown in lists
type ArticleCard struct {
	Id           uint      `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Intro        string    `json:"intro,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Publish      time.Time `json:"publish"`
}

func newArticleCard(post *models.Post) ArticleCard {
	card := ArticleCard{
		Id:       post.Id,
		Title:    post.Title,
		Slug:     post.Slug,
		Intro:    post.Intro,
		ImageURL: post.ImageURL(),
		Publish:  post.Publish,
	}
	if post.Image != nil {
		card.ThumbnailURL = post.Image.ThumbnailURL
	}
	return card
}

// URL is the public address of the article
func (a ArticleCard) URL() string {
	return models.PostURL(a.Publish, a.Slug)
}

// ArticlePage is one page of the public list
type ArticlePage struct {
	Articles []ArticleCard `json:"articles"`
	Number   int           `json:"number"`
	NumPages int           `json:"num_pages"`
	Count    int64         `json:"count"`
}

func (p ArticlePage) HasPrevious() bool { return p.Number > 1 }
func (p ArticlePage) HasNext() bool     { return p.Number < p.NumPages }
func (p ArticlePage) Previous() int     { return p.Number - 1 }
func (p ArticlePage) Next() int         { return p.Number + 1 }

// Views renders the public blog pages
type Views struct {
	DB        *gorm.DB
	Cache     cache.Store
	Search    Searcher
	Logger    logger.Logger
	templates map[string]*template.Template
}

func NewViews(db *gorm.DB, store cache.Store, searcher Searcher, log logger.Logger) (*Views, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &Views{
		DB:        db,
		Cache:     store,
		Search:    searcher,
		Logger:    log,
		templates: templates,
	}, nil
}

func parseTemplates() (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"date": func(t time.Time) string { return t.Format("January 2, 2006") },
		"safe": func(s string) template.HTML { return template.HTML(s) },
	}
	pages := []string{"articles.html", "detail.html", "search.html", "404.html"}
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		templates[page] = tmpl
	}
	return templates, nil
}

func (v *Views) Routes(router *router.RouterGroup) {
	blog := router.Group("/blog")
	blog.GET("/", v.Posts)
	blog.GET("/search/", v.PostSearch)
	blog.GET("/:year/:month/:day/:slug/", v.PostDetail)
}

func (v *Views) render(ctx *router.Context, code int, page string, data any) error {
	return ctx.HTML(code, v.templates[page], "base.html", data)
}

// NotFound renders the 404 page
func (v *Views) NotFound(ctx *router.Context) error {
	return v.render(ctx, http.StatusNotFound, "404.html", map[string]any{"Path": ctx.Request.URL.Path})
}

// Posts renders the paginated list of published posts
func (v *Views) Posts(ctx *router.Context) error {
	rawPage := ctx.DefaultQuery("page", "1")
	key := "posts_page_" + rawPage

	var page ArticlePage
	if !v.cacheGet(ctx.Request.Context(), key, &page) {
		var err error
		page, err = v.loadPage(ctx.Request.Context(), rawPage)
		if err != nil {
			v.Logger.Error("failed to load posts page", logger.Err(err), logger.String("page", rawPage))
			return err
		}
		v.cacheSet(ctx.Request.Context(), key, page, PageCacheTTL)
	}

	return v.render(ctx, http.StatusOK, "articles.html", map[string]any{"Posts": page})
}

func (v *Views) loadPage(ctx context.Context, rawPage string) (ArticlePage, error) {
	var count int64
	if err := v.DB.WithContext(ctx).Model(&models.Post{}).Scopes(models.Published).Count(&count).Error; err != nil {
		return ArticlePage{}, err
	}

	numPages := int((count + ArticlesPerPage - 1) / ArticlesPerPage)
	if numPages == 0 {
		numPages = 1
	}
	number := clampPage(rawPage, numPages)

	var posts []models.Post
	err := v.DB.WithContext(ctx).
		Select("id", "title", "slug", "intro", "publish").
		Scopes(models.Published, models.Newest).
		Preload("Image").
		Offset((number - 1) * ArticlesPerPage).
		Limit(ArticlesPerPage).
		Find(&posts).Error
	if err != nil {
		return ArticlePage{}, err
	}

	page := ArticlePage{
		Articles: make([]ArticleCard, len(posts)),
		Number:   number,
		NumPages: numPages,
		Count:    count,
	}
	for i := range posts {
		page.Articles[i] = newArticleCard(&posts[i])
	}
	return page, nil
}

// clampPage maps the page query to a valid page: not a number gives the
// first page, out of range gives the last one
func clampPage(raw string, numPages int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	if n < 1 || n > numPages {
		return numPages
	}
	return n
}

// PostDetail renders one published post with a selection of other posts
func (v *Views) PostDetail(ctx *router.Context) error {
	day, ok := parseDate(ctx.Param("year"), ctx.Param("month"), ctx.Param("day"))
	if !ok {
		return v.NotFound(ctx)
	}

	var post models.Post
	err := v.DB.WithContext(ctx.Request.Context()).
		Scopes(models.Published).
		Preload("Image").
		Where("slug = ?", ctx.Param("slug")).
		Where("publish >= ? AND publish < ?", day, day.AddDate(0, 0, 1)).
		Take(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return v.NotFound(ctx)
	}
	if err != nil {
		v.Logger.Error("failed to load post", logger.Err(err), logger.String("slug", ctx.Param("slug")))
		return err
	}

	key := fmt.Sprintf("related_%d", post.Id)
	var related []ArticleCard
	if !v.cacheGet(ctx.Request.Context(), key, &related) {
		related, err = v.loadRelated(ctx.Request.Context(), post.Id)
		if err != nil {
			v.Logger.Error("failed to load related posts", logger.Err(err), logger.Uint("id", post.Id))
			return err
		}
		v.cacheSet(ctx.Request.Context(), key, related, RelatedCacheTTL)
	}

	return v.render(ctx, http.StatusOK, "detail.html", map[string]any{
		"Post":        &post,
		"RandomPosts": related,
	})
}

// parseDate validates the integer path segments of a post address
func parseDate(year, month, day string) (time.Time, bool) {
	y, errY := strconv.Atoi(year)
	m, errM := strconv.Atoi(month)
	d, errD := strconv.Atoi(day)
	if errY != nil || errM != nil || errD != nil || y < 1 || m < 1 || m > 12 || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func (v *Views) loadRelated(ctx context.Context, id uint) ([]ArticleCard, error) {
	var posts []models.Post
	err := v.DB.WithContext(ctx).
		Select("id", "title", "slug", "publish").
		Scopes(models.Published).
		Preload("Image").
		Where("id <> ?", id).
		Clauses(randomOrder(v.DB)).
		Limit(RelatedPosts).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	cards := make([]ArticleCard, len(posts))
	for i := range posts {
		cards[i] = newArticleCard(&posts[i])
	}
	return cards, nil
}

func randomOrder(db *gorm.DB) clause.OrderBy {
	fn := "RANDOM()"
	if db.Dialector.Name() == "mysql" {
		fn = "RAND()"
	}
	return clause.OrderBy{Expression: clause.Expr{SQL: fn}}
}

// PostSearch renders the full-text search page
func (v *Views) PostSearch(ctx *router.Context) error {
	query, valid := searchQuery(ctx.Request)
	results := []ArticleCard{}

	if valid && v.Search != nil {
		posts, err := v.Search.Search(ctx.Request.Context(), query)
		if err != nil {
			v.Logger.Error("search failed", logger.Err(err), logger.String("query", query))
		}
		for i := range posts {
			results = append(results, newArticleCard(&posts[i]))
		}
	}

	if !valid {
		query = ""
	}
	return v.render(ctx, http.StatusOK, "search.html", map[string]any{
		"Query":     query,
		"Submitted": len(ctx.Request.URL.Query()) > 0,
		"Results":   results,
	})
}

// searchQuery reads the required "query" field of the search form
func searchQuery(r *http.Request) (string, bool) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	return query, query != ""
}

func (v *Views) cacheGet(ctx context.Context, key string, dest any) bool {
	if v.Cache == nil {
		return false
	}
	hit, err := v.Cache.Get(ctx, key, dest)
	if err != nil {
		v.Logger.Warn("cache read failed", logger.String("key", key), logger.Err(err))
		return false
	}
	return hit
}

func (v *Views) cacheSet(ctx context.Context, key string, value any, ttl time.Duration) {
	if v.Cache == nil {
		return
	}
	if err := v.Cache.Set(ctx, key, value, ttl); err != nil {
		v.Logger.Warn("cache write failed", logger.String("key", key), logger.Err(err))
	}
}
