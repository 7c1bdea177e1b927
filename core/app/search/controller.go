package search

import (
	"net/http"
	"strconv"
	"time"

	"blog/core/router"
	"blog/core/types"
)

type SearchController struct {
	Service *SearchService
}

func NewSearchController(service *SearchService) *SearchController {
	return &SearchController{
		Service: service,
	}
}

func (c *SearchController) Routes(router *router.RouterGroup) {
	router.GET("/search", c.Search)
}

// Search godoc
// @Summary Global admin search across modules
// @Description Search across registered modules (posts, users)
// @Tags Core/Search
// @Security BearerAuth
// @Produce json
// @Param q query string true "Search query (minimum 2 characters)" example("golang")
// @Param modules query string false "Comma-separated modules to search" example("posts,users")
// @Param limit query int false "Results per module (default: 10)" example(20)
// @Success 200 {object} search.SearchResponse
// @Failure 400 {object} types.ErrorResponse
// @Failure 500 {object} types.ErrorResponse
// @Router /admin/search [get]
func (c *SearchController) Search(ctx *router.Context) error {
	startTime := time.Now()

	query := ctx.Query("q")
	if query == "" {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Search query (q) is required"})
	}
	if len(query) < 2 {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Search query must be at least 2 characters"})
	}

	limit := 10
	if parsedLimit, err := strconv.Atoi(ctx.Query("limit")); err == nil && parsedLimit > 0 {
		limit = parsedLimit
	}

	response, err := c.Service.GlobalSearch(query, ctx.Query("modules"), limit)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "Search failed: " + err.Error()})
	}

	response.Duration = time.Since(startTime).String()

	return ctx.JSON(http.StatusOK, response)
}
