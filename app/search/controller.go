package search

import (
	"net/http"

	"blog/core/logger"
	"blog/core/router"
	"blog/core/types"
)

type IndexController struct {
	Service *SearchService
	Logger  logger.Logger
}

func NewIndexController(service *SearchService, logger logger.Logger) *IndexController {
	return &IndexController{
		Service: service,
		Logger:  logger,
	}
}

func (c *IndexController) Routes(router *router.RouterGroup) {
	group := router.Group("/search-index")
	group.GET("", c.Stats)
	group.POST("/rebuild", c.Rebuild)
}

// Stats godoc
// @Summary Search index statistics
// @Security BearerAuth
// @Tags App/Search
// @Produce json
// @Success 200 {object} IndexStats
// @Failure 500 {object} types.ErrorResponse
// @Router /admin/search-index [get]
func (c *IndexController) Stats(ctx *router.Context) error {
	stats, err := c.Service.Stats(ctx.Request.Context())
	if err != nil {
		c.Logger.Error("Failed to read index stats", logger.Err(err))
		return ctx.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "Failed to read index stats"})
	}
	return ctx.JSON(http.StatusOK, stats)
}

// Rebuild godoc
// @Summary Rebuild the search index from the database
// @Security BearerAuth
// @Tags App/Search
// @Produce json
// @Success 200 {object} RebuildStats
// @Failure 500 {object} types.ErrorResponse
// @Router /admin/search-index/rebuild [post]
func (c *IndexController) Rebuild(ctx *router.Context) error {
	stats, err := c.Service.Rebuild(ctx.Request.Context())
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "Failed to rebuild index"})
	}
	return ctx.JSON(http.StatusOK, stats)
}
