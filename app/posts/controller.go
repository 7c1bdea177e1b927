package posts

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"blog/app/models"
	"blog/core/app/activities"
	"blog/core/logger"
	"blog/core/router"
	"blog/core/storage"
	"blog/core/types"

	"gorm.io/gorm"
)

// AdminAction describes a bulk action offered on the admin list
type AdminAction struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ActionResponse reports a completed bulk action
type ActionResponse struct {
	Action   string `json:"action"`
	Affected int64  `json:"affected"`
	Message  string `json:"message"`
}

var adminActions = []AdminAction{
	{Name: "make_published", Description: "Publish selected articles"},
}

type PostController struct {
	Service *PostService
	History *activities.ActivityService
	Logger  logger.Logger
	now     func() time.Time
}

func NewPostController(service *PostService, history *activities.ActivityService, logger logger.Logger) *PostController {
	return &PostController{
		Service: service,
		History: history,
		Logger:  logger,
		now:     time.Now,
	}
}

func (c *PostController) record(ctx *router.Context, post *models.Post, action, description string) {
	c.History.Record(ctx, activities.Entry{
		EntityType:  "post",
		EntityId:    post.Id,
		EntityName:  post.Title,
		Action:      action,
		Description: description,
	})
}

func (c *PostController) Routes(router *router.RouterGroup) {
	posts := router.Group("/posts")
	posts.GET("", c.List)
	posts.POST("", c.Create)
	posts.GET("/actions", c.Actions)
	posts.POST("/actions/make_published", c.MakePublished)
	posts.GET("/:id", c.Get)
	posts.PUT("/:id", c.Update)
	posts.DELETE("/:id", c.Delete)
	posts.PUT("/:id/image", c.UploadImage)
	posts.DELETE("/:id/image", c.RemoveImage)
}

// List godoc
// @Summary List posts
// @Description Filterable list with thumbnail, title, publish and status columns
// @Security BearerAuth
// @Tags App/Posts
// @Produce json
// @Param page query int false "Page number"
// @Param q query string false "Search title and body"
// @Param status query string false "draft or published"
// @Param created query string false "today, past_7_days, this_month or this_year"
// @Param publish query string false "today, past_7_days, this_month or this_year"
// @Param year query int false "Publish year"
// @Param month query int false "Publish month"
// @Param day query int false "Publish day"
// @Success 200 {object} AdminListResponse
// @Failure 400 {object} types.ErrorResponse
// @Router /admin/posts [get]
func (c *PostController) List(ctx *router.Context) error {
	filter, err := ParseListFilter(ctx.Request.URL.Query(), c.now())
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
	}

	result, err := c.Service.List(ctx.Request.Context(), filter)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "Failed to fetch posts"})
	}

	return ctx.JSON(http.StatusOK, result)
}

// Create godoc
// @Summary Create a post
// @Security BearerAuth
// @Tags App/Posts
// @Accept json
// @Produce json
// @Param input body models.CreatePostRequest true "Create Request"
// @Success 201 {object} models.PostResponse
// @Failure 400 {object} types.ErrorResponse
// @Router /admin/posts [post]
func (c *PostController) Create(ctx *router.Context) error {
	var req models.CreatePostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Invalid input: " + err.Error()})
	}

	item, err := c.Service.Create(ctx.Request.Context(), &req)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "Failed to create post"})
	}
	c.record(ctx, item, activities.ActionCreate, "Added post")

	return ctx.JSON(http.StatusCreated, item.ToResponse())
}

// Get godoc
// @Summary Get a post
// @Security BearerAuth
// @Tags App/Posts
// @Produce json
// @Param id path int true "Post Id"
// @Success 200 {object} models.PostResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /admin/posts/{id} [get]
func (c *PostController) Get(ctx *router.Context) error {
	id, err := parseId(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Invalid Id format"})
	}

	item, err := c.Service.GetById(ctx.Request.Context(), id)
	if err != nil {
		return c.fail(ctx, err, "Failed to fetch post")
	}

	return ctx.JSON(http.StatusOK, item.ToResponse())
}

// Update godoc
// @Summary Update a post
// @Description The slug is not editable
// @Security BearerAuth
// @Tags App/Posts
// @Accept json
// @Produce json
// @Param id path int true "Post Id"
// @Param input body models.UpdatePostRequest true "Update Request"
// @Success 200 {object} models.PostResponse
// @Failure 400 {object} types.ErrorResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /admin/posts/{id} [put]
func (c *PostController) Update(ctx *router.Context) error {
	id, err := parseId(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Invalid Id format"})
	}

	var req models.UpdatePostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Invalid input: " + err.Error()})
	}

	item, err := c.Service.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		return c.fail(ctx, err, "Failed to update post")
	}
	c.record(ctx, item, activities.ActionUpdate, "Changed post")

	return ctx.JSON(http.StatusOK, item.ToResponse())
}

// Delete godoc
// @Summary Delete a post
// @Security BearerAuth
// @Tags App/Posts
// @Produce json
// @Param id path int true "Post Id"
// @Success 200 {object} types.SuccessResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /admin/posts/{id} [delete]
func (c *PostController) Delete(ctx *router.Context) error {
	id, err := parseId(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Invalid Id format"})
	}

	item, err := c.Service.Delete(ctx.Request.Context(), id)
	if err != nil {
		return c.fail(ctx, err, "Failed to delete post")
	}
	c.record(ctx, item, activities.ActionDelete, "Deleted post")

	return ctx.JSON(http.StatusOK, types.SuccessResponse{Message: "Post deleted successfully"})
}

// Actions godoc
// @Summary List the bulk actions of the post list
// @Security BearerAuth
// @Tags App/Posts
// @Produce json
// @Success 200 {array} AdminAction
// @Router /admin/posts/actions [get]
func (c *PostController) Actions(ctx *router.Context) error {
	return ctx.JSON(http.StatusOK, adminActions)
}

// MakePublished godoc
// @Summary Publish selected articles
// @Security BearerAuth
// @Tags App/Posts
// @Accept json
// @Produce json
// @Param input body models.PublishRequest true "Selected post ids"
// @Success 200 {object} ActionResponse
// @Failure 400 {object} types.ErrorResponse
// @Router /admin/posts/actions/make_published [post]
func (c *PostController) MakePublished(ctx *router.Context) error {
	var req models.PublishRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Invalid input: " + err.Error()})
	}

	published, message, err := c.Service.PublishSelected(ctx.Request.Context(), req.Ids)
	if err != nil {
		if errors.Is(err, ErrNoPostsSelected) {
			return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
		}
		return ctx.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "Failed to publish posts"})
	}

	for i := range published {
		c.record(ctx, &published[i], activities.ActionPublish, message)
	}

	return ctx.JSON(http.StatusOK, ActionResponse{
		Action:   "make_published",
		Affected: int64(len(published)),
		Message:  message,
	})
}

// UploadImage godoc
// @Summary Upload the post image
// @Security BearerAuth
// @Tags App/Posts
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Post Id"
// @Param file formData file true "Image file"
// @Success 200 {object} models.PostResponse
// @Failure 400 {object} types.ErrorResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /admin/posts/{id}/image [put]
func (c *PostController) UploadImage(ctx *router.Context) error {
	id, err := parseId(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Invalid Id format"})
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "No file uploaded"})
	}

	item, err := c.Service.UploadImage(ctx.Request.Context(), id, file)
	if err != nil {
		if errors.Is(err, storage.ErrFileTooLarge) ||
			errors.Is(err, storage.ErrExtensionDenied) ||
			errors.Is(err, storage.ErrNotAnImage) {
			return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
		}
		return c.fail(ctx, err, "Failed to upload image")
	}
	c.record(ctx, item, activities.ActionUploadImage, "Uploaded image "+file.Filename)

	return ctx.JSON(http.StatusOK, item.ToResponse())
}

// RemoveImage godoc
// @Summary Remove the post image
// @Security BearerAuth
// @Tags App/Posts
// @Produce json
// @Param id path int true "Post Id"
// @Success 200 {object} models.PostResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /admin/posts/{id}/image [delete]
func (c *PostController) RemoveImage(ctx *router.Context) error {
	id, err := parseId(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Invalid Id format"})
	}

	item, err := c.Service.RemoveImage(ctx.Request.Context(), id)
	if err != nil {
		return c.fail(ctx, err, "Failed to remove image")
	}
	c.record(ctx, item, activities.ActionRemoveImage, "Removed image")

	return ctx.JSON(http.StatusOK, item.ToResponse())
}

func (c *PostController) fail(ctx *router.Context, err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ctx.JSON(http.StatusNotFound, types.ErrorResponse{Error: "Post not found"})
	}
	return ctx.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: message})
}

func parseId(ctx *router.Context) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
