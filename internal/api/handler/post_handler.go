package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hits/carschool/internal/core/ports"
)

// PostHandler handles HTTP requests for channel posts.
type PostHandler struct {
	service ports.PostService
}

func NewPostHandler(service ports.PostService) *PostHandler {
	return &PostHandler{service: service}
}

// Create handles POST /posts. A replayed Idempotency-Key returns the post
// created by the first request with 200 instead of 201, or 409 while that
// request is still running.
//
// @Summary      Publish a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createPostRequest  true   "Post"
// @Success      201              {object}  postResponse
// @Success      200              {object}  postResponse
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      404              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Router       /posts [post]
func (h *PostHandler) Create(c echo.Context) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	var req createPostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.CreatePost(c.Request().Context(), caller.ID, ports.CreatePostInput{
		Label:          req.Label,
		Text:           req.Text,
		Type:           req.Type,
		Deadline:       req.Deadline,
		ChannelID:      req.ChannelID,
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if res.AlreadyExisted {
		status = http.StatusOK
	}
	return c.JSON(status, toPostResponse(res.Post))
}

// Get handles GET /posts/:postId.
//
// @Summary      Get a post
// @Tags         posts
// @Produce      json
// @Param        postId  path      string  true  "Post id"
// @Success      200     {object}  postResponse
// @Failure      404     {object}  errorResponse
// @Router       /posts/{postId} [get]
func (h *PostHandler) Get(c echo.Context) error {
	p, err := h.service.GetPost(c.Request().Context(), c.Param("postId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPostResponse(p))
}

// ListByChannel handles GET /posts/channel/:channelId.
//
// @Summary      List channel posts, newest first
// @Tags         posts
// @Produce      json
// @Param        channelId  path      string  true  "Channel id"
// @Success      200        {array}   postResponse
// @Failure      404        {object}  errorResponse
// @Router       /posts/channel/{channelId} [get]
func (h *PostHandler) ListByChannel(c echo.Context) error {
	posts, err := h.service.ListChannelPosts(c.Request().Context(), c.Param("channelId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPostResponses(posts))
}

// Tasks handles GET /posts/tasks. The author defaults to the caller when
// userId is omitted.
//
// @Summary      List a user's tasks in a channel
// @Tags         posts
// @Produce      json
// @Param        channelId  query     string  true   "Channel id"
// @Param        userId     query     int     false  "Author id"
// @Success      200        {array}   postResponse
// @Failure      400        {object}  errorResponse
// @Failure      401        {object}  errorResponse
// @Router       /posts/tasks [get]
func (h *PostHandler) Tasks(c echo.Context) error {
	channelID := c.QueryParam("channelId")
	if channelID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "channelId is required")
	}

	var userID int64
	if c.QueryParam("userId") != "" {
		if err := echo.QueryParamsBinder(c).MustInt64("userId", &userID).BindError(); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "userId must be a number")
		}
	} else {
		caller, err := principal(c)
		if err != nil {
			return err
		}
		userID = caller.ID
	}

	posts, err := h.service.ListUserTasks(c.Request().Context(), userID, channelID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPostResponses(posts))
}

// Delete handles DELETE /posts/:postId. Only the author or a manager may
// delete a post.
//
// @Summary      Delete a post
// @Tags         posts
// @Security     BearerAuth
// @Param        postId  path  string  true  "Post id"
// @Success      204     "No Content"
// @Failure      401     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /posts/{postId} [delete]
func (h *PostHandler) Delete(c echo.Context) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.service.DeletePost(c.Request().Context(), caller.ID, caller.Roles, c.Param("postId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
