package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hits/carschool/internal/core/ports"
)

// ChannelHandler handles HTTP requests for group channels.
type ChannelHandler struct {
	service ports.ChannelService
}

func NewChannelHandler(service ports.ChannelService) *ChannelHandler {
	return &ChannelHandler{service: service}
}

// Mine handles GET /channel and lists the caller's channels.
//
// @Summary      List own channels
// @Tags         channels
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   channelResponse
// @Failure      401  {object}  errorResponse
// @Router       /channel [get]
func (h *ChannelHandler) Mine(c echo.Context) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	channels, err := h.service.ListUserChannels(c.Request().Context(), caller.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toChannelResponses(channels))
}

// Create handles POST /channel/create.
//
// @Summary      Create a channel
// @Tags         channels
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createChannelRequest  true  "Channel"
// @Success      201   {object}  channelResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /channel/create [post]
func (h *ChannelHandler) Create(c echo.Context) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	var req createChannelRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ch, err := h.service.CreateChannel(c.Request().Context(), caller.ID, ports.CreateChannelInput{
		Name:        req.Name,
		Description: req.Description,
		MemberIDs:   req.MemberIDs,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toChannelResponse(ch))
}

// Get handles GET /channel/:id.
//
// @Summary      Get a channel
// @Tags         channels
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Channel id"
// @Success      200  {object}  channelResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /channel/{id} [get]
func (h *ChannelHandler) Get(c echo.Context) error {
	ch, err := h.service.GetChannel(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toChannelResponse(ch))
}

// ListByUser handles GET /channel/user/:id.
//
// @Summary      List a user's channels
// @Tags         channels
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User id"
// @Success      200  {array}   channelResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /channel/user/{id} [get]
func (h *ChannelHandler) ListByUser(c echo.Context) error {
	userID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	channels, err := h.service.ListUserChannels(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toChannelResponses(channels))
}

// Update handles PATCH /channel/update/:id.
//
// @Summary      Update a channel
// @Tags         channels
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Channel id"
// @Param        body  body      updateChannelRequest  true  "Fields to change"
// @Success      200   {object}  channelResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /channel/update/{id} [patch]
func (h *ChannelHandler) Update(c echo.Context) error {
	var req updateChannelRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ch, err := h.service.UpdateChannel(c.Request().Context(), c.Param("id"), ports.UpdateChannelInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toChannelResponse(ch))
}

// Delete handles DELETE /channel/delete/:id.
//
// @Summary      Delete a channel
// @Tags         channels
// @Security     BearerAuth
// @Param        id   path  string  true  "Channel id"
// @Success      204  "No Content"
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /channel/delete/{id} [delete]
func (h *ChannelHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteChannel(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
