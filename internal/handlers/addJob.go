package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Bebenbaven/YTcommentGETer/internal/harvest"
	"github.com/Bebenbaven/YTcommentGETer/internal/models"
	"github.com/Bebenbaven/YTcommentGETer/internal/yt"
)

type Jobmodel struct {
	URL     string `json:"url"`
	VideoID string `json:"video_id"`
	Limit   *int   `json:"limit"`
	Order   string `json:"order"`
}

// AddJob queues a harvest of the video named by url or video_id.
func (h *Handler) AddJob(c echo.Context) error {
	var model Jobmodel
	if err := c.Bind(&model); err != nil {
		return c.JSON(http.StatusBadRequest, fail("invalid request body"))
	}

	ref := model.VideoID
	if ref == "" {
		ref = model.URL
	}
	videoID, err := yt.ParseVideoID(ref)
	if err != nil {
		return c.JSON(http.StatusBadRequest, fail(fmt.Sprintf("invalid video url %q", ref)))
	}
	if _, err := harvest.ParseOrder(model.Order); err != nil {
		return c.JSON(http.StatusBadRequest, fail(err.Error()))
	}

	if h.queue == nil {
		return c.JSON(http.StatusServiceUnavailable, fail("job queue is not configured"))
	}

	job := models.HarvestJob{VideoID: videoID, Limit: model.Limit, Order: model.Order}
	ctx := c.Request().Context()
	if err := h.queue.Push(ctx, job); err != nil {
		h.logger.ErrorContext(ctx, "failed to queue harvest job", "video_id", videoID, "error", err)
		return c.JSON(http.StatusServiceUnavailable, fail("failed to queue harvest job"))
	}

	h.logger.InfoContext(ctx, "queued harvest job", "video_id", videoID)
	return c.JSON(http.StatusOK, map[string]string{
		"code":     "success",
		"message":  fmt.Sprintf("%v harvest job queued", videoID),
		"video_id": videoID,
	})
}
