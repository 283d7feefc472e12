package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"vidhub/internal/app"
	"vidhub/internal/transport/http/middleware"
	"vidhub/internal/transport/http/response"
)

type VideoHandler struct {
	videos *app.VideoService
}

func NewVideoHandler(videos *app.VideoService) *VideoHandler {
	return &VideoHandler{videos: videos}
}

func (h *VideoHandler) Publish(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		response.Fail(c, err)
		return
	}

	videoFile, err := formUpload(c, "videoFile")
	if err != nil {
		response.Fail(c, err)
		return
	}
	thumbnail, err := formUpload(c, "thumbnail")
	if err != nil {
		response.Fail(c, err)
		return
	}

	var duration float64
	if raw := strings.TrimSpace(c.PostForm("duration")); raw != "" {
		duration, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			response.Fail(c, app.Validation("duration must be a number"))
			return
		}
	}

	video, err := h.videos.Publish(c.Request.Context(), user.ID, app.PublishVideoInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Duration:    duration,
		VideoFile:   videoFile,
		Thumbnail:   thumbnail,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, video, "video published successfully")
}

func (h *VideoHandler) Get(c *gin.Context) {
	video, err := h.videos.Get(c.Request.Context(), c.Param("videoId"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, video, "video fetched successfully")
}

func (h *VideoHandler) RecordWatch(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if err := h.videos.RecordWatch(c.Request.Context(), user.ID, c.Param("videoId")); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"videoId": c.Param("videoId")}, "watch recorded")
}
