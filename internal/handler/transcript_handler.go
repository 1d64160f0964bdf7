package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-record-api/internal/service"
	"github.com/noah-isme/academic-record-api/pkg/response"
)

type transcriptRenderer interface {
	Render(ctx context.Context, userID, format string) (*service.Transcript, error)
}

// TranscriptHandler serves transcript downloads.
type TranscriptHandler struct {
	service transcriptRenderer
}

// NewTranscriptHandler constructs a transcript handler.
func NewTranscriptHandler(svc transcriptRenderer) *TranscriptHandler {
	return &TranscriptHandler{service: svc}
}

// Download godoc
// @Summary Download the academic transcript
// @Tags Transcripts
// @Produce application/pdf
// @Produce text/csv
// @Param format query string false "pdf or csv"
// @Success 200 {file} file
// @Router /users/me/transcript [get]
func (h *TranscriptHandler) Download(c *gin.Context) {
	userID, err := studentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	transcript, err := h.service.Render(c.Request.Context(), userID, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, transcript.Filename, transcript.ContentType, transcript.Data)
}
