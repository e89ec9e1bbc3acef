package handler

import (
	"io"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/campuslink-ng/campus-api/pkg/errors"
	"github.com/campuslink-ng/campus-api/pkg/response"
	"github.com/campuslink-ng/campus-api/pkg/storage"
)

// ReportHandler serves exported report files via signed download tokens.
type ReportHandler struct {
	store  *storage.LocalStorage
	signer *storage.SignedURLSigner
	logger *zap.Logger
}

// NewReportHandler creates a new handler.
func NewReportHandler(store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{store: store, signer: signer, logger: logger}
}

// Download godoc
// @Summary Download an exported report
// @Description The token carries its own signature and expiry; no bearer auth
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/download/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	token := c.Param("token")
	_, relPath, _, err := h.signer.Parse(token, false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link"))
		return
	}

	file, err := h.store.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "report file not found"))
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", `attachment; filename="`+path.Base(relPath)+`"`)
	c.Header("Content-Type", contentTypeFor(relPath))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		h.logger.Warn("failed to stream report", zap.String("path", relPath), zap.Error(err))
	}
}

func contentTypeFor(relPath string) string {
	switch path.Ext(relPath) {
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
