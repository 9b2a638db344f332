package backup

import (
	"io"
	"net/http"

	commonserver "github.com/CarSave/CarSave/internal/common/server"
	"github.com/gin-gonic/gin"
)

// Handler 数据备份的 HTTP 路由。
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/data-backup")
	g.POST("/upload", h.upload)
	g.GET("/download", h.download)
	g.GET("/info", h.info)
}

// upload 接收客户端导出的 JSON 原始请求体。
func (h *Handler) upload(c *gin.Context) {
	userID, ok := commonserver.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth"})
		return
	}
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxBackupSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "failed to read body"})
		return
	}
	m, err := h.svc.Upload(c.Request.Context(), userID, data, c.ContentType())
	if err != nil {
		commonserver.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) download(c *gin.Context) {
	userID, ok := commonserver.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth"})
		return
	}
	rc, _, err := h.svc.Download(c.Request.Context(), userID)
	if err != nil {
		commonserver.WriteError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", "application/json")
	c.Header("Content-Disposition", `attachment; filename="backup.json"`)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		_ = c.Error(err)
	}
}

func (h *Handler) info(c *gin.Context) {
	userID, ok := commonserver.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth"})
		return
	}
	m, err := h.svc.Info(c.Request.Context(), userID)
	if err != nil {
		commonserver.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}
