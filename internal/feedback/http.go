package feedback

import (
	"net/http"

	commonserver "github.com/CarSave/CarSave/internal/common/server"
	"github.com/gin-gonic/gin"
)

// Handler 意见反馈的 HTTP 路由。
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/feedback")
	g.POST("", h.submit)
	g.GET("", h.list)
}

type submitRequest struct {
	Content string `json:"content" binding:"required"`
	Contact string `json:"contact"`
}

func (h *Handler) submit(c *gin.Context) {
	userID, ok := commonserver.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth"})
		return
	}
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	f, err := h.svc.Submit(c.Request.Context(), userID, req.Content, req.Contact)
	if err != nil {
		commonserver.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

func (h *Handler) list(c *gin.Context) {
	userID, ok := commonserver.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth"})
		return
	}
	items, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		commonserver.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}
