package vehicle

import (
	"net/http"
	"time"

	commonserver "github.com/CarSave/CarSave/internal/common/server"
	"github.com/gin-gonic/gin"
)

// Handler 车辆相关的 HTTP 路由。
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/vehicles")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.remove)
}

type createVehicleRequest struct {
	Name              string `json:"name" binding:"required"`
	Mileage           int    `json:"mileage"`
	ManufacturingDate string `json:"manufacturing_date"` // YYYY-MM-DD
	Image             string `json:"image"`
	PlateNumber       string `json:"plate_number"`
}

type updateVehicleRequest struct {
	Name              *string `json:"name"`
	Mileage           *int    `json:"mileage"`
	ManufacturingDate *string `json:"manufacturing_date"`
	Image             *string `json:"image"`
	PlateNumber       *string `json:"plate_number"`
}

func (h *Handler) create(c *gin.Context) {
	userID, ok := commonserver.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth"})
		return
	}
	var req createVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	in := CreateVehicleInput{
		Name:        req.Name,
		Mileage:     req.Mileage,
		Image:       req.Image,
		PlateNumber: req.PlateNumber,
	}
	if req.ManufacturingDate != "" {
		d, err := time.Parse("2006-01-02", req.ManufacturingDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid manufacturing_date"})
			return
		}
		in.ManufacturingDate = &d
	}
	v, err := h.svc.Create(c.Request.Context(), userID, in)
	if err != nil {
		commonserver.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *Handler) list(c *gin.Context) {
	userID, ok := commonserver.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth"})
		return
	}
	vehicles, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		commonserver.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

func (h *Handler) get(c *gin.Context) {
	userID, ok := commonserver.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth"})
		return
	}
	v, err := h.svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		commonserver.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) update(c *gin.Context) {
	userID, ok := commonserver.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth"})
		return
	}
	var req updateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	in := UpdateVehicleInput{
		Name:        req.Name,
		Mileage:     req.Mileage,
		Image:       req.Image,
		PlateNumber: req.PlateNumber,
	}
	if req.ManufacturingDate != nil {
		d, err := time.Parse("2006-01-02", *req.ManufacturingDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid manufacturing_date"})
			return
		}
		in.ManufacturingDate = &d
	}
	v, err := h.svc.Update(c.Request.Context(), userID, c.Param("id"), in)
	if err != nil {
		commonserver.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) remove(c *gin.Context) {
	userID, ok := commonserver.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth"})
		return
	}
	if err := h.svc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		commonserver.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
