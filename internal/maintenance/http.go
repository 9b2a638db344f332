package maintenance

import (
	"net/http"
	"time"

	commonserver "github.com/CarSave/CarSave/internal/common/server"
	"github.com/gin-gonic/gin"
)

// Handler 保养部件与保养记录的 HTTP 路由。
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r gin.IRouter) {
	comps := r.Group("/maintenance-components")
	comps.POST("", h.createComponent)
	comps.GET("", h.listComponents)
	comps.GET("/:id", h.getComponent)
	comps.PATCH("/:id", h.updateComponent)
	comps.DELETE("/:id", h.deleteComponent)
	comps.GET("/:id/status", h.componentStatus)
	comps.GET("/:id/progress", h.componentProgress)
	comps.POST("/:id/maintain", h.markAsMaintained)

	recs := r.Group("/maintenance-records")
	recs.POST("", h.createRecord)
	recs.GET("", h.listRecords)
	recs.GET("/:id", h.getRecord)
	recs.PATCH("/:id", h.updateRecord)
	recs.DELETE("/:id", h.deleteRecord)
}

type createComponentRequest struct {
	VehicleID        string   `json:"vehicle_id" binding:"required"`
	Name             string   `json:"name" binding:"required"`
	MaintenanceType  string   `json:"maintenance_type" binding:"required"`
	MaintenanceValue float64  `json:"maintenance_value" binding:"required"`
	Unit             string   `json:"unit"`
	TargetMileage    *float64 `json:"target_mileage"`
}

type updateComponentRequest struct {
	Name             *string  `json:"name"`
	MaintenanceValue *float64 `json:"maintenance_value"`
	Unit             *string  `json:"unit"`
	TargetMileage    *float64 `json:"target_mileage"`
	TargetDate       *string  `json:"target_date"` // YYYY-MM-DD
}

type maintainRequest struct {
	Mileage          float64 `json:"mileage"`
	RecalcNextTarget *bool   `json:"recalc_next_target"` // 缺省 true
}

type createRecordRequest struct {
	VehicleID            string   `json:"vehicle_id" binding:"required"`
	ComponentID          string   `json:"component_id"`
	MaintenanceDate      string   `json:"maintenance_date"` // YYYY-MM-DD，缺省今天
	MileageAtMaintenance *float64 `json:"mileage_at_maintenance"`
	Notes                string   `json:"notes"`
	SkipComponentUpdate  bool     `json:"skip_component_update"`
}

type updateRecordRequest struct {
	MaintenanceDate      *string  `json:"maintenance_date"`
	MileageAtMaintenance *float64 `json:"mileage_at_maintenance"`
	Notes                *string  `json:"notes"`
}

func (h *Handler) createComponent(c *gin.Context) {
	userID, ok := commonserver.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth"})
		return
	}
	var req createComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	comp, err := h.svc.CreateComponent(c.Request.Context(), userID, CreateComponentInput{
		VehicleID:        req.VehicleID,
		Name:             req.Name,
		MaintenanceType:  Type(req.MaintenanceType),
		MaintenanceValue: req.MaintenanceValue,
		Unit:             req.Unit,
		TargetMileage:    req.TargetMileage,
	})
	if err != nil {
		commonserver.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comp)
}

func (h *Handler) listComponents(c *gin.Context) {
	userID, ok := commonserver.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth"})
		return
	}
	components, err := h.svc.ListComponents(c.Request.Context(), userID, c.Query("vehicle_id"))
	if err != nil {
		commonserver.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, components)
}

func (h *Handler) getComponent(c *gin.Context) {
	userID, ok := commonserver.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth"})
		return
	}
	comp, err := h.svc.GetComponent(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		commonserver.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, comp)
}

func (h *Handler) updateComponent(c *gin.Context) {
	userID, ok := commonserver.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth"})
		return
	}
	var req updateComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	in := UpdateComponentInput{
		Name:             req.Name,
		MaintenanceValue: req.MaintenanceValue,
		Unit:             req.Unit,
		TargetMileage:    req.TargetMileage,
	}
	if req.TargetDate != nil {
		d, err := time.Parse("2006-01-02", *req.TargetDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid target_date"})
			return
		}
		in.TargetDate = &d
	}
	comp, err := h.svc.UpdateComponent(c.Request.Context(), userID, c.Param("id"), in)
	if err != nil {
		commonserver.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, comp)
}

func (h *Handler) deleteComponent(c *gin.Context) {
	userID, ok := commonserver.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth"})
		return
	}
	if err := h.svc.DeleteComponent(c.Request.Context(), userID, c.Param("id")); err != nil {
		commonserver.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) componentStatus(c *gin.Context) {
	userID, ok := commonserver.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth"})
		return
	}
	result, err := h.svc.GetStatus(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		commonserver.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) componentProgress(c *gin.Context) {
	userID, ok := commonserver.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth"})
		return
	}
	progress, err := h.svc.GetProgress(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		commonserver.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

func (h *Handler) markAsMaintained(c *gin.Context) {
	userID, ok := commonserver.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth"})
		return
	}
	var req maintainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	recalc := true
	if req.RecalcNextTarget != nil {
		recalc = *req.RecalcNextTarget
	}
	comp, err := h.svc.MarkAsMaintained(c.Request.Context(), userID, c.Param("id"), req.Mileage, recalc)
	if err != nil {
		commonserver.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, comp)
}

func (h *Handler) createRecord(c *gin.Context) {
	userID, ok := commonserver.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth"})
		return
	}
	var req createRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	in := CreateRecordInput{
		VehicleID:            req.VehicleID,
		ComponentID:          req.ComponentID,
		MileageAtMaintenance: req.MileageAtMaintenance,
		Notes:                req.Notes,
		SkipComponentUpdate:  req.SkipComponentUpdate,
	}
	if req.MaintenanceDate != "" {
		d, err := time.Parse("2006-01-02", req.MaintenanceDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid maintenance_date"})
			return
		}
		in.MaintenanceDate = d
	}
	rec, err := h.svc.CreateRecord(c.Request.Context(), userID, in)
	if err != nil {
		commonserver.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) listRecords(c *gin.Context) {
	userID, ok := commonserver.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth"})
		return
	}
	records, err := h.svc.ListRecords(c.Request.Context(), userID, c.Query("vehicle_id"), c.Query("component_id"))
	if err != nil {
		commonserver.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) getRecord(c *gin.Context) {
	userID, ok := commonserver.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth"})
		return
	}
	rec, err := h.svc.GetRecord(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		commonserver.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) updateRecord(c *gin.Context) {
	userID, ok := commonserver.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth"})
		return
	}
	var req updateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	in := UpdateRecordInput{
		MileageAtMaintenance: req.MileageAtMaintenance,
		Notes:                req.Notes,
	}
	if req.MaintenanceDate != nil {
		d, err := time.Parse("2006-01-02", *req.MaintenanceDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid maintenance_date"})
			return
		}
		in.MaintenanceDate = &d
	}
	rec, err := h.svc.UpdateRecord(c.Request.Context(), userID, c.Param("id"), in)
	if err != nil {
		commonserver.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) deleteRecord(c *gin.Context) {
	userID, ok := commonserver.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth"})
		return
	}
	if err := h.svc.DeleteRecord(c.Request.Context(), userID, c.Param("id")); err != nil {
		commonserver.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
