package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"cadastre/internal/apperrors"
	apierrors "cadastre/internal/errors"
	"cadastre/internal/models"
	"cadastre/internal/services"
)

// FaasHandler exposes the transaction engine's nine operations plus the
// record read endpoints.
type FaasHandler struct {
	engine  *services.Engine
	records services.RecordService
}

// NewFaasHandler creates a FaasHandler.
func NewFaasHandler(engine *services.Engine, records services.RecordService) *FaasHandler {
	return &FaasHandler{engine: engine, records: records}
}

// detailPayload is a tagged union over the three kind-specific detail
// shapes; exactly one variant must be present.
type detailPayload struct {
	Land      *models.LandDetail      `json:"land,omitempty"`
	Building  *models.BuildingDetail  `json:"building,omitempty"`
	Machinery *models.MachineryDetail `json:"machinery,omitempty"`
}

func (p *detailPayload) toDetail() (models.Detail, error) {
	var set []models.Detail
	if p.Land != nil {
		set = append(set, p.Land)
	}
	if p.Building != nil {
		set = append(set, p.Building)
	}
	if p.Machinery != nil {
		set = append(set, p.Machinery)
	}
	if len(set) != 1 {
		return nil, apperrors.Validation("exactly one of land, building, or machinery detail is required")
	}
	return set[0], nil
}

type propertyDraftPayload struct {
	Kind              models.PropertyKind `json:"kind" binding:"required,oneof=LAND BUILDING MACHINERY"`
	PIN               string              `json:"pin" binding:"required"`
	Barangay          string              `json:"barangay" binding:"required"`
	Street            string              `json:"street"`
	City              string              `json:"city" binding:"required"`
	LocationalGroupID *int64              `json:"locational_group_id"`
}

func (p *propertyDraftPayload) toDraft() *services.PropertyDraft {
	return &services.PropertyDraft{
		Kind:              p.Kind,
		PIN:               p.PIN,
		Barangay:          p.Barangay,
		Street:            p.Street,
		City:              p.City,
		LocationalGroupID: p.LocationalGroupID,
	}
}

type createOriginalRequest struct {
	PropertyID    *int64                `json:"property_id"`
	Property      *propertyDraftPayload `json:"property"`
	Detail        detailPayload         `json:"detail" binding:"required"`
	OwnerIDs      []int64               `json:"owner_ids" binding:"required,min=1"`
	PeriodID      int64                 `json:"period_id" binding:"required"`
	EffectiveDate time.Time             `json:"effective_date" binding:"required"`
	Taxable       *bool                 `json:"taxable"`
	Remarks       string                `json:"remarks"`
	CreatedBy     string                `json:"created_by" binding:"required"`
}

// CreateOriginal handles POST /api/v1/faas.
func (h *FaasHandler) CreateOriginal(c *gin.Context) {
	var req createOriginalRequest
	if !bindJSON(c, &req) {
		return
	}
	detail, err := req.Detail.toDetail()
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	taxable := true
	if req.Taxable != nil {
		taxable = *req.Taxable
	}
	in := services.CreateOriginalInput{
		PropertyID:    req.PropertyID,
		Detail:        detail,
		OwnerIDs:      req.OwnerIDs,
		PeriodID:      req.PeriodID,
		EffectiveDate: req.EffectiveDate,
		Taxable:       taxable,
		Remarks:       req.Remarks,
		CreatedBy:     req.CreatedBy,
	}
	if req.Property != nil {
		in.Property = req.Property.toDraft()
	}

	result, err := h.engine.CreateOriginal(c.Request.Context(), in)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type transferRequest struct {
	PeriodID      int64     `json:"period_id" binding:"required"`
	EffectiveDate time.Time `json:"effective_date" binding:"required"`
	NewOwnerIDs   []int64   `json:"new_owner_ids" binding:"required,min=1"`
	Remarks       string    `json:"remarks"`
	CreatedBy     string    `json:"created_by" binding:"required"`
}

// Transfer handles POST /api/v1/faas/:id/transfer.
func (h *FaasHandler) Transfer(c *gin.Context) {
	recordID, ok := pathID(c)
	if !ok {
		return
	}
	var req transferRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.engine.Transfer(c.Request.Context(), services.TransferInput{
		RecordID:      recordID,
		PeriodID:      req.PeriodID,
		EffectiveDate: req.EffectiveDate,
		NewOwnerIDs:   req.NewOwnerIDs,
		Remarks:       req.Remarks,
		CreatedBy:     req.CreatedBy,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type revisionRequest struct {
	PeriodID      int64         `json:"period_id" binding:"required"`
	EffectiveDate time.Time     `json:"effective_date" binding:"required"`
	Detail        detailPayload `json:"detail" binding:"required"`
	Taxable       *bool         `json:"taxable"`
	Remarks       string        `json:"remarks"`
	CreatedBy     string        `json:"created_by" binding:"required"`
}

// Revision handles POST /api/v1/faas/:id/revision.
func (h *FaasHandler) Revision(c *gin.Context) {
	recordID, ok := pathID(c)
	if !ok {
		return
	}
	var req revisionRequest
	if !bindJSON(c, &req) {
		return
	}
	detail, err := req.Detail.toDetail()
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	taxable := true
	if req.Taxable != nil {
		taxable = *req.Taxable
	}
	result, err := h.engine.Revision(c.Request.Context(), services.RevisionInput{
		RecordID:      recordID,
		PeriodID:      req.PeriodID,
		EffectiveDate: req.EffectiveDate,
		Detail:        detail,
		Taxable:       taxable,
		Remarks:       req.Remarks,
		CreatedBy:     req.CreatedBy,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type reclassifyRequest struct {
	PeriodID         int64           `json:"period_id" binding:"required"`
	EffectiveDate    time.Time       `json:"effective_date" binding:"required"`
	ClassificationID *int64          `json:"classification_id"`
	SubclassID       *int64          `json:"subclass_id"`
	ActualUseID      *int64          `json:"actual_use_id"`
	BuildingKindID   *int64          `json:"building_kind_id"`
	StructuralTypeID *int64          `json:"structural_type_id"`
	AssessmentLevel  decimal.Decimal `json:"assessment_level" binding:"required"`
	Remarks          string          `json:"remarks"`
	CreatedBy        string          `json:"created_by" binding:"required"`
}

// Reclassify handles POST /api/v1/faas/:id/reclassify.
func (h *FaasHandler) Reclassify(c *gin.Context) {
	recordID, ok := pathID(c)
	if !ok {
		return
	}
	var req reclassifyRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.engine.Reclassify(c.Request.Context(), services.ReclassifyInput{
		RecordID:         recordID,
		PeriodID:         req.PeriodID,
		EffectiveDate:    req.EffectiveDate,
		ClassificationID: req.ClassificationID,
		SubclassID:       req.SubclassID,
		ActualUseID:      req.ActualUseID,
		BuildingKindID:   req.BuildingKindID,
		StructuralTypeID: req.StructuralTypeID,
		AssessmentLevel:  req.AssessmentLevel,
		Remarks:          req.Remarks,
		CreatedBy:        req.CreatedBy,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type reasonRequest struct {
	Reason    string `json:"reason" binding:"required"`
	CreatedBy string `json:"created_by" binding:"required"`
}

// Cancel handles POST /api/v1/faas/:id/cancel.
func (h *FaasHandler) Cancel(c *gin.Context) {
	recordID, ok := pathID(c)
	if !ok {
		return
	}
	var req reasonRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.engine.Cancel(c.Request.Context(), services.CancelInput{
		RecordID:  recordID,
		Reason:    req.Reason,
		CreatedBy: req.CreatedBy,
	}); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record_id": recordID, "status": string(models.RecordCancelled)})
}

// Destroy handles POST /api/v1/faas/:id/destroy.
func (h *FaasHandler) Destroy(c *gin.Context) {
	recordID, ok := pathID(c)
	if !ok {
		return
	}
	var req reasonRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.engine.Destroy(c.Request.Context(), services.DestroyInput{
		RecordID:  recordID,
		Reason:    req.Reason,
		CreatedBy: req.CreatedBy,
	}); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record_id": recordID, "status": string(models.RecordCancelled)})
}

type improvementRequest struct {
	PeriodID      int64                    `json:"period_id" binding:"required"`
	EffectiveDate time.Time                `json:"effective_date" binding:"required"`
	Items         []models.LandImprovement `json:"items" binding:"required,min=1"`
	Remarks       string                   `json:"remarks"`
	CreatedBy     string                   `json:"created_by" binding:"required"`
}

// Improvement handles POST /api/v1/faas/:id/improvement.
func (h *FaasHandler) Improvement(c *gin.Context) {
	recordID, ok := pathID(c)
	if !ok {
		return
	}
	var req improvementRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.engine.Improvement(c.Request.Context(), services.ImprovementInput{
		RecordID:      recordID,
		PeriodID:      req.PeriodID,
		EffectiveDate: req.EffectiveDate,
		Items:         req.Items,
		Remarks:       req.Remarks,
		CreatedBy:     req.CreatedBy,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type lotSpecPayload struct {
	PIN          string                   `json:"pin" binding:"required"`
	Area         decimal.Decimal          `json:"area" binding:"required"`
	OwnerIDs     []int64                  `json:"owner_ids" binding:"required,min=1"`
	Improvements []models.LandImprovement `json:"improvements"`
}

type subdivisionRequest struct {
	PeriodID      int64            `json:"period_id" binding:"required"`
	EffectiveDate time.Time        `json:"effective_date" binding:"required"`
	Lots          []lotSpecPayload `json:"lots" binding:"required"`
	Remarks       string           `json:"remarks"`
	CreatedBy     string           `json:"created_by" binding:"required"`
}

// Subdivision handles POST /api/v1/faas/:id/subdivision.
func (h *FaasHandler) Subdivision(c *gin.Context) {
	recordID, ok := pathID(c)
	if !ok {
		return
	}
	var req subdivisionRequest
	if !bindJSON(c, &req) {
		return
	}

	lots := make([]services.LotSpec, 0, len(req.Lots))
	for _, lot := range req.Lots {
		lots = append(lots, services.LotSpec{
			PIN:          lot.PIN,
			Area:         lot.Area,
			OwnerIDs:     lot.OwnerIDs,
			Improvements: lot.Improvements,
		})
	}

	results, err := h.engine.Subdivision(c.Request.Context(), services.SubdivisionInput{
		RecordID:      recordID,
		PeriodID:      req.PeriodID,
		EffectiveDate: req.EffectiveDate,
		Lots:          lots,
		Remarks:       req.Remarks,
		CreatedBy:     req.CreatedBy,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"records": results, "count": len(results)})
}

type consolidationRequest struct {
	RecordIDs         []int64   `json:"record_ids" binding:"required,min=2"`
	PeriodID          int64     `json:"period_id" binding:"required"`
	EffectiveDate     time.Time `json:"effective_date" binding:"required"`
	PIN               string    `json:"pin" binding:"required"`
	Barangay          string    `json:"barangay" binding:"required"`
	Street            string    `json:"street"`
	City              string    `json:"city" binding:"required"`
	LocationalGroupID *int64    `json:"locational_group_id"`
	OwnerIDs          []int64   `json:"owner_ids"`
	Remarks           string    `json:"remarks"`
	CreatedBy         string    `json:"created_by" binding:"required"`
}

// Consolidation handles POST /api/v1/faas/consolidation.
func (h *FaasHandler) Consolidation(c *gin.Context) {
	var req consolidationRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.engine.Consolidation(c.Request.Context(), services.ConsolidationInput{
		RecordIDs:         req.RecordIDs,
		PeriodID:          req.PeriodID,
		EffectiveDate:     req.EffectiveDate,
		PIN:               req.PIN,
		Barangay:          req.Barangay,
		Street:            req.Street,
		City:              req.City,
		LocationalGroupID: req.LocationalGroupID,
		OwnerIDs:          req.OwnerIDs,
		Remarks:           req.Remarks,
		CreatedBy:         req.CreatedBy,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetRecord handles GET /api/v1/faas/:id.
func (h *FaasHandler) GetRecord(c *gin.Context) {
	recordID, ok := pathID(c)
	if !ok {
		return
	}

	view, err := h.records.GetRecord(c.Request.Context(), recordID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListRecords handles GET /api/v1/properties/:id/records.
func (h *FaasHandler) ListRecords(c *gin.Context) {
	propertyID, ok := pathID(c)
	if !ok {
		return
	}

	records, err := h.records.ListByProperty(c.Request.Context(), propertyID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}

// pathID parses the :id path parameter, responding 400 on garbage.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		apierrors.BadRequest(c, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// bindJSON binds the request body, rendering validation details on failure.
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return false
		}
		apierrors.BadRequest(c, "Invalid request body")
		return false
	}
	return true
}
