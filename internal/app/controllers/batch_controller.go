package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/lms/internal/app/models/dto"
	"github.com/yigit/lms/internal/app/services"
	"github.com/yigit/lms/internal/middleware"
)

// BatchController handles certificate batch jobs
type BatchController struct {
	batchService *services.BatchService
	logger       zerolog.Logger
}

// NewBatchController creates a new BatchController
func NewBatchController(batchService *services.BatchService, logger zerolog.Logger) *BatchController {
	return &BatchController{
		batchService: batchService,
		logger:       logger,
	}
}

// Start accepts a certificate batch
// @Summary Start certificate batch
// @Description Issues certificates for a list of pairs, or for every enrollment of a course, in the background
// @Tags certificates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.StartBatchRequest true "Items or course"
// @Success 202 {object} dto.APIResponse{data=dto.StartBatchResponse} "Batch accepted"
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 403 {object} dto.ErrorResponse "Admin role required"
// @Router /api/certificates/batch [post]
func (c *BatchController) Start(ctx *gin.Context) {
	p, ok := middleware.RequirePrincipal(ctx)
	if !ok {
		return
	}

	var req dto.StartBatchRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.batchService.Start(ctx.Request.Context(), p, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusAccepted, dto.NewSuccessResponse(resp))
}

// Get returns the state of a batch
// @Summary Get certificate batch
// @Tags certificates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 200 {object} dto.APIResponse{data=dto.BatchJobResponse} "Batch state"
// @Failure 404 {object} dto.ErrorResponse "Job not found"
// @Router /api/certificates/batch/{id} [get]
func (c *BatchController) Get(ctx *gin.Context) {
	job, err := c.batchService.Get(ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(job))
}

// Cancel stops a cancellable batch between items
// @Summary Cancel certificate batch
// @Tags certificates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 200 {object} dto.APIResponse{data=dto.BatchJobResponse} "Cancellation requested"
// @Failure 404 {object} dto.ErrorResponse "Job not found"
// @Failure 409 {object} dto.ErrorResponse "Job was not started as cancellable"
// @Router /api/certificates/batch/{id} [delete]
func (c *BatchController) Cancel(ctx *gin.Context) {
	job, err := c.batchService.Cancel(ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(job))
}
