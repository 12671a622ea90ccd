package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/lms/internal/app/models/dto"
	"github.com/yigit/lms/internal/app/services"
	"github.com/yigit/lms/internal/middleware"
)

// CertificateController handles certificate endpoints
type CertificateController struct {
	certService *services.CertificateService
	logger      zerolog.Logger
}

// NewCertificateController creates a new CertificateController
func NewCertificateController(certService *services.CertificateService, logger zerolog.Logger) *CertificateController {
	return &CertificateController{
		certService: certService,
		logger:      logger,
	}
}

// Check reports whether a certificate exists for a user and course
// @Summary Check certificate
// @Description Returns the certificate of the pair, or null data when none was issued
// @Tags certificates
// @Produce json
// @Security BearerAuth
// @Param user_id query string true "User ID"
// @Param course_id query string true "Course ID"
// @Success 200 {object} dto.APIResponse{data=models.Certificate} "Certificate or null"
// @Failure 400 {object} dto.ErrorResponse "Missing or invalid ids"
// @Failure 403 {object} dto.ErrorResponse "Not your certificate"
// @Router /api/certificates/check [get]
func (c *CertificateController) Check(ctx *gin.Context) {
	p, ok := middleware.RequirePrincipal(ctx)
	if !ok {
		return
	}

	var query dto.CheckCertificateQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}

	cert, err := c.certService.Check(ctx.Request.Context(), p, query.UserID, query.CourseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(cert))
}

// Create issues a certificate
// @Summary Issue certificate
// @Description Issues the certificate of an enrolled user who completed the course. Issuing twice returns the existing certificate.
// @Tags certificates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCertificateRequest true "User and course"
// @Success 201 {object} dto.APIResponse{data=dto.IssueCertificateResponse} "Certificate issued"
// @Success 200 {object} dto.APIResponse{data=dto.IssueCertificateResponse} "Certificate already existed"
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 404 {object} dto.ErrorResponse "User is not enrolled"
// @Failure 422 {object} dto.ErrorResponse "Course not completed"
// @Failure 503 {object} dto.ErrorResponse "Storage unavailable"
// @Router /api/certificates [post]
func (c *CertificateController) Create(ctx *gin.Context) {
	p, ok := middleware.RequirePrincipal(ctx)
	if !ok {
		return
	}

	var req dto.CreateCertificateRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.certService.Issue(ctx.Request.Context(), p, &req)
	if err != nil {
		c.logger.Info().Err(err).Str("userID", req.UserID).Str("courseID", req.CourseID).Msg("Certificate not issued")
		middleware.HandleAPIError(ctx, err)
		return
	}

	status := http.StatusCreated
	if resp.Duplicate {
		status = http.StatusOK
	}
	ctx.JSON(status, dto.NewSuccessResponse(resp))
}

// List returns certificates visible to the caller
// @Summary List certificates
// @Description Students see their own certificates, admins may filter by user and course
// @Tags certificates
// @Produce json
// @Security BearerAuth
// @Param user_id query string false "User ID"
// @Param course_id query string false "Course ID"
// @Param limit query int false "Maximum number of results"
// @Success 200 {object} dto.APIResponse{data=[]models.Certificate} "Certificates"
// @Failure 403 {object} dto.ErrorResponse "Not allowed"
// @Router /api/certificates [get]
func (c *CertificateController) List(ctx *gin.Context) {
	p, ok := middleware.RequirePrincipal(ctx)
	if !ok {
		return
	}

	var query dto.CertificateListQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}

	certs, err := c.certService.List(ctx.Request.Context(), p, query.Filter())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(certs))
}

// Recent returns the latest issued certificates
// @Summary Recent certificates
// @Tags certificates
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum number of results (default 10)"
// @Success 200 {object} dto.APIResponse{data=[]models.Certificate} "Certificates"
// @Failure 403 {object} dto.ErrorResponse "Admin role required"
// @Router /api/certificates/recent [get]
func (c *CertificateController) Recent(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	certs, err := c.certService.Recent(ctx.Request.Context(), limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(certs))
}

// GetByID returns one certificate
// @Summary Get certificate
// @Tags certificates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Certificate ID"
// @Success 200 {object} dto.APIResponse{data=models.Certificate} "Certificate"
// @Failure 403 {object} dto.ErrorResponse "Not your certificate"
// @Failure 404 {object} dto.ErrorResponse "Certificate not found"
// @Router /api/certificates/{id} [get]
func (c *CertificateController) GetByID(ctx *gin.Context) {
	p, ok := middleware.RequirePrincipal(ctx)
	if !ok {
		return
	}

	cert, err := c.certService.GetByID(ctx.Request.Context(), p, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(cert))
}

// GetHTML returns the printable certificate page
// @Summary Certificate HTML
// @Tags certificates
// @Produce html
// @Security BearerAuth
// @Param id path string true "Certificate ID"
// @Success 200 {string} string "HTML page"
// @Failure 404 {object} dto.ErrorResponse "Certificate not found"
// @Router /api/certificates/{id}/html [get]
func (c *CertificateController) GetHTML(ctx *gin.Context) {
	p, ok := middleware.RequirePrincipal(ctx)
	if !ok {
		return
	}

	html, err := c.certService.RenderHTML(ctx.Request.Context(), p, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// GetPNG returns the certificate image
// @Summary Certificate image
// @Tags certificates
// @Produce png
// @Security BearerAuth
// @Param id path string true "Certificate ID"
// @Success 200 {file} file "PNG image"
// @Failure 404 {object} dto.ErrorResponse "Certificate not found"
// @Failure 503 {object} dto.ErrorResponse "Image rendering unavailable"
// @Router /api/certificates/{id}/png [get]
func (c *CertificateController) GetPNG(ctx *gin.Context) {
	p, ok := middleware.RequirePrincipal(ctx)
	if !ok {
		return
	}

	img, err := c.certService.RenderPNG(ctx.Request.Context(), p, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", `inline; filename="certificate-`+ctx.Param("id")+`.png"`)
	ctx.Data(http.StatusOK, "image/png", img)
}

// Update applies an administrative correction
// @Summary Update certificate
// @Description Corrects certificate fields. Eligibility is not re-checked.
// @Tags certificates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Certificate ID"
// @Param request body dto.UpdateCertificateRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.Certificate} "Updated certificate"
// @Failure 400 {object} dto.ErrorResponse "Nothing to update"
// @Failure 403 {object} dto.ErrorResponse "Admin role required"
// @Failure 404 {object} dto.ErrorResponse "Certificate not found"
// @Router /api/certificates/{id} [put]
func (c *CertificateController) Update(ctx *gin.Context) {
	var req dto.UpdateCertificateRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	cert, err := c.certService.Update(ctx.Request.Context(), ctx.Param("id"), req.ToUpdate())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(cert))
}

// Delete removes a certificate
// @Summary Delete certificate
// @Tags certificates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Certificate ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Deleted"
// @Failure 403 {object} dto.ErrorResponse "Admin role required"
// @Failure 404 {object} dto.ErrorResponse "Certificate not found"
// @Router /api/certificates/{id} [delete]
func (c *CertificateController) Delete(ctx *gin.Context) {
	if err := c.certService.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Certificate deleted"}))
}
