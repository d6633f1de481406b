package controllers

import (
	"net/http"
	"voice-campaign-api/application/ports/inbound"
	"voice-campaign-api/application/ports/outbound"
	"voice-campaign-api/domain"
	"voice-campaign-api/infrastructure/gin_interface/dto"

	"github.com/gin-gonic/gin"
)

type CustomersController interface {
	Upload(c *gin.Context)
	RegisterRoutes(g gin.IRoutes)
}

type customersController struct {
	logger   outbound.LoggerPort
	ingestor inbound.CustomerIngestorPort
}

func NewCustomersController(logger outbound.LoggerPort, ingestor inbound.CustomerIngestorPort) CustomersController {
	return &customersController{
		logger:   logger,
		ingestor: ingestor,
	}
}

func (s *customersController) Upload(c *gin.Context) {
	customers, err := ingestUpload(c, s.ingestor)
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.UploadCustomersResponse{
		Count:     len(customers),
		Customers: customers,
	})
}

func (s *customersController) RegisterRoutes(g gin.IRoutes) {
	g.POST("/customers/upload", s.Upload)
}

// ingestUpload reads the multipart "file" field, with an optional "format"
// field overriding the extension.
func ingestUpload(c *gin.Context, ingestor inbound.CustomerIngestorPort) ([]domain.CustomerRecord, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, domain.NewValidationError("upload customers", "multipart field \"file\" is required")
	}
	file, err := header.Open()
	if err != nil {
		return nil, domain.NewValidationError("upload customers", "uploaded file cannot be read: %v", err)
	}
	defer file.Close()

	return ingestor.Ingest(c.Request.Context(), inbound.IngestCustomersParams{
		FileName: header.Filename,
		Format:   inbound.SpreadsheetFormat(c.PostForm("format")),
		Body:     file,
	})
}
