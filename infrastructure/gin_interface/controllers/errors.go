package controllers

import (
	"net/http"
	"voice-campaign-api/application/ports/outbound"
	"voice-campaign-api/domain"
	"voice-campaign-api/infrastructure/gin_interface/dto"

	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.SchemaErrorKind:
		return http.StatusUnprocessableEntity
	case domain.ValidationErrorKind, domain.FormatErrorKind, domain.ParseErrorKind, domain.ProtocolErrorKind:
		return http.StatusBadRequest
	case domain.ConfigurationErrorKind:
		return http.StatusServiceUnavailable
	case domain.NotFoundErrorKind:
		return http.StatusNotFound
	case domain.CancelledErrorKind:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func abortWithError(c *gin.Context, logger outbound.LoggerPort, err error) {
	status := statusFor(err)
	structured := domain.AsError(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorWithFields(err, "Request failed", map[string]interface{}{
			"path": c.FullPath(),
			"kind": structured.Kind,
		})
	}
	c.AbortWithStatusJSON(status, dto.ErrorResponse{
		Error:  err.Error(),
		Kind:   string(structured.Kind),
		Detail: structured.Detail,
	})
}

func abortWithBindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:  err.Error(),
		Kind:   string(domain.ValidationErrorKind),
		Detail: "request body is invalid",
	})
}
