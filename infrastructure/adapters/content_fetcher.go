package adapters

import (
	"io"
	"net/http"
	"strings"
	"voice-campaign-api/application/ports/outbound"
	"voice-campaign-api/domain"
)

const maxErrorDetailBytes = 2048

type ContentFetcher interface {
	FetchContent(op string, req *http.Request) ([]byte, http.Header, error)
}

type contentFetcher struct {
	logger outbound.LoggerPort
	client *http.Client
}

func NewContentFetcher(logger outbound.LoggerPort, client *http.Client) ContentFetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &contentFetcher{
		logger: logger,
		client: client,
	}
}

// FetchContent sends req and returns the body of a 2xx response. Transport
// failures and non-2xx responses come back as upstream errors carrying the
// status and the start of the response body.
func (c *contentFetcher) FetchContent(op string, req *http.Request) ([]byte, http.Header, error) {
	res, err := c.client.Do(req)
	if err != nil {
		c.logger.ErrorWithFields(err, "Failed to send the HTTP request", map[string]interface{}{
			"method": req.Method,
			"URL":    req.URL.String(),
		})
		return nil, nil, domain.NewUpstreamError(op, 0, "request failed", err)
	}

	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.logger.ErrorWithFields(err, "Failed to close the response body", map[string]interface{}{
				"method": req.Method,
				"URL":    req.URL.String(),
			})
		}
	}(res.Body)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		bodyPayload, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorDetailBytes))
		message := strings.TrimSpace(string(bodyPayload))
		c.logger.ErrorWithFields(nil, "HTTP request returned non-OK status code", map[string]interface{}{
			"method":  req.Method,
			"URL":     req.URL.String(),
			"status":  res.StatusCode,
			"message": message,
		})
		return nil, nil, domain.NewUpstreamError(op, res.StatusCode, message, nil)
	}

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		c.logger.ErrorWithFields(err, "Failed to read the response body", map[string]interface{}{
			"method": req.Method,
			"URL":    req.URL.String(),
		})
		return nil, nil, domain.NewUpstreamError(op, res.StatusCode, "failed to read response body", err)
	}

	return payload, res.Header, nil
}
