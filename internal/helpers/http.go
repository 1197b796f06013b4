package helpers

import (
	"encoding/json"
	"net/http"

	"github.com/isometry/smartsheet-webhook-app/internal/models"
)

type httpResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// RespondHTTP writes the response headers and status code. A JSON body is only written when the
// response carries a body or detailed errors are requested.
func RespondHTTP(response models.Response, err error, detailed bool, rw http.ResponseWriter) {
	for k, v := range response.Headers {
		rw.Header().Set(k, v)
	}
	statusCode := response.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}

	hR := httpResponse{
		Message: response.Body,
	}
	if err != nil && detailed {
		hR.Error = err.Error()
	}
	if hR.Message == "" && hR.Error == "" {
		rw.WriteHeader(statusCode)
		return
	}

	respBody, _ := json.Marshal(hR)
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(statusCode)
	_, _ = rw.Write(respBody)
}
