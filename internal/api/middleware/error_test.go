package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/totalaudio/tracker-backend-go/internal/core/analytics"
	apperrors "github.com/totalaudio/tracker-backend-go/pkg/errors"
	"github.com/totalaudio/tracker-backend-go/pkg/utils"
)

func errorTestRouter(err error) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	router := gin.New()
	router.Use(ErrorResponseMiddleware(log))
	router.GET("/boom", func(c *gin.Context) {
		c.Error(err)
	})
	return router
}

func TestErrorResponseMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "unsupported platform is a 400",
			err:        &analytics.UnsupportedPlatformError{Platform: "myspace"},
			wantStatus: http.StatusBadRequest,
			wantError:  `unsupported platform: "myspace"`,
		},
		{
			name:       "invalid payload is a 400",
			err:        &analytics.InvalidPayloadError{Platform: analytics.PlatformSpotify, Missing: []string{"streams"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "insufficient data is a 422",
			err:        &analytics.InsufficientDataError{CampaignID: "camp-1"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "app error carries its own status and message",
			err:        apperrors.ErrCampaignNotFound,
			wantStatus: http.StatusNotFound,
			wantError:  "Campaign not found",
		},
		{
			name:       "app error details join the client message",
			err:        apperrors.New(http.StatusBadRequest, "Invalid campaign payload").WithDetails("name is required"),
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid campaign payload: name is required",
		},
		{
			name:       "wrapped app error keeps the client message, not the cause",
			err:        apperrors.Wrap(errors.New("sqlite: disk I/O error"), http.StatusInternalServerError, "Failed to list campaigns"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Failed to list campaigns",
		},
		{
			name:       "unknown errors are masked as a generic 500",
			err:        errors.New("dial tcp: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := errorTestRouter(tt.err)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/boom", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp utils.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantStatus, resp.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, resp.Error)
			} else {
				assert.NotEmpty(t, resp.Error)
			}
		})
	}
}

func TestErrorResponseMiddlewareSkipsWrittenResponses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	router := gin.New()
	router.Use(ErrorResponseMiddleware(log))
	router.GET("/partial", func(c *gin.Context) {
		c.JSON(http.StatusAccepted, gin.H{"queued": true})
		c.Error(errors.New("late failure"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/partial", nil))

	// The handler already answered; the middleware must not double-write.
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "queued")
}
