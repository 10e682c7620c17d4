package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/finledger/backend/internal/domain/shared"
	"github.com/finledger/backend/internal/interfaces/http/dto"
	"github.com/finledger/backend/tests/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performHandled(t *testing.T, err error) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()

	h := &BaseHandler{}
	engine := gin.New()
	engine.GET("/test", func(c *gin.Context) {
		h.HandleError(c, err)
	})

	w := testutil.PerformRequest(t, engine, http.MethodGet, "/test", nil, nil)
	return w, testutil.DecodeResponse(t, w)
}

func TestHandleErrorNotFound(t *testing.T) {
	w, resp := performHandled(t, shared.ErrNotFound)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
}

func TestHandleErrorOverpayment(t *testing.T) {
	err := shared.NewDomainError(shared.CodeOverpayment, "payment exceeds order total")
	w, resp := performHandled(t, err)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeOverpayment, resp.Error.Code)
	assert.Equal(t, "payment exceeds order total", resp.Error.Message)
}

func TestHandleErrorInvalidTransition(t *testing.T) {
	err := shared.NewInvalidTransitionError("COMPLETED", "cancel")
	w, resp := performHandled(t, err)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidTransition, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "cancel")
}

func TestHandleErrorConcurrencyConflict(t *testing.T) {
	w, resp := performHandled(t, shared.ErrConcurrencyConflict)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeConcurrencyConflict, resp.Error.Code)
}

func TestHandleErrorTransactionTimeout(t *testing.T) {
	w, resp := performHandled(t, shared.ErrTransactionTimeout)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, dto.ErrCodeTransactionTimeout, resp.Error.Code)
}

func TestHandleErrorUnknown(t *testing.T) {
	w, resp := performHandled(t, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
	// The raw error message must not leak
	assert.Equal(t, "An unexpected error occurred", resp.Error.Message)
}

func TestGetActorID(t *testing.T) {
	engine := gin.New()
	var gotErr error
	engine.GET("/test", func(c *gin.Context) {
		_, gotErr = getActorID(c)
		c.Status(http.StatusOK)
	})

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/test", nil)
		engine.ServeHTTP(w, req)
		assert.Error(t, gotErr)
	})

	t.Run("valid header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Actor-ID", "550e8400-e29b-41d4-a716-446655440000")
		engine.ServeHTTP(w, req)
		assert.NoError(t, gotErr)
	})

	t.Run("malformed header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Actor-ID", "not-a-uuid")
		engine.ServeHTTP(w, req)
		assert.Error(t, gotErr)
	})
}
