package testutil

import (
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finledger/backend/internal/interfaces/http/dto"
)

func TestNewMockDB(t *testing.T) {
	mdb := NewMockDB(t)
	defer mdb.Close()

	mdb.Mock.ExpectQuery(`SELECT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))

	var one int
	require.NoError(t, mdb.DB.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
	mdb.ExpectationsWereMet(t)
}

func TestPerformRequestAndDecode(t *testing.T) {
	engine := gin.New()
	engine.POST("/echo", func(c *gin.Context) {
		var payload map[string]string
		require.NoError(t, c.ShouldBindJSON(&payload))
		c.JSON(http.StatusOK, dto.NewSuccessResponse(payload))
	})

	w := PerformRequest(t, engine, http.MethodPost, "/echo",
		map[string]string{"key": "value"},
		map[string]string{"X-Request-ID": "req-1"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := DecodeResponse(t, w)
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "value", data["key"])
}
