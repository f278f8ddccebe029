package stats

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LianruiSun/JobboCat/internal/common/logger"
)

func setupHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	svc, mock := setupService(t)
	return NewHandler(svc, logger.NewTestLogger(t)), mock
}

func TestHandler_Focusing(t *testing.T) {
	handler, mock := setupHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COUNT(*) FROM focus_sessions`,
	)).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	rec := httptest.NewRecorder()
	handler.Focusing(rec, httptest.NewRequest(http.MethodGet, "/focusing", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var resp map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp["focusing"])
}

func TestHandler_TotalUsers(t *testing.T) {
	handler, mock := setupHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COUNT(*) FROM profiles`,
	)).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(120))

	rec := httptest.NewRecorder()
	handler.TotalUsers(rec, httptest.NewRequest(http.MethodGet, "/stats/users", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(120), resp["totalUsers"])
}

func TestHandler_Focusing_Preflight(t *testing.T) {
	handler, _ := setupHandler(t)

	rec := httptest.NewRecorder()
	handler.Focusing(rec, httptest.NewRequest(http.MethodOptions, "/focusing", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestHandler_Focusing_MethodNotAllowed(t *testing.T) {
	handler, _ := setupHandler(t)

	rec := httptest.NewRecorder()
	handler.Focusing(rec, httptest.NewRequest(http.MethodPost, "/focusing", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandler_Focusing_QueryFailure(t *testing.T) {
	handler, mock := setupHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COUNT(*) FROM focus_sessions`,
	)).WillReturnError(assert.AnError)

	rec := httptest.NewRecorder()
	handler.Focusing(rec, httptest.NewRequest(http.MethodGet, "/focusing", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["error"])
}
