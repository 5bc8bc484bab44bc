package handlers_test

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"venue-crm-backend/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	_, token := s.user("ana@agency.example", models.RoleConsultant)
	seedBooking(t, s, token)

	rec := s.do(http.MethodGet, "/api/reports/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var dashboard map[string]interface{}
	decodeData(t, rec, &dashboard)
	assert.NotEmpty(t, dashboard)

	rec = s.do(http.MethodGet, "/api/reports/commission?from=not-a-date", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommissionExportIsAWorkbook(t *testing.T) {
	s := newTestServer(t, nil)
	_, token := s.user("boss@agency.example", models.RoleAdmin)
	seedBooking(t, s, token)

	rec := s.do(http.MethodGet, "/api/reports/commission/export", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	// xlsx files are zip archives
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestProposalPDF(t *testing.T) {
	s := newTestServer(t, nil)
	_, token := s.user("ana@agency.example", models.RoleConsultant)
	seedBooking(t, s, token)

	rec := s.do(http.MethodGet, "/api/proposals?limit=1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var proposals []map[string]interface{}
	decodeData(t, rec, &proposals)
	require.Len(t, proposals, 1)

	rec = s.do(http.MethodGet, "/api/proposals/"+proposals[0]["id"].(string)+"/pdf", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}
