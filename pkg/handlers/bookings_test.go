package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"venue-crm-backend/pkg/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedBooking creates a client, a venue, a proposal offering it and a draft
// booking, all through the API, and returns the booking id.
func seedBooking(t *testing.T, s *testServer, token string) string {
	t.Helper()
	var client, venue, proposal, booking map[string]interface{}

	rec := s.do(http.MethodPost, "/api/clients", token, map[string]string{"name": "Acme"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decodeData(t, rec, &client)

	rec = s.do(http.MethodPost, "/api/venues", token, map[string]interface{}{"name": "Riverside Hall", "standardCommission": "10"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decodeData(t, rec, &venue)

	rec = s.do(http.MethodPost, "/api/proposals", token, map[string]interface{}{
		"clientId": client["id"],
		"title":    "Sales kickoff",
		"venues": []map[string]interface{}{{
			"venueId": venue["id"],
			"chargeLines": []map[string]interface{}{
				{"description": "Main room", "quantity": "2", "unitPrice": "2500", "category": "room_hire"},
				{"description": "Lunch", "quantity": "100", "unitPrice": "45", "category": "food_beverage"},
			},
		}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decodeData(t, rec, &proposal)

	rec = s.do(http.MethodPost, "/api/bookings", token, map[string]interface{}{
		"proposalId": proposal["id"],
		"venueId":    venue["id"],
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decodeData(t, rec, &booking)
	assert.Equal(t, "draft", booking["status"])
	assert.True(t, decimal.RequireFromString("9500").Equal(decimal.RequireFromString(booking["totalValue"].(string))))
	assert.True(t, decimal.RequireFromString("950").Equal(decimal.RequireFromString(booking["commissionAmount"].(string))))
	return booking["id"].(string)
}

func TestBookingStatusTransitions(t *testing.T) {
	s := newTestServer(t, nil)
	_, token := s.user("ana@agency.example", models.RoleConsultant)
	id := seedBooking(t, s, token)
	path := "/api/bookings/" + id + "/status"

	rec := s.do(http.MethodPatch, path, token, map[string]string{"status": "confirmed"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", env.Error.Code)
	assert.Equal(t, "status", env.Error.Field)
	var details map[string]string
	require.NoError(t, json.Unmarshal(env.Error.Details, &details))
	assert.Equal(t, map[string]string{"from": "draft", "to": "confirmed"}, details)

	rec = s.do(http.MethodPatch, path, token, map[string]string{"status": "proposal_sent"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var booking map[string]interface{}
	decodeData(t, rec, &booking)
	assert.Equal(t, "proposal_sent", booking["status"])

	rec = s.do(http.MethodPatch, path, token, map[string]string{"status": "draft"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPatch, path, token, map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingRequiresJSON(t *testing.T) {
	s := newTestServer(t, nil)
	_, token := s.user("ana@agency.example", models.RoleConsultant)

	rec := s.do(http.MethodPost, "/api/bookings", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
