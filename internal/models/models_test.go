package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to RequestStatus
		want     bool
	}{
		{RequestPending, RequestAssigned, true},
		{RequestAssigned, RequestPending, true},
		{RequestAssigned, RequestAssigned, false},
		{RequestCompleted, RequestPending, false},
		{RequestInProgress, RequestFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTagSet_JSON(t *testing.T) {
	var s TagSet
	require.NoError(t, json.Unmarshal([]byte(`["IBCLC","CPR"," ","IBCLC"]`), &s))

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.HasAll("CPR", "IBCLC"))
	assert.False(t, s.HasAny("DONA_certified"))

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `["CPR","IBCLC"]`, string(out))
}

func TestWeeklySchedule_JSON(t *testing.T) {
	raw := `{"schedule":{"Monday":{"available":true,"startTime":9,"endTime":17.5}},"blackoutDates":["2024-03-04"]}`

	var s WeeklySchedule
	require.NoError(t, json.Unmarshal([]byte(raw), &s))

	w, ok := s.Window(time.Monday)
	require.True(t, ok)
	assert.Equal(t, 17.5, w.EndHour)
	assert.True(t, s.IsBlackedOut(time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)))
	assert.False(t, s.IsBlackedOut(time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)))

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"monday"`)
}

func TestWeeklySchedule_RejectsUnknownDay(t *testing.T) {
	var s WeeklySchedule
	err := json.Unmarshal([]byte(`{"schedule":{"funday":{"available":true}}}`), &s)
	assert.Error(t, err)
}

func TestGeoPointValidate(t *testing.T) {
	assert.NoError(t, GeoPoint{Lat: 40.7, Lng: -74}.Validate())
	assert.Error(t, GeoPoint{Lat: 91, Lng: 0}.Validate())
	assert.Error(t, GeoPoint{Lat: 0, Lng: -181}.Validate())
}

func TestRoleCan(t *testing.T) {
	assert.True(t, RoleEmployee.Can(CapRevokeAssignment))
	assert.False(t, RoleClient.Can(CapCreateAssignment))
	assert.False(t, Role("intruder").Can(CapRunMatching))
}

func TestParseServiceType(t *testing.T) {
	st, err := ParseServiceType(" Birth_Doula ")
	require.NoError(t, err)
	assert.Equal(t, ServiceBirthDoula, st)
	assert.Equal(t, "birth doula", st.Label())

	_, err = ParseServiceType("plumbing")
	assert.Error(t, err)
}
