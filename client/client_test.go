package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unigoals/internal/goalengine"
	"unigoals/internal/models"
)

func TestListParsesPartition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/goals/", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "330", r.URL.Query().Get("timezoneOffset"))
		assert.Equal(t, "debt", r.URL.Query().Get("filter"))

		json.NewEncoder(w).Encode(map[string]any{
			"debtGoals":    []map[string]any{{"text": "Pay rent", "isDebt": true}},
			"regularGoals": []map[string]any{{"text": "Water plants"}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	list, err := c.List(context.Background(), ListOptions{
		Filter:                goalengine.FilterDebt,
		TimezoneOffsetMinutes: 330,
	})
	require.NoError(t, err)

	require.Len(t, list.Debt, 1)
	require.Len(t, list.Regular, 1)
	assert.Equal(t, "Pay rent", list.Debt[0].Text)

	all := list.All()
	assert.Len(t, all, 2)
	assert.Equal(t, "Pay rent", all[0].Text)
}

func TestCreateValidatesBeforeRequest(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	_, err := c.Create(context.Background(), models.GoalPayload{Text: "   "}, 0)

	var verr *goalengine.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "text", verr.Field)
	assert.Zero(t, requests, "a validation failure must never reach the boundary")
}

func TestUpdateStaleIDReturnsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Goal not found"})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	_, err := c.Update(context.Background(), "dead-beef", models.GoalPayload{Text: "x"}, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	err = c.Delete(context.Background(), "dead-beef")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServerFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Failed to create goal"})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	_, err := c.Create(context.Background(), models.GoalPayload{Text: "x"}, 0)

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusInternalServerError, terr.Status)
	assert.Contains(t, terr.Error(), "Failed to create goal")
}

func TestNetworkFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := New(srv.URL, "tok")
	_, err := c.List(context.Background(), ListOptions{})

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Zero(t, terr.Status)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestDeleteSendsNoBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/goals/abc", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	require.NoError(t, c.Delete(context.Background(), "abc"))
}

func TestErrorsKeepCausesDistinct(t *testing.T) {
	// NotFound and TransportError present the same to the user, but stay
	// distinguishable for callers that need to know.
	cause := errors.New("boom")
	terr := &TransportError{Op: "update", Err: cause}
	assert.ErrorIs(t, terr, cause)
	assert.False(t, errors.Is(terr, ErrNotFound))
}
