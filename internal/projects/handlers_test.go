package projects_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gotrocks/proportal/internal/projects"
	"github.com/gotrocks/proportal/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	byContractor map[string][]projects.Project
	err          error
}

func (f fakeLister) Active(ctx context.Context, contractorID string) ([]projects.Project, error) {
	return f.byContractor[contractorID], f.err
}

func request(contractorID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/projects/", nil)
	if contractorID == "" {
		return req
	}
	return req.WithContext(utils.WithSession(req.Context(), utils.SessionData{
		UserID:       "u1",
		Role:         "foreman",
		ContractorID: contractorID,
	}))
}

func TestListProjects_ScopedToContractor(t *testing.T) {
	store := fakeLister{byContractor: map[string][]projects.Project{
		"c1": {{ID: "p1", Name: "Spring Creek Subdivision Ph3", PO: "PO-2025-0512", Status: projects.StatusActive}},
		"c2": {{ID: "p2", Name: "Other", Status: projects.StatusActive}},
	}}

	rec := httptest.NewRecorder()
	projects.ListProjects(store)(rec, request("c1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Projects []projects.Project `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Projects, 1)
	assert.Equal(t, "PO-2025-0512", body.Projects[0].PO)
}

func TestListProjects_EmptyIsArray(t *testing.T) {
	rec := httptest.NewRecorder()
	projects.ListProjects(fakeLister{})(rec, request("c9"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"projects":[]}`, rec.Body.String())
}

func TestListProjects_Errors(t *testing.T) {
	rec := httptest.NewRecorder()
	projects.ListProjects(fakeLister{})(rec, request(""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	projects.ListProjects(fakeLister{err: errors.New("boom")})(rec, request("c1"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
