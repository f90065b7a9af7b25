package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

type matchOutput struct {
	Count int `json:"count"`
	Matches []struct {
		ContractorID string  `json:"contractorId"`
		TotalScore   float64 `json:"totalScore"`
	} `json:"matches"`
	SearchCriteria struct {
		MaxResults int `json:"maxResults"`
	} `json:"searchCriteria"`
}

func TestSimulate(t *testing.T) {
	out, err := run(t, "simulate", "sr-100", "--fixtures", "testdata/fixtures.json")
	require.NoError(t, err)

	var got matchOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, "c-ana", got.Matches[0].ContractorID)
	assert.GreaterOrEqual(t, got.Matches[0].TotalScore, got.Matches[1].TotalScore)
	assert.Equal(t, 5, got.SearchCriteria.MaxResults)
}

func TestSimulate_Overrides(t *testing.T) {
	out, err := run(t, "simulate", "sr-100", "-f", "testdata/fixtures.json", "-o", `{"maxResults":1}`)
	require.NoError(t, err)

	var got matchOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, 1, got.SearchCriteria.MaxResults)
}

func TestSimulate_Errors(t *testing.T) {
	_, err := run(t, "simulate", "sr-100", "-f", "testdata/fixtures.json", "-o", `{"maxResults":`)
	assert.Error(t, err)

	_, err = run(t, "simulate", "sr-100", "-f", "testdata/fixtures.json", "-o", `{"maxResults":50}`)
	assert.Error(t, err)

	_, err = run(t, "simulate", "sr-404", "-f", "testdata/fixtures.json")
	assert.Error(t, err)

	_, err = run(t, "simulate")
	assert.Error(t, err)
}

func TestMatchWithConfig(t *testing.T) {
	out, err := run(t, "--config", "testdata/config.yaml", "match", "sr-100")
	require.NoError(t, err)

	var got matchOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 2, got.Count)
}

func TestAssignAndRevoke(t *testing.T) {
	// Each invocation reloads the fixtures, so state does not carry over.
	out, err := run(t, "--config", "testdata/config.yaml", "assign", "sr-100", "c-ben", "--actor", "emp-1")
	require.NoError(t, err)
	assert.Contains(t, out, `"serviceRequestStatus": "assigned"`)

	_, err = run(t, "--config", "testdata/config.yaml", "revoke", "sr-100", "--actor", "emp-1")
	assert.Error(t, err, "fresh fixtures have no assignment to revoke")

	_, err = run(t, "--config", "testdata/config.yaml", "assign", "sr-100", "c-ben", "--actor", "bot", "--role", "client")
	assert.Error(t, err)

	_, err = run(t, "--config", "testdata/config.yaml", "assign", "sr-100", "c-ben")
	assert.Error(t, err, "--actor is required")
}

func TestMigrate_NothingConfigured(t *testing.T) {
	_, err := run(t, "--config", "testdata/config.yaml", "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to migrate")
}
