package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/admin"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
)

func sampleResult() *admin.Result {
	return &admin.Result{
		Action:      domain.ActionProvision,
		OperationID: "op-1",
		Status:      domain.OperationPartial,
		Report: &domain.Report{Pairs: []domain.PairResult{
			{Language: "en", Config: "content", Index: "content-en", Type: domain.MappingDefaultContent, Created: []string{"content-en"}},
			{Language: "fr", Config: "catalog", Index: "catalog-fr", Type: domain.MappingCustomDeclared, TypeName: "Product", Err: errors.New("boom")},
		}},
		Overview: domain.Overview{
			Cluster: domain.ClusterHealth{ClusterName: "search", Status: domain.HealthGreen, NumberOfNodes: 1},
			Nodes:   []domain.Node{{Name: "node-1", IP: "10.0.0.1", Master: true, Version: "7.17.0"}},
			Indices: []domain.PhysicalIndex{{Name: "content-en", Language: "en", Type: "default", Health: domain.HealthGreen}},
			Errors:  []string{"nodes: timeout"},
		},
	}
}

func TestPrintResult_Table(t *testing.T) {
	var buf bytes.Buffer
	wantErr := errors.New("partial")

	err := printResult(&buf, "table", sampleResult(), wantErr)
	require.ErrorIs(t, err, wantErr)

	out := buf.String()
	assert.Contains(t, out, "provision: partial (operation op-1)")
	assert.Contains(t, out, "catalog-fr")
	assert.Contains(t, out, "custom (Product)")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "node-1")
	assert.Contains(t, out, "warning: nodes: timeout")
}

func TestPrintResult_JSON(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, printResult(&buf, outputJSON, sampleResult(), nil))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "provision", decoded["action"])
	assert.Contains(t, decoded, "overview")
}

func TestPrintResult_NilResultPassesErrorThrough(t *testing.T) {
	var buf bytes.Buffer
	wantErr := errors.New("connect failed")

	err := printResult(&buf, "table", nil, wantErr)
	require.ErrorIs(t, err, wantErr)
	assert.Empty(t, buf.String())
}

func TestDeleteAll_RequiresForce(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"delete-all"})
	cmd.SetOut(&bytes.Buffer{})

	err := cmd.Execute()
	require.ErrorIs(t, err, errNotConfirmed)
}

func TestTokenizer_RequiresTwoArgs(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"tokenizer", "content-en"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	require.Error(t, cmd.Execute())
}
