package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/goliatone/go-insights/components/insights"
)

func TestNextTabWraps(t *testing.T) {
	analysis := &insights.AnalysisView{Tabs: []insights.AnalysisTabView{
		{Name: "reclamacoes", Active: true},
		{Name: "preditiva"},
	}}
	assert.Equal(t, "preditiva", nextTab(analysis))

	analysis.Tabs[0].Active, analysis.Tabs[1].Active = false, true
	assert.Equal(t, "reclamacoes", nextTab(analysis))

	assert.Empty(t, nextTab(nil))
	assert.Empty(t, nextTab(&insights.AnalysisView{Name: "sellers"}))
}
