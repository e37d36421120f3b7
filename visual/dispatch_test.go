package visual

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"data-agent/chart"
	"data-agent/dataset"
)

const networkCSV = `Application_Type,Signal_Strength,Latency,Required_Bandwidth,Allocated_Bandwidth,Resource_Allocation
Video_Call,-75,30,10000,15000,70
Voice_Call,-80,20,100,120,80
Streaming,-85,25,5000,6000,75
Online Gaming,-70,40,2000,2000,90
Online Gaming,-72,50,3000,2500,85
Video_Call,-78,35,9000,9000,60
`

func frameOf(t *testing.T, csv string) *dataset.Frame {
	t.Helper()
	f, err := dataset.LoadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	return f
}

func TestNeedsVisualization(t *testing.T) {
	assert.True(t, NeedsVisualization("Please PLOT the latency"))
	assert.True(t, NeedsVisualization("show a histogram"))
	assert.True(t, NeedsVisualization("Visualize signal strength by application type"))
	assert.False(t, NeedsVisualization("What is the mean latency?"))
}

func TestSelectRules(t *testing.T) {
	f := frameOf(t, networkCSV)
	d := Default()

	cases := []struct {
		query string
		kind  chart.Kind
		title string
	}{
		{"Plot a bar chart of the average bandwidth requirement for Online Gaming", chart.KindBar, "Average Bandwidth Requirement for Online Gaming"},
		{"show me a histogram", chart.KindHistogram, "Histogram of Signal Strength Distribution"},
		{"Visualize the average latency for each application", chart.KindBar, "Average Latency by Application Type"},
		{"plot the maximum average latency", chart.KindBar, "Maximum Average Latency: Online Gaming"},
		{"Latency distribution by application type", chart.KindBox, "Latency Distribution by Application Type"},
		{"Show top applications with high latency", chart.KindBar, "Top Applications with High Latency"},
		{"Plot average resource allocation per application", chart.KindBar, "Average Resource Allocation by Application Type"},
		{"distribution of resource allocation", chart.KindHistogram, "Distribution of Resource Allocation"},
		{"distribution of signal strength", chart.KindHistogram, "Distribution of Signal Strength"},
		{"Visualize signal strength by application type", chart.KindScatter, "Signal Strength by Application Type"},
		{"distribution of application types", chart.KindBar, "Distribution of Application Types"},
		{"What are the most commonly used application types?", chart.KindBar, "Most Commonly Used Application Types"},
		{"relationship between allocated and required bandwidth", chart.KindScatter, "Relationship Between Allocated and Required Bandwidth"},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			spec, err := d.Select(tc.query, f)
			require.NoError(t, err)
			assert.Equal(t, tc.kind, spec.Kind)
			assert.Equal(t, tc.title, spec.Title)
		})
	}
}

func TestSelectRuleData(t *testing.T) {
	f := frameOf(t, networkCSV)
	d := Default()

	spec, err := d.Select("plot a bar chart of the average bandwidth requirement for online gaming", f)
	require.NoError(t, err)
	assert.Equal(t, []string{"Online Gaming"}, spec.Categories)
	assert.InDelta(t, 2500, spec.Values[0], 1e-9)

	spec, err = d.Select("distribution of signal strength", f)
	require.NoError(t, err)
	assert.Equal(t, 20, spec.Bins)
	assert.Len(t, spec.Values, 6)

	spec, err = d.Select("most commonly used application types", f)
	require.NoError(t, err)
	assert.Equal(t, "Count", spec.YLabel)
	assert.Equal(t, []string{"Video_Call", "Online Gaming", "Voice_Call", "Streaming"}, spec.Categories)
	assert.Equal(t, []float64{2, 2, 1, 1}, spec.Values)

	spec, err = d.Select("Visualize signal strength by application type", f)
	require.NoError(t, err)
	assert.Len(t, spec.Categories, 6)
	assert.Len(t, spec.Ys, 6)
}

func TestSelectFirstRuleWins(t *testing.T) {
	f := frameOf(t, networkCSV)
	// 同时命中 histogram 与 distribution of signal strength，取前者
	spec, err := Default().Select("histogram of the distribution of signal strength", f)
	require.NoError(t, err)
	assert.Equal(t, "Histogram of Signal Strength Distribution", spec.Title)
	assert.Zero(t, spec.Bins)
}

func TestSelectSkipsRulesWithMissingColumns(t *testing.T) {
	f := frameOf(t, "Application_Type\nStreaming\nVoice_Call\n")
	_, err := Default().Select("show me a histogram", f)
	assert.ErrorIs(t, err, ErrNoChart)
}

func TestSelectSimilarityFallback(t *testing.T) {
	f := frameOf(t, networkCSV)
	spec, err := Default().Select("chart the spread of latency across apps", f)
	require.NoError(t, err)
	assert.Equal(t, chart.KindBox, spec.Kind)
	assert.Len(t, spec.Groups, 4)
}

func TestDispatchRulesUseQueryWording(t *testing.T) {
	f := frameOf(t, networkCSV)
	d := Default()

	spec, err := d.Dispatch("show a histogram", "Plot the average latency for each application type", f)
	require.NoError(t, err)
	assert.Equal(t, "Histogram of Signal Strength Distribution", spec.Title)

	spec, err = d.Dispatch("plot that again", "chart the spread of latency across apps", f)
	require.NoError(t, err)
	assert.Equal(t, chart.KindBox, spec.Kind)

	_, err = d.MatchRule("chart the spread of latency across apps", f)
	assert.ErrorIs(t, err, ErrNoChart)
}

func TestSelectRecommendFromColumns(t *testing.T) {
	f := frameOf(t, "city,temperature\nA,1\nB,3\nA,5\n")
	d := Default()

	spec, err := d.Select("plot temperature by city", f)
	require.NoError(t, err)
	assert.Equal(t, chart.KindBar, spec.Kind)
	assert.Equal(t, []string{"A", "B"}, spec.Categories)
	assert.Equal(t, []float64{3, 3}, spec.Values)

	spec, err = d.Select("plot temperature", f)
	require.NoError(t, err)
	assert.Equal(t, chart.KindHistogram, spec.Kind)

	spec, err = d.Select("plot city", f)
	require.NoError(t, err)
	assert.Equal(t, chart.KindBar, spec.Kind)
	assert.Equal(t, []float64{2, 1}, spec.Values)

	_, err = d.Select("plot something else", f)
	assert.ErrorIs(t, err, ErrNoChart)
}

func TestSelectRecommendTimeSeries(t *testing.T) {
	raw := frameOf(t, "Timestamp,load\n9/3/2023 10:00,1\n9/3/2023 10:05,2\n")
	f, _ := dataset.Preprocess(raw)

	spec, err := Default().Select("plot load over timestamp", f)
	require.NoError(t, err)
	assert.Equal(t, chart.KindLine, spec.Kind)
	assert.Len(t, spec.Times, 2)
}

func TestSelectEmptyFrame(t *testing.T) {
	_, err := Default().Select("histogram", nil)
	assert.ErrorIs(t, err, ErrNoChart)
}
