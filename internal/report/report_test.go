package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/dataset"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/riskerr"
)

const messagesCSV = `message_id,date,candidate_name_norm_simple,text,risk_label,heuristic_score,cluster_id
1,2024-03-01 09:00:00,alice,"guaranteed returns
join now",high,8,c1
2,2024-03-01 10:00:00,bob,market update,low,1,c2
3,2024-03-02 11:00:00,alice,double your money,High,7.5,c1
4,,carol,insider tip,high,,c3
5,2024-03-02 12:00:00,bob,weekly digest,medium,3,c2
`

func messagesTable(t *testing.T) *dataset.Table {
	t.Helper()
	table, err := dataset.Parse("messages.csv", strings.NewReader(messagesCSV))
	require.NoError(t, err)
	return table
}

func testGenerator(sampleSize, top int) *Generator {
	g := NewGenerator(model.ReportConfig{SampleSize: sampleSize, TopClusters: top, PreviewChars: 10})
	g.clock = func() time.Time { return time.Date(2024, 3, 5, 14, 7, 0, 0, time.Local) }
	return g
}

func TestGenerator_Build(t *testing.T) {
	r, err := testGenerator(2, 10).Build(Input{
		Messages: messagesTable(t),
		Alerts:   []model.Alert{{MessageID: "1"}, {MessageID: "3"}},
		FeedPath: "alerts_feed.csv",
	})
	require.NoError(t, err)

	assert.Equal(t, Title, r.Title)
	assert.Equal(t, model.Overview{Messages: 5, Candidates: 3, Clusters: 3, HighRisk: 3}, r.Overview)
	assert.Equal(t, 2, r.RecentAlerts)
	assert.Equal(t, "alerts_feed.csv", r.Sources.Feed)
	assert.Empty(t, r.Sources.Clusters)

	require.NotEmpty(t, r.Distribution)
	assert.Equal(t, model.RiskHigh, r.Distribution[0].Label)
	assert.Equal(t, 3, r.Distribution[0].Count)

	require.Len(t, r.Samples, 2)
	assert.Equal(t, "1", r.Samples[0].MessageID)
	assert.Equal(t, "guaranteed...", r.Samples[0].Excerpt)
	assert.Equal(t, "3", r.Samples[1].MessageID)

	// derived clusters: c1 and c3 are fully high risk, c2 has none
	require.Len(t, r.TopClusters, 3)
	assert.Equal(t, "c1", r.TopClusters[0].ClusterID)
	assert.Equal(t, "c2", r.TopClusters[2].ClusterID)

	require.Len(t, r.DailyHighRisk, 2)
}

func TestGenerator_Build_UsesClusterSummary(t *testing.T) {
	clusters := dataset.NewTable("clusters.csv",
		[]string{"cluster_id", "n_messages", "high_ratio", "canonical_template"},
		[][]string{
			{"c9", "40", "0.1", "weekly <X>"},
			{"c8", "12", "0.9", "join <URL>"},
		})

	r, err := testGenerator(5, 1).Build(Input{Messages: messagesTable(t), Clusters: clusters})
	require.NoError(t, err)

	assert.Equal(t, "clusters.csv", r.Sources.Clusters)
	require.Len(t, r.TopClusters, 1)
	assert.Equal(t, "c8", r.TopClusters[0].ClusterID)
}

func TestGenerator_Build_SchemaError(t *testing.T) {
	table := dataset.NewTable("bad.csv", []string{"message_id", "text"}, nil)

	_, err := testGenerator(5, 10).Build(Input{Messages: table})
	require.Error(t, err)
	assert.Equal(t, "schema", riskerr.Kind(err))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short...", Excerpt("short", 300))
	assert.Equal(t, "a b...", Excerpt("a\r\nb", 300))
	assert.Equal(t, "héll...", Excerpt("héllo world", 4))
}

func TestBar(t *testing.T) {
	assert.Equal(t, "#####.....", Bar(0.5, 10))
	assert.Equal(t, "..........", Bar(-1, 10))
	assert.Equal(t, "##########", Bar(3, 10))
}

func TestRenderer_Write(t *testing.T) {
	r, err := testGenerator(5, 10).Build(Input{Messages: messagesTable(t)})
	require.NoError(t, err)
	r.TopClusters = append(r.TopClusters, model.ClusterSummary{ClusterID: "x|y", HighRatio: nanRatio()})

	dir := filepath.Join(t.TempDir(), "reports")
	mdPath, jsonPath, err := NewRenderer().Write(dir, r)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "risk_summary_20240305_1407.md"), mdPath)
	assert.Equal(t, filepath.Join(dir, "risk_summary_20240305_1407.json"), jsonPath)

	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "# SEBI Telegram Risk Report")
	assert.Contains(t, string(md), "| High-risk messages | 3 |")
	assert.Contains(t, string(md), "**alice** (2024-03-01 09:00:00) - Score 8")
	assert.Contains(t, string(md), "**carol** (unknown date) - Score n/a")
	assert.Contains(t, string(md), `x\|y`)

	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, Title, decoded["title"])

	top := decoded["top_clusters"].([]any)
	last := top[len(top)-1].(map[string]any)
	assert.Nil(t, last["high_ratio"])
}

func TestRenderer_Write_Unwritable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	r, err := testGenerator(5, 10).Build(Input{Messages: messagesTable(t)})
	require.NoError(t, err)

	_, _, err = NewRenderer().Write(filepath.Join(blocker, "reports"), r)
	require.Error(t, err)
	assert.Equal(t, "storage", riskerr.Kind(err))
}

func TestRenderSummary(t *testing.T) {
	r, err := testGenerator(5, 10).Build(Input{Messages: messagesTable(t)})
	require.NoError(t, err)

	var buf bytes.Buffer
	NewRenderer().RenderSummary(&buf, r)

	out := buf.String()
	assert.Contains(t, out, Title)
	assert.Contains(t, out, "high-risk")
	assert.Contains(t, out, "c1")
}

func nanRatio() float64 {
	return model.ParseScore("")
}
