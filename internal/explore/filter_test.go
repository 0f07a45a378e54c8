package explore

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
)

func messages() []model.Message {
	ts := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return []model.Message{
		{ID: "1", Entity: "Ravi Kumar", Text: "Guaranteed RETURNS daily", RiskLabel: "high", ClusterID: "7", Timestamp: ts, Score: 9},
		{ID: "2", Entity: "ravi kumar", Text: "market wrap", RiskLabel: "low", ClusterID: "3"},
		{ID: "3", Entity: "Priya", Text: "returns of 200%", RiskLabel: "medium", ClusterID: "7"},
		{ID: "4", Entity: "Priya", Text: "join the vip group", RiskLabel: "High", ClusterID: "12"},
		{ID: "5", Entity: "", Text: "noise", RiskLabel: "unknown", ClusterID: ""},
	}
}

func ids(msgs []model.Message) []string {
	out := []string{}
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func TestFilter_Messages(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no filter", Filter{}, []string{"1", "2", "3", "4", "5"}},
		{"cluster exact", Filter{ClusterID: "7"}, []string{"1", "3"}},
		{"cluster is not a prefix match", Filter{ClusterID: "1"}, []string{}},
		{"candidate substring any case", Filter{Candidate: "RAVI"}, []string{"1", "2"}},
		{"risk set", Filter{Risks: []model.RiskLabel{model.RiskHigh}}, []string{"1", "4"}},
		{"risk set multiple", Filter{Risks: []model.RiskLabel{model.RiskMedium, model.RiskOther}}, []string{"3", "5"}},
		{"keyword any case", Filter{Keyword: "returns"}, []string{"1", "3"}},
		{"combined", Filter{ClusterID: "7", Keyword: "returns", Risks: []model.RiskLabel{model.RiskHigh}}, []string{"1"}},
		{"limit", Filter{Limit: 2}, []string{"1", "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(tt.filter.Messages(messages())))
		})
	}
}

func TestFilter_Alerts(t *testing.T) {
	alerts := []model.Alert{
		{MessageID: "1", Entity: "Ravi Kumar", ClusterID: "7", Text: "Guaranteed returns"},
		{MessageID: "4", Entity: "Priya", ClusterID: "12", Text: "join the vip group"},
	}

	got := Filter{Candidate: "priya"}.Alerts(alerts)
	require.Len(t, got, 1)
	assert.Equal(t, "4", got[0].MessageID)

	assert.Len(t, Filter{Risks: []model.RiskLabel{model.RiskHigh}}.Alerts(alerts), 2)
	assert.Empty(t, Filter{Risks: []model.RiskLabel{model.RiskLow}}.Alerts(alerts))
	assert.Len(t, Filter{Limit: 1}.Alerts(alerts), 1)
}

func TestParseRisks(t *testing.T) {
	got, err := ParseRisks("high, Medium,,")
	require.NoError(t, err)
	assert.Equal(t, []model.RiskLabel{model.RiskHigh, model.RiskMedium}, got)

	got, err = ParseRisks("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseRisks("high,severe")
	assert.ErrorContains(t, err, "severe")
}

func TestCandidate(t *testing.T) {
	st := Candidate(messages(), "ravi")

	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 1, st.High)
	assert.Equal(t, 1, st.Low)
	assert.Zero(t, st.Medium)
	assert.Equal(t, []string{"3", "7"}, st.Clusters)
}

func TestWriteMessagesCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessagesCSV(&buf, messages()[:1]))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.RequiredColumns, rows[0])
	assert.Equal(t, []string{"1", "2024-03-01 09:00:00", "Ravi Kumar", "Guaranteed RETURNS daily", "high", "9", "7"}, rows[1])
}
