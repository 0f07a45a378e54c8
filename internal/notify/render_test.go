package notify

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
)

func sampleAlert() model.Alert {
	return model.Alert{
		MessageID:   "m1",
		Timestamp:   time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		Entity:      "acme",
		ClusterID:   "7",
		Score:       0.85,
		Text:        "guaranteed\r\nreturns\nin 3 days\rjoin now",
		GeneratedAt: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestRender(t *testing.T) {
	want := "High-risk message alert\n" +
		"Entity: acme\n" +
		"Cluster: 7\n" +
		"Score: 0.85\n" +
		"Time: 2024-03-01 09:30:00\n" +
		"Preview: guaranteed returns in 3 days join now"
	assert.Equal(t, want, Render(sampleAlert(), 200))
}

func TestRender_MissingValues(t *testing.T) {
	a := sampleAlert()
	a.Timestamp = time.Time{}
	a.Score = math.NaN()

	out := Render(a, 200)
	assert.Contains(t, out, "Time: unknown\n")
	assert.Contains(t, out, "Score: n/a\n")
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name string
		text string
		n    int
		want string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"truncated", "hello world", 5, "hello..."},
		{"newlines", "a\r\nb\nc\rd", 10, "a b c d"},
		{"runes", "₹₹₹₹₹₹", 3, "₹₹₹..."},
		{"default", strings.Repeat("x", 250), 0, strings.Repeat("x", 200) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Preview(tt.text, tt.n))
		})
	}
}
