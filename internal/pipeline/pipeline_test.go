package pipeline

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/dataset"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/detect"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/feed"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/notify"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/riskerr"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/seen"
)

const fiveRows = "message_id,date,candidate_name_norm_simple,text,risk_label,heuristic_score,cluster_id\n" +
	"A,2024-01-02 09:00:00,acme,double your money,high,0.9,3\n" +
	"C,2024-01-03 09:00:00,acme,meeting at 5,low,0.1,1\n" +
	"B,2024-01-04 09:00:00,beta,insider tip,HIGH,0.8,3\n" +
	"D,2024-01-05 09:00:00,gamma,buy now,medium,0.99,2\n" +
	"E,,delta,unknown,other,0.95,4\n"

type recordingChannel struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingChannel) Name() string { return "recorder" }

func (r *recordingChannel) Send(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, n.Alert.MessageID)
	return nil
}

// flakyFeed fails the first appends and then delegates
type flakyFeed struct {
	next  FeedWriter
	fails int
	calls int
}

func (f *flakyFeed) Append(alerts []model.Alert) (int, error) {
	f.calls++
	if f.fails > 0 {
		f.fails--
		return 0, riskerr.NewStorageError("write feed", "test", errors.New("disk full"))
	}
	return f.next.Append(alerts)
}

type env struct {
	dir      string
	input    string
	feedPath string
	seen     *seen.LayeredStore
	feed     *feed.Store
}

func newEnv(t *testing.T, input string) *env {
	t.Helper()
	dir := t.TempDir()
	e := &env{
		dir:      dir,
		input:    filepath.Join(dir, "messages.csv"),
		feedPath: filepath.Join(dir, "reports", "alerts_feed.csv"),
	}
	require.NoError(t, os.WriteFile(e.input, []byte(input), 0644))

	store, err := seen.New(model.SeenConfig{Backend: "feed", MemoryTTL: time.Hour}, e.feedPath, "")
	require.NoError(t, err)
	e.seen = store
	e.feed = feed.NewStore(e.feedPath)
	return e
}

func (e *env) pipeline(channels []notify.Channel, fw FeedWriter) *Pipeline {
	opts := notify.DefaultDispatcherOptions()
	opts.RatePerSecond = 0
	d := notify.NewDispatcher(channels, zap.NewNop(), opts)
	if fw == nil {
		fw = e.feed
	}
	return NewPipeline(e.input, dataset.NewLoader(nil, "", 0), detect.NewDetector(), d, fw, e.seen, zap.NewNop())
}

func alertIDs(alerts []model.Alert) []string {
	ids := make([]string, 0, len(alerts))
	for _, a := range alerts {
		ids = append(ids, a.MessageID)
	}
	return ids
}

func TestRunCycle_TwoCycles(t *testing.T) {
	e := newEnv(t, fiveRows)
	ch := &recordingChannel{}
	p := e.pipeline([]notify.Channel{ch}, nil)
	ctx := context.Background()

	first, err := p.RunCycle(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, first.CycleID)
	assert.Equal(t, 5, first.Rows)
	assert.Equal(t, []string{"B", "A"}, alertIDs(first.Alerts))
	assert.Equal(t, 2, first.Written)
	assert.Equal(t, []string{"B", "A"}, ch.ids)

	for _, id := range []string{"A", "B"} {
		found, err := e.seen.Contains(ctx, id)
		require.NoError(t, err)
		assert.True(t, found, id)
	}
	rows, err := e.feed.Read()
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	second, err := p.RunCycle(ctx)
	require.NoError(t, err)
	assert.Empty(t, second.Alerts)
	assert.NotEqual(t, first.CycleID, second.CycleID)

	rows, err = e.feed.Read()
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Len(t, ch.ids, 2)
}

func TestRunCycle_SurvivesRestart(t *testing.T) {
	e := newEnv(t, fiveRows)
	_, err := e.pipeline(nil, nil).RunCycle(context.Background())
	require.NoError(t, err)

	// A new process rebuilds its seen-set from the feed.
	restarted, err := seen.New(model.SeenConfig{Backend: "feed", MemoryTTL: time.Hour}, e.feedPath, "")
	require.NoError(t, err)
	e.seen = restarted

	result, err := e.pipeline(nil, nil).RunCycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Alerts)
}

func TestRunCycle_NewRowsOnly(t *testing.T) {
	e := newEnv(t, fiveRows)
	p := e.pipeline(nil, nil)
	ctx := context.Background()

	_, err := p.RunCycle(ctx)
	require.NoError(t, err)

	more := fiveRows + "F,2024-01-06 09:00:00,zeta,pump alert,high,0.7,5\n"
	require.NoError(t, os.WriteFile(e.input, []byte(more), 0644))

	result, err := p.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"F"}, alertIDs(result.Alerts))

	rows, err := e.feed.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "F"}, alertIDs(rows))
}

func TestRunCycle_SchemaErrorSkipsCycle(t *testing.T) {
	e := newEnv(t, "message_id,text\nA,hello\n")
	ch := &recordingChannel{}

	result, err := e.pipeline([]notify.Channel{ch}, nil).RunCycle(context.Background())
	require.Error(t, err)
	assert.Equal(t, "schema", riskerr.Kind(err))
	assert.Empty(t, result.Alerts)
	assert.Empty(t, ch.ids)
	_, statErr := os.Stat(e.feedPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunCycle_MissingInput(t *testing.T) {
	e := newEnv(t, fiveRows)
	require.NoError(t, os.Remove(e.input))

	_, err := e.pipeline(nil, nil).RunCycle(context.Background())
	require.Error(t, err)
	assert.Equal(t, "storage", riskerr.Kind(err))
}

func TestRunCycle_FeedFailureDoesNotResend(t *testing.T) {
	e := newEnv(t, fiveRows)
	ch := &recordingChannel{}
	dead := &flakyFeed{next: e.feed, fails: 1000}
	p := e.pipeline([]notify.Channel{ch}, dead)
	ctx := context.Background()

	_, err := p.RunCycle(ctx)
	require.Error(t, err)
	assert.Equal(t, "storage", riskerr.Kind(err))

	for i := 0; i < 2; i++ {
		result, err := p.RunCycle(ctx)
		require.NoError(t, err)
		assert.Empty(t, result.Alerts)
	}
	assert.Equal(t, []string{"B", "A"}, ch.ids, "each alert is sent at most once")
	assert.Equal(t, 1, dead.calls)

	// Durable state did not advance: a restarted process starts from the feed.
	restarted, err := seen.New(model.SeenConfig{Backend: "feed", MemoryTTL: time.Hour}, e.feedPath, "")
	require.NoError(t, err)
	found, err := restarted.Contains(ctx, "A")
	require.NoError(t, err)
	assert.False(t, found)
	_, statErr := os.Stat(e.feedPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunCycle_FeedRecoversForNewRows(t *testing.T) {
	e := newEnv(t, fiveRows)
	ch := &recordingChannel{}
	p := e.pipeline([]notify.Channel{ch}, &flakyFeed{next: e.feed, fails: 1})
	ctx := context.Background()

	_, err := p.RunCycle(ctx)
	require.Error(t, err)

	more := fiveRows + "F,2024-01-06 09:00:00,zeta,pump alert,high,0.7,5\n"
	require.NoError(t, os.WriteFile(e.input, []byte(more), 0644))

	result, err := p.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"F"}, alertIDs(result.Alerts))
	assert.Equal(t, 1, result.Written)
	assert.Equal(t, []string{"B", "A", "F"}, ch.ids)

	rows, err := e.feed.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"F"}, alertIDs(rows))
}

// A dead SMTP server must not stop the webhook or the feed write.
func TestRunCycle_ChannelIndependence(t *testing.T) {
	var hits int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().(*net.TCPAddr)
	require.NoError(t, l.Close())

	email, err := notify.NewEmailChannel(notify.EmailConfig{
		Host:    addr.IP.String(),
		Port:    addr.Port,
		From:    "alerts@example.com",
		To:      []string{"ops@example.com"},
		Timeout: 2 * time.Second,
	})
	require.NoError(t, err)
	webhook, err := notify.NewWebhookChannel(srv.URL, time.Second, nil, "")
	require.NoError(t, err)

	e := newEnv(t, fiveRows)
	result, err := e.pipeline([]notify.Channel{email, webhook}, nil).RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Delivery.Delivered)
	assert.Equal(t, 2, result.Delivery.Failed())
	assert.Equal(t, 2, result.Written)
	mu.Lock()
	assert.Equal(t, 2, hits)
	mu.Unlock()
}

func TestPreview_DoesNotMutate(t *testing.T) {
	e := newEnv(t, fiveRows)
	ch := &recordingChannel{}
	p := e.pipeline([]notify.Channel{ch}, nil)

	alerts, err := p.Preview(context.Background())
	require.NoError(t, err)
	assert.Len(t, alerts, 2)
	assert.Empty(t, ch.ids)

	_, statErr := os.Stat(e.feedPath)
	assert.True(t, os.IsNotExist(statErr))

	again, err := p.Preview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, alertIDs(alerts), alertIDs(again))
}

type panickingFeed struct{}

func (panickingFeed) Append([]model.Alert) (int, error) { panic("disk on fire") }

func TestRunCycle_PanicIsCountedSeparately(t *testing.T) {
	e := newEnv(t, fiveRows)
	p := e.pipeline(nil, panickingFeed{})

	panics := pollCycles.WithLabelValues("panic")
	oks := pollCycles.WithLabelValues("ok")
	beforePanics, beforeOK := counterValue(t, panics), counterValue(t, oks)

	assert.Panics(t, func() { _, _ = p.RunCycle(context.Background()) })

	assert.Equal(t, beforePanics+1, counterValue(t, panics))
	assert.Equal(t, beforeOK, counterValue(t, oks))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}
