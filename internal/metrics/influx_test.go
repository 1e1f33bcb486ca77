package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JosineyJr/switch_router/internal/structs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type lineCollector struct {
	mu    sync.Mutex
	lines []string
}

func (c *lineCollector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/v2/write" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	body, _ := io.ReadAll(r.Body)
	c.mu.Lock()
	c.lines = append(c.lines, strings.Split(strings.TrimSpace(string(body)), "\n")...)
	c.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (c *lineCollector) contains(prefix string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range c.lines {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}

func TestInfluxWritesPoints(t *testing.T) {
	t.Parallel()

	lc := &lineCollector{}
	srv := httptest.NewServer(lc)
	defer srv.Close()

	i := NewInflux(srv.URL, "token", "org", "bucket", zerolog.Nop())

	i.RecordProbe("https://a", false, 120*time.Millisecond)

	settled := time.Now().UTC()
	i.RecordTransaction(structs.Transaction{
		SequenceNumber: 4,
		TransactionID:  "tx-4",
		Data:           structs.TransactionPayload{Amount: structs.NewAmount("99.5")},
		Status:         structs.StatusFailed,
		SettledAt:      &settled,
	})

	i.Close()

	assert.Eventually(t, func() bool {
		return lc.contains("switch_probes,endpoint=https://a healthy=false,latency_ms=120i") &&
			lc.contains("transactions,endpoint=none,status=FAILED amount=99.5,sequence=4i")
	}, 2*time.Second, 20*time.Millisecond)
}

func TestNopRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder = Nop{}
	r.RecordProbe("https://a", true, time.Millisecond)
	r.RecordTransaction(structs.Transaction{})
}
