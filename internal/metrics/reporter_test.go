package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relaygate/tbucket"
)

func TestPrometheusSinkCountsEvents(t *testing.T) {
	counters := NewEventCounters()
	sink := NewPrometheusSink(counters)

	cfg, err := tbucket.NewConfiguration(time.Hour, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	l := tbucket.NewLimiter("reporter-test", cfg, nil, tbucket.WithEventSink(sink))

	if !l.Acquire(context.Background(), 1) {
		t.Fatal("expected first acquire to succeed")
	}

	// Events reach the sink asynchronously, so poll the scrape output.
	handler := promhttp.HandlerFor(stdprometheus.DefaultGatherer, promhttp.HandlerOpts{})
	want := `tbucket_events_total{limiter="reporter-test",outcome="success"} 1`
	deadline := time.Now().Add(time.Second)
	for {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if strings.Contains(rec.Body.String(), want) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("scrape output does not contain %q", want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestReporterSample(t *testing.T) {
	r := NewReporter()
	cfg, err := tbucket.NewConfiguration(time.Second, 5, 0)
	if err != nil {
		t.Fatal(err)
	}
	l := tbucket.NewLimiter("sample-test", cfg, nil)
	r.Sample(l)
}
