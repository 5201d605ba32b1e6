package prom

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/advgo/attack"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return string(body)
}

func TestCollector_RecordSample(t *testing.T) {
	c, err := New(nil)
	require.NoError(t, err)

	c.RecordSample(attack.StatusCompleted, true, 100, 250*time.Millisecond, nil)
	c.RecordSample(attack.StatusCompleted, true, 150, 100*time.Millisecond, nil)
	c.RecordSample(attack.StatusFailed, false, 10, time.Millisecond, errors.New("boom"))

	body := scrape(t, c)

	assert.Contains(t, body, `advgo_samples_total{outcome="success",status="Completed"} 2`)
	assert.Contains(t, body, `advgo_samples_total{outcome="failure",status="Failed"} 1`)
	assert.Contains(t, body, "advgo_sample_errors_total 1")
	assert.Contains(t, body, "advgo_oracle_queries_total 260")
	assert.Contains(t, body, `advgo_sample_duration_seconds_count{outcome="success"} 2`)
	assert.Contains(t, body, "advgo_sample_queries_count 3")
}

func TestCollector_RecordLabelResolution(t *testing.T) {
	c, err := New(nil)
	require.NoError(t, err)

	c.RecordLabelResolution(3, 5*time.Millisecond, nil)
	c.RecordLabelResolution(2, time.Millisecond, errors.New("oracle down"))

	body := scrape(t, c)

	assert.Contains(t, body, "advgo_label_resolutions_total 5")
	assert.Contains(t, body, "advgo_label_resolution_errors_total 1")
}

func TestCollector_RecordGenerate(t *testing.T) {
	c, err := New(nil)
	require.NoError(t, err)

	c.RecordGenerate(10, 2, 3*time.Second)
	c.RecordGenerate(5, 0, time.Second)

	body := scrape(t, c)

	assert.Contains(t, body, "advgo_generate_runs_total 2")
	assert.Contains(t, body, "advgo_generate_duration_seconds_count 2")
}

func TestNew_ExternalRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()

	c, err := New(reg)
	require.NoError(t, err)
	assert.Nil(t, c.Handler())

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)

	// Registering the same metric names twice must fail.
	_, err = New(reg)
	assert.Error(t, err)
}

func TestCollector_Namespace(t *testing.T) {
	c, err := New(nil, func(o *Options) {
		o.Namespace = "experiment"
	})
	require.NoError(t, err)

	c.RecordSample(attack.StatusCompleted, true, 1, time.Millisecond, nil)

	body := scrape(t, c)

	assert.Contains(t, body, "experiment_samples_total")
	assert.NotContains(t, body, "advgo_samples_total")
}
