package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		IncHTTP("GET /listings", 200)
		IncQuote("ok")
		IncBookings()
		IncWebhook("delivered")
		IncEvent("listing_updated")
	})
}

func TestCountersMove(t *testing.T) {
	read := func() float64 {
		var m dto.Metric
		require.NoError(t, webhookDeliveries.WithLabelValues("failed").Write(&m))
		return m.GetCounter().GetValue()
	}

	before := read()
	IncWebhook("failed")
	assert.Equal(t, before+1, read())
}

func TestHTTPCounterByStatus(t *testing.T) {
	read := func(status string) float64 {
		var m dto.Metric
		require.NoError(t, httpRequests.WithLabelValues("GET /listings/{id}", status).Write(&m))
		return m.GetCounter().GetValue()
	}

	ok, missing := read("200"), read("404")
	IncHTTP("GET /listings/{id}", 404)
	assert.Equal(t, ok, read("200"))
	assert.Equal(t, missing+1, read("404"))
}
