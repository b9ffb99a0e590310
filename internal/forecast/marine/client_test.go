package marine_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pribilofwx/forecastd/internal/forecast/marine"
	"github.com/pribilofwx/forecastd/internal/provider/resilience"
)

func marineTestClient(productURL string) *marine.Client {
	return marine.NewClient(marine.ClientConfig{
		ProductURL: productURL,
		HTTPClient: resilience.NewClient(resilience.ClientConfig{
			Name:      "marine-test",
			UserAgent: "forecastd-test",
		}),
	})
}

func TestClient_FetchAndParse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleBulletin))
	}))
	defer server.Close()

	client := marineTestClient(server.URL)

	periods, err := client.FetchAndParse(context.Background(), "PKZ766")
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, "TONIGHT", periods[0].Name)
	assert.Equal(t, "TUE", periods[1].Name)
}

func TestClient_FetchAndParse_ZoneMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("COASTAL WATERS FORECAST\nNO ZONES TODAY\n"))
	}))
	defer server.Close()

	client := marineTestClient(server.URL)

	_, err := client.FetchAndParse(context.Background(), "PKZ766")
	require.ErrorIs(t, err, marine.ErrZoneNotFound)
}

func TestClient_FetchAndParse_UpstreamDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := marineTestClient(server.URL)

	_, err := client.FetchAndParse(context.Background(), "PKZ766")
	require.Error(t, err)
	assert.NotErrorIs(t, err, marine.ErrZoneNotFound)
}
