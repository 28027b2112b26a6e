// Command basic demonstrates attaching telemetry hooks to an HTTP client:
// the default log subscriber plus a Prometheus bridge on one bus, a per-call
// override silencing a single request, and metrics printed at the end.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/beacon-labs/beacon-go/httpclient"
	"github.com/beacon-labs/beacon-go/promsub"
	"github.com/beacon-labs/beacon-go/telemetry"
)

func main() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"users":[]}`)
	}))
	defer server.Close()

	bus := telemetry.NewBus()
	if err := telemetry.AttachLogger(bus); err != nil {
		log.Fatal(err)
	}

	reg := prometheus.NewRegistry()
	if err := promsub.Attach(bus, reg); err != nil {
		log.Fatal(err)
	}

	client, err := httpclient.New(
		httpclient.WithBus(bus),
		httpclient.WithTelemetry(map[string]any{
			"metadata": map[string]any{"service": "example"},
		}),
		httpclient.WithRequestInterceptor(httpclient.UserAgentInterceptor("beacon-example/1.0")),
	)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	// A normal request: four log lines, one correlation hash.
	resp, err := client.Get(ctx, server.URL+"/users")
	if err != nil {
		log.Fatal(err)
	}
	discard(resp)

	// A silenced request: no events for this call only.
	quiet := httpclient.WithCallOptions(ctx, false)
	resp, err = client.Get(quiet, server.URL+"/users")
	if err != nil {
		log.Fatal(err)
	}
	discard(resp)

	families, err := reg.Gather()
	if err != nil {
		log.Fatal(err)
	}
	for _, mf := range families {
		fmt.Printf("%s: %d series\n", mf.GetName(), len(mf.GetMetric()))
	}
}

func discard(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
