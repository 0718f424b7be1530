// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/urbanpulse/urbanpulse/internal/config"
	"github.com/urbanpulse/urbanpulse/internal/dataset"
	"github.com/urbanpulse/urbanpulse/internal/forecast"
	"github.com/urbanpulse/urbanpulse/internal/progress"
	"github.com/urbanpulse/urbanpulse/internal/simstore"
)

// testEnv wires a full API stack on in-memory backends.
type testEnv struct {
	server     *httptest.Server
	forecaster *forecast.Service
	store      *simstore.Store
	bus        *progress.Bus
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	storeCfg := simstore.DefaultConfig()
	storeCfg.InMemory = true
	storeCfg.Path = ""
	storeCfg.SyncWrites = false
	store, err := simstore.Open(storeCfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	loader := dataset.NewLoader()
	bus := progress.NewBus(zerolog.Nop())
	forecaster := forecast.NewService(loader, zerolog.Nop())
	forecaster.SetProgressSink(bus)

	handler := NewHandler(forecaster, store, loader, bus)
	serverCfg := config.ServerConfig{
		AllowedOrigins: []string{"*"},
		RateLimit:      0, // no limiting in tests
	}
	server := httptest.NewServer(NewRouter(handler, serverCfg).Routes())

	t.Cleanup(func() {
		server.Close()
		if err := bus.Close(); err != nil {
			t.Errorf("close bus: %v", err)
		}
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})

	return &testEnv{
		server:     server,
		forecaster: forecaster,
		store:      store,
		bus:        bus,
	}
}

// decodeEnvelope reads and decodes a response body.
func decodeEnvelope(t *testing.T, resp *http.Response) Envelope {
	t.Helper()
	defer resp.Body.Close()

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

// waitTrained polls until the domain reports a committed model.
func (e *testEnv) waitTrained(t *testing.T, d forecast.Domain) {
	t.Helper()

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		if e.forecaster.IsTrained(d) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("domain %s never reached trained state", d)
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	resp, err := http.Get(env.server.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeEnvelope(t, resp)
	if body.Status != "success" {
		t.Errorf("envelope status = %q, want success", body.Status)
	}
}

func TestHealthReportsStoreCounters(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	if _, err := env.store.Append(t.Context(), simstore.Record{Domain: forecast.DomainTraffic, Predicted: 42}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := env.store.Query(t.Context(), "", 10); err != nil {
		t.Fatalf("Query: %v", err)
	}

	resp, err := http.Get(env.server.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	body := decodeEnvelope(t, resp)

	data, ok := body.Data.(map[string]any)
	if !ok {
		t.Fatalf("data = %T, want object", body.Data)
	}
	store, ok := data["store"].(map[string]any)
	if !ok {
		t.Fatalf("store = %T, want object", data["store"])
	}
	if appends, _ := store["appends"].(float64); appends < 1 {
		t.Errorf("appends = %v, want >= 1", store["appends"])
	}
	if reads, _ := store["reads"].(float64); reads < 1 {
		t.Errorf("reads = %v, want >= 1", store["reads"])
	}
}

func TestListModelsInitiallyUntrained(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	resp, err := http.Get(env.server.URL + "/api/v1/models")
	if err != nil {
		t.Fatalf("GET /models: %v", err)
	}
	body := decodeEnvelope(t, resp)

	raw, _ := json.Marshal(body.Data)
	var statuses []ModelStatus
	if err := json.Unmarshal(raw, &statuses); err != nil {
		t.Fatalf("decode model statuses: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("got %d model statuses, want 2", len(statuses))
	}
	for _, s := range statuses {
		if s.State != "untrained" {
			t.Errorf("domain %s state = %q, want untrained", s.Domain, s.State)
		}
		if s.FeatureCount != forecast.FeatureCount {
			t.Errorf("domain %s feature count = %d, want %d", s.Domain, s.FeatureCount, forecast.FeatureCount)
		}
	}
}

func TestGetModelUnknownDomain(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	resp, err := http.Get(env.server.URL + "/api/v1/models/water")
	if err != nil {
		t.Fatalf("GET /models/water: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	body := decodeEnvelope(t, resp)
	if body.Error == nil || body.Error.Code != CodeUnknownDomain {
		t.Errorf("error = %+v, want code %s", body.Error, CodeUnknownDomain)
	}
}

func TestPredictBeforeTraining(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	payload := []byte(`{"domain":"traffic","features":[12,3,0],"current":50}`)
	resp, err := http.Post(env.server.URL+"/api/v1/predict", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /predict: %v", err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	body := decodeEnvelope(t, resp)
	if body.Error == nil || body.Error.Code != CodeModelNotTrained {
		t.Errorf("error = %+v, want code %s", body.Error, CodeModelNotTrained)
	}
}

func TestPredictValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	tests := []struct {
		name    string
		payload string
	}{
		{name: "malformed json", payload: `{`},
		{name: "missing domain", payload: `{"features":[1,2,3]}`},
		{name: "bad domain", payload: `{"domain":"water","features":[1,2,3]}`},
		{name: "wrong feature count", payload: `{"domain":"traffic","features":[1,2]}`},
		{name: "negative current", payload: `{"domain":"traffic","features":[1,2,3],"current":-5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(env.server.URL+"/api/v1/predict", "application/json",
				bytes.NewReader([]byte(tt.payload)))
			if err != nil {
				t.Fatalf("POST /predict: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestTrainPredictAndLogFlow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	resp, err := http.Post(env.server.URL+"/api/v1/models/traffic/train", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /train: %v", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("train status = %d, want 202", resp.StatusCode)
	}
	resp.Body.Close()

	env.waitTrained(t, forecast.DomainTraffic)

	// Model endpoint reflects the new state.
	resp, err = http.Get(env.server.URL + "/api/v1/models/traffic")
	if err != nil {
		t.Fatalf("GET /models/traffic: %v", err)
	}
	body := decodeEnvelope(t, resp)
	raw, _ := json.Marshal(body.Data)
	var status ModelStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		t.Fatalf("decode model status: %v", err)
	}
	if status.State != "trained" {
		t.Fatalf("state = %q, want trained", status.State)
	}

	// Predict: surge scenario so advisories fire, then the run is logged.
	payload := []byte(`{"domain":"traffic","features":[17,4,1],"current":10,"scenario":"evening rush"}`)
	resp, err = http.Post(env.server.URL+"/api/v1/predict", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /predict: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("predict status = %d, want 200", resp.StatusCode)
	}
	body = decodeEnvelope(t, resp)
	raw, _ = json.Marshal(body.Data)
	var pr PredictResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		t.Fatalf("decode predict response: %v", err)
	}
	if pr.Predicted < 0 || pr.Predicted > 100 {
		t.Errorf("predicted = %d, want within [0,100]", pr.Predicted)
	}
	if pr.Advisories == nil {
		t.Error("advisories = nil, want non-nil list")
	}
	if pr.RecordID == 0 {
		t.Error("record_id = 0, want assigned id")
	}

	// The run appears in the simulation log.
	resp, err = http.Get(env.server.URL + "/api/v1/simulations?domain=traffic")
	if err != nil {
		t.Fatalf("GET /simulations: %v", err)
	}
	body = decodeEnvelope(t, resp)
	if body.Metadata.Count != 1 {
		t.Errorf("simulation count = %d, want 1", body.Metadata.Count)
	}
	raw, _ = json.Marshal(body.Data)
	var records []simstore.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		t.Fatalf("decode records: %v", err)
	}
	if len(records) != 1 || records[0].ID != pr.RecordID {
		t.Fatalf("records = %+v, want the logged prediction", records)
	}
	if records[0].Scenario != "evening rush" {
		t.Errorf("scenario = %q, want %q", records[0].Scenario, "evening rush")
	}
}

func TestTrainConflictWhileTraining(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	// Hold the energy domain in the training state directly.
	if err := env.forecaster.Registry().BeginTraining(forecast.DomainEnergy); err != nil {
		t.Fatalf("BeginTraining() error = %v", err)
	}
	defer env.forecaster.Registry().AbortTraining(forecast.DomainEnergy)

	resp, err := http.Post(env.server.URL+"/api/v1/models/energy/train", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /train: %v", err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	body := decodeEnvelope(t, resp)
	if body.Error == nil || body.Error.Code != CodeTrainingInProgress {
		t.Errorf("error = %+v, want code %s", body.Error, CodeTrainingInProgress)
	}
}

func TestSimulationsQueryValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	for _, path := range []string{
		"/api/v1/simulations?limit=0",
		"/api/v1/simulations?limit=9999",
		"/api/v1/simulations?limit=abc",
		"/api/v1/simulations?domain=water",
		"/api/v1/simulations/recent?hours=0",
		"/api/v1/simulations/recent?hours=10000",
		"/api/v1/simulations/recent?hours=soon",
	} {
		resp, err := http.Get(env.server.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", path, resp.StatusCode)
		}
	}
}

func TestClearSimulations(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := t.Context()

	if _, err := env.store.Append(ctx, simstore.Record{Domain: forecast.DomainTraffic, Predicted: 70}); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	req, err := http.NewRequest(http.MethodDelete, env.server.URL+"/api/v1/simulations", nil)
	if err != nil {
		t.Fatalf("build DELETE request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE /simulations: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	records, err := env.store.Query(ctx, "", 10)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("store holds %d records after clear, want 0", len(records))
	}
}

func TestDatasetSummaryEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	resp, err := http.Get(env.server.URL + "/api/v1/datasets/energy/summary")
	if err != nil {
		t.Fatalf("GET /datasets/energy/summary: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeEnvelope(t, resp)

	raw, _ := json.Marshal(body.Data)
	var sum dataset.Summary
	if err := json.Unmarshal(raw, &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.Domain != forecast.DomainEnergy || sum.SampleCount == 0 {
		t.Errorf("summary = %+v, want populated energy summary", sum)
	}
}
