package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/akozadaev/study_spots_recommender/internal/models"
	"github.com/akozadaev/study_spots_recommender/internal/recommend"
	"github.com/akozadaev/study_spots_recommender/internal/scoring"
	"github.com/akozadaev/study_spots_recommender/internal/storage"
)

var testNow = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

func testCatalog() *storage.MemoryStorage {
	return storage.NewMemoryStorage(
		models.Spot{ID: "lib-1", Name: "Library Reading Room", Building: "Main Library", Floor: "2", Lat: 55.7558, Lng: 37.6173},
		models.Spot{ID: "cafe-2", Name: "Campus Cafe", Building: "Student Center", Lat: 55.7560, Lng: 37.6180},
	)
}

func newTestServer(t *testing.T, catalog storage.Catalog) http.Handler {
	t.Helper()
	svc := recommend.NewService(catalog, scoring.NewEngine(scoring.DefaultConfig()),
		recommend.WithClock(func() time.Time { return testNow }))
	h := NewHandlers(svc, catalog, Options{MaxLimit: 50, StoreTimeout: time.Second})

	router := mux.NewRouter()
	h.Register(router)
	return Wrap(router)
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp.Error
}

// failingCatalog имитирует недоступное хранилище.
type failingCatalog struct{}

var errUnavailable = errors.New("connection refused")

func (failingCatalog) ListSpots(context.Context) ([]models.Spot, error) { return nil, errUnavailable }
func (failingCatalog) GetSpot(context.Context, string) (models.Spot, error) {
	return models.Spot{}, errUnavailable
}
func (failingCatalog) LatestStatusBySpot(context.Context, []string) (map[string]models.StatusObservation, error) {
	return nil, errUnavailable
}
func (failingCatalog) AppendStatus(context.Context, models.StatusObservation) (models.StatusObservation, error) {
	return models.StatusObservation{}, errUnavailable
}

func TestRecommendSpots(t *testing.T) {
	srv := newTestServer(t, testCatalog())

	rec := do(t, srv, http.MethodPost, "/recommend", `{"duration":60,"groupSize":2,"noise":"Quiet","lat":55.7558,"lng":37.6173}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	var resp models.RecommendResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Recommendations) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(resp.Recommendations))
	}
	first := resp.Recommendations[0]
	if first.ID != "lib-1" {
		t.Errorf("first recommendation = %s, want lib-1", first.ID)
	}
	if first.DistanceMeters == nil || *first.DistanceMeters != 0 {
		t.Errorf("distance = %v, want 0", first.DistanceMeters)
	}
	if len(first.Reasons) != 1 {
		t.Errorf("reasons = %v, want exactly one", first.Reasons)
	}
	if len(first.Warnings) == 0 {
		t.Errorf("warnings empty, want occupancy and noise warnings")
	}
}

func TestRecommendSpotsFractionalDuration(t *testing.T) {
	srv := newTestServer(t, testCatalog())

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"fractional minutes", `{"duration":30.5,"groupSize":1}`, http.StatusOK},
		{"sub-minute", `{"duration":0.5,"groupSize":1}`, http.StatusOK},
		{"zero", `{"duration":0.0,"groupSize":1}`, http.StatusBadRequest},
		{"negative fraction", `{"duration":-0.5,"groupSize":1}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/recommend", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d, body: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}
}

func TestRecommendSpotsResponseShape(t *testing.T) {
	srv := newTestServer(t, testCatalog())

	rec := do(t, srv, http.MethodPost, "/recommend", `{"duration":30,"groupSize":1,"limit":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	var raw struct {
		Recommendations []map[string]json.RawMessage `json:"recommendations"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(raw.Recommendations) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(raw.Recommendations))
	}
	item := raw.Recommendations[0]
	for _, key := range []string{"id", "name", "occupancyPercent", "distanceMeters", "score", "reasons", "warnings", "updatedAt", "source"} {
		if _, ok := item[key]; !ok {
			t.Errorf("response item has no %q field", key)
		}
	}
	if string(item["distanceMeters"]) != "null" {
		t.Errorf("distanceMeters = %s, want null without location", item["distanceMeters"])
	}
}

func TestRecommendSpotsBadRequests(t *testing.T) {
	srv := newTestServer(t, testCatalog())

	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"malformed json", `{"duration":`, "Invalid request body"},
		{"missing duration", `{"groupSize":1}`, "duration is required"},
		{"unknown noise", `{"duration":30,"groupSize":1,"noise":"Silent"}`, "noise must be one of: Quiet Medium Loud"},
		{"latitude out of range", `{"duration":30,"groupSize":1,"lat":95,"lng":37}`, "lat must be a valid latitude (-90 to 90)"},
		{"lat without lng", `{"duration":30,"groupSize":1,"lat":55.7}`, "lat and lng must be provided together"},
		{"limit above maximum", `{"duration":30,"groupSize":1,"limit":51}`, "limit must be at most 50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/recommend", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if got := decodeError(t, rec); got != tt.wantMsg {
				t.Errorf("error = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestRecommendSpotsUpstreamFailure(t *testing.T) {
	srv := newTestServer(t, failingCatalog{})

	rec := do(t, srv, http.MethodPost, "/recommend", `{"duration":30,"groupSize":1}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if msg := decodeError(t, rec); strings.Contains(msg, "connection refused") {
		t.Errorf("error leaks store details: %q", msg)
	}
}

func TestSubmitStatus(t *testing.T) {
	catalog := testCatalog()
	srv := newTestServer(t, catalog)

	rec := do(t, srv, http.MethodPost, "/status", `{"spotId":"lib-1","occupancyPercent":25,"noiseLevel":"Quiet"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", rec.Code, rec.Body.String())
	}

	var resp models.StatusUpdateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Error("success = false, want true")
	}
	if resp.Data.SpotID != "lib-1" || resp.Data.Source != models.SourceUser {
		t.Errorf("data = %+v", resp.Data)
	}
	if !resp.Data.UpdatedAt.Equal(testNow) {
		t.Errorf("updatedAt = %v, want %v", resp.Data.UpdatedAt, testNow)
	}

	latest, _ := catalog.LatestStatusBySpot(context.Background(), []string{"lib-1"})
	if latest["lib-1"].ID != resp.Data.ID {
		t.Errorf("stored observation %q, want %q", latest["lib-1"].ID, resp.Data.ID)
	}
}

func TestSubmitStatusBadRequests(t *testing.T) {
	srv := newTestServer(t, testCatalog())

	tests := []struct {
		name string
		body string
	}{
		{"missing spot id", `{"occupancyPercent":25}`},
		{"no signals", `{"spotId":"lib-1"}`},
		{"occupancy out of range", `{"spotId":"lib-1","occupancyPercent":150}`},
		{"unknown source", `{"spotId":"lib-1","occupancyPercent":10,"source":"sensor"}`},
		{"unknown spot", `{"spotId":"nope","occupancyPercent":10}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/status", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400, body: %s", rec.Code, rec.Body.String())
			}
			if decodeError(t, rec) == "" {
				t.Error("empty error message")
			}
		})
	}
}

func TestSubmitStatusUpstreamFailure(t *testing.T) {
	srv := newTestServer(t, failingCatalog{})

	rec := do(t, srv, http.MethodPost, "/status", `{"spotId":"lib-1","noiseLevel":"Loud"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestListSpots(t *testing.T) {
	srv := newTestServer(t, testCatalog())

	rec := do(t, srv, http.MethodGet, "/spots", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var spots []models.Spot
	if err := json.NewDecoder(rec.Body).Decode(&spots); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(spots) != 2 || spots[0].ID != "lib-1" {
		t.Errorf("spots = %+v", spots)
	}
}

func TestGetSpot(t *testing.T) {
	catalog := testCatalog()
	srv := newTestServer(t, catalog)

	rec := do(t, srv, http.MethodGet, "/spots/cafe-2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var details models.SpotDetails
	if err := json.NewDecoder(rec.Body).Decode(&details); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if details.ID != "cafe-2" || details.Status != nil {
		t.Errorf("details = %+v, want cafe-2 without status", details)
	}

	do(t, srv, http.MethodPost, "/status", `{"spotId":"cafe-2","noiseLevel":"Loud"}`)

	rec = do(t, srv, http.MethodGet, "/spots/cafe-2", "")
	details = models.SpotDetails{}
	if err := json.NewDecoder(rec.Body).Decode(&details); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if details.Status == nil || details.Status.NoiseLevel == nil || *details.Status.NoiseLevel != models.NoiseLoud {
		t.Errorf("status = %+v, want Loud observation", details.Status)
	}
}

func TestGetSpotNotFound(t *testing.T) {
	srv := newTestServer(t, testCatalog())

	rec := do(t, srv, http.MethodGet, "/spots/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, testCatalog())

	rec := do(t, srv, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRequestIDPropagation(t *testing.T) {
	srv := newTestServer(t, testCatalog())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "req-123" {
		t.Errorf("request id = %q, want req-123", got)
	}

	rec = do(t, srv, http.MethodGet, "/health", "")
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("no request id generated")
	}
}

func TestRequestIDRejectsUnsafeValues(t *testing.T) {
	srv := newTestServer(t, testCatalog())

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"uuid", "3f2c8a1e-5b7d-4c9a-8e1f-0a2b3c4d5e6f", true},
		{"dotted", "gateway.req_42", true},
		{"max length", strings.Repeat("a", 64), true},
		{"too long", strings.Repeat("a", 65), false},
		{"forged log line", "abc\n{\"level\":\"error\"}", false},
		{"spaces", "req 123", false},
		{"non ascii", "запрос-1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header[RequestIDHeader] = []string{tt.header}
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			got := rec.Header().Get(RequestIDHeader)
			if tt.keep {
				if got != tt.header {
					t.Fatalf("request id = %q, want %q", got, tt.header)
				}
				return
			}
			if got == tt.header {
				t.Fatalf("unsafe request id %q echoed back", got)
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Errorf("replacement id %q is not a uuid: %v", got, err)
			}
		})
	}
}

func TestWrapRecoversFromPanic(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic(&scoring.ComputationError{SpotID: "lib-1", Value: 0})
	})
	srv := Wrap(router)

	rec := do(t, srv, http.MethodGet, "/boom", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
