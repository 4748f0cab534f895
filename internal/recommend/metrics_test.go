package recommend

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/akozadaev/study_spots_recommender/internal/metrics"
)

// histogramState возвращает количество и сумму наблюдений гистограммы.
func histogramState(t *testing.T, h prometheus.Histogram) (uint64, float64) {
	t.Helper()
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("Write histogram: %v", err)
	}
	return m.GetHistogram().GetSampleCount(), m.GetHistogram().GetSampleSum()
}

func TestRankObservesCandidatesBeforeLimit(t *testing.T) {
	svc := newTestService(seedSpots(t, 10))

	tests := []struct {
		name  string
		limit int
	}{
		{name: "limit below catalog", limit: 3},
		{name: "default limit", limit: 0},
		{name: "limit above catalog", limit: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			countBefore, sumBefore := histogramState(t, metrics.RankedCandidates)

			if _, err := svc.Rank(context.Background(), userPrefs(nil), tt.limit); err != nil {
				t.Fatalf("Rank: %v", err)
			}

			countAfter, sumAfter := histogramState(t, metrics.RankedCandidates)
			if countAfter != countBefore+1 {
				t.Fatalf("sample count: got %d want %d", countAfter, countBefore+1)
			}
			if got := sumAfter - sumBefore; got != 10 {
				t.Errorf("observed candidates: got %v want 10", got)
			}
		})
	}
}
