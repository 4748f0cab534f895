package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/akozadaev/study_spots_recommender/internal/models"
)

// Предупреждения о качестве данных, возвращаемые вместе с оценкой.
const (
	WarningOccupancyStale   = "Occupancy data may be outdated"
	WarningOccupancyUnknown = "Occupancy unknown - using neutral estimate"
	WarningNoiseUnknown     = "Noise level unknown"
	WarningDistanceUnknown  = "Distance unknown - location not provided"
)

// Причины рекомендации.
const (
	ReasonModerateNoise  = "Moderate noise level"
	ReasonNoiseEstimated = "Estimated based on location and availability"
	ReasonVeryClose      = "Very close to your location"
	ReasonPlentyOfSpace  = "Plenty of space available"
	ReasonGoodOverall    = "Good overall match"
)

// neutral используется для любого неизвестного сигнала.
const neutral = 0.5

// Signal содержит частную оценку в [0,1] с необязательными предупреждением и причиной.
type Signal struct {
	Value   float64
	Warning string
	Reason  string
}

// Availability оценивает свободность места по последнему наблюдению.
// Устаревшее значение отбрасывается, а не используется.
func Availability(status *models.StatusObservation, now time.Time, staleAfter time.Duration) Signal {
	if status == nil || status.OccupancyPercent == nil {
		return Signal{Value: neutral, Warning: WarningOccupancyUnknown}
	}
	if status.Age(now) > staleAfter {
		return Signal{Value: neutral, Warning: WarningOccupancyStale}
	}
	return Signal{Value: clamp01(1 - *status.OccupancyPercent/100)}
}

// DistanceMatch линейно убывает от 1 на нулевом расстоянии до 0 на радиусе комфорта.
// nil означает, что расстояние неизвестно.
func DistanceMatch(distanceMeters *float64, radiusMeters float64) Signal {
	if distanceMeters == nil {
		return Signal{Value: neutral, Warning: WarningDistanceUnknown}
	}
	return Signal{Value: math.Max(0, 1-math.Min(*distanceMeters/radiusMeters, 1))}
}

// NoiseMatch сравнивает наблюдаемый уровень шума с предпочтением пользователя.
//
// Если нет наблюдения о шуме, причина объясняет, что оценка построена по
// остальным сигналам. Если нет только предпочтения, причина не выдается и
// выбирается по расстоянию и доступности.
func NoiseMatch(status *models.StatusObservation, preferred *models.NoiseLevel) Signal {
	var observed *models.NoiseLevel
	if status != nil {
		observed = status.NoiseLevel
	}

	switch {
	case observed == nil:
		return Signal{Value: neutral, Warning: WarningNoiseUnknown, Reason: ReasonNoiseEstimated}
	case preferred == nil:
		// Шум известен, но сравнивать не с чем: "Estimated..." здесь не выдается.
		return Signal{Value: neutral, Warning: WarningNoiseUnknown}
	case *observed == *preferred:
		return Signal{
			Value:  1,
			Reason: fmt.Sprintf("Perfect match: %s environment", strings.ToLower(string(*observed))),
		}
	case *observed == models.NoiseMedium:
		return Signal{Value: 0.6, Reason: ReasonModerateNoise}
	default:
		return Signal{
			Value:  0.3,
			Reason: fmt.Sprintf("%s environment (you prefer %s)", *observed, *preferred),
		}
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
