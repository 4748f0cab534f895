package scoring

import (
	"fmt"
	"math"
	"time"
)

// Weights задает вклад каждой частной оценки в итоговую.
// Сумма весов должна быть равна 1, иначе итоговая оценка выйдет за [0,1].
type Weights struct {
	Availability float64
	Distance     float64
	Noise        float64
}

// Sum возвращает сумму весов.
func (w Weights) Sum() float64 {
	return w.Availability + w.Distance + w.Noise
}

// Config содержит настраиваемые параметры оценки.
type Config struct {
	Weights             Weights
	StaleAfter          time.Duration // Возраст, после которого данные о загруженности считаются устаревшими
	ComfortRadiusMeters float64       // Радиус, за которым близость не дает вклада
	CloseRangeMeters    float64       // Порог для причины "Very close to your location"
	PlentyAvailability  float64       // Порог доступности для причины "Plenty of space available"
}

// DefaultConfig возвращает параметры по умолчанию.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Availability: 0.5,
			Distance:     0.3,
			Noise:        0.2,
		},
		StaleAfter:          30 * time.Minute,
		ComfortRadiusMeters: 1500,
		CloseRangeMeters:    300,
		PlentyAvailability:  0.7,
	}
}

// Validate проверяет согласованность параметров.
func (c Config) Validate() error {
	w := c.Weights
	if w.Availability < 0 || w.Distance < 0 || w.Noise < 0 {
		return fmt.Errorf("scoring weights must be non-negative, got %+v", w)
	}
	if math.Abs(w.Sum()-1) > 1e-6 {
		return fmt.Errorf("scoring weights must sum to 1, got %.6f", w.Sum())
	}
	if c.StaleAfter <= 0 {
		return fmt.Errorf("stale window must be positive, got %s", c.StaleAfter)
	}
	if c.ComfortRadiusMeters <= 0 {
		return fmt.Errorf("comfort radius must be positive, got %.1f", c.ComfortRadiusMeters)
	}
	if c.CloseRangeMeters < 0 {
		return fmt.Errorf("close range must not be negative, got %.1f", c.CloseRangeMeters)
	}
	if c.PlentyAvailability < 0 || c.PlentyAvailability > 1 {
		return fmt.Errorf("plenty availability threshold must be in [0,1], got %.2f", c.PlentyAvailability)
	}
	return nil
}
