// Package scoring превращает разнородные и частично отсутствующие сигналы
// (загруженность, шум, расстояние) в единую объяснимую оценку учебного места.
//
// Оценка является чистой функцией: она не пишет в лог и не обращается к хранилищу.
// Все предупреждения возвращаются вызывающей стороне как часть объяснения.
package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/akozadaev/study_spots_recommender/internal/geo"
	"github.com/akozadaev/study_spots_recommender/internal/models"
)

// ComputationError сигнализирует о дефекте: итоговая оценка не является конечным числом.
// Передается через panic и не должна перехватываться для продолжения работы.
type ComputationError struct {
	SpotID string
	Value  float64
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("non-finite score %v for spot %q", e.Value, e.SpotID)
}

// Result содержит итог оценки одного места.
type Result struct {
	Score          float64
	DistanceMeters *float64
	SubScores      models.SubScores
	Warnings       []string
	MatchReason    string
}

// Engine вычисляет взвешенную оценку места.
type Engine struct {
	cfg Config
}

// NewEngine создает Engine с заданными параметрами.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config возвращает параметры движка.
func (e *Engine) Config() Config {
	return e.cfg
}

// Score оценивает место spot с текущим статусом status (может быть nil)
// для предпочтений prefs на момент now.
func (e *Engine) Score(spot models.Spot, status *models.StatusObservation, prefs models.Preferences, now time.Time) Result {
	var distance *float64
	if prefs.HasLocation() {
		d := geo.Distance(*prefs.Lat, *prefs.Lng, spot.Lat, spot.Lng)
		distance = &d
	}

	availability := Availability(status, now, e.cfg.StaleAfter)
	noise := NoiseMatch(status, prefs.Noise)
	proximity := DistanceMatch(distance, e.cfg.ComfortRadiusMeters)

	warnings := make([]string, 0, 3)
	for _, s := range []Signal{availability, noise, proximity} {
		if s.Warning != "" {
			warnings = append(warnings, s.Warning)
		}
	}

	w := e.cfg.Weights
	score := w.Availability*availability.Value + w.Distance*proximity.Value + w.Noise*noise.Value
	if math.IsNaN(score) || math.IsInf(score, 0) {
		panic(&ComputationError{SpotID: spot.ID, Value: score})
	}

	return Result{
		Score:          clamp01(score),
		DistanceMeters: distance,
		SubScores: models.SubScores{
			Availability: availability.Value,
			Distance:     proximity.Value,
			Noise:        noise.Value,
		},
		Warnings:    warnings,
		MatchReason: e.matchReason(noise, availability, distance),
	}
}

// matchReason выбирает ровно одну причину: шум, затем близость, затем доступность.
func (e *Engine) matchReason(noise, availability Signal, distance *float64) string {
	switch {
	case noise.Reason != "":
		return noise.Reason
	case distance != nil && *distance < e.cfg.CloseRangeMeters:
		return ReasonVeryClose
	case availability.Value > e.cfg.PlentyAvailability:
		return ReasonPlentyOfSpace
	default:
		return ReasonGoodOverall
	}
}
