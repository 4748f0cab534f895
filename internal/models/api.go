package models

import "time"

// RecommendRequest представляет запрос на рекомендацию учебных мест.
type RecommendRequest struct {
	Duration  float64     `json:"duration" validate:"required,gt=0"`
	GroupSize int         `json:"groupSize" validate:"required,gte=1"`
	Noise     *NoiseLevel `json:"noise,omitempty" validate:"omitempty,oneof=Quiet Medium Loud"`
	Lat       *float64    `json:"lat,omitempty" validate:"omitempty,latitude"`
	Lng       *float64    `json:"lng,omitempty" validate:"omitempty,longitude"`
	Limit     int         `json:"limit,omitempty" validate:"omitempty,min=1"`
}

// Preferences преобразует запрос в предпочтения для ранжирования.
func (r RecommendRequest) Preferences() Preferences {
	return Preferences{
		Duration:  r.Duration,
		GroupSize: r.GroupSize,
		Noise:     r.Noise,
		Lat:       r.Lat,
		Lng:       r.Lng,
	}
}

// Recommendation представляет элемент ответа с рекомендацией.
type Recommendation struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Building         string      `json:"building,omitempty"`
	Floor            string      `json:"floor,omitempty"`
	Lat              float64     `json:"lat"`
	Lng              float64     `json:"lng"`
	OccupancyPercent *float64    `json:"occupancyPercent"`
	NoiseLevel       *NoiseLevel `json:"noiseLevel"`
	DistanceMeters   *float64    `json:"distanceMeters"`
	Score            float64     `json:"score"`
	Reasons          []string    `json:"reasons"`
	Warnings         []string    `json:"warnings"`
	UpdatedAt        *time.Time  `json:"updatedAt"`
	Source           *Source     `json:"source"`
}

// NewRecommendation строит DTO ответа из результата оценки.
func NewRecommendation(s ScoredSpot) Recommendation {
	rec := Recommendation{
		ID:             s.Spot.ID,
		Name:           s.Spot.Name,
		Building:       s.Spot.Building,
		Floor:          s.Spot.Floor,
		Lat:            s.Spot.Lat,
		Lng:            s.Spot.Lng,
		DistanceMeters: s.DistanceMeters,
		Score:          s.Score,
		Reasons:        []string{s.MatchReason},
		Warnings:       s.Warnings,
	}
	if rec.Warnings == nil {
		rec.Warnings = []string{}
	}
	if s.Status != nil {
		updatedAt := s.Status.UpdatedAt
		source := s.Status.Source
		rec.OccupancyPercent = s.Status.OccupancyPercent
		rec.NoiseLevel = s.Status.NoiseLevel
		rec.UpdatedAt = &updatedAt
		rec.Source = &source
	}
	return rec
}

// RecommendResponse представляет ответ с рекомендациями.
type RecommendResponse struct {
	Recommendations []Recommendation `json:"recommendations"`
}

// StatusUpdateRequest представляет запрос на добавление наблюдения о статусе места.
type StatusUpdateRequest struct {
	SpotID           string      `json:"spotId" validate:"required"`
	OccupancyPercent *float64    `json:"occupancyPercent,omitempty" validate:"omitempty,gte=0,lte=100"`
	NoiseLevel       *NoiseLevel `json:"noiseLevel,omitempty" validate:"omitempty,oneof=Quiet Medium Loud"`
	Source           Source      `json:"source,omitempty" validate:"omitempty,oneof=user schedule"`
}

// StatusUpdateResponse подтверждает сохранение наблюдения.
type StatusUpdateResponse struct {
	Success bool              `json:"success"`
	Data    StatusObservation `json:"data"`
}

// SpotDetails представляет учебное место вместе с его текущим статусом.
type SpotDetails struct {
	Spot
	Status *StatusObservation `json:"status"`
}

// ErrorResponse представляет тело ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}
