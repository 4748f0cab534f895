// Package models содержит доменные типы рекомендательной системы учебных мест
// и DTO для REST API.
package models

import "time"

// NoiseLevel представляет уровень шума в учебном месте.
type NoiseLevel string

const (
	NoiseQuiet  NoiseLevel = "Quiet"
	NoiseMedium NoiseLevel = "Medium"
	NoiseLoud   NoiseLevel = "Loud"
)

// Valid сообщает, является ли значение одним из допустимых уровней шума.
func (n NoiseLevel) Valid() bool {
	switch n {
	case NoiseQuiet, NoiseMedium, NoiseLoud:
		return true
	}
	return false
}

// Source указывает, откуда пришло наблюдение о статусе места.
type Source string

const (
	SourceUser     Source = "user"
	SourceSchedule Source = "schedule"
)

// Valid сообщает, является ли значение допустимым источником наблюдения.
func (s Source) Valid() bool {
	return s == SourceUser || s == SourceSchedule
}

// Spot представляет учебное место на кампусе.
// Справочные данные: принадлежат хранилищу и не изменяются ядром.
type Spot struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Building string  `json:"building,omitempty"`
	Floor    string  `json:"floor,omitempty"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// StatusObservation представляет наблюдение о загруженности и/или шуме места.
// Наблюдения только добавляются и никогда не изменяются после создания.
type StatusObservation struct {
	ID               string      `json:"id"`
	SpotID           string      `json:"spotId"`
	OccupancyPercent *float64    `json:"occupancyPercent"`
	NoiseLevel       *NoiseLevel `json:"noiseLevel"`
	Source           Source      `json:"source"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// Age возвращает возраст наблюдения относительно now.
// Наблюдения "из будущего" считаются свежими (возраст 0).
func (o StatusObservation) Age(now time.Time) time.Duration {
	age := now.Sub(o.UpdatedAt)
	if age < 0 {
		return 0
	}
	return age
}

// Preferences содержит предпочтения пользователя для одного запроса рекомендаций.
// Lat/Lng равны nil, если местоположение пользователя неизвестно.
type Preferences struct {
	Duration  float64     // Длительность занятий в минутах, допускается дробная
	GroupSize int         // Размер группы
	Noise     *NoiseLevel // Желаемый уровень шума
	Lat       *float64    // Широта пользователя
	Lng       *float64    // Долгота пользователя
}

// HasLocation сообщает, известно ли местоположение пользователя.
func (p Preferences) HasLocation() bool {
	return p.Lat != nil && p.Lng != nil
}

// SubScores содержит нормализованные в [0,1] частные оценки.
type SubScores struct {
	Availability float64 `json:"availability"`
	Distance     float64 `json:"distance"`
	Noise        float64 `json:"noise"`
}

// ScoredSpot представляет результат оценки одного места в рамках одного запроса.
// Score всегда в [0,1], Warnings никогда не равен nil.
type ScoredSpot struct {
	Spot           Spot
	Status         *StatusObservation
	Score          float64
	DistanceMeters *float64
	SubScores      SubScores
	Warnings       []string
	MatchReason    string
}
