// Package handlers содержит HTTP обработчики для REST API рекомендаций учебных мест.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/akozadaev/study_spots_recommender/internal/logging"
	"github.com/akozadaev/study_spots_recommender/internal/models"
	"github.com/akozadaev/study_spots_recommender/internal/recommend"
	"github.com/akozadaev/study_spots_recommender/internal/storage"
	"github.com/akozadaev/study_spots_recommender/internal/validation"
)

// maxBodyBytes ограничивает размер тела запроса.
const maxBodyBytes = 1 << 20

// Options задает ограничения HTTP слоя.
type Options struct {
	MaxLimit     int           // Максимальный limit в запросе рекомендаций
	StoreTimeout time.Duration // Дедлайн обращений к хранилищу; при 0 дедлайн не ставится
	StatusLimit  *RateLimiter  // Лимит отправки наблюдений; nil отключает ограничение
}

// Handlers содержит зависимости для обработки HTTP запросов.
type Handlers struct {
	service *recommend.Service // Ранжирование и прием наблюдений
	catalog storage.Catalog    // Чтение справочника мест
	opts    Options
}

// NewHandlers создает новый экземпляр Handlers.
func NewHandlers(service *recommend.Service, catalog storage.Catalog, opts Options) *Handlers {
	return &Handlers{
		service: service,
		catalog: catalog,
		opts:    opts,
	}
}

// RecommendSpots обрабатывает POST запрос на получение рекомендаций учебных мест.
// Эндпоинт: POST /recommend
//
// @Summary      Получить рекомендации учебных мест
// @Description  Ранжирует учебные места по доступности, расстоянию и уровню шума. Каждая рекомендация содержит причину выбора и предупреждения о качестве данных.
// @Tags         recommendations
// @Accept       json
// @Produce      json
// @Param        request  body      models.RecommendRequest  true  "Предпочтения пользователя"
// @Success      200      {object}  models.RecommendResponse
// @Failure      400      {object}  models.ErrorResponse  "Неверный запрос"
// @Failure      502      {object}  models.ErrorResponse  "Хранилище недоступно"
// @Router       /recommend [post]
func (h *Handlers) RecommendSpots(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendRequest
	if !h.decode(w, r, &req) {
		return
	}

	if (req.Lat == nil) != (req.Lng == nil) {
		writeError(w, http.StatusBadRequest, "lat and lng must be provided together")
		return
	}
	if h.opts.MaxLimit > 0 && req.Limit > h.opts.MaxLimit {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be at most %d", h.opts.MaxLimit))
		return
	}

	ctx, cancel := h.storeContext(r.Context())
	defer cancel()

	ranked, err := h.service.Rank(ctx, req.Preferences(), req.Limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response := models.RecommendResponse{
		Recommendations: make([]models.Recommendation, 0, len(ranked)),
	}
	for _, s := range ranked {
		response.Recommendations = append(response.Recommendations, models.NewRecommendation(s))
	}
	writeJSON(w, http.StatusOK, response)
}

// SubmitStatus обрабатывает POST запрос на добавление наблюдения о статусе места.
// Эндпоинт: POST /status
//
// @Summary      Сообщить статус учебного места
// @Description  Добавляет наблюдение о загруженности и/или уровне шума. Нужен хотя бы один из сигналов. Прежние наблюдения не изменяются.
// @Tags         status
// @Accept       json
// @Produce      json
// @Param        request  body      models.StatusUpdateRequest  true  "Наблюдение"
// @Success      201      {object}  models.StatusUpdateResponse
// @Failure      400      {object}  models.ErrorResponse  "Неверный запрос"
// @Failure      502      {object}  models.ErrorResponse  "Хранилище недоступно"
// @Router       /status [post]
func (h *Handlers) SubmitStatus(w http.ResponseWriter, r *http.Request) {
	var req models.StatusUpdateRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := h.storeContext(r.Context())
	defer cancel()

	obs, err := h.service.Submit(ctx, recommend.Update{
		SpotID:           req.SpotID,
		OccupancyPercent: req.OccupancyPercent,
		NoiseLevel:       req.NoiseLevel,
		Source:           req.Source,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.StatusUpdateResponse{Success: true, Data: obs})
}

// ListSpots обрабатывает GET запрос на получение списка учебных мест.
// Эндпоинт: GET /spots
//
// @Summary      Получить список учебных мест
// @Description  Возвращает справочник учебных мест кампуса
// @Tags         spots
// @Produce      json
// @Success      200  {array}   models.Spot
// @Failure      502  {object}  models.ErrorResponse  "Хранилище недоступно"
// @Router       /spots [get]
func (h *Handlers) ListSpots(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.storeContext(r.Context())
	defer cancel()

	spots, err := h.catalog.ListSpots(ctx)
	if err != nil {
		h.writeServiceError(w, r, &recommend.UpstreamFetchError{Op: "list spots", Err: err})
		return
	}
	if spots == nil {
		spots = []models.Spot{}
	}
	writeJSON(w, http.StatusOK, spots)
}

// GetSpot обрабатывает GET запрос на получение учебного места с его текущим статусом.
// Эндпоинт: GET /spots/{id}
//
// @Summary      Получить учебное место
// @Description  Возвращает учебное место и последнее наблюдение о нем (null, если наблюдений нет)
// @Tags         spots
// @Produce      json
// @Param        id   path      string  true  "Идентификатор места"
// @Success      200  {object}  models.SpotDetails
// @Failure      404  {object}  models.ErrorResponse  "Место не найдено"
// @Failure      502  {object}  models.ErrorResponse  "Хранилище недоступно"
// @Router       /spots/{id} [get]
func (h *Handlers) GetSpot(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		writeError(w, http.StatusBadRequest, "spot id is required")
		return
	}

	ctx, cancel := h.storeContext(r.Context())
	defer cancel()

	spot, err := h.catalog.GetSpot(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrSpotNotFound) {
			writeError(w, http.StatusNotFound, "spot not found")
			return
		}
		h.writeServiceError(w, r, &recommend.UpstreamFetchError{Op: "get spot", Err: err})
		return
	}

	latest, err := h.catalog.LatestStatusBySpot(ctx, []string{id})
	if err != nil {
		h.writeServiceError(w, r, &recommend.UpstreamFetchError{Op: "fetch latest status", Err: err})
		return
	}

	details := models.SpotDetails{Spot: spot}
	if obs, ok := latest[id]; ok {
		details.Status = &obs
	}
	writeJSON(w, http.StatusOK, details)
}

// HealthCheck обрабатывает GET запрос на проверку работоспособности сервиса.
// Эндпоинт: GET /health
//
// @Summary      Проверка работоспособности сервиса
// @Description  Возвращает статус сервиса. Используется для мониторинга и проверки доступности.
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// decode читает и проверяет тело запроса. При ошибке ответ уже записан.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validation.Struct(dst); err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			writeError(w, http.StatusBadRequest, verrs.First().Message)
			return false
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *Handlers) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.opts.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.opts.StoreTimeout)
}

func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *recommend.ValidationError
	var uerr *recommend.UpstreamFetchError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.As(err, &uerr):
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Store request failed")
		writeError(w, http.StatusBadGateway, "study spot data is temporarily unavailable")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Unexpected error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Err(err).Msg("Error encoding response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: message})
}
