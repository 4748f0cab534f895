package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/akozadaev/study_spots_recommender/internal/logging"
	"github.com/akozadaev/study_spots_recommender/internal/metrics"
)

// RequestIDHeader передает идентификатор запроса между сервисами.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen ограничивает длину идентификатора, принятого от клиента.
const maxRequestIDLen = 64

// Register регистрирует маршруты API на router.
func (h *Handlers) Register(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/recommend", h.RecommendSpots).Methods(http.MethodPost)
	submit := h.SubmitStatus
	if h.opts.StatusLimit != nil {
		submit = h.opts.StatusLimit.Middleware(submit)
	}
	router.HandleFunc("/status", submit).Methods(http.MethodPost)
	router.HandleFunc("/spots", h.ListSpots).Methods(http.MethodGet)
	router.HandleFunc("/spots/{id}", h.GetSpot).Methods(http.MethodGet)
	router.Use(instrument)
}

// Wrap оборачивает router общими middleware: request id, журнал доступа,
// перехват паник и CORS.
func Wrap(router http.Handler) http.Handler {
	cors := gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins([]string{"*"}),
		gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		gorillahandlers.AllowedHeaders([]string{"Content-Type", RequestIDHeader}),
	)
	recovery := gorillahandlers.RecoveryHandler(
		gorillahandlers.RecoveryLogger(recoveryLogger{}),
		gorillahandlers.PrintRecoveryStack(true),
	)

	var h http.Handler = cors(router)
	h = recovery(h)
	h = gorillahandlers.CustomLoggingHandler(io.Discard, h, accessLog)
	return requestID(h)
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !validRequestID(id) {
			id = logging.NewRequestID()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	})
}

// validRequestID допускает только [A-Za-z0-9._-] длиной до maxRequestIDLen.
// Остальные значения заменяются сгенерированными, чтобы не попасть в журнал как есть.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}

// instrument записывает длительность запроса по шаблону маршрута, а не по сырому пути.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// accessLog пишет журнал доступа через zerolog вместо формата Apache.
func accessLog(_ io.Writer, p gorillahandlers.LogFormatterParams) {
	event := logging.Ctx(p.Request.Context()).Info()
	if p.StatusCode >= http.StatusInternalServerError {
		event = logging.Ctx(p.Request.Context()).Error()
	}
	event.
		Str("method", p.Request.Method).
		Str("path", p.URL.Path).
		Int("status", p.StatusCode).
		Int("size", p.Size).
		Dur("duration", time.Since(p.TimeStamp)).
		Msg("HTTP request")
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	logging.Error().Msg(fmt.Sprint(v...))
}
