package person

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/mehmetcc/people/internal/config"
	"github.com/mehmetcc/people/internal/httpx"
	"go.uber.org/zap"
)

const (
	deletedBody = "Deleted"
	// foundHeader is set to "false" on every legacy-policy miss.
	foundHeader = "X-Resource-Found"
)

type PersonHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	Routes() chi.Router
}

type personHandler struct {
	logger         *zap.Logger
	personService  PersonService
	validator      *validator.Validate
	requestTimeout time.Duration
	notFound       config.NotFoundPolicy
	// validate is off unless configured; legacy clients may store any
	// well-formed person.
	validate bool
}

func NewPersonHandler(personService PersonService, cfg *config.AppConfig, l *zap.Logger) PersonHandler {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &personHandler{
		logger:         l,
		personService:  personService,
		validator:      v,
		requestTimeout: cfg.RequestTimeout,
		notFound:       cfg.NotFoundPolicy,
		validate:       cfg.ValidatePayloads,
	}
}

func (h *personHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

func (h *personHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	req, ok := h.decodePerson(w, r)
	if !ok {
		return
	}

	created, err := h.personService.Create(ctx, req)
	if err != nil {
		h.writeServiceError(w, "create person", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, created)
}

func (h *personHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	people, err := h.personService.List(ctx)
	if err != nil {
		h.writeServiceError(w, "list people", err)
		return
	}
	if people == nil {
		people = []Person{}
	}

	httpx.WriteJSON(w, http.StatusOK, people)
}

func (h *personHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	found, err := h.personService.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeNotFound(w, id, func() { httpx.WriteJSON(w, http.StatusOK, nil) })
			return
		}
		h.writeServiceError(w, "get person", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, found)
}

func (h *personHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := h.decodePerson(w, r)
	if !ok {
		return
	}

	updated, err := h.personService.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeNotFound(w, id, func() { httpx.WriteJSON(w, http.StatusOK, nil) })
			return
		}
		h.writeServiceError(w, "update person", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, updated)
}

func (h *personHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.personService.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeNotFound(w, id, func() { httpx.WriteText(w, http.StatusOK, deletedBody) })
			return
		}
		h.writeServiceError(w, "delete person", err)
		return
	}

	httpx.WriteText(w, http.StatusOK, deletedBody)
}

func (h *personHandler) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	if h.requestTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.requestTimeout)
}

func (h *personHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.logger.Debug("invalid person id", zap.String("id", raw))
		// legacy clients saw an unmatched resource path for a non-numeric id
		if h.notFound != config.NotFoundStrict {
			httpx.WriteError(w, http.StatusNotFound, httpx.ErrorResponse[any]{
				Code:    httpx.ErrNotFound,
				Message: "no person resource at this path",
			})
			return 0, false
		}
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorResponse[any]{
			Code:    httpx.ErrInvalidParam,
			Message: "id must be an integer",
		})
		return 0, false
	}
	return id, true
}

func (h *personHandler) decodePerson(w http.ResponseWriter, r *http.Request) (Person, bool) {
	var req Person
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.logger.Warn("failed to decode person request body", zap.Error(err))
		httpx.WriteDecodeError(w, err)
		return Person{}, false
	}

	if !h.validate {
		return req, true
	}
	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("person validation failed", zap.Error(err))
		httpx.WriteError(w, http.StatusUnprocessableEntity, httpx.ErrorResponse[[]httpx.Violation]{
			Code:    httpx.ErrValidationFailed,
			Message: "validation failed",
			Details: httpx.Violations(err),
		})
		return Person{}, false
	}
	return req, true
}

// writeNotFound applies the configured not-found policy. legacy runs
// compat, which writes the historical 200 response.
func (h *personHandler) writeNotFound(w http.ResponseWriter, id int64, compat func()) {
	h.logger.Debug("person not found", zap.Int64("id", id))
	if h.notFound == config.NotFoundStrict {
		httpx.WriteError(w, http.StatusNotFound, httpx.ErrorResponse[any]{
			Code:    httpx.ErrNotFound,
			Message: ErrNotFound.Error(),
		})
		return
	}
	w.Header().Set(foundHeader, "false")
	compat()
}

func (h *personHandler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrInvalidPerson):
		h.logger.Warn(op+" rejected by store", zap.Error(err))
		httpx.WriteError(w, http.StatusUnprocessableEntity, httpx.ErrorResponse[any]{
			Code:    httpx.ErrValidationFailed,
			Message: ErrInvalidPerson.Error(),
		})
	case errors.Is(err, ErrUnavailable):
		h.logger.Error(op+" failed, store unavailable", zap.Error(err))
		httpx.WriteError(w, http.StatusServiceUnavailable, httpx.ErrorResponse[any]{
			Code:    httpx.ErrUnavailable,
			Message: ErrUnavailable.Error(),
		})
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn(op+" timed out", zap.Error(err))
		httpx.WriteError(w, http.StatusGatewayTimeout, httpx.ErrorResponse[any]{
			Code:    httpx.ErrTimeout,
			Message: "request timed out",
		})
	default:
		h.logger.Error("internal server error", zap.String("op", op), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, httpx.ErrorResponse[any]{
			Code:    httpx.ErrInternal,
			Message: "internal server error",
		})
	}
}
