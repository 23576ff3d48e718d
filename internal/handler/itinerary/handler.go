package itinerary

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/churai/backend/internal/model/trip"
	tripService "github.com/zhouzirui/churai/backend/internal/service/itinerary"
	"github.com/zhouzirui/churai/backend/pkg/utils"
)

// Handler 行程编辑的HTTP处理器
type Handler struct {
	tripSvc *tripService.Service
	logger  *zap.Logger
}

// New 创建行程处理器
func New(tripSvc *tripService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{tripSvc: tripSvc, logger: logger}
}

// RegisterRoutes 注册行程相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/trips", h.handleList)
	r.Post("/trips", h.handleCreate)

	r.Route("/trips/{tripID}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Patch("/", h.handleUpdateTrip)
		r.Delete("/", h.handleDelete)
		r.Get("/export", h.handleExport)

		r.Post("/days", h.handleAddDay)
		r.Delete("/days/{day}", h.handleRemoveDay)
		r.Post("/days/{day}/activities", h.handleAddActivity)
		r.Delete("/days/{day}/activities/{activityID}", h.handleDeleteActivity)

		r.Post("/edit", h.handleBeginEdit)
		r.Patch("/edit", h.handleUpdateField)
		r.Delete("/edit", h.handleCancelEdit)
		r.Post("/edit/commit", h.handleCommitEdit)
	})
}

// Response 行程变更的返回体。Applied 为 false 表示请求未改变任何状态
// （例如目标活动不存在）。
type Response struct {
	trip.View
	Applied bool `json:"applied"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{"trips": h.tripSvc.List(r.Context())})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title       string `json:"title"`
		Destination string `json:"destination"`
		Language    string `json:"language"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	editor := h.tripSvc.CreateTrip(r.Context(), payload.Title, payload.Destination)
	if payload.Language != "" {
		editor.SetLanguage(tripService.ParseLanguage(payload.Language))
	}
	utils.RespondJSON(w, http.StatusCreated, Response{View: editor.View(), Applied: true})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, editor.View())
}

func (h *Handler) handleUpdateTrip(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Title       *string `json:"title"`
		Destination *string `json:"destination"`
		Language    *string `json:"language"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	applied := false
	if payload.Title != nil {
		applied = editor.Rename(*payload.Title) || applied
	}
	if payload.Destination != nil {
		applied = editor.SetDestination(*payload.Destination) || applied
	}
	if payload.Language != nil {
		editor.SetLanguage(tripService.ParseLanguage(*payload.Language))
		applied = true
	}
	h.respond(w, editor, applied)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.tripSvc.Delete(r.Context(), chi.URLParam(r, "tripID")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.lookup(w, r)
	if !ok {
		return
	}

	lang := tripService.Language(editor.View().Language)
	if raw := r.URL.Query().Get("lang"); raw != "" {
		lang = tripService.ParseLanguage(raw)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(editor.Export(lang))); err != nil {
		h.logger.Debug("failed to write export", zap.Error(err))
	}
}

func (h *Handler) handleAddDay(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Date     string `json:"date"`
		Location string `json:"location"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := editor.AddDay(payload.Date, payload.Location); err != nil {
		h.respondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, Response{View: editor.View(), Applied: true})
}

func (h *Handler) handleRemoveDay(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.lookup(w, r)
	if !ok {
		return
	}
	day, ok := dayParam(w, r)
	if !ok {
		return
	}
	h.respond(w, editor, editor.RemoveDay(day))
}

func (h *Handler) handleAddActivity(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.lookup(w, r)
	if !ok {
		return
	}
	day, ok := dayParam(w, r)
	if !ok {
		return
	}

	if _, added := editor.AddActivity(day); added {
		utils.RespondJSON(w, http.StatusCreated, Response{View: editor.View(), Applied: true})
		return
	}
	h.respond(w, editor, false)
}

func (h *Handler) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.lookup(w, r)
	if !ok {
		return
	}
	day, ok := dayParam(w, r)
	if !ok {
		return
	}
	h.respond(w, editor, editor.DeleteActivity(day, chi.URLParam(r, "activityID")))
}

func (h *Handler) handleBeginEdit(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		ActivityID string `json:"activityId"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.respond(w, editor, editor.BeginEdit(payload.ActivityID))
}

func (h *Handler) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	field, err := tripService.ParseField(payload.Field, payload.Value)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, editor, editor.UpdateField(field))
}

func (h *Handler) handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.respond(w, editor, editor.CancelEdit())
}

func (h *Handler) handleCommitEdit(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		DayIndex   int    `json:"dayIndex"`
		ActivityID string `json:"activityId"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.respond(w, editor, editor.CommitEdit(payload.DayIndex, payload.ActivityID))
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*tripService.Editor, bool) {
	editor, err := h.tripSvc.Get(r.Context(), chi.URLParam(r, "tripID"))
	if err != nil {
		h.respondError(w, err)
		return nil, false
	}
	return editor, true
}

func (h *Handler) respond(w http.ResponseWriter, editor *tripService.Editor, applied bool) {
	utils.RespondJSON(w, http.StatusOK, Response{View: editor.View(), Applied: applied})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tripService.ErrTripNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tripService.ErrInvalidField), errors.Is(err, tripService.ErrInvalidDate):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("trip request failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}

func dayParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "day must be a number")
		return 0, false
	}
	return day, true
}
