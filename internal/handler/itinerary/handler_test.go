package itinerary

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zhouzirui/churai/backend/internal/model/trip"
	tripService "github.com/zhouzirui/churai/backend/internal/service/itinerary"
)

type fixture struct {
	router http.Handler
	tripID string
	svc    *tripService.Service
}

func setup(t *testing.T) fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	svc := tripService.NewService(logger)
	editor := svc.Load(context.Background(), trip.Seed())

	r := chi.NewRouter()
	New(svc, logger).RegisterRoutes(r)
	return fixture{router: r, tripID: editor.ID(), svc: svc}
}

func (f fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f fixture) path(suffix string) string {
	return "/trips/" + f.tripID + suffix
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestListAndGet(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodGet, "/trips", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Trips []trip.Trip `json:"trips"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Trips, 1)
	assert.Equal(t, f.tripID, list.Trips[0].ID)

	rec = f.do(t, http.MethodGet, f.path(""), "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode(t, rec)
	assert.Len(t, view.Trip.Days, 3)
	assert.Nil(t, view.Editing)

	rec = f.do(t, http.MethodGet, "/trips/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateUpdateDeleteTrip(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodPost, "/trips", `{"destination":"Seoul","language":"zh"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode(t, rec)
	assert.Equal(t, "My Trip to Seoul", created.Trip.Title)
	assert.Equal(t, "zh", created.Language)

	path := "/trips/" + created.Trip.ID
	rec = f.do(t, http.MethodPatch, path, `{"title":"Seoul Food Tour","language":"en"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode(t, rec)
	assert.True(t, updated.Applied)
	assert.Equal(t, "Seoul Food Tour", updated.Trip.Title)
	assert.Equal(t, "en", updated.Language)

	rec = f.do(t, http.MethodPatch, path, `{"title":"  "}`)
	assert.False(t, decode(t, rec).Applied)

	rec = f.do(t, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEditLifecycleOverHTTP(t *testing.T) {
	f := setup(t)
	view := decode(t, f.do(t, http.MethodGet, f.path(""), ""))
	target := view.Trip.Days[0].Activities[1]

	rec := f.do(t, http.MethodPost, f.path("/edit"), `{"activityId":"`+target.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	editing := decode(t, rec)
	require.True(t, editing.Applied)
	require.NotNil(t, editing.Editing)
	assert.Equal(t, target.ID, editing.Editing.ID)

	rec = f.do(t, http.MethodPatch, f.path("/edit"), `{"field":"title","value":"Hoshinoya Kyoto"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodPatch, f.path("/edit"), `{"field":"type","value":"hotel"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decode(t, rec)
	assert.Equal(t, target.Title, pending.Trip.Days[0].Activities[1].Title)
	assert.Equal(t, "Hoshinoya Kyoto", pending.Editing.Title)

	rec = f.do(t, http.MethodPatch, f.path("/edit"), `{"field":"price","value":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, f.path("/edit/commit"), `{"dayIndex":0,"activityId":"`+target.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	committed := decode(t, rec)
	assert.True(t, committed.Applied)
	assert.Nil(t, committed.Editing)
	assert.Equal(t, "Hoshinoya Kyoto", committed.Trip.Days[0].Activities[1].Title)
	assert.Equal(t, target.ID, committed.Trip.Days[0].Activities[1].ID)
}

func TestCancelAndNoopEdits(t *testing.T) {
	f := setup(t)
	view := decode(t, f.do(t, http.MethodGet, f.path(""), ""))
	target := view.Trip.Days[2].Activities[0]

	rec := f.do(t, http.MethodPost, f.path("/edit"), `{"activityId":"unknown"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode(t, rec).Applied)

	f.do(t, http.MethodPost, f.path("/edit"), `{"activityId":"`+target.ID+`"}`)
	f.do(t, http.MethodPatch, f.path("/edit"), `{"field":"duration","value":"4 hours"}`)
	rec = f.do(t, http.MethodDelete, f.path("/edit"), "")
	cancelled := decode(t, rec)
	assert.True(t, cancelled.Applied)
	assert.Nil(t, cancelled.Editing)
	assert.Equal(t, view.Trip, cancelled.Trip)

	rec = f.do(t, http.MethodPost, f.path("/edit/commit"), `{"dayIndex":2,"activityId":"`+target.ID+`"}`)
	assert.False(t, decode(t, rec).Applied)
}

func TestActivityAndDayRoutes(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodPost, f.path("/days/1/activities"), "")
	require.Equal(t, http.StatusCreated, rec.Code)
	added := decode(t, rec)
	require.Len(t, added.Trip.Days[1].Activities, 3)
	newAct := added.Trip.Days[1].Activities[2]
	assert.Equal(t, "New Activity", newAct.Title)
	require.NotNil(t, added.Editing)
	assert.Equal(t, newAct.ID, added.Editing.ID)

	rec = f.do(t, http.MethodPost, f.path("/days/9/activities"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode(t, rec).Applied)

	rec = f.do(t, http.MethodDelete, f.path("/days/1/activities/"+newAct.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	deleted := decode(t, rec)
	assert.True(t, deleted.Applied)
	assert.Nil(t, deleted.Editing)
	assert.Len(t, deleted.Trip.Days[1].Activities, 2)

	rec = f.do(t, http.MethodPost, f.path("/days"), `{"date":"2024-10-04","location":"Tokyo"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, decode(t, rec).Trip.Days, 4)

	rec = f.do(t, http.MethodPost, f.path("/days"), `{"date":"tomorrow"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodDelete, f.path("/days/"+strconv.Itoa(3)), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec).Trip.Days, 3)

	rec = f.do(t, http.MethodDelete, f.path("/days/first"), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExport(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodGet, f.path("/export"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, rec.Body.String(), "Destination: Japan")

	rec = f.do(t, http.MethodGet, f.path("/export?lang=zh-CN"), "")
	assert.Contains(t, rec.Body.String(), "目的地：Japan")
}
