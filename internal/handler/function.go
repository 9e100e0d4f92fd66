package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/boleteria/cinema-api/internal/repository"
)

// FunctionHandler exposes screening function endpoints. Writes are
// admin-only; the router enforces that.
type FunctionHandler struct {
	Functions *repository.FunctionRepo
	Cinemas   *repository.CinemaRepo
	Movies    *repository.MovieRepo
}

func NewFunctionHandler(f *repository.FunctionRepo, c *repository.CinemaRepo, m *repository.MovieRepo) *FunctionHandler {
	return &FunctionHandler{Functions: f, Cinemas: c, Movies: m}
}

type functionReq struct {
	CinemaID     uint64 `json:"cinema_id"`
	MovieID      uint64 `json:"movie_id"`
	ShowDatetime string `json:"show_datetime"`
}

type functionResp struct {
	ID                uint64 `json:"id"`
	CinemaID          uint64 `json:"cinema_id"`
	MovieID           uint64 `json:"movie_id"`
	ShowDatetime      string `json:"show_datetime"`
	TotalCapacity     uint32 `json:"total_capacity"`
	AvailableCapacity uint32 `json:"available_capacity"`
}

type functionListResp struct {
	functionResp
	MovieTitle string `json:"movie_title"`
	CinemaName string `json:"cinema_name"`
}

func toFunctionResp(f *repository.Function) functionResp {
	return functionResp{
		ID:                f.ID,
		CinemaID:          f.CinemaID,
		MovieID:           f.MovieID,
		ShowDatetime:      f.ShowDatetime.UTC().Format(time.RFC3339),
		TotalCapacity:     f.TotalCapacity,
		AvailableCapacity: f.AvailableCapacity,
	}
}

func toFunctionListResp(items []*repository.FunctionListItem) []functionListResp {
	out := make([]functionListResp, 0, len(items))
	for _, it := range items {
		out = append(out, functionListResp{
			functionResp: toFunctionResp(&it.Function),
			MovieTitle:   it.MovieTitle,
			CinemaName:   it.CinemaName,
		})
	}
	return out
}

func parseShowDatetime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}

// CreateBatch creates one or more functions atomically. Each function's
// capacity is derived from its cinema's seat capacity. Any invalid entry
// aborts the whole batch.
func (h *FunctionHandler) CreateBatch(c echo.Context) error {
	var reqs []functionReq
	if err := c.Bind(&reqs); err != nil || len(reqs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "expected a non-empty array of functions"})
	}
	ctx := c.Request().Context()

	tx, err := h.Functions.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	created := make([]functionResp, 0, len(reqs))
	for _, req := range reqs {
		if req.CinemaID == 0 || req.MovieID == 0 || req.ShowDatetime == "" {
			return writeDomainError(c, repository.ErrInvalidRequest)
		}
		showAt, err := parseShowDatetime(req.ShowDatetime)
		if err != nil {
			return writeDomainError(c, repository.ErrInvalidRequest)
		}
		cinema, err := h.Cinemas.GetByID(ctx, req.CinemaID)
		if err != nil {
			return writeDomainError(c, err)
		}
		if !cinema.Enabled {
			return writeDomainError(c, repository.ErrConflict)
		}
		if _, err := h.Movies.GetByID(ctx, req.MovieID); err != nil {
			return writeDomainError(c, err)
		}
		f := &repository.Function{
			CinemaID:          req.CinemaID,
			MovieID:           req.MovieID,
			ShowDatetime:      showAt,
			TotalCapacity:     cinema.SeatCapacity,
			AvailableCapacity: cinema.SeatCapacity,
		}
		if err := h.Functions.CreateTx(ctx, tx, f); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		created = append(created, toFunctionResp(f))
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	committed = true

	logrus.WithField("count", len(created)).Info("functions created")
	return c.JSON(http.StatusCreated, created)
}

// List returns every function with its movie title and cinema name.
func (h *FunctionHandler) List(c echo.Context) error {
	items, err := h.Functions.ListAll(c.Request().Context())
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, toFunctionListResp(items))
}

// Get returns one function by id.
func (h *FunctionHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return writeDomainError(c, repository.ErrInvalidRequest)
	}
	f, err := h.Functions.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, toFunctionResp(f))
}

// ListAvailableByMovie returns functions for a movie that still have
// seats available.
func (h *FunctionHandler) ListAvailableByMovie(c echo.Context) error {
	movieID, ok := pathID(c, "movieId")
	if !ok {
		return writeDomainError(c, repository.ErrInvalidRequest)
	}
	items, err := h.Functions.ListAvailableByMovie(c.Request().Context(), movieID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, toFunctionListResp(items))
}

// ListByScreenType returns functions held in cinemas of the given screen
// type.
func (h *FunctionHandler) ListByScreenType(c echo.Context) error {
	screenType := c.Param("type")
	if screenType == "" {
		return writeDomainError(c, repository.ErrInvalidRequest)
	}
	items, err := h.Functions.ListByScreenType(c.Request().Context(), screenType)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, toFunctionListResp(items))
}

// Update reschedules a function. Capacity counters are immutable here.
func (h *FunctionHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return writeDomainError(c, repository.ErrInvalidRequest)
	}
	var req functionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.CinemaID == 0 || req.MovieID == 0 || req.ShowDatetime == "" {
		return writeDomainError(c, repository.ErrInvalidRequest)
	}
	showAt, err := parseShowDatetime(req.ShowDatetime)
	if err != nil {
		return writeDomainError(c, repository.ErrInvalidRequest)
	}
	ctx := c.Request().Context()
	if _, err := h.Cinemas.GetByID(ctx, req.CinemaID); err != nil {
		return writeDomainError(c, err)
	}
	if _, err := h.Movies.GetByID(ctx, req.MovieID); err != nil {
		return writeDomainError(c, err)
	}
	f := &repository.Function{ID: id, CinemaID: req.CinemaID, MovieID: req.MovieID, ShowDatetime: showAt}
	if err := h.Functions.UpdateSchedule(ctx, f); err != nil {
		return writeDomainError(c, err)
	}
	updated, err := h.Functions.GetByID(ctx, id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, toFunctionResp(updated))
}

// Delete removes a function unless tickets have been sold for it.
func (h *FunctionHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return writeDomainError(c, repository.ErrInvalidRequest)
	}
	if err := h.Functions.Delete(c.Request().Context(), id); err != nil {
		return writeDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
