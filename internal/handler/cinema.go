package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/boleteria/cinema-api/internal/repository"
)

// validScreenTypes are the screen formats a room can have.
var validScreenTypes = map[string]bool{"2D": true, "3D": true, "IMAX": true}

// CinemaHandler exposes cinema room endpoints. Writes are admin-only; the
// router enforces that.
type CinemaHandler struct {
	Cinemas *repository.CinemaRepo
}

func NewCinemaHandler(r *repository.CinemaRepo) *CinemaHandler {
	return &CinemaHandler{Cinemas: r}
}

type cinemaReq struct {
	Name         string `json:"name"`
	ScreenType   string `json:"screen_type"`
	SeatCapacity uint32 `json:"seat_capacity"`
	Enabled      *bool  `json:"enabled"`
}

type cinemaResp struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	ScreenType   string `json:"screen_type"`
	SeatCapacity uint32 `json:"seat_capacity"`
	Enabled      bool   `json:"enabled"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func toCinemaResp(cn *repository.Cinema) cinemaResp {
	return cinemaResp{
		ID:           cn.ID,
		Name:         cn.Name,
		ScreenType:   cn.ScreenType,
		SeatCapacity: cn.SeatCapacity,
		Enabled:      cn.Enabled,
		CreatedAt:    cn.CreatedAt,
		UpdatedAt:    cn.UpdatedAt,
	}
}

func toCinemaRespList(items []*repository.Cinema) []cinemaResp {
	out := make([]cinemaResp, 0, len(items))
	for _, cn := range items {
		out = append(out, toCinemaResp(cn))
	}
	return out
}

func (req *cinemaReq) validate() error {
	req.Name = strings.TrimSpace(req.Name)
	req.ScreenType = strings.ToUpper(strings.TrimSpace(req.ScreenType))
	if req.Name == "" || req.SeatCapacity == 0 || !validScreenTypes[req.ScreenType] {
		return repository.ErrInvalidRequest
	}
	return nil
}

// CreateBatch registers one or more cinema rooms. New rooms default to
// enabled unless the payload says otherwise.
func (h *CinemaHandler) CreateBatch(c echo.Context) error {
	var reqs []cinemaReq
	if err := c.Bind(&reqs); err != nil || len(reqs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "expected a non-empty array of cinemas"})
	}
	ctx := c.Request().Context()

	created := make([]cinemaResp, 0, len(reqs))
	for i := range reqs {
		if err := reqs[i].validate(); err != nil {
			return writeDomainError(c, err)
		}
		enabled := true
		if reqs[i].Enabled != nil {
			enabled = *reqs[i].Enabled
		}
		cn := &repository.Cinema{
			Name:         reqs[i].Name,
			ScreenType:   reqs[i].ScreenType,
			SeatCapacity: reqs[i].SeatCapacity,
			Enabled:      enabled,
		}
		if err := h.Cinemas.Create(ctx, cn); err != nil {
			return writeDomainError(c, err)
		}
		created = append(created, toCinemaResp(cn))
	}
	return c.JSON(http.StatusCreated, created)
}

// List returns cinemas, optionally filtered by query parameters
// screen_type, enabled or seat_capacity. Filters are mutually exclusive;
// the first one present wins.
func (h *CinemaHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	if st := strings.ToUpper(strings.TrimSpace(c.QueryParam("screen_type"))); st != "" {
		if !validScreenTypes[st] {
			return writeDomainError(c, repository.ErrInvalidRequest)
		}
		items, err := h.Cinemas.ListByScreenType(ctx, st)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(http.StatusOK, toCinemaRespList(items))
	}
	if en := c.QueryParam("enabled"); en != "" {
		enabled, err := strconv.ParseBool(en)
		if err != nil {
			return writeDomainError(c, repository.ErrInvalidRequest)
		}
		items, err := h.Cinemas.ListByEnabled(ctx, enabled)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(http.StatusOK, toCinemaRespList(items))
	}
	if sc := c.QueryParam("seat_capacity"); sc != "" {
		capacity, err := strconv.ParseUint(sc, 10, 32)
		if err != nil || capacity == 0 {
			return writeDomainError(c, repository.ErrInvalidRequest)
		}
		items, err := h.Cinemas.ListBySeatCapacity(ctx, uint32(capacity))
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(http.StatusOK, toCinemaRespList(items))
	}

	items, err := h.Cinemas.ListAll(ctx)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, toCinemaRespList(items))
}

// Get returns one cinema by id.
func (h *CinemaHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return writeDomainError(c, repository.ErrInvalidRequest)
	}
	cn, err := h.Cinemas.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, toCinemaResp(cn))
}

// Update replaces a cinema's attributes.
func (h *CinemaHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return writeDomainError(c, repository.ErrInvalidRequest)
	}
	var req cinemaReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.validate(); err != nil {
		return writeDomainError(c, err)
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	ctx := c.Request().Context()
	cn := &repository.Cinema{
		ID:           id,
		Name:         req.Name,
		ScreenType:   req.ScreenType,
		SeatCapacity: req.SeatCapacity,
		Enabled:      enabled,
	}
	if err := h.Cinemas.Update(ctx, cn); err != nil {
		return writeDomainError(c, err)
	}
	updated, err := h.Cinemas.GetByID(ctx, id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, toCinemaResp(updated))
}

// Delete removes a cinema unless functions are scheduled in it.
func (h *CinemaHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return writeDomainError(c, repository.ErrInvalidRequest)
	}
	if err := h.Cinemas.Delete(c.Request().Context(), id); err != nil {
		return writeDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
