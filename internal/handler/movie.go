package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/boleteria/cinema-api/internal/repository"
)

// MovieHandler exposes the movie catalog. Writes are admin-only; the
// router enforces that.
type MovieHandler struct {
	Movies *repository.MovieRepo
}

func NewMovieHandler(r *repository.MovieRepo) *MovieHandler {
	return &MovieHandler{Movies: r}
}

type movieReq struct {
	Title    string `json:"title"`
	Duration string `json:"duration"`
	Genre    string `json:"genre"`
	Director string `json:"director"`
	Rating   string `json:"rating"`
	Synopsis string `json:"synopsis"`
}

type movieResp struct {
	ID       uint64 `json:"id"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
	Genre    string `json:"genre"`
	Director string `json:"director"`
	Rating   string `json:"rating"`
	Synopsis string `json:"synopsis"`
}

func toMovieResp(m *repository.Movie) movieResp {
	return movieResp{
		ID:       m.ID,
		Title:    m.Title,
		Duration: m.Duration,
		Genre:    m.Genre,
		Director: m.Director,
		Rating:   m.Rating,
		Synopsis: m.Synopsis,
	}
}

func (req *movieReq) toModel(id uint64) (*repository.Movie, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || strings.TrimSpace(req.Duration) == "" {
		return nil, repository.ErrInvalidRequest
	}
	return &repository.Movie{
		ID:       id,
		Title:    req.Title,
		Duration: strings.TrimSpace(req.Duration),
		Genre:    req.Genre,
		Director: req.Director,
		Rating:   req.Rating,
		Synopsis: req.Synopsis,
	}, nil
}

// Create adds a movie to the catalog.
func (h *MovieHandler) Create(c echo.Context) error {
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	m, err := req.toModel(0)
	if err != nil {
		return writeDomainError(c, err)
	}
	if err := h.Movies.Create(c.Request().Context(), m); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, toMovieResp(m))
}

// List returns the full catalog.
func (h *MovieHandler) List(c echo.Context) error {
	movies, err := h.Movies.ListAll(c.Request().Context())
	if err != nil {
		return writeDomainError(c, err)
	}
	out := make([]movieResp, 0, len(movies))
	for _, m := range movies {
		out = append(out, toMovieResp(m))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one movie by id.
func (h *MovieHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return writeDomainError(c, repository.ErrInvalidRequest)
	}
	m, err := h.Movies.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, toMovieResp(m))
}

// Update replaces a movie's attributes.
func (h *MovieHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return writeDomainError(c, repository.ErrInvalidRequest)
	}
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	m, err := req.toModel(id)
	if err != nil {
		return writeDomainError(c, err)
	}
	if err := h.Movies.Update(c.Request().Context(), m); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, toMovieResp(m))
}

// Delete removes a movie unless functions still reference it.
func (h *MovieHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return writeDomainError(c, repository.ErrInvalidRequest)
	}
	if err := h.Movies.Delete(c.Request().Context(), id); err != nil {
		return writeDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
