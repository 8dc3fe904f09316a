package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/kstbyev/investflow/internal/catalog"
	"github.com/kstbyev/investflow/internal/imagecache"
	"github.com/kstbyev/investflow/internal/search"
	"github.com/kstbyev/investflow/pkg/model"
)

// CatalogService is the catalog surface the handlers use.
type CatalogService interface {
	View(tab catalog.Tab) []model.Instrument
	Lookup(ticker string) (model.Instrument, bool)
	ToggleFavorite(ticker string) (favorite, ok bool)
	Generation() uint64
}

// tickerParam copies the path parameter out of the request buffer; values that
// outlive the handler (favorites, events, recent searches) must never alias it.
func tickerParam(c *fiber.Ctx) string {
	return utils.CopyString(c.Params("ticker"))
}

// LogoResolver resolves an instrument's logo with fallbacks.
type LogoResolver interface {
	Logo(ctx context.Context, req imagecache.LogoRequest) imagecache.Logo
}

// Handler serves the catalog, search and logo endpoints.
type Handler struct {
	logger  *zap.Logger
	catalog CatalogService
	session *search.Session
	logos   LogoResolver
}

// NewHandler creates a new Handler. RegisterRoutes skips the search routes when session is nil
// and the logo route when logos is nil.
func NewHandler(logger *zap.Logger, cat CatalogService, session *search.Session, logos LogoResolver) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		logger:  logger,
		catalog: cat,
		session: session,
		logos:   logos,
	}
}

// ListInstruments returns the All or Favorites view.
// GET /api/v1/instruments?tab=all|favorites
func (h *Handler) ListInstruments(c *fiber.Ctx) error {
	tab, err := catalog.ParseTab(c.Query("tab"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	view := h.catalog.View(tab)
	return c.JSON(ListResponse{
		Tab:         tab.String(),
		Generation:  h.catalog.Generation(),
		Count:       len(view),
		Instruments: toInstrumentResponses(view),
	})
}

// GetInstrument returns one instrument.
// GET /api/v1/instruments/:ticker
func (h *Handler) GetInstrument(c *fiber.Ctx) error {
	inst, ok := h.catalog.Lookup(tickerParam(c))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown ticker"})
	}
	return c.JSON(toInstrumentResponse(inst))
}

// ToggleFavorite flips the favorite flag.
// POST /api/v1/instruments/:ticker/favorite
func (h *Handler) ToggleFavorite(c *fiber.Ctx) error {
	ticker := tickerParam(c)
	fav, ok := h.catalog.ToggleFavorite(ticker)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown ticker"})
	}
	h.logger.Info("api.favorite_toggled", zap.String("ticker", ticker), zap.Bool("favorite", fav))
	return c.JSON(FavoriteResponse{Ticker: ticker, IsFavorite: fav})
}

// Search runs the query against the requested tab.
// GET /api/v1/search?q=&tab=
func (h *Handler) Search(c *fiber.Ctx) error {
	tab, err := catalog.ParseTab(c.Query("tab"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	res := h.session.SetQuery(utils.CopyString(c.Query("q")), h.catalog.View(tab))
	return c.JSON(toSearchResponse(res))
}

// ClearSearch returns the session to idle.
// DELETE /api/v1/search
func (h *Handler) ClearSearch(c *fiber.Ctx) error {
	h.session.Clear()
	return c.JSON(toSearchResponse(search.Result{}))
}

// SelectResult picks a ticker from the current results and records the query.
// The response carries the instrument as it is now, not as it was when the search ran.
// POST /api/v1/search/select/:ticker
func (h *Handler) SelectResult(c *fiber.Ctx) error {
	ticker, ok := h.session.Select(tickerParam(c))
	if !ok {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "ticker is not among the current results"})
	}
	inst, ok := h.catalog.Lookup(ticker)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown ticker"})
	}
	return c.JSON(toInstrumentResponse(inst))
}

// Suggestions returns popular and recent search tags.
// GET /api/v1/suggestions
func (h *Handler) Suggestions(c *fiber.Ctx) error {
	return c.JSON(h.session.Suggestions())
}

// Logo streams the remote logo, or names the fallback asset.
// GET /api/v1/instruments/:ticker/logo
func (h *Handler) Logo(c *fiber.Ctx) error {
	inst, ok := h.catalog.Lookup(tickerParam(c))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown ticker"})
	}

	logo := h.logos.Logo(c.UserContext(), imagecache.LogoRequest{URL: inst.LogoURL, IconName: inst.IconName})
	c.Set("X-Logo-Source", logo.Source)
	if logo.Source == imagecache.SourceRemote {
		c.Set(fiber.HeaderContentType, logo.Image.ContentType())
		c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
		return c.Send(logo.Image.Data)
	}
	return c.JSON(LogoFallbackResponse{Source: logo.Source, Name: logo.Name})
}

func toSearchResponse(res search.Result) SearchResponse {
	if !res.Active {
		return SearchResponse{State: search.Idle.String(), Instruments: []InstrumentResponse{}}
	}
	return SearchResponse{
		State:       search.Searching.String(),
		Query:       res.Query,
		Count:       len(res.Instruments),
		Instruments: toInstrumentResponses(res.Instruments),
	}
}
