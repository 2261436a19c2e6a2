package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kijani-trails/conservation-booking/internal/model"
	"github.com/kijani-trails/conservation-booking/internal/pricing"
	"github.com/kijani-trails/conservation-booking/internal/repository"
)

// ExperienceReader resolves experiences for the public pages.
type ExperienceReader interface {
	GetBySlug(ctx context.Context, slug string) (*model.Experience, error)
}

type ExperienceHandler struct {
	Experiences ExperienceReader
	Currency    string
}

func NewExperienceHandler(r ExperienceReader, currency string) *ExperienceHandler {
	return &ExperienceHandler{Experiences: r, Currency: currency}
}

type experienceResp struct {
	ID                 string `json:"id"`
	Slug               string `json:"slug"`
	Title              string `json:"title"`
	PriceAdult         int64  `json:"price_adult"`
	PremiumPriceAdult  int64  `json:"premium_price_adult,omitempty"`
	Currency           string `json:"currency"`
	ChildHalfPriceRule bool   `json:"child_half_price_rule"`
	IsGroupPricing     bool   `json:"is_group_pricing"`
	Capacity           int    `json:"capacity"`
}

func (h *ExperienceHandler) load(c echo.Context) (*model.Experience, error) {
	exp, err := h.Experiences.GetBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return nil, err
	}
	if exp == nil || !exp.IsActive {
		return nil, repository.ErrExperienceNotFound
	}
	return exp, nil
}

func (h *ExperienceHandler) currency(exp *model.Experience) string {
	if exp.Currency != "" {
		return strings.ToUpper(exp.Currency)
	}
	return h.Currency
}

// Get returns an active experience by slug.
func (h *ExperienceHandler) Get(c echo.Context) error {
	exp, err := h.load(c)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, experienceResp{
		ID:                 exp.ID,
		Slug:               exp.Slug,
		Title:              exp.Title,
		PriceAdult:         exp.PriceAdult,
		PremiumPriceAdult:  exp.PremiumPriceAdult,
		Currency:           h.currency(exp),
		ChildHalfPriceRule: exp.ChildHalfPriceRule,
		IsGroupPricing:     exp.IsGroupPricing,
		Capacity:           exp.Capacity,
	})
}

// Quote prices a party without touching the cart:
// GET /v1/experiences/:slug/quote?adults=2&children=1&option=premium&donation=500
func (h *ExperienceHandler) Quote(c echo.Context) error {
	exp, err := h.load(c)
	if err != nil {
		return fail(c, err)
	}
	adults, err := queryInt(c, "adults", 1)
	if err != nil {
		return badRequest(c, "invalid adults")
	}
	children, err := queryInt(c, "children", 0)
	if err != nil {
		return badRequest(c, "invalid children")
	}
	donation, err := queryInt(c, "donation", 0)
	if err != nil || donation < 0 {
		return badRequest(c, "invalid donation")
	}
	opt := model.OptionID(strings.ToLower(strings.TrimSpace(c.QueryParam("option"))))
	if opt == "" {
		opt = model.OptionStandard
	}
	if !opt.Valid() {
		return badRequest(c, "invalid option")
	}
	capacity := int64(exp.Capacity)
	if adults < 1 || children < 0 || (capacity > 0 && (adults > capacity || children > capacity || adults+children > capacity)) {
		return badRequest(c, "invalid party size")
	}

	q, err := pricing.NewQuote(pricing.Input{
		UnitPrice:      exp.UnitPrice(opt),
		Adults:         int(adults),
		Children:       int(children),
		ChildHalfPrice: exp.ChildHalfPriceRule,
		IsGroupPricing: exp.IsGroupPricing,
		Donation:       donation,
		Currency:       h.currency(exp),
	})
	if err != nil {
		return badRequest(c, err.Error())
	}
	return c.JSON(http.StatusOK, q)
}

func queryInt(c echo.Context, name string, def int64) (int64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return n, nil
}
