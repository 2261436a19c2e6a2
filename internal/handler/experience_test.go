package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kijani-trails/conservation-booking/internal/model"
	"github.com/kijani-trails/conservation-booking/internal/repository"
)

type stubExperiences map[string]*model.Experience

func (s stubExperiences) GetBySlug(_ context.Context, slug string) (*model.Experience, error) {
	if e, ok := s[strings.ToLower(slug)]; ok {
		return e, nil
	}
	return nil, repository.ErrExperienceNotFound
}

func newExperienceHandler() *ExperienceHandler {
	return NewExperienceHandler(stubExperiences{
		"family-canoe": {ID: "exp-2", Slug: "family-canoe", Title: "Family canoe", PriceAdult: 1000, PremiumPriceAdult: 1500,
			Currency: "kes", ChildHalfPriceRule: true, Capacity: 6, IsActive: true},
		"closed-trail": {ID: "exp-4", Slug: "closed-trail", PriceAdult: 900, IsActive: false},
		"open-day":     {ID: "exp-5", Slug: "open-day", PriceAdult: 3500, Currency: "KES", IsActive: true},
	}, "KES")
}

func TestExperienceGet(t *testing.T) {
	h := newExperienceHandler()
	c, rec := newCtx(http.MethodGet, "/v1/experiences/family-canoe", "", 0)
	c.SetParamNames("slug")
	c.SetParamValues("family-canoe")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "KES", body["currency"])
	assert.EqualValues(t, 1500, body["premium_price_adult"])
}

func TestExperienceGet_InactiveIs404(t *testing.T) {
	h := newExperienceHandler()
	for _, slug := range []string{"closed-trail", "nowhere"} {
		c, rec := newCtx(http.MethodGet, "/v1/experiences/"+slug, "", 0)
		c.SetParamNames("slug")
		c.SetParamValues(slug)
		require.NoError(t, h.Get(c))
		assert.Equal(t, http.StatusNotFound, rec.Code, slug)
	}
}

func TestExperienceQuote(t *testing.T) {
	h := newExperienceHandler()
	c, rec := newCtx(http.MethodGet, "/v1/experiences/family-canoe/quote?adults=2&children=1&option=premium&donation=250", "", 0)
	c.SetParamNames("slug")
	c.SetParamValues("family-canoe")
	require.NoError(t, h.Quote(c))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	// 2 x 1500 + 750 for the child
	assert.EqualValues(t, 3750, body["subtotal"])
	assert.EqualValues(t, 4000, body["total"])
	split := body["split"].(map[string]any)
	assert.EqualValues(t, 3625, split["partner90"])
	assert.EqualValues(t, 375, split["platform10"])
}

func TestExperienceQuote_BadInput(t *testing.T) {
	h := newExperienceHandler()
	for _, q := range []string{"adults=0", "adults=two", "donation=-5", "option=vip", "adults=5&children=2"} {
		c, rec := newCtx(http.MethodGet, "/v1/experiences/family-canoe/quote?"+q, "", 0)
		c.SetParamNames("slug")
		c.SetParamValues("family-canoe")
		require.NoError(t, h.Quote(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestExperienceQuote_RejectsOverflowingAmounts(t *testing.T) {
	h := newExperienceHandler()
	cases := map[string]string{
		"family-canoe": "adults=9223372036854775807&children=9223372036854775807",
		"open-day":     "adults=9223372036854775807",
	}
	for slug, q := range cases {
		c, rec := newCtx(http.MethodGet, "/v1/experiences/"+slug+"/quote?"+q, "", 0)
		c.SetParamNames("slug")
		c.SetParamValues(slug)
		require.NoError(t, h.Quote(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, slug)
	}

	c, rec := newCtx(http.MethodGet, "/v1/experiences/open-day/quote?adults=2&donation=9223372036854774807", "", 0)
	c.SetParamNames("slug")
	c.SetParamValues("open-day")
	require.NoError(t, h.Quote(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "amount too large", decode(t, rec)["error"])
}
