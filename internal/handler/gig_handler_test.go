package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslink-ng/campus-api/internal/middleware"
	"github.com/campuslink-ng/campus-api/internal/models"
)

func filterContext(t *testing.T, rawQuery string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/gigs?"+rawQuery, nil)
	c.Request = req
	return c
}

func TestParseGigFilterDefaults(t *testing.T) {
	c := filterContext(t, "")

	filter, err := parseGigFilter(c)
	require.NoError(t, err)
	assert.Equal(t, 1, filter.Page)
	assert.Equal(t, 20, filter.PageSize)
	assert.Nil(t, filter.Status)
	assert.Nil(t, filter.MinPrice)
	assert.Nil(t, filter.MaxPrice)
}

func TestParseGigFilterFullQuery(t *testing.T) {
	c := filterContext(t, "category=design&status=ACTIVE&owner_id=owner-1&min_price=1000&max_price=5000&search=logo&page=3&page_size=10")

	filter, err := parseGigFilter(c)
	require.NoError(t, err)
	assert.Equal(t, "design", filter.Category)
	assert.Equal(t, "owner-1", filter.OwnerID)
	assert.Equal(t, "logo", filter.Search)
	require.NotNil(t, filter.Status)
	assert.Equal(t, models.GigStatusActive, *filter.Status)
	require.NotNil(t, filter.MinPrice)
	assert.Equal(t, 1000.0, *filter.MinPrice)
	require.NotNil(t, filter.MaxPrice)
	assert.Equal(t, 5000.0, *filter.MaxPrice)
	assert.Equal(t, 3, filter.Page)
	assert.Equal(t, 10, filter.PageSize)
}

func TestParseGigFilterOwnerMeResolvesClaims(t *testing.T) {
	c := filterContext(t, "owner_id=me")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "owner-7", Role: models.RoleStudent})

	filter, err := parseGigFilter(c)
	require.NoError(t, err)
	assert.Equal(t, "owner-7", filter.OwnerID)
}

func TestParseGigFilterOwnerMeRequiresClaims(t *testing.T) {
	_, err := parseGigFilter(filterContext(t, "owner_id=me"))
	require.Error(t, err)
}

func TestParseGigFilterRejectsBadValues(t *testing.T) {
	_, err := parseGigFilter(filterContext(t, "status=BOGUS"))
	require.Error(t, err)

	_, err = parseGigFilter(filterContext(t, "min_price=cheap"))
	require.Error(t, err)

	_, err = parseGigFilter(filterContext(t, "max_price=expensive"))
	require.Error(t, err)
}
