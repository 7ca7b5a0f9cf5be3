package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func paramsForQuery(t *testing.T, query string) *Params {
	t.Helper()

	var got *Params
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		got = GetParams(c)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/"+query, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotNil(t, got)
	return got
}

func TestGetParams(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 1, DefaultLimit, 0},
		{"explicit", "?page=3&limit=10", 3, 10, 20},
		{"limit capped", "?page=1&limit=500", 1, MaxLimit, 0},
		{"negative page", "?page=-2", 1, DefaultLimit, 0},
		{"zero limit", "?limit=0", 1, DefaultLimit, 0},
		{"garbage", "?page=abc&limit=xyz", 1, DefaultLimit, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := paramsForQuery(t, tt.query)
			require.Equal(t, tt.wantPage, got.Page)
			require.Equal(t, tt.wantLimit, got.Limit)
			require.Equal(t, tt.wantOffset, got.Offset)
		})
	}
}

func TestGetMeta(t *testing.T) {
	meta := GetMeta(&Params{Page: 1, Limit: 20}, 45)
	require.Equal(t, 3, meta.TotalPages)
	require.Equal(t, int64(45), meta.Total)
	require.True(t, meta.HasNext)
	require.False(t, meta.HasPrev)

	meta = GetMeta(&Params{Page: 3, Limit: 20}, 45)
	require.False(t, meta.HasNext)
	require.True(t, meta.HasPrev)

	meta = GetMeta(&Params{Page: 1, Limit: 20}, 0)
	require.Zero(t, meta.TotalPages)
	require.False(t, meta.HasNext)
}
