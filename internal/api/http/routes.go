package httpapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/crownsite/chart-aggregation/internal/charts"
)

var validate = validator.New()

// chartsQuery holds query parameters for the charts endpoint. Both fields
// are optional; configured defaults fill the gaps.
type chartsQuery struct {
	Artist string `validate:"omitempty,max=200"`
	Track  string `validate:"omitempty,max=200"`
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
//
// The charts endpoint is deliberately fail-soft: upstream trouble never
// becomes a non-200 here, it rides inside the body as item status text.
// Oversized query values are ignored in the same spirit, falling back to
// the configured defaults instead of erroring.
func RegisterRoutes(app *fiber.App, service *charts.Service) {
	app.Get("/api/charts", func(c *fiber.Ctx) error {
		q := chartsQuery{
			Artist: c.Query("artist"),
			Track:  c.Query("track"),
		}
		if err := validate.Struct(q); err != nil {
			q = chartsQuery{}
		}

		force := c.Query("force") == "1"

		data := service.Get(c.UserContext(), q.Artist, q.Track, force)

		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(data)
	})
}
