package api

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matija2209/home-energy-dashboard/internal/aggregate"
	"github.com/matija2209/home-energy-dashboard/internal/db"
	"github.com/matija2209/home-energy-dashboard/internal/service"
)

var validate = validator.New()

// ReadingsService is the query façade the handlers delegate to
type ReadingsService interface {
	Readings(ctx context.Context, filter service.Filter) ([]aggregate.Point, error)
	MeteringPoints(ctx context.Context) ([]db.MeteringPoint, error)
	ReadingTypes(ctx context.Context) ([]string, error)
}

// readingResponse is one aggregated point on the wire
type readingResponse struct {
	Timestamp       string      `json:"timestamp"`
	Value           json.Number `json:"value"`
	MeteringPointID string      `json:"meteringPointId"`
	ReadingTypeCode string      `json:"readingTypeCode"`
}

// meteringPointResponse is one metering point on the wire
type meteringPointResponse struct {
	GSRN string  `json:"gsrn"`
	Name *string `json:"name"`
}

// RegisterRoutes wires the HTTP handlers into the Fiber app
func RegisterRoutes(app *fiber.App, svc ReadingsService) {
	v1 := app.Group("/api/v1")

	v1.Get("/readings", func(c *fiber.Ctx) error {
		filter, err := parseReadingsQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		points, err := svc.Readings(c.UserContext(), filter)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch readings")
		}

		resp := make([]readingResponse, 0, len(points))
		for _, p := range points {
			resp = append(resp, readingResponse{
				Timestamp:       p.Timestamp.Format(time.RFC3339),
				Value:           json.Number(p.Value.String()),
				MeteringPointID: p.MeteringPointID,
				ReadingTypeCode: p.ReadingTypeCode,
			})
		}
		return c.JSON(resp)
	})

	v1.Get("/metering-points", func(c *fiber.Ctx) error {
		points, err := svc.MeteringPoints(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch metering points")
		}

		resp := make([]meteringPointResponse, 0, len(points))
		for _, p := range points {
			resp = append(resp, meteringPointResponse{GSRN: p.GSRN, Name: p.Name})
		}
		return c.JSON(resp)
	})

	v1.Get("/reading-types", func(c *fiber.Ctx) error {
		codes, err := svc.ReadingTypes(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch reading types")
		}
		if codes == nil {
			codes = []string{}
		}
		return c.JSON(codes)
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

// readingsQuery holds the raw query parameters of GET /readings
type readingsQuery struct {
	From          string `validate:"omitempty"`
	To            string `validate:"omitempty"`
	MeteringPoint string `validate:"omitempty"`
	ReadingType   string `validate:"omitempty"`
	Aggregation   string `validate:"omitempty,oneof=15min hour day week month"`
}

func parseReadingsQuery(c *fiber.Ctx) (service.Filter, error) {
	q := readingsQuery{
		From:          c.Query("from"),
		To:            c.Query("to"),
		MeteringPoint: c.Query("meteringPoint"),
		ReadingType:   c.Query("readingType"),
		Aggregation:   c.Query("aggregation"),
	}
	if err := validate.Struct(q); err != nil {
		return service.Filter{}, err
	}

	filter := service.Filter{
		MeteringPoint: q.MeteringPoint,
		ReadingType:   q.ReadingType,
		Granularity:   aggregate.Granularity(q.Aggregation),
	}

	if q.From != "" {
		from, err := parseInstant(q.From)
		if err != nil {
			return service.Filter{}, err
		}
		filter.From = from
	}
	if q.To != "" {
		to, err := parseInstant(q.To)
		if err != nil {
			return service.Filter{}, err
		}
		filter.To = to
	}

	return filter, nil
}

// parseInstant accepts an RFC3339 instant or a plain calendar date
func parseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or YYYY-MM-DD")
}
