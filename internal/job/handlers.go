package job

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req TourJob
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.JobDate.IsZero() || req.AdminID == "" || req.DriverID == "" || req.GuideID == "" || req.Destination == "" {
			return fiber.NewError(fiber.StatusBadRequest, "job_date, admin_id, driver_id, guide_id and destination required")
		}
		created, err := svc.Create(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "tour job created", "job": created})
	})

	r.Get("/list", authMiddleware, func(c *fiber.Ctx) error {
		filter := Filter{
			DriverID: c.Query("driver_id"),
			GuideID:  c.Query("guide_id"),
			Status:   c.Query("status"),
		}
		if from := c.Query("from"); from != "" {
			t, err := time.Parse("2006-01-02", from)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid from date")
			}
			filter.From = t
		}
		if to := c.Query("to"); to != "" {
			t, err := time.Parse("2006-01-02", to)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid to date")
			}
			filter.To = t
		}

		jobs, err := svc.List(c.Context(), filter)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(jobs)
	})

	r.Get("/:id", authMiddleware, func(c *fiber.Ctx) error {
		found, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "job not found")
		}
		return c.JSON(found)
	})

	r.Patch("/:id/status", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			Status string `json:"status"`
		}
		if err := c.BodyParser(&req); err != nil || req.Status == "" {
			return fiber.NewError(fiber.StatusBadRequest, "status required")
		}

		err := svc.UpdateStatus(c.Context(), c.Params("id"), req.Status)
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "job not found")
		}
		if errors.Is(err, ErrInvalidStatus) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"message": "status updated"})
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
