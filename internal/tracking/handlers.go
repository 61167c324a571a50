package tracking

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/start", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			JobID string `json:"job_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.JobID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "job_id required")
		}

		userID, _ := c.Locals("user_id").(string)
		role, _ := c.Locals("role").(string)

		sessionID, err := svc.Start(c.Context(), userID, role, req.JobID)
		if errors.Is(err, ErrJobNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "job not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"message": "session started", "session_id": sessionID})
	})

	r.Post("/update", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			JobID     string    `json:"job_id"`
			Latitude  float64   `json:"latitude"`
			Longitude float64   `json:"longitude"`
			Timestamp time.Time `json:"timestamp"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.JobID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "job_id required")
		}

		userID, _ := c.Locals("user_id").(string)
		result, err := svc.Update(c.Context(), userID, req.JobID, Point{
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
			Timestamp: req.Timestamp,
		})
		if errors.Is(err, ErrNoActiveSession) {
			return fiber.NewError(fiber.StatusNotFound, "active session not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if result.Skipped {
			return c.JSON(fiber.Map{"ok": true, "skipped": true})
		}
		return c.JSON(fiber.Map{"ok": true})
	})

	r.Post("/stop", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			JobID string `json:"job_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.JobID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "job_id required")
		}

		userID, _ := c.Locals("user_id").(string)
		result, err := svc.Stop(c.Context(), userID, req.JobID)
		if errors.Is(err, ErrNoActiveSession) {
			return fiber.NewError(fiber.StatusNotFound, "active session not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{
			"message":           "session completed",
			"total_distance_km": result.TotalDistanceKm,
			"streets":           result.Streets,
		})
	})

	r.Get("/history", authMiddleware, func(c *fiber.Ctx) error {
		filter := HistoryFilter{
			UserID:    c.Query("user_id"),
			Role:      c.Query("role"),
			JobID:     c.Query("job_id"),
			Status:    c.Query("status"),
			JobStatus: c.Query("job_status"),
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
			filter.To = t.Add(24*time.Hour - time.Millisecond)
		}

		sessions, err := svc.History(c.Context(), filter)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(sessions)
	})

	r.Get("/history/job/:jobId", authMiddleware, func(c *fiber.Ctx) error {
		sessions, err := svc.HistoryByJob(c.Context(), c.Params("jobId"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(sessions)
	})

	r.Get("/active", authMiddleware, func(c *fiber.Ctx) error {
		return c.JSON(svc.ActiveList(c.Query("role")))
	})

	r.Delete("/active/:userId", authMiddleware, func(c *fiber.Ctx) error {
		svc.RemoveActive(c.Context(), c.Params("userId"))
		return c.JSON(fiber.Map{"message": "active tracking removed"})
	})

	r.Get("/sessions/:sessionId", authMiddleware, func(c *fiber.Ctx) error {
		session, err := svc.GetSession(c.Context(), c.Params("sessionId"))
		if errors.Is(err, ErrSessionNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "session not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(session)
	})
}
