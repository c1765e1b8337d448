package server

import (
	"context"
	"time"

	"roommatch/internal/database"
	"roommatch/internal/models"

	"github.com/gofiber/fiber/v2"
)

const healthCheckTimeout = 5 * time.Second

// Root handles GET /
func (s *Server) Root(c *fiber.Ctx) error {
	return models.RespondOK(c, fiber.StatusOK, "Roommatch API", fiber.Map{
		"service": ServiceName,
		"version": ServiceVersion,
		"docs":    "/api/swagger/index.html",
	})
}

// HealthCheck handles GET /api/health
// @Summary Service health
// @Tags health
// @Produce json
// @Success 200 {object} models.Envelope
// @Router /health [get]
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return models.RespondOK(c, fiber.StatusOK, "OK", fiber.Map{
		"status":      "ok",
		"uptime":      time.Since(s.startedAt).Seconds(),
		"environment": s.config.Env,
		"timestamp":   time.Now().UTC(),
	})
}

// DatabaseHealthCheck handles GET /api/health/db
// @Summary Database health
// @Tags health
// @Produce json
// @Success 200 {object} models.Envelope
// @Failure 503 {object} models.Envelope
// @Router /health/db [get]
func (s *Server) DatabaseHealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
	defer cancel()

	if err := database.Ping(ctx, s.db); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.Envelope{
			Error: "Database connection failed",
			Data:  fiber.Map{"database": "unhealthy"},
		})
	}
	return models.RespondOK(c, fiber.StatusOK, "Database connection successful", fiber.Map{
		"database": "healthy",
	})
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return models.RespondOK(c, fiber.StatusOK, "", fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so an
// unconfigured Redis is reported as disabled and does not fail readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	data := fiber.Map{
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	}
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		data["status"] = "unhealthy"
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.Envelope{
			Error: "Service not ready",
			Data:  data,
		})
	}
	data["status"] = "healthy"
	return models.RespondOK(c, fiber.StatusOK, "", data)
}
