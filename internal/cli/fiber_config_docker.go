//go:build docker

package cli

import "github.com/gofiber/fiber/v3"

// createFiberConfig returns Fiber configuration for Docker deployments.
// Prefork stays off so the container keeps single-process behavior for
// orchestration, health checks, and signal handling.
func createFiberConfig(appName string) fiber.Config {
	return fiber.Config{
		AppName: appName,
		Prefork: false,
	}
}
