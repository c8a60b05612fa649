package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"

	"github.com/kontaktio/kontakt/internal/config"
)

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check if the server is healthy",
	Long:  "Performs an HTTP request to the /up endpoint to verify the server and database are operational",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		url := fmt.Sprintf("http://localhost:%s/up", cfg.Port)
		if err := checkHealth(url); err != nil {
			fmt.Fprintf(os.Stderr, "Healthcheck failed: %v\n", err)
			return err
		}
		return nil
	},
}

// checkHealth requests the given URL and requires a 200 response.
func checkHealth(url string) error {
	status, _, err := fasthttp.GetTimeout(nil, url, 2*time.Second)
	if err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	if status != fasthttp.StatusOK {
		return fmt.Errorf("healthcheck failed: status %d", status)
	}
	return nil
}
