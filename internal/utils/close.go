package utils

import (
	"io"

	"github.com/MrSnakeDoc/panelshop/internal/logger"
)

// Close closes c and ignores any error.
func Close(c io.Closer) {
	_ = c.Close()
}

// CloseLogged closes c and warn-logs a failure under the given name.
func CloseLogged(c io.Closer, log logger.Logger, what string) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.String("what", what), logger.Error(err))
	}
}
