// Package common holds small helpers shared by the services and commands.
package common

import (
	"io"

	"github.com/0glabs/storage-ops/log"
)

// CloseOrLog closes c and logs, rather than returns, a failure.
func CloseOrLog(c io.Closer, logger *log.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("close failed", "err", err)
	}
}
