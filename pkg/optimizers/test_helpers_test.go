package optimizers

import (
	"github.com/paretolabs/devo/pkg/logging"
)

// newSilentLogger returns a logger that drops everything, keeping test
// output clean while verbosity-driven code paths still execute.
func newSilentLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Severity: logging.FATAL})
}
