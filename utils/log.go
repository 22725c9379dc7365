package utils

import (
	"io"

	"github.com/sirupsen/logrus"
)

// DiscardLogger is the default for components built without a logger.
func DiscardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}
