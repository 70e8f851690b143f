// /internal/database/gormlog.go
package database

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm/logger"
)

// slogWriter encaminha as linhas do logger do gorm para o slog.
type slogWriter struct {
	log *slog.Logger
}

func (w slogWriter) Printf(format string, args ...interface{}) {
	w.log.Warn("gorm", "detail", strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// NewGormLogger registra avisos, erros e queries lentas do gorm como JSON.
// Registro não encontrado é fluxo normal dos serviços e não gera log.
func NewGormLogger(log *slog.Logger) logger.Interface {
	if log == nil {
		log = slog.Default()
	}
	return logger.New(slogWriter{log: log.With("component", "gorm")}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
