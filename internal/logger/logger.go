package logger

import (
	"github.com/sirupsen/logrus"
)

// Log está disponible desde el arranque; Init ajusta nivel y formato.
var Log = logrus.New()

// Init inicializa el logger estructurado.
func Init(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	// JSON para producción, texto para desarrollo
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// SetTextFormatter cambia a formato de texto (para desarrollo).
func SetTextFormatter() {
	if Log != nil {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}
