package cmd

import (
	"github.com/spigell/career-coach/internal/client"

	"go.uber.org/zap"
)

// logNotifier shows client notifications as log lines.
func logNotifier(logger *zap.Logger) client.Notifier {
	return client.NotifierFunc(func(n client.Notification) {
		fields := []zap.Field{zap.String("description", n.Description)}
		if n.Variant == client.VariantDestructive {
			logger.Warn(n.Title, fields...)
			return
		}
		logger.Info(n.Title, fields...)
	})
}

func newAPI(logger *zap.Logger, cfg *ClientConfig) *client.API {
	return client.New(logger, cfg.BaseURL, cfg.Token)
}
