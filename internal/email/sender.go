package email

import (
	"context"

	"go.uber.org/zap"
)

// Sender entrega codigos de verificacion fuera de banda. Devuelve true si el
// intento de entrega se considera exitoso; nunca propaga errores de transporte.
type Sender interface {
	Send(ctx context.Context, toEmail, code string) bool
}

// disabledSender se usa cuando la verificacion por email esta apagada:
// registra el codigo en el log y reporta exito sin intentar entrega.
type disabledSender struct {
	logger *zap.Logger
}

func NewDisabledSender(logger *zap.Logger) Sender {
	return &disabledSender{logger: logger}
}

func (s *disabledSender) Send(_ context.Context, toEmail, code string) bool {
	if s.logger != nil {
		s.logger.Info("email verification disabled, code not sent",
			zap.String("email", toEmail),
			zap.String("code", code),
		)
	}
	return true
}
