// Package logger provee un logger Zap singleton con scoping por contexto.
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
// En controllers/services, siempre a partir del contexto del request:
//
//	log := logger.From(ctx).With(logger.Component("session"), logger.Op("Login"))
//	log.Info("login ok", logger.UserID(uid))
//
// Sin contexto (arranque, CLI) se usa L().
package logger
