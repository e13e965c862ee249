// Package logger provides structured logging for servicekit using zerolog.
//
// Loggers are created per service and narrowed with WithComponent, so every
// registry call carries its component and service identifiers:
//
//	log := logger.New(&logger.Config{Level: "info", Format: "json"}, "orders")
//	log.WithComponent("registry").Info("service registered", logger.Fields(
//		logger.FieldServiceID, "orders-1",
//	))
package logger
