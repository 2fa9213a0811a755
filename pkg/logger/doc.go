// Package logger builds slog loggers with the conventions this project
// relies on: JSON in production, text in development, and context
// extractors that stamp request-scoped attributes — most importantly
// the tenant identifier — onto every record.
//
//	log := logger.New(
//		logger.WithProduction("fleetkit"),
//		logger.WithContextExtractors(tenant.LoggerExtractor()),
//	)
//
// Any record logged with a context that carries a resolved identity
// then includes tenant_id automatically, which is what makes
// cross-tenant anomalies (row-security rejections, cache churn)
// traceable in aggregated logs.
package logger
