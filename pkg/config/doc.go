// Package config loads typed configuration structs from environment
// variables, with optional .env support for local development.
//
// Configuration is declared as struct tags on the owning package's
// Config type (see pg.Config and tenantdb.Config) and loaded once at
// startup:
//
//	var dbCfg pg.Config
//	config.MustLoad(&dbCfg)
//
// There is no global configuration object; each component declares and
// owns its knobs.
package config
