// Package config loads typed configuration from environment variables, with
// optional .env files, using github.com/caarlos0/env struct tags.
//
//	var app config.App
//	config.MustLoad(&app)
//	if err := app.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
// Each infrastructure package declares its own Config type (pg.Config,
// mongo.Config, redis.Config, httpserver.Config, tracing.Config); load only
// the ones the selected backends need.
package config
