// Package mongo connects to MongoDB with the v2 driver.
//
// New applies pool and retry settings from Config and keeps trying until the
// server answers a ping. NewWithDatabase returns the configured database
// handle, which pkg/mongovault uses for the accounts collection.
//
// # Usage
//
//	var cfg mongo.Config
//	if err := env.Parse(&cfg); err != nil {
//		return err
//	}
//
//	db, err := mongo.NewWithDatabase(ctx, cfg, "")
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
//	ready := mongo.Healthcheck(db.Client())
//
// Connection failures wrap ErrFailedToConnectToMongo; use errors.Is to match.
package mongo
