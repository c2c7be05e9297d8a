// Package database handles database connections.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to
// properly configure the connection the cycle journal writes through.
// MySQL is the deployment driver; sqlite (including ":memory:") backs local
// runs and tests.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Warn("cycle journal disabled", err)
//	}
package database
