package util

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)
