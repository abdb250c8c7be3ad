package config

// PostgresConfig holds libpq-style connection parameters, e.g.
// host, port, user, password, dbname, sslmode.
type PostgresConfig struct {
	Connection map[string]string
}
