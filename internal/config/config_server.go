package config

import "time"

// ServerConfig controls the orchestrator's own listener. The
// interactive transport (HTTP/gRPC/WebSocket) is an external
// collaborator; these fields only size the process that hosts it.
type ServerConfig struct {
	Host        string `yaml:"host"`
	GRPCPort    int    `yaml:"grpc_port"`
	HTTPPort    int    `yaml:"http_port"`
	MetricsPort int    `yaml:"metrics_port"`
}

// DatabaseConfig points at the relational engine backing
// IncidentStore/SessionStore implementations. The engine itself is an
// external collaborator (spec Non-goal); the orchestrator only needs
// a connection string and pool sizing.
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxConnections  int           `yaml:"max_connections"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}
