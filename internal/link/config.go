package link

import (
	"fmt"
	"maps"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvDSN      = "SQLKIT_DSN"
	EnvUser     = "SQLKIT_DB_USER"
	EnvPassword = "SQLKIT_DB_PASSWORD"
	EnvHost     = "SQLKIT_DB_HOST"
	EnvPort     = "SQLKIT_DB_PORT"
	EnvName     = "SQLKIT_DB_NAME"
)

// Config describes a MySQL server connection.
type Config struct {
	User     string
	Password string
	Host     string
	Port     int
	Database string
	Timeout  time.Duration
	Params   map[string]string
}

// FormatDSN renders c as a go-sql-driver/mysql data source name. Host
// defaults to 127.0.0.1 and Port to 3306.
func (c Config) FormatDSN() string {
	host := c.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := c.Port
	if port == 0 {
		port = 3306
	}

	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	mc.DBName = c.Database
	mc.Timeout = c.Timeout
	mc.Params = maps.Clone(c.Params)
	return mc.FormatDSN()
}

// ParseConfig reads a data source name back into a Config.
func ParseConfig(dsn string) (Config, error) {
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return Config{}, fmt.Errorf("invalid dsn: %w", err)
	}
	c := Config{
		User:     mc.User,
		Password: mc.Passwd,
		Database: mc.DBName,
		Timeout:  mc.Timeout,
		Params:   mc.Params,
	}
	host, port, err := net.SplitHostPort(mc.Addr)
	if err != nil {
		c.Host = mc.Addr
		return c, nil
	}
	c.Host = host
	if p, err := strconv.Atoi(port); err == nil {
		c.Port = p
	}
	return c, nil
}

// DSNFromEnv returns the data source name described by the environment:
// SQLKIT_DSN when set, otherwise one assembled from the SQLKIT_DB_*
// variables. It returns "" when neither a DSN nor a user is configured.
func DSNFromEnv(getenv func(string) string) (string, error) {
	if dsn := strings.TrimSpace(getenv(EnvDSN)); dsn != "" {
		return dsn, nil
	}
	c := Config{
		User:     strings.TrimSpace(getenv(EnvUser)),
		Password: getenv(EnvPassword),
		Host:     strings.TrimSpace(getenv(EnvHost)),
		Database: strings.TrimSpace(getenv(EnvName)),
	}
	if c.User == "" {
		return "", nil
	}
	if p := strings.TrimSpace(getenv(EnvPort)); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return "", fmt.Errorf("%s: invalid port %q", EnvPort, p)
		}
		c.Port = port
	}
	return c.FormatDSN(), nil
}
