// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the FileKeeper server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the public HTTP endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty DSN selects the in-memory
//     registry backed by RegistrySnapshotPath.
//   - RegistrySnapshotPath: JSON snapshot of the asset registry; empty keeps
//     the registry purely in memory.
//   - UploadsDir / DownloadsDir / BinDir: live store, staging area, and
//     filesystem recycle bin.
//   - AuditLogPath: append-only deletion audit log.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use test defaults in prod.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - MoveTimeout: upper bound for a single storage move or copy.
//   - NotifyTimeout: upper bound for one notification delivery attempt.
//   - PurgeAfter: grace period quoted to owners before a binned file may be purged.
//   - S3BinEnabled: archive retired files to S3 instead of the local bin.
//   - S3RootUser / S3RootPassword: credentials for the S3-compatible backend.
//   - S3Bucket / S3Region / S3BaseEndpoint / S3KeyPrefix: object storage settings.
//   - SMTPHost / SMTPPort / SMTPFrom / SMTPUser / SMTPPassword: deletion
//     notification relay. Empty host disables delivery.
type Config struct {
	EndpointAddrHTTP             string
	DatabaseDSN                  string
	RegistrySnapshotPath         string
	UploadsDir                   string
	DownloadsDir                 string
	BinDir                       string
	AuditLogPath                 string
	SecretKey                    string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	MoveTimeout                  time.Duration
	NotifyTimeout                time.Duration
	PurgeAfter                   time.Duration
	S3BinEnabled                 bool
	S3RootUser                   string
	S3RootPassword               string
	S3Bucket                     string
	S3Region                     string
	S3BaseEndpoint               string
	S3KeyPrefix                  string
	SMTPHost                     string
	SMTPPort                     int
	SMTPFrom                     string
	SMTPUser                     string
	SMTPPassword                 string
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":3001"
	c.DatabaseDSN = ""
	c.RegistrySnapshotPath = "assets.json"
	c.UploadsDir = "uploads"
	c.DownloadsDir = "downloads"
	c.BinDir = "bin"
	c.AuditLogPath = "delete_audit.log"
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.RefreshTokenValidityDuration = 24 * time.Hour
	c.MoveTimeout = 30 * time.Second
	c.NotifyTimeout = 30 * time.Second
	c.PurgeAfter = 7 * 24 * time.Hour
	c.S3BinEnabled = false
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "filekeeper-bin"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.S3KeyPrefix = "bin/"
	c.SMTPHost = ""
	c.SMTPPort = 587
	c.SMTPFrom = "noreply@filekeeper.local"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
