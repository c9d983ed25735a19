package tls

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"

	"tododash-api/internal/logging"
)

// Config holds TLS/HTTPS configuration
type Config struct {
	Enabled      bool
	CertFile     string
	KeyFile      string
	Port         string
	MinVersion   uint16
	CipherSuites []uint16
}

// NewConfigFromEnv creates TLS config from environment variables
func NewConfigFromEnv() *Config {
	config := &Config{
		Enabled:    getEnvBool("TLS_ENABLED", false),
		CertFile:   getEnv("TLS_CERT_FILE", "./certs/server.crt"),
		KeyFile:    getEnv("TLS_KEY_FILE", "./certs/server.key"),
		Port:       getEnv("TLS_PORT", "8443"),
		MinVersion: parseTLSVersion(getEnv("TLS_MIN_VERSION", "1.2")),
	}

	// Secure suites for TLS 1.2; 1.3 picks its own
	config.CipherSuites = []uint16{
		tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
		tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
	}

	return config
}

// CreateTLSConfig creates a *tls.Config for the server
func (c *Config) CreateTLSConfig() (*tls.Config, error) {
	if !c.Enabled {
		return nil, fmt.Errorf("TLS is not enabled")
	}

	if _, err := os.Stat(c.CertFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("certificate file not found: %s", c.CertFile)
	}
	if _, err := os.Stat(c.KeyFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("key file not found: %s", c.KeyFile)
	}

	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate: %w", err)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   c.MinVersion,
		CipherSuites: c.CipherSuites,
		CurvePreferences: []tls.CurveID{
			tls.X25519,
			tls.CurveP256,
			tls.CurveP384,
		},
	}

	logging.Logger.Infof("TLS configured: cert=%s, minVersion=0x%04x", c.CertFile, c.MinVersion)

	return tlsConfig, nil
}

// parseTLSVersion parses TLS version string to uint16
func parseTLSVersion(version string) uint16 {
	switch version {
	case "1.2":
		return tls.VersionTLS12
	case "1.3":
		return tls.VersionTLS13
	default:
		logging.Logger.Warnf("Unknown TLS version '%s', using TLS 1.2", version)
		return tls.VersionTLS12
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
