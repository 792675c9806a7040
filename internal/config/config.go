package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For splitting list values

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort    string // Application port
	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name
	JWTSecret  string // JWT secret key
	RedisAddr  string // Redis server address
	RedisPass  string // Redis password
	RedisDB    int    // Redis database number
	IsProd     bool   // Is production environment

	CORSOrigins []string // Frontend origins allowed to call the API; empty allows any

	OwnerEmail    string // Email of the single owner principal allowed to review KYC
	AdminEmail    string // Admin login email (falls back to OwnerEmail)
	AdminPassword string // Admin login password
	BaseURL       string // Public base URL used to build emailed action links

	SMTPHost   string // Outbound mail host; mailer is disabled when empty
	SMTPPort   int    // Outbound mail port
	SMTPSecure bool   // Use implicit TLS
	SMTPUser   string // Outbound mail username
	SMTPPass   string // Outbound mail password
	SMTPFrom   string // From address (falls back to SMTPUser)
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	smtpPort, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if smtpPort == 0 {
		smtpPort = 587 // Default submission port
	}
	cfg := &Config{
		AppPort:    os.Getenv("APP_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBName:     os.Getenv("DB_NAME"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		RedisAddr:  os.Getenv("REDIS_ADDR"),
		RedisPass:  os.Getenv("REDIS_PASS"),
		RedisDB:    redisDB,
		IsProd:     os.Getenv("IS_PROD") == "true",

		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")),

		OwnerEmail:    os.Getenv("OWNER_EMAIL"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		BaseURL:       os.Getenv("APP_BASE_URL"),

		SMTPHost:   os.Getenv("SMTP_HOST"),
		SMTPPort:   smtpPort,
		SMTPSecure: os.Getenv("SMTP_SECURE") == "true",
		SMTPUser:   os.Getenv("SMTP_USER"),
		SMTPPass:   os.Getenv("SMTP_PASS"),
		SMTPFrom:   os.Getenv("SMTP_FROM"),
	}
	// Admin login falls back to the owner identity when not set separately
	if cfg.AdminEmail == "" {
		cfg.AdminEmail = cfg.OwnerEmail
	}
	// From address falls back to the SMTP username
	if cfg.SMTPFrom == "" {
		cfg.SMTPFrom = cfg.SMTPUser
	}
	return cfg
}

// splitList splits a comma-separated env value, dropping empty entries
func splitList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
