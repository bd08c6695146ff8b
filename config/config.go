package config

import (
	"os"
	"strings"
)

// defaultOrigins is the frontend allow-list used when ALLOWED_ORIGINS is not
// set. Requests without an Origin header are always allowed (non-browser
// clients); the cors middleware only checks requests that carry one.
var defaultOrigins = []string{
	"http://localhost:5173",
	"https://seba-songjog.web.app",
	"https://assgn10.pages.dev",
}

type Config struct {
	Port     string
	MongoURI string
	DBName   string

	JWTSecret   string
	RequireAuth bool

	AllowedOrigins []string

	CloudinaryURL string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
}

// Load collects all configuration from the environment. Missing optional
// values get defaults; MONGODB_URI is validated by the caller when it
// actually connects.
func Load() *Config {
	cfg := &Config{
		Port:            getenv("PORT", "8080"),
		MongoURI:        getenv("MONGODB_URI", "mongodb://127.0.0.1:27017"),
		DBName:          getenv("DB_NAME", "sebasongjog"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		RequireAuth:     os.Getenv("REQUIRE_AUTH") == "true",
		AllowedOrigins:  defaultOrigins,
		CloudinaryURL:   os.Getenv("CLOUDINARY_URL"),
		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
	}

	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		cfg.AllowedOrigins = nil
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
