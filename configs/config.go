package config

import (
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Dispatch struct {
	// CronSecret is the bearer token the external scheduler must present.
	CronSecret string
	// AuthRequired gates the bearer check. Disabling it is meant for local runs only.
	AuthRequired    bool
	PublishTimeout  time.Duration
	Concurrency     int
	CycleSchedule   string
	StaleClaimAfter time.Duration
}

type Config struct {
	Port               string
	PostgresURI        string
	RedisURI           string
	RabbitMQURL        string
	AppBaseURL         string
	TwitterPublishPath string
	InstagramGraphURL  string
	SecretKey          string
	TokenEncryptionKey string
	CookieName         string
	R2                 R2
	Dispatch           Dispatch
}

func LoadConfig() *Config {
	return &Config{
		Port:               getEnv("PORT", "3000"),
		PostgresURI:        getEnv("POSTGRES_URI", ""),
		RedisURI:           getEnv("REDIS_URI", ""),
		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		AppBaseURL:         getEnv("APP_BASE_URL", "https://app.creatortask.com"),
		TwitterPublishPath: getEnv("TWITTER_PUBLISH_PATH", "/api/post/twitter"),
		InstagramGraphURL:  getEnv("INSTAGRAM_GRAPH_URL", "https://graph.instagram.com/v21.0"),
		SecretKey:          getEnv("SECRET_KEY", ""),
		TokenEncryptionKey: getEnv("TOKEN_ENCRYPTION_KEY", ""),
		CookieName:         getEnv("COOKIE_NAME", "creatortask_session"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("MEDIA_PUBLIC_URL", ""),
		},
		Dispatch: Dispatch{
			CronSecret:      getEnv("CRON_SECRET", ""),
			AuthRequired:    getEnvBool("CRON_AUTH_REQUIRED", true),
			PublishTimeout:  getEnvDuration("PUBLISH_TIMEOUT", 30*time.Second),
			Concurrency:     getEnvInt("DISPATCH_CONCURRENCY", 10),
			CycleSchedule:   getEnv("CYCLE_SCHEDULE", ""),
			StaleClaimAfter: getEnvDuration("STALE_CLAIM_AFTER", 15*time.Minute),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
