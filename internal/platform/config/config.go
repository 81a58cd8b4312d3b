package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SandboxURL           string
	SandboxTimeoutSec    int
	SandboxPacingMs      int
	LeaderboardChannel   string
	DefaultTimeLimitSec  int
	DefaultMemoryLimitMb int
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:              getEnv("API_PORT", "8080"),
		JWTKey:               []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:               time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "5432"),
		DBUser:               getEnv("DB_USER", "user"),
		DBPassword:           getEnv("DB_PASSWORD", "password"),
		DBName:               getEnv("DB_NAME", "algoarena_db"),
		DBSslMode:            getEnv("DB_SSLMODE", "disable"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvAsInt("REDIS_DB", 0),
		SandboxURL:           getEnv("SANDBOX_URL", "http://localhost:2000/api/v2/execute"),
		SandboxTimeoutSec:    getEnvAsInt("SANDBOX_TIMEOUT_SECONDS", 30),
		SandboxPacingMs:      getEnvAsInt("SANDBOX_PACING_MS", 200),
		LeaderboardChannel:   getEnv("LEADERBOARD_CHANNEL", "leaderboard_updates"),
		DefaultTimeLimitSec:  getEnvAsInt("DEFAULT_TIME_LIMIT_SECONDS", 2),
		DefaultMemoryLimitMb: getEnvAsInt("DEFAULT_MEMORY_LIMIT_MB", 256),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
