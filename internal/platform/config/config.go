package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"

	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	StorageDriver string
	SQLitePath    string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	SessionStore  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// AdminManagesUsers lets admin-equivalent callers create, edit and
	// delete user accounts. When false only the owner may. The two observed
	// UI variants disagreed on this, so it is policy, not hardcoded.
	AdminManagesUsers bool

	// BlockDeleteWithDebts refuses to delete a user whose username appears
	// as a party in any debt.
	BlockDeleteWithDebts bool

	StaticDir string
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
		StorageDriver:        getEnv("STORAGE_DRIVER", StorageSQLite),
		SQLitePath:           getEnv("SQLITE_PATH", "./data/family_debts.db"),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "5432"),
		DBUser:               getEnv("DB_USER", "user"),
		DBPassword:           getEnv("DB_PASSWORD", "password"),
		DBName:               getEnv("DB_NAME", "family_debts_db"),
		DBSslMode:            getEnv("DB_SSLMODE", "disable"),
		SessionStore:         getEnv("SESSION_STORE", SessionStoreMemory),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvAsInt("REDIS_DB", 0),
		AdminManagesUsers:    getEnvAsBool("USER_ADMIN_POLICY_ADMIN", false),
		BlockDeleteWithDebts: getEnvAsBool("BLOCK_DELETE_WITH_DEBTS", true),
		StaticDir:            getEnv("STATIC_DIR", ""),
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

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
