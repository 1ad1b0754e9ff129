package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all gateway configuration
type Config struct {
	Port           int
	AllowedOrigins []string

	PromptCacheTTL time.Duration
	RedisURL       string
	RedisPassword  string

	FirestoreCredentials  []byte // decoded service-account JSON
	SettingsCollection    string
	DialogflowCredentials []byte // decoded service-account JSON
	DialogflowProjectID   string
	DialogflowLocation    string
	DialogflowAgentID     string
	NLULanguageCode       string
	NLUTimeout            time.Duration

	StorageLocation string
	StorageClass    string
	MaxUploadSize   int64 // multipart memory cap in bytes
}

// LoadConfig loads configuration from environment variables with defaults
func LoadConfig() (*Config, error) {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	config := &Config{
		Port:               8080,
		AllowedOrigins:     []string{"*"},
		PromptCacheTTL:     time.Hour,
		SettingsCollection: "advertiser_settings",
		DialogflowLocation: "us-central1",
		NLULanguageCode:    "en-US",
		NLUTimeout:         30 * time.Second,
		StorageLocation:    "US",
		StorageClass:       "STANDARD",
		MaxUploadSize:      32 * 1024 * 1024, // 32MB default
	}

	// Required: FIREBASE_CREDENTIALS_BASE64
	firestoreCreds, err := requiredBase64("FIREBASE_CREDENTIALS_BASE64")
	if err != nil {
		return nil, err
	}
	config.FirestoreCredentials = firestoreCreds

	// Required: DIALOGFLOW_CREDENTIALS_BASE64
	dialogflowCreds, err := requiredBase64("DIALOGFLOW_CREDENTIALS_BASE64")
	if err != nil {
		return nil, err
	}
	config.DialogflowCredentials = dialogflowCreds

	// Required: DIALOGFLOW_PROJECT_ID
	config.DialogflowProjectID = os.Getenv("DIALOGFLOW_PROJECT_ID")
	if config.DialogflowProjectID == "" {
		return nil, fmt.Errorf("DIALOGFLOW_PROJECT_ID environment variable is required")
	}

	// Required: DIALOGFLOW_AGENT_ID
	config.DialogflowAgentID = os.Getenv("DIALOGFLOW_AGENT_ID")
	if config.DialogflowAgentID == "" {
		return nil, fmt.Errorf("DIALOGFLOW_AGENT_ID environment variable is required")
	}

	// Optional: PORT
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		config.Port = p
	}

	// Optional: PROMPT_CACHE_TTL (in seconds)
	if ttl := os.Getenv("PROMPT_CACHE_TTL"); ttl != "" {
		t, err := strconv.Atoi(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid PROMPT_CACHE_TTL: %w", err)
		}
		config.PromptCacheTTL = time.Duration(t) * time.Second
	}

	// Optional: REDIS_URL (enables the Redis prompt-cache backend)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		config.RedisURL = redisURL
	}

	// Optional: REDIS_PASSWORD
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.RedisPassword = redisPassword
	}

	// Optional: SETTINGS_COLLECTION
	if collection := os.Getenv("SETTINGS_COLLECTION"); collection != "" {
		config.SettingsCollection = collection
	}

	// Optional: DIALOGFLOW_LOCATION
	if location := os.Getenv("DIALOGFLOW_LOCATION"); location != "" {
		config.DialogflowLocation = location
	}

	// Optional: NLU_LANGUAGE_CODE
	if lang := os.Getenv("NLU_LANGUAGE_CODE"); lang != "" {
		config.NLULanguageCode = lang
	}

	// Optional: NLU_TIMEOUT (in seconds)
	if timeout := os.Getenv("NLU_TIMEOUT"); timeout != "" {
		t, err := strconv.Atoi(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid NLU_TIMEOUT: %w", err)
		}
		config.NLUTimeout = time.Duration(t) * time.Second
	}

	// Optional: ALLOWED_ORIGINS (comma-separated)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = strings.Split(origins, ",")
	}

	// Optional: STORAGE_LOCATION
	if location := os.Getenv("STORAGE_LOCATION"); location != "" {
		config.StorageLocation = location
	}

	// Optional: STORAGE_CLASS
	if class := os.Getenv("STORAGE_CLASS"); class != "" {
		config.StorageClass = class
	}

	// Optional: MAX_UPLOAD_SIZE (in bytes)
	if size := os.Getenv("MAX_UPLOAD_SIZE"); size != "" {
		s, err := strconv.ParseInt(size, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_UPLOAD_SIZE: %w", err)
		}
		config.MaxUploadSize = s
	}

	return config, nil
}

func requiredBase64(key string) ([]byte, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return nil, fmt.Errorf("%s environment variable is required", key)
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return decoded, nil
}
