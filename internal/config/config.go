package config

import "time"

// Config is the root application configuration.
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	Remote     RemoteConfig     `yaml:"remote"`
	Sync       SyncConfig       `yaml:"sync"`
	Share      ShareConfig      `yaml:"share"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Log        LogConfig        `yaml:"log"`
	Server     ServerConfig     `yaml:"server"`
}

// StorageConfig holds the local store settings.
type StorageConfig struct {
	Path       string `yaml:"path"        env:"STORAGE_PATH"        env-default:"./data/westock.db"`
	LegacyPath string `yaml:"legacy_path" env:"STORAGE_LEGACY_PATH" env-default:"./data/we_stock_data_v1.json"`
	MaxBytes   int64  `yaml:"max_bytes"   env:"STORAGE_MAX_BYTES"   env-default:"5242880"`
}

const (
	BackendNone  = "none"
	BackendRedis = "redis"
	BackendMySQL = "mysql"
)

// RemoteConfig selects and configures the remote mirror and share store.
type RemoteConfig struct {
	Backend       string        `yaml:"backend"        env:"REMOTE_BACKEND"        env-default:"none"`
	RedisAddr     string        `yaml:"redis_addr"     env:"REMOTE_REDIS_ADDR"     env-default:"localhost:6379"`
	RedisPassword string        `yaml:"redis_password" env:"REMOTE_REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db"       env:"REMOTE_REDIS_DB"       env-default:"0"`
	MySQLDSN      string        `yaml:"mysql_dsn"      env:"REMOTE_MYSQL_DSN"      env-default:"root:root@tcp(localhost:3306)/westock?parseTime=true"`
	Timeout       time.Duration `yaml:"timeout"        env:"REMOTE_TIMEOUT"        env-default:"15s"`
}

// SyncConfig holds the background mirror settings.
type SyncConfig struct {
	PushTimeout time.Duration `yaml:"push_timeout" env:"SYNC_PUSH_TIMEOUT" env-default:"10s"`
}

// ShareConfig holds bundle sharing settings.
type ShareConfig struct {
	MaxItemBytes int `yaml:"max_item_bytes" env:"SHARE_MAX_ITEM_BYTES" env-default:"921600"`
}

// ClassifierConfig holds the image classifier settings.
type ClassifierConfig struct {
	APIKey string `yaml:"api_key" env:"ANTHROPIC_API_KEY"`
	Model  string `yaml:"model"   env:"CLASSIFIER_MODEL" env-default:"claude-3-5-haiku-latest"`
}

// LogConfig holds logging settings. An empty File logs to stderr.
type LogConfig struct {
	Level      string `yaml:"level"       env:"LOG_LEVEL"       env-default:"info"`
	Format     string `yaml:"format"      env:"LOG_FORMAT"      env-default:"text"`
	File       string `yaml:"file"        env:"LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"LOG_MAX_SIZE_MB" env-default:"10"`
	MaxBackups int    `yaml:"max_backups" env:"LOG_MAX_BACKUPS" env-default:"3"`
}

// ServerConfig holds the local HTTP and gRPC listener settings.
type ServerConfig struct {
	HTTPAddr        string        `yaml:"http_addr"        env:"SERVER_HTTP_ADDR"        env-default:"127.0.0.1:8080"`
	GRPCAddr        string        `yaml:"grpc_addr"        env:"SERVER_GRPC_ADDR"        env-default:"127.0.0.1:50051"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"5s"`
}
