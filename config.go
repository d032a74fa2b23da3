package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Supported records store drivers.
const (
	StoreMongo    = "mongo"
	StoreRedis    = "redis"
	StoreBolt     = "bolt"
	StorePostgres = "postgres"
)

// Supported images store drivers.
const (
	ImagesDisk = "disk"
	ImagesS3   = "s3"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit          string         `yaml:"git_commit" envconfig:"CATALOG_GIT_COMMIT" json:"git_commit"`
	GitTag             string         `yaml:"git_tag" envconfig:"CATALOG_GIT_TAG" json:"git_tag"`
	BuildTime          string         `yaml:"build_time" envconfig:"CATALOG_BUILD_TIME" json:"build_time"`
	IsProduction       bool           `yaml:"is_production" envconfig:"CATALOG_IS_PRODUCTION" json:"is_production"`
	LogLevel           zapcore.Level  `yaml:"log_level" envconfig:"CATALOG_LOG_LEVEL" json:"log_level"`
	LogFolder          string         `yaml:"log_folder" envconfig:"CATALOG_LOG_FOLDER" json:"log_folder"`
	LogMaxSize         int            `yaml:"log_max_size" envconfig:"CATALOG_LOG_MAX_SIZE" json:"log_max_size"` // in megabytes
	OpsEndpointsEnable bool           `yaml:"ops_endpoints_enable" envconfig:"CATALOG_OPS_ENDPOINTS_ENABLE" json:"ops_endpoints_enable"`
	ProfilerEnable     bool           `yaml:"profiler_enable" envconfig:"CATALOG_PROFILER_ENABLE" json:"profiler_enable"`
	Server             ServerConfig   `yaml:"server" json:"server"`
	Store              StoreConfig    `yaml:"store" json:"store"`
	Mongo              MongoConfig    `yaml:"mongo" json:"mongo"`
	Redis              RedisConfig    `yaml:"redis" json:"redis"`
	BoltDB             BoltDBConfig   `yaml:"boltdb" json:"boltdb"`
	Postgres           PostgresConfig `yaml:"postgres" json:"postgres"`
	Images             ImagesConfig   `yaml:"images" json:"images"`
	S3                 S3Config       `yaml:"s3" json:"s3"`
	CORS               CORSConfig     `yaml:"cors" json:"cors"`
	Mirror             MirrorConfig   `yaml:"mirror" json:"mirror"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"CATALOG_SERVER_HOST" json:"host"`
	Port            string        `yaml:"port" envconfig:"CATALOG_SERVER_PORT" json:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"CATALOG_SERVER_READ_TIMEOUT" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"CATALOG_SERVER_WRITE_TIMEOUT" json:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"CATALOG_SERVER_REQUEST_TIMEOUT" json:"request_timeout"` // Time to wait for a request to finish
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"CATALOG_SERVER_SHUTDOWN_TIMEOUT" json:"shutdown_timeout"`
	MaxUploadMemory int64         `yaml:"max_upload_memory" envconfig:"CATALOG_SERVER_MAX_UPLOAD_MEMORY" json:"max_upload_memory"` // multipart bytes kept in memory
}

// StoreConfig selects the records store backend.
type StoreConfig struct {
	Driver string `yaml:"driver" envconfig:"CATALOG_STORE_DRIVER" json:"driver"`
}

type MongoConfig struct {
	URI            string        `yaml:"uri" envconfig:"CATALOG_MONGO_URI" json:"-"`
	Database       string        `yaml:"database" envconfig:"CATALOG_MONGO_DATABASE" json:"database"`
	Collection     string        `yaml:"collection" envconfig:"CATALOG_MONGO_COLLECTION" json:"collection"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" envconfig:"CATALOG_MONGO_CONNECT_TIMEOUT" json:"connect_timeout"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"CATALOG_REDIS_HOST" json:"host"`
	Port          string        `yaml:"port" envconfig:"CATALOG_REDIS_PORT" json:"port"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"CATALOG_REDIS_DIAL_TIMEOUT" json:"dial_timeout"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"CATALOG_REDIS_READ_TIMEOUT" json:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"CATALOG_REDIS_WRITE_TIMEOUT" json:"write_timeout"`
	PoolSize      int           `yaml:"pool_size" envconfig:"CATALOG_REDIS_POOL_SIZE" json:"pool_size"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"CATALOG_REDIS_POOL_TIMEOUT" json:"pool_timeout"`
	Username      string        `yaml:"username" envconfig:"CATALOG_REDIS_USERNAME" json:"-"`
	Password      string        `yaml:"password" envconfig:"CATALOG_REDIS_PASSWORD" json:"-"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"CATALOG_REDIS_DATABASE_INDEX" json:"db_index"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"CATALOG_BOLTDB_FILE_PATH" json:"filepath"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"CATALOG_BOLTDB_TIMEOUT" json:"timeout"`
	BucketName string        `yaml:"bucket_name" envconfig:"CATALOG_BOLTDB_BUCKET_NAME" json:"bucket_name"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn" envconfig:"CATALOG_POSTGRES_DSN" json:"-"`
}

// ImagesConfig defines where uploaded covers are kept and how they are exposed.
type ImagesConfig struct {
	Driver    string `yaml:"driver" envconfig:"CATALOG_IMAGES_DRIVER" json:"driver"`
	Folder    string `yaml:"folder" envconfig:"CATALOG_IMAGES_FOLDER" json:"folder"`
	URLPrefix string `yaml:"url_prefix" envconfig:"CATALOG_IMAGES_URL_PREFIX" json:"url_prefix"`
	FieldName string `yaml:"field_name" envconfig:"CATALOG_IMAGES_FIELD_NAME" json:"field_name"`
}

type S3Config struct {
	Endpoint        string `yaml:"endpoint" envconfig:"CATALOG_S3_ENDPOINT" json:"endpoint"`
	Region          string `yaml:"region" envconfig:"CATALOG_S3_REGION" json:"region"`
	BucketName      string `yaml:"bucket_name" envconfig:"CATALOG_S3_BUCKET_NAME" json:"bucket_name"`
	AccessKeyID     string `yaml:"access_key_id" envconfig:"CATALOG_S3_ACCESS_KEY_ID" json:"-"`
	SecretAccessKey string `yaml:"secret_access_key" envconfig:"CATALOG_S3_SECRET_ACCESS_KEY" json:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" envconfig:"CATALOG_CORS_ALLOWED_ORIGINS" json:"allowed_origins"`
}

// MirrorConfig enables the replay of every write into a local bolt archive
// through redis queues.
type MirrorConfig struct {
	Enable     bool          `yaml:"enable" envconfig:"CATALOG_MIRROR_ENABLE" json:"enable"`
	FilePath   string        `yaml:"filepath" envconfig:"CATALOG_MIRROR_FILE_PATH" json:"filepath"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"CATALOG_MIRROR_TIMEOUT" json:"timeout"`
	BucketName string        `yaml:"bucket_name" envconfig:"CATALOG_MIRROR_BUCKET_NAME" json:"bucket_name"`
}

// BoltDB returns the archive settings in the shape expected by the bolt client.
func (mc MirrorConfig) BoltDB() BoltDBConfig {
	return BoltDBConfig{FilePath: mc.FilePath, Timeout: mc.Timeout, BucketName: mc.BucketName}
}

// DefaultConfig provides the settings used when no configuration file is present.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:   zapcore.InfoLevel,
		LogFolder:  "./logs",
		LogMaxSize: 10,
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "4000",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			RequestTimeout:  45 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxUploadMemory: 32 << 20,
		},
		Store: StoreConfig{Driver: StoreMongo},
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27017/apple",
			Database:       "apple",
			Collection:     "books",
			ConnectTimeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			Host:        "localhost",
			Port:        "6379",
			DialTimeout: 5 * time.Second,
			PoolSize:    10,
		},
		BoltDB: BoltDBConfig{
			FilePath:   "./db/books.db",
			Timeout:    5 * time.Second,
			BucketName: "books",
		},
		Images: ImagesConfig{
			Driver:    ImagesDisk,
			Folder:    "./uploads",
			URLPrefix: "/images",
			FieldName: "image",
		},
		CORS: CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
		Mirror: MirrorConfig{
			FilePath:   "./db/mirror.db",
			Timeout:    5 * time.Second,
			BucketName: "books.mirror",
		},
	}
}

// LoadConfigFile decodes the yaml file on top of the given configuration.
// A missing file leaves the configuration untouched.
func LoadConfigFile(configFile string, cfg *Config) error {
	file, err := os.Open(configFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()
	return yaml.NewDecoder(file).Decode(cfg)
}

// LoadConfigEnvs reads the environments variables into the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	if err := envconfig.Process(prefix, config); err != nil {
		return err
	}
	// honor the conventional PORT variable when the prefixed one is absent.
	if _, ok := os.LookupEnv(prefix + "_SERVER_PORT"); !ok {
		if port := os.Getenv("PORT"); port != "" {
			config.Server.Port = port
		}
	}
	return nil
}

// InitConfig configures build tags values to be used if provided
// and checks the consistency of the final settings.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	config.Store.Driver = strings.ToLower(config.Store.Driver)
	switch config.Store.Driver {
	case StoreMongo:
		if len(config.Mongo.URI) == 0 || len(config.Mongo.Collection) == 0 {
			return errors.New("make sure to set valid mongo uri and collection in configuration file")
		}
	case StoreRedis:
		if len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0 {
			return errors.New("make sure to set valid redis address and port in configuration file")
		}
	case StoreBolt:
		if len(config.BoltDB.FilePath) == 0 || len(config.BoltDB.BucketName) == 0 {
			return errors.New("make sure to set valid boltdb file path and bucket in configuration file")
		}
	case StorePostgres:
		if len(config.Postgres.DSN) == 0 {
			return errors.New("make sure to set valid postgres dsn in configuration file")
		}
	default:
		return fmt.Errorf("unsupported store driver %q", config.Store.Driver)
	}

	config.Images.Driver = strings.ToLower(config.Images.Driver)
	switch config.Images.Driver {
	case ImagesDisk:
		if len(config.Images.Folder) == 0 {
			return errors.New("make sure to set valid images folder in configuration file")
		}
	case ImagesS3:
		if len(config.S3.BucketName) == 0 {
			return errors.New("make sure to set valid s3 bucket name in configuration file")
		}
	default:
		return fmt.Errorf("unsupported images driver %q", config.Images.Driver)
	}

	if len(config.Images.URLPrefix) == 0 || !strings.HasPrefix(config.Images.URLPrefix, "/") {
		return errors.New("images url prefix must start with a slash")
	}
	config.Images.URLPrefix = strings.TrimSuffix(config.Images.URLPrefix, "/")

	if config.Mirror.Enable && (len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0) {
		return errors.New("mirror requires valid redis address and port in configuration file")
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	config := DefaultConfig()

	// Setup the yaml configuration from file.
	err := LoadConfigFile("./config.yml", config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration.
	err = godotenv.Load("./config.env")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `CATALOG`.
	err = LoadConfigEnvs("CATALOG", config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
