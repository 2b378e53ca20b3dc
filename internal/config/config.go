package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"vehicle-insurance-mlops/internal/core/domain"
)

type Config struct {
	Server     ServerConfig
	Logger     LoggerConfig
	Mongo      MongoConfig
	Source     SourceConfig
	Storage    StorageConfig
	Database   DatabaseConfig
	Kubernetes KubernetesConfig
	Pipeline   PipelineConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	LoadModelOnBoot bool
}

type LoggerConfig struct {
	Level  string
	Format string
}

type MongoConfig struct {
	URL            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// SourceConfig selects where ingestion reads raw records from.
type SourceConfig struct {
	Backend string // mongo, csv
	CSVPath string
}

type StorageConfig struct {
	Backend        string // s3, minio, local
	Bucket         string
	Prefix         string
	Region         string
	S3Endpoint     string
	ForcePathStyle bool
	Timeout        time.Duration
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	LocalDir       string
}

type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN renders a libpq style connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type KubernetesConfig struct {
	Enabled        bool
	InCluster      bool
	KubeConfigPath string
	Namespace      string
	Deployment     string
}

type PipelineConfig struct {
	ArtifactDir       string
	SchemaPath        string
	SearchSpacePath   string
	DropFields        []string
	TestRatio         float64
	Seed              int64
	Resample          bool
	ResampleNeighbors int
	SearchIterations  int
	CVFolds           int
	Scoring           string
	ExpectedScore     float64
	EvaluationMargin  float64
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 5000)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("SERVER_LOAD_MODEL_ON_BOOT", true)
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")

	v.SetDefault("MONGODB_URL", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "Proj1")
	v.SetDefault("MONGODB_COLLECTION", "Proj1-Data")
	v.SetDefault("MONGODB_CONNECT_TIMEOUT", "10s")

	v.SetDefault("SOURCE_BACKEND", "mongo")
	v.SetDefault("SOURCE_CSV_PATH", "")

	v.SetDefault("STORAGE_BACKEND", "s3")
	v.SetDefault("MODEL_BUCKET", "my-model-mlopsproj")
	v.SetDefault("MODEL_PREFIX", "models")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_FORCE_PATH_STYLE", false)
	v.SetDefault("STORAGE_TIMEOUT", "60s")
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("LOCAL_STORAGE_DIR", "model-store")

	v.SetDefault("DATABASE_ENABLED", false)
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "")
	v.SetDefault("DATABASE_NAME", "mlops")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 5)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 1)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")

	v.SetDefault("KUBERNETES_ENABLED", false)
	v.SetDefault("KUBERNETES_IN_CLUSTER", false)
	v.SetDefault("KUBERNETES_KUBECONFIG", "")
	v.SetDefault("KUBERNETES_NAMESPACE", "model-serving")
	v.SetDefault("KUBERNETES_DEPLOYMENT", "vehicle-insurance-api")

	v.SetDefault("ARTIFACT_DIR", "artifact")
	v.SetDefault("SCHEMA_PATH", "")
	v.SetDefault("SEARCH_SPACE_PATH", "")
	v.SetDefault("INGESTION_DROP_FIELDS", "_id")
	v.SetDefault("TRAIN_TEST_SPLIT_RATIO", 0.25)
	v.SetDefault("RANDOM_SEED", 42)
	v.SetDefault("RESAMPLE_ENABLED", false)
	v.SetDefault("RESAMPLE_NEIGHBORS", 5)
	v.SetDefault("SEARCH_ITERATIONS", 10)
	v.SetDefault("CV_FOLDS", 3)
	v.SetDefault("SCORING", "f1")
	v.SetDefault("EXPECTED_SCORE", 0.6)
	v.SetDefault("EVALUATION_THRESHOLD", 0.02)

	// Env
	v.AutomaticEnv()

	// Container platforms usually inject PORT
	port := v.GetInt("SERVER_PORT")
	if v.IsSet("PORT") && v.GetInt("PORT") > 0 {
		port = v.GetInt("PORT")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            v.GetString("SERVER_HOST"),
			Port:            port,
			ShutdownTimeout: durationOr(v, "SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			LoadModelOnBoot: v.GetBool("SERVER_LOAD_MODEL_ON_BOOT"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
		Mongo: MongoConfig{
			URL:            v.GetString("MONGODB_URL"),
			Database:       v.GetString("MONGODB_DATABASE"),
			Collection:     v.GetString("MONGODB_COLLECTION"),
			ConnectTimeout: durationOr(v, "MONGODB_CONNECT_TIMEOUT", 10*time.Second),
		},
		Source: SourceConfig{
			Backend: strings.ToLower(v.GetString("SOURCE_BACKEND")),
			CSVPath: v.GetString("SOURCE_CSV_PATH"),
		},
		Storage: StorageConfig{
			Backend:        strings.ToLower(v.GetString("STORAGE_BACKEND")),
			Bucket:         v.GetString("MODEL_BUCKET"),
			Prefix:         strings.Trim(v.GetString("MODEL_PREFIX"), "/"),
			Region:         v.GetString("AWS_REGION"),
			S3Endpoint:     v.GetString("S3_ENDPOINT"),
			ForcePathStyle: v.GetBool("S3_FORCE_PATH_STYLE"),
			Timeout:        durationOr(v, "STORAGE_TIMEOUT", 60*time.Second),
			MinioEndpoint:  v.GetString("MINIO_ENDPOINT"),
			MinioAccessKey: v.GetString("MINIO_ACCESS_KEY"),
			MinioSecretKey: v.GetString("MINIO_SECRET_KEY"),
			MinioUseSSL:    v.GetBool("MINIO_USE_SSL"),
			LocalDir:       v.GetString("LOCAL_STORAGE_DIR"),
		},
		Database: DatabaseConfig{
			Enabled:         v.GetBool("DATABASE_ENABLED"),
			Host:            v.GetString("DATABASE_HOST"),
			Port:            v.GetInt("DATABASE_PORT"),
			User:            v.GetString("DATABASE_USER"),
			Password:        v.GetString("DATABASE_PASSWORD"),
			Name:            v.GetString("DATABASE_NAME"),
			SSLMode:         v.GetString("DATABASE_SSLMODE"),
			MaxOpenConns:    v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			ConnMaxLifetime: durationOr(v, "DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Kubernetes: KubernetesConfig{
			Enabled:        v.GetBool("KUBERNETES_ENABLED"),
			InCluster:      v.GetBool("KUBERNETES_IN_CLUSTER"),
			KubeConfigPath: v.GetString("KUBERNETES_KUBECONFIG"),
			Namespace:      v.GetString("KUBERNETES_NAMESPACE"),
			Deployment:     v.GetString("KUBERNETES_DEPLOYMENT"),
		},
		Pipeline: PipelineConfig{
			ArtifactDir:       v.GetString("ARTIFACT_DIR"),
			SchemaPath:        v.GetString("SCHEMA_PATH"),
			SearchSpacePath:   v.GetString("SEARCH_SPACE_PATH"),
			DropFields:        splitList(v.GetString("INGESTION_DROP_FIELDS")),
			TestRatio:         v.GetFloat64("TRAIN_TEST_SPLIT_RATIO"),
			Seed:              v.GetInt64("RANDOM_SEED"),
			Resample:          v.GetBool("RESAMPLE_ENABLED"),
			ResampleNeighbors: v.GetInt("RESAMPLE_NEIGHBORS"),
			SearchIterations:  v.GetInt("SEARCH_ITERATIONS"),
			CVFolds:           v.GetInt("CV_FOLDS"),
			Scoring:           strings.ToLower(v.GetString("SCORING")),
			ExpectedScore:     v.GetFloat64("EXPECTED_SCORE"),
			EvaluationMargin:  v.GetFloat64("EVALUATION_THRESHOLD"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Source.Backend {
	case "mongo":
	case "csv":
		if c.Source.CSVPath == "" {
			return fmt.Errorf("SOURCE_CSV_PATH is required when SOURCE_BACKEND=csv")
		}
	default:
		return fmt.Errorf("unknown SOURCE_BACKEND %q", c.Source.Backend)
	}
	switch c.Storage.Backend {
	case "s3", "minio", "local":
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.Pipeline.TestRatio <= 0 || c.Pipeline.TestRatio >= 1 {
		return fmt.Errorf("TRAIN_TEST_SPLIT_RATIO must be in (0,1), got %v", c.Pipeline.TestRatio)
	}
	if c.Pipeline.CVFolds < 2 {
		return fmt.Errorf("CV_FOLDS must be at least 2, got %d", c.Pipeline.CVFolds)
	}
	if c.Pipeline.EvaluationMargin < 0 {
		return fmt.Errorf("EVALUATION_THRESHOLD must not be negative")
	}
	return nil
}

// Settings converts the pipeline section into the run-independent settings
// every run's stage configs are derived from.
func (c *Config) Settings(space domain.SearchSpace) domain.PipelineSettings {
	return domain.PipelineSettings{
		ArtifactDir:       c.Pipeline.ArtifactDir,
		Collection:        c.Mongo.Collection,
		DropFields:        c.Pipeline.DropFields,
		TestRatio:         c.Pipeline.TestRatio,
		Seed:              c.Pipeline.Seed,
		Resample:          c.Pipeline.Resample,
		ResampleNeighbors: c.Pipeline.ResampleNeighbors,
		Space:             space,
		Iterations:        c.Pipeline.SearchIterations,
		Folds:             c.Pipeline.CVFolds,
		Scoring:           c.Pipeline.Scoring,
		ExpectedScore:     c.Pipeline.ExpectedScore,
		Margin:            c.Pipeline.EvaluationMargin,
		Bucket:            c.Storage.Bucket,
		Prefix:            c.Storage.Prefix,
	}
}

func durationOr(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
