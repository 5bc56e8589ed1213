package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// DatabaseConfig holds the raw MySQL credentials. The backup runner uses
// them directly; the store derives its DSN from them.
type DatabaseConfig struct {
	Host      string `yaml:"host"`
	Port      string `yaml:"port"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Name      string `yaml:"name"`
	Charset   string `yaml:"charset"`
	Collation string `yaml:"collation"`
}

// PoolConfig tunes the connection pool owned by the store.
type PoolConfig struct {
	MaxOpenConns        int `yaml:"maxOpenConns"`
	MaxIdleConns        int `yaml:"maxIdleConns"`
	ConnMaxLifetimeMins int `yaml:"connMaxLifetimeMinutes"`
	OpTimeoutSeconds    int `yaml:"opTimeoutSeconds"`
}

// AttachmentsConfig selects the attachment content backend.
type AttachmentsConfig struct {
	Backend        string `yaml:"backend"` // "disk" or "minio"
	Dir            string `yaml:"dir"`
	MinioEndpoint  string `yaml:"minioEndpoint"`
	MinioAccessKey string `yaml:"minioAccessKey"`
	MinioSecretKey string `yaml:"minioSecretKey"`
	MinioBucket    string `yaml:"minioBucket"`
	MinioUseSSL    bool   `yaml:"minioUseSSL"`
}

// BackupConfig names the external dump/load executables.
type BackupConfig struct {
	DumpCommand string `yaml:"dumpCommand"`
	LoadCommand string `yaml:"loadCommand"`
}

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	LogLevel    string            `yaml:"logLevel"`
	Database    DatabaseConfig    `yaml:"database"`
	Pool        PoolConfig        `yaml:"pool"`
	Attachments AttachmentsConfig `yaml:"attachments"`
	Backup      BackupConfig      `yaml:"backup"`
}

// Load reads config from path (defaults to config.yaml) and applies
// environment overrides for credentials and connection settings.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if v := os.Getenv("MAINTVAULT_DB_HOST"); v != "" {
		cfg.Database.Host = strings.TrimSpace(v)
	}
	if v := os.Getenv("MAINTVAULT_DB_PORT"); v != "" {
		cfg.Database.Port = strings.TrimSpace(v)
	}
	if v := os.Getenv("MAINTVAULT_DB_USER"); v != "" {
		cfg.Database.User = strings.TrimSpace(v)
	}
	if v := os.Getenv("MAINTVAULT_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("MAINTVAULT_DB_NAME"); v != "" {
		cfg.Database.Name = strings.TrimSpace(v)
	}
	if v := os.Getenv("MAINTVAULT_POOL_MAX_OPEN_CONNS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.Pool.MaxOpenConns = n
		}
	}
	if v := os.Getenv("MAINTVAULT_ATTACHMENTS_DIR"); v != "" {
		cfg.Attachments.Dir = strings.TrimSpace(v)
	}
	if v := os.Getenv("MAINTVAULT_MINIO_ACCESS_KEY"); v != "" {
		cfg.Attachments.MinioAccessKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("MAINTVAULT_MINIO_SECRET_KEY"); v != "" {
		cfg.Attachments.MinioSecretKey = v
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *FileConfig) {
	if cfg.Database.Port == "" {
		cfg.Database.Port = "3306"
	}
	if cfg.Database.Charset == "" {
		cfg.Database.Charset = "utf8mb4"
	}
	if cfg.Database.Collation == "" {
		cfg.Database.Collation = "utf8mb4_unicode_ci"
	}
	if cfg.Pool.MaxOpenConns == 0 {
		cfg.Pool.MaxOpenConns = 5
	}
	if cfg.Pool.MaxIdleConns == 0 {
		cfg.Pool.MaxIdleConns = cfg.Pool.MaxOpenConns
	}
	if cfg.Pool.ConnMaxLifetimeMins == 0 {
		cfg.Pool.ConnMaxLifetimeMins = 60
	}
	if cfg.Pool.OpTimeoutSeconds == 0 {
		cfg.Pool.OpTimeoutSeconds = 10
	}
	if cfg.Attachments.Backend == "" {
		cfg.Attachments.Backend = "disk"
	}
	if cfg.Backup.DumpCommand == "" {
		cfg.Backup.DumpCommand = "mysqldump"
	}
	if cfg.Backup.LoadCommand == "" {
		cfg.Backup.LoadCommand = "mysql"
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Database.Host == "" {
		return errors.New("config: database.host is required (set in config.yaml or MAINTVAULT_DB_HOST)")
	}
	if cfg.Database.User == "" {
		return errors.New("config: database.user is required (set in config.yaml or MAINTVAULT_DB_USER)")
	}
	if cfg.Database.Name == "" {
		return errors.New("config: database.name is required (set in config.yaml or MAINTVAULT_DB_NAME)")
	}
	switch cfg.Attachments.Backend {
	case "disk":
		if cfg.Attachments.Dir == "" {
			return errors.New("config: attachments.dir is required for the disk backend")
		}
	case "minio":
		if cfg.Attachments.MinioEndpoint == "" || cfg.Attachments.MinioBucket == "" {
			return errors.New("config: attachments.minioEndpoint and attachments.minioBucket are required for the minio backend")
		}
	default:
		return fmt.Errorf("config: unknown attachments.backend %q (want disk or minio)", cfg.Attachments.Backend)
	}
	if cfg.Pool.MaxOpenConns < 1 {
		return errors.New("config: pool.maxOpenConns must be >= 1")
	}
	return nil
}

// DSN builds the go-sql-driver DSN. clientFoundRows makes UPDATE report
// matched rows, so a same-values update is not mistaken for "not found".
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&collation=%s&parseTime=true&clientFoundRows=true",
		d.User, d.Password, d.Host, d.Port, d.Name, d.Charset, d.Collation)
}
