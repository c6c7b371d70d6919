package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`

	Server struct {
		Port           int           `yaml:"port"`
		RequestTimeout time.Duration `yaml:"requestTimeout"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	// Textract reads the document bucket straight from S3 by bucket name.
	// When a region is set, minio.endpoint must therefore target a native
	// amazonaws.com S3 endpoint reachable with the textract credentials; a
	// local MinIO deployment cannot serve the OCR path.
	Textract struct {
		Region       string        `yaml:"region"`
		AccessKey    string        `yaml:"accessKey"`
		SecretKey    string        `yaml:"secretKey"`
		PollInterval time.Duration `yaml:"pollInterval"`
	} `yaml:"textract"`

	LLM struct {
		Provider      string        `yaml:"provider"` // openai | azure_openai
		APIKey        string        `yaml:"apiKey"`
		Model         string        `yaml:"model"`
		AzureEndpoint string        `yaml:"azureEndpoint"`
		AzureAPIKey   string        `yaml:"azureApiKey"`
		Timeout       time.Duration `yaml:"timeout"`
	} `yaml:"llm"`

	Gemini struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"gemini"`

	Redis struct {
		URL        string        `yaml:"url"`
		SessionTTL time.Duration `yaml:"sessionTTL"`
	} `yaml:"redis"`

	Auth struct {
		JWTSecret string `yaml:"jwtSecret"`
	} `yaml:"auth"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"cors"`
}

// Load reads config.yaml, expanding ${VAR} references from the environment.
// A .env file next to the binary is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 120 * time.Second
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Textract.PollInterval == 0 {
		c.Textract.PollInterval = 2 * time.Second
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o"
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 90 * time.Second
	}
	if c.Redis.SessionTTL == 0 {
		c.Redis.SessionTTL = time.Hour
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	switch c.LLM.Provider {
	case "openai", "azure_openai":
	default:
		return fmt.Errorf("unsupported llm provider: %s", c.LLM.Provider)
	}
	if c.LLM.Provider == "azure_openai" && c.LLM.AzureEndpoint == "" {
		return fmt.Errorf("llm.azureEndpoint is required for azure_openai")
	}
	if c.Textract.Region != "" && !strings.Contains(strings.ToLower(c.Minio.Endpoint), "amazonaws.com") {
		return fmt.Errorf("textract reads the document bucket directly from S3: minio.endpoint must be a native amazonaws.com endpoint when textract.region is set, got %q", c.Minio.Endpoint)
	}
	return nil
}

// Development reports whether the service runs with development conveniences
// such as extraction replay.
func (c *Config) Development() bool {
	return c.Environment == "development"
}

// MySQLDSN builds the MySQL connection string.
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds the Postgres connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
