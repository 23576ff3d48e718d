package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"gopkg.in/yaml.v3"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig `yaml:"server"`
	AI     AIConfig     `yaml:"ai"`
	Chat   ChatConfig   `yaml:"chat"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey         string   `yaml:"apiKey"`
	AccessKey      string   `yaml:"accessKey"`
	SecretKey      string   `yaml:"secretKey"`
	Model          string   `yaml:"model"`
	BaseURL        string   `yaml:"baseURL"`
	Region         string   `yaml:"region"`
	Temperature    *float64 `yaml:"temperature"`
	TopP           *float64 `yaml:"topP"`
	MaxTokens      *int     `yaml:"maxTokens"`
	StreamResponse bool     `yaml:"stream"`
}

// ChatConfig 描述会话状态机的行为。空字符串表示使用 chat 包内置的默认文案。
type ChatConfig struct {
	SystemPrompt    string        `yaml:"systemPrompt"`
	Greeting        string        `yaml:"greeting"`
	FallbackReply   string        `yaml:"fallbackReply"`
	Timeout         time.Duration `yaml:"timeout"`
	HistoryLimit    int           `yaml:"historyLimit"`
	BreakerFailures int           `yaml:"breakerFailures"`
	BreakerCooldown time.Duration `yaml:"breakerCooldown"`
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default 返回未经任何覆盖的默认配置。
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		AI: AIConfig{
			BaseURL:        "https://ark.cn-beijing.volces.com/api/v3",
			Region:         "cn-beijing",
			StreamResponse: true,
		},
		Chat: ChatConfig{
			Timeout:         30 * time.Second,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load 先读取默认值，再叠加可选的 YAML 文件（CHURAI_CONFIG_PATH），最后由环境变量覆盖。
func Load() (*Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CHURAI_CONFIG_PATH")); path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyServerEnv(&cfg.Server); err != nil {
		return nil, err
	}
	if err := applyAIEnv(&cfg.AI); err != nil {
		return nil, err
	}
	if err := applyChatEnv(&cfg.Chat); err != nil {
		return nil, err
	}
	applyLogEnv(&cfg.Log)

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// applyServerEnv 解析服务器监听地址。
func applyServerEnv(server *ServerConfig) error {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		return nil
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		server.Addr = port
		return nil
	}

	if strings.Contains(port, " ") {
		return fmt.Errorf("invalid PORT value: %q", port)
	}

	server.Addr = ":" + port
	return nil
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func applyAIEnv(ai *AIConfig) error {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return err
	}
	if temperature != nil {
		ai.Temperature = temperature
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return err
	}
	if topP != nil {
		ai.TopP = topP
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return err
	}
	if maxTokens != nil {
		ai.MaxTokens = maxTokens
	}

	stream, err := parseBoolEnv("ARK_STREAM", ai.StreamResponse)
	if err != nil {
		return err
	}
	ai.StreamResponse = stream

	overrideString(&ai.APIKey, "ARK_API_KEY")
	overrideString(&ai.AccessKey, "ARK_ACCESS_KEY")
	overrideString(&ai.SecretKey, "ARK_SECRET_KEY")
	// 兼容旧的 "Model" 变量名。
	overrideString(&ai.Model, "Model")
	overrideString(&ai.Model, "ARK_MODEL")
	overrideString(&ai.BaseURL, "ARK_BASE_URL")
	overrideString(&ai.Region, "ARK_REGION")
	return nil
}

func applyChatEnv(chat *ChatConfig) error {
	overrideString(&chat.SystemPrompt, "CHAT_SYSTEM_PROMPT")
	overrideString(&chat.Greeting, "CHAT_GREETING")
	overrideString(&chat.FallbackReply, "CHAT_FALLBACK_REPLY")

	timeout, err := parseOptionalIntEnv("CHAT_TIMEOUT_SECONDS")
	if err != nil {
		return err
	}
	if timeout != nil {
		if *timeout < 1 {
			return fmt.Errorf("invalid CHAT_TIMEOUT_SECONDS value %d: must be positive", *timeout)
		}
		chat.Timeout = time.Duration(*timeout) * time.Second
	}

	limit, err := parseOptionalIntEnv("CHAT_HISTORY_LIMIT")
	if err != nil {
		return err
	}
	if limit != nil {
		if *limit < 0 {
			chat.HistoryLimit = 0
		} else {
			chat.HistoryLimit = *limit
		}
	}

	failures, err := parseOptionalIntEnv("CHAT_BREAKER_FAILURES")
	if err != nil {
		return err
	}
	if failures != nil {
		chat.BreakerFailures = *failures
	}

	cooldown, err := parseOptionalIntEnv("CHAT_BREAKER_COOLDOWN_SECONDS")
	if err != nil {
		return err
	}
	if cooldown != nil {
		chat.BreakerCooldown = time.Duration(*cooldown) * time.Second
	}
	return nil
}

func applyLogEnv(log *LogConfig) {
	overrideString(&log.Level, "LOG_LEVEL")
	overrideString(&log.Format, "LOG_FORMAT")
}

func overrideString(target *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*target = value
	}
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
