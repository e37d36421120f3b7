package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// 模型类型配置
	ChatModelType string

	ArkConf      ArkConfig
	OpenAIConf   OpenAIConfig
	QwenConf     QwenConfig
	DeepSeekConf DeepSeekConfig
	GeminiConf   GeminiConfig

	ServerConf  ServerConfig
	RedisConf   RedisConfig
	StorageConf StorageConfig
	AgentConf   AgentConfig
	LogConf     LogConfig

	LangSmithConf LangSmithConfig
	TraceConf     TraceConfig
}

type ArkConfig struct {
	ArkKey       string
	ArkChatModel string
}

type OpenAIConfig struct {
	BaseUrl         string
	OpenAIKey       string
	OpenAIChatModel string
}

type QwenConfig struct {
	BaseUrl       string
	QwenKey       string
	QwenChatModel string
}

type DeepSeekConfig struct {
	BaseUrl           string
	DeepSeekKey       string
	DeepSeekChatModel string
	DeepSeekTimeout   string
}

type GeminiConfig struct {
	GeminiKey       string
	GeminiChatModel string
}

type ServerConfig struct {
	Addr    string
	GinMode string
	// 上传文件大小上限（字节）
	MaxUploadBytes int64
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       string
}

type StorageConfig struct {
	PlotsDir   string
	ReportsDir string
	UploadDir  string
}

type AgentConfig struct {
	MaxIterations int
	Timeout       time.Duration
	Temperature   float32
	// 多轮对话超过该长度后触发摘要压缩
	MaxHistoryLen int
}

type LogConfig struct {
	Level string
	Dev   bool
}

type LangSmithConfig struct {
	APIKey string
	APIUrl string
}

type TraceConfig struct {
	Devops        bool
	TranscriptDir string
}

var Cfg *Config

// LoadConfig 读取 .env（可选）与环境变量
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	config := &Config{
		ChatModelType: getEnv("CHAT_MODEL_TYPE", "openai"),

		ArkConf: ArkConfig{
			ArkKey:       getEnv("ARK_KEY", ""),
			ArkChatModel: getEnv("ARK_CHAT_MODEL", "doubao-seed-1-8-251228"),
		},
		OpenAIConf: OpenAIConfig{
			BaseUrl:         getEnv("OPENAI_BASE_URL", ""),
			OpenAIKey:       getEnv("OPENAI_KEY", ""),
			OpenAIChatModel: getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		},
		QwenConf: QwenConfig{
			BaseUrl:       getEnv("QWEN_BASE_URL", "https://dashscope.aliyuncs.com/compatible-mode/v1"),
			QwenKey:       getEnv("QWEN_KEY", ""),
			QwenChatModel: getEnv("QWEN_CHAT_MODEL", "qwen-plus"),
		},
		DeepSeekConf: DeepSeekConfig{
			BaseUrl:           getEnv("DeepSeek_BASE_URL", ""),
			DeepSeekKey:       getEnv("DeepSeek_KEY", ""),
			DeepSeekTimeout:   getEnv("DeepSeek_TIMEOUT", ""),
			DeepSeekChatModel: getEnv("DeepSeek_CHAT_MODEL", "deepseek-chat"),
		},
		GeminiConf: GeminiConfig{
			GeminiKey:       getEnv("GEMINI_KEY", ""),
			GeminiChatModel: getEnv("GEMINI_CHAT_MODEL", "gemini-2.0-flash"),
		},
		ServerConf: ServerConfig{
			Addr:           getEnv("SERVER_ADDR", ":8080"),
			GinMode:        getEnv("GIN_MODE", "release"),
			MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 50)) << 20,
		},
		RedisConf: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnv("REDIS_DB", "0"),
		},
		StorageConf: StorageConfig{
			PlotsDir:   getEnv("PLOTS_DIR", "plots"),
			ReportsDir: getEnv("REPORTS_DIR", "reports"),
			UploadDir:  getEnv("UPLOAD_DIR", ""),
		},
		AgentConf: AgentConfig{
			MaxIterations: getEnvInt("AGENT_MAX_ITERATIONS", 200),
			Timeout:       getEnvDuration("AGENT_TIMEOUT", 600*time.Second),
			Temperature:   float32(getEnvFloat("AGENT_TEMPERATURE", 0)),
			MaxHistoryLen: getEnvInt("MEMORY_MAX_HISTORY", 6),
		},
		LogConf: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			Dev:   getEnvBool("LOG_DEV", false),
		},
		LangSmithConf: LangSmithConfig{
			APIKey: getEnv("LANG_SMITH_KEY", ""),
			APIUrl: getEnv("LANG_SMITH_URL", ""),
		},
		TraceConf: TraceConfig{
			Devops:        getEnvBool("EINO_DEVOPS", false),
			TranscriptDir: getEnv("TRANSCRIPT_DIR", ""),
		},
	}

	return config, nil
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return b
}

// getEnvDuration 支持 "90s" 这样的时长，也接受纯数字（按秒计）
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
