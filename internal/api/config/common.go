package config

// Config 配置主体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	KafkaFeed KafkaFeedConfig `mapstructure:"kafka_feed"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	Logstash  LogstashConfig  `mapstructure:"logstash"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Endpoints EndpointsConfig `mapstructure:"endpoints"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// MongoConfig Mongo配置
type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

type KafkaConfig struct {
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

// KafkaFeedConfig 行变更事件流配置，topic = prefix + 表名
type KafkaFeedConfig struct {
	TopicPrefix string `mapstructure:"topic_prefix"`
	GroupID     string `mapstructure:"group_id"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	AccessKey  string `mapstructure:"access_key"`
	SecretKey  string `mapstructure:"secret_key"`
	MainBucket string `mapstructure:"main_bucket"`
	UseSSL     bool   `mapstructure:"use_ssl"`
}

// LogstashConfig 远程日志配置
type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

// SyncConfig 同步层配置
type SyncConfig struct {
	// PresenceChannel 全应用共享的在线状态频道名
	PresenceChannel string `mapstructure:"presence_channel"`
	// HeartbeatTTL 在线心跳过期秒数
	HeartbeatTTL int `mapstructure:"heartbeat_ttl"`
	// CoalesceRefresh 打开后并发的看板刷新会合并为一次请求
	CoalesceRefresh bool `mapstructure:"coalesce_refresh"`
}

// EndpointsConfig 同步层访问的协作方接口
type EndpointsConfig struct {
	APIBaseURL string `mapstructure:"api_base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}
