package config

// AMQPConfig configures catalog event publishing over RabbitMQ.
type AMQPConfig struct {
	Enabled    bool   `koanf:"enabled"`
	URL        string `koanf:"url"`
	Queue      string `koanf:"queue" validate:"required"`
	BufferSize int    `koanf:"buffer_size" validate:"gte=1"`
	Consumer   bool   `koanf:"consumer"` // run the activity-log consumer in-process
	LogDir     string `koanf:"log_dir"`
}
