// Separate package is workaround to import cycles.
package tele_config

const (
	DefaultDestPrefix = "fd00::"
	DefaultPort       = 5010
)

type Config struct { //nolint:maligned
	// Local address to send from. Empty: first interface address with BindPrefix.
	BindAddr   string `hcl:"bind_addr" env:"SIMBRIDGE_BIND_ADDR"`
	BindPrefix string `hcl:"bind_prefix" env:"SIMBRIDGE_BIND_PREFIX"`
	DestPrefix string `hcl:"dest_prefix" env:"SIMBRIDGE_DEST_PREFIX"`
	Port       int    `hcl:"port" env:"SIMBRIDGE_PORT"`
	LogDebug   bool   `hcl:"log_debug"`
	// Build and count frames but do not open socket.
	Disable bool `hcl:"disable" env:"SIMBRIDGE_TRANSPORT_DISABLE"`

	Mirror MirrorConfig `hcl:"mirror"`
}

// MirrorConfig enables copy of every frame to MQTT broker.
type MirrorConfig struct {
	MqttBroker        string `hcl:"mqtt_broker" env:"SIMBRIDGE_MQTT_BROKER"`
	MqttClientId      string `hcl:"mqtt_client_id"`
	MqttUsername      string `hcl:"mqtt_username"`
	MqttPassword      string `hcl:"mqtt_password" env:"SIMBRIDGE_MQTT_PASSWORD"` // secret
	MqttLogDebug      bool   `hcl:"mqtt_log_debug"`
	NetworkTimeoutSec int    `hcl:"network_timeout_sec"`
	TopicPrefix       string `hcl:"topic_prefix"`
}

// TopicConfig overrides built-in topic settings, matched by name.
type TopicConfig struct {
	Name    string  `hcl:"name,key"`
	Id      int     `hcl:"id"`
	Hz      float64 `hcl:"hz"`
	Warmup  int     `hcl:"warmup"`
	Disable bool    `hcl:"disable"`
}
