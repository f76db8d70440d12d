package constants

import "time"

// MentionPlaceholder marks where the picked member is mentioned in the
// notification template.
const MentionPlaceholder = "@mention"

// Reply placeholders, resolved to mention spans by the formatter.
const (
	ReplyFirstPlaceholder  = "{}"
	ReplySecondPlaceholder = "[]"
)

var BotDefaults = struct {
	Address   string
	Signature string
}{
	Address:   "lieber bot:",
	Signature: " -- Euer Essensverteiler-Bot",
}

var RotationTiming = struct {
	ReceiveTimeout   time.Duration
	CycleInterval    time.Duration
	IgnoreBeforeHour int
	MaxEvents        int
}{
	ReceiveTimeout:   3 * time.Second,  // bounded receive per watch cycle
	CycleInterval:    10 * time.Second, // pause between watch cycles
	IgnoreBeforeHour: 5,                // commands before 05:00 belong to the previous round
	MaxEvents:        -1,               // no cap per receive
}

var StoreConfig = struct {
	FilePrefix   string
	FileSuffix   string
	RedisPrefix  string
	PostgresOpTO time.Duration
}{
	FilePrefix:   "round-robin-",
	FileSuffix:   ".json",
	RedisPrefix:  "rotation:log:",
	PostgresOpTO: 5 * time.Second,
}

var WebSocketConfig = struct {
	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
	InboxCapacity        int
}{
	MaxReconnectAttempts: 5,
	ReconnectDelay:       5 * time.Second,
	InboxCapacity:        256,
}

var APIConfig = struct {
	IrisTimeout        time.Duration
	HealthCheckTimeout time.Duration
}{
	IrisTimeout:        10 * time.Second,
	HealthCheckTimeout: 2 * time.Second,
}

var RedisConfig = struct {
	ReadyTimeout time.Duration
}{
	ReadyTimeout: 5 * time.Second,
}
