package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/tasklane/tasklane-core/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "tasklane-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"login event", topics.Event("auth.login"), "tasklane/events/auth/login"},
		{"task status event", topics.Event("task.status_changed"), "tasklane/events/task/status_changed"},
		{"undotted event", topics.Event("ping"), "tasklane/events/ping"},
		{"all events", topics.AllEvents(), "tasklane/events/#"},
		{"system status", topics.SystemStatus(), "tasklane/system/status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestValidTopic(t *testing.T) {
	tests := []struct {
		topic string
		want  bool
	}{
		{"tasklane/events/task/created", true},
		{"", false},
		{"tasklane/events/#", false},
		{"tasklane/+/status", false},
	}
	for _, tt := range tests {
		if got := validTopic(tt.topic); got != tt.want {
			t.Errorf("validTopic(%q) = %v, want %v", tt.topic, got, tt.want)
		}
	}
}

func TestBuildClientOptions(t *testing.T) {
	t.Run("plain tcp without auth", func(t *testing.T) {
		opts := buildClientOptions(testConfig())

		if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
			t.Errorf("Servers = %v, want [tcp://127.0.0.1:1883]", opts.Servers)
		}
		if opts.ClientID != "tasklane-test" {
			t.Errorf("ClientID = %q, want tasklane-test", opts.ClientID)
		}
		if opts.Username != "" {
			t.Errorf("Username = %q, want empty", opts.Username)
		}
		if !opts.AutoReconnect || !opts.CleanSession {
			t.Error("expected auto-reconnect and clean session")
		}
		if opts.TLSConfig != nil {
			t.Error("TLSConfig set without TLS enabled")
		}
	})

	t.Run("tls with credentials", func(t *testing.T) {
		cfg := testConfig()
		cfg.Broker.TLS = true
		cfg.Broker.Port = 8883
		cfg.Auth = config.MQTTAuthConfig{Username: "core", Password: "secret"}

		opts := buildClientOptions(cfg)
		if opts.Servers[0].Scheme != "ssl" {
			t.Errorf("scheme = %q, want ssl", opts.Servers[0].Scheme)
		}
		if opts.Username != "core" || opts.Password != "secret" {
			t.Errorf("credentials = %q/%q, want core/secret", opts.Username, opts.Password)
		}
		if opts.TLSConfig == nil {
			t.Error("TLSConfig not set with TLS enabled")
		}
	})

	t.Run("last will", func(t *testing.T) {
		opts := buildClientOptions(testConfig())
		if !opts.WillEnabled || !opts.WillRetained {
			t.Fatal("expected a retained last will")
		}
		if opts.WillTopic != "tasklane/system/status" {
			t.Errorf("WillTopic = %q", opts.WillTopic)
		}

		var status statusPayload
		if err := json.Unmarshal(opts.WillPayload, &status); err != nil {
			t.Fatalf("will payload is not JSON: %v", err)
		}
		if status.Status != "offline" || status.Reason != "unexpected_disconnect" {
			t.Errorf("will payload = %+v", status)
		}
	})
}

func TestStatusMessage(t *testing.T) {
	var status statusPayload
	if err := json.Unmarshal(statusMessage("online", "core-1", ""), &status); err != nil {
		t.Fatalf("statusMessage() is not JSON: %v", err)
	}
	if status.Status != "online" || status.ClientID != "core-1" || status.Timestamp == "" {
		t.Errorf("statusMessage() = %+v", status)
	}
	if strings.Contains(string(statusMessage("online", "core-1", "")), "reason") {
		t.Error("empty reason should be omitted")
	}
}

func TestPublishValidation(t *testing.T) {
	c := &Client{cfg: testConfig()}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", nil, 1, ErrInvalidTopic},
		{"wildcard topic", "tasklane/events/#", nil, 1, ErrInvalidTopic},
		{"invalid qos", "tasklane/events/x", nil, 3, ErrInvalidQoS},
		{"oversized payload", "tasklane/events/x", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
		{"not connected", "tasklane/events/x", []byte("{}"), 1, ErrNotConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPublishJSON_EncodeError(t *testing.T) {
	c := &Client{cfg: testConfig()}
	err := c.PublishJSON(Topics{}.Event("x"), make(chan int))
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("PublishJSON() error = %v, want ErrPublishFailed", err)
	}
}

func TestDisconnectedClient(t *testing.T) {
	var nilClient *Client
	if nilClient.IsConnected() {
		t.Error("nil client reports connected")
	}
	if err := nilClient.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}

	c := &Client{cfg: testConfig()}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() with cancelled ctx error = %v, want context.Canceled", err)
	}
}

func TestConnect_BrokerRefused(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 1 // nothing listens here
	cfg.Reconnect.InitialDelay = 0

	// ConnectRetry keeps paho retrying until the connect timeout.
	if testing.Short() {
		t.Skip("waits for the connect timeout")
	}
	_, err := Connect(cfg)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}
