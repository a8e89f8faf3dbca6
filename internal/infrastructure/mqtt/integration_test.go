//go:build integration

package mqtt

import (
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Integration tests require a broker at 127.0.0.1:1883.
//
//	go test -tags=integration -count=1 ./internal/infrastructure/mqtt/...

func TestIntegration_PublishEventReachesSubscriber(t *testing.T) {
	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close() //nolint:errcheck // Test cleanup

	// A plain paho subscriber stands in for a downstream consumer.
	subOpts := pahomqtt.NewClientOptions().
		AddBroker("tcp://127.0.0.1:1883").
		SetClientID("tasklane-test-subscriber")
	sub := pahomqtt.NewClient(subOpts)
	if tok := sub.Connect(); !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		t.Fatalf("subscriber connect failed: %v", tok.Error())
	}
	defer sub.Disconnect(100)

	received := make(chan []byte, 1)
	topic := Topics{}.Event("task.created")
	if tok := sub.Subscribe(topic, 1, func(_ pahomqtt.Client, m pahomqtt.Message) {
		received <- m.Payload()
	}); !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		t.Fatalf("subscribe failed: %v", tok.Error())
	}

	if err := client.PublishJSON(topic, map[string]string{"id": "tsk-1"}); err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}

	select {
	case payload := <-received:
		var body map[string]string
		if err := json.Unmarshal(payload, &body); err != nil {
			t.Fatalf("payload not JSON: %v", err)
		}
		if body["id"] != "tsk-1" {
			t.Errorf("id = %q, want tsk-1", body["id"])
		}
	case <-time.After(5 * time.Second):
		t.Fatal("event not received")
	}
}

func TestIntegration_OnConnectCallback(t *testing.T) {
	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close() //nolint:errcheck // Test cleanup

	if !client.IsConnected() {
		t.Fatal("IsConnected() = false after Connect")
	}

	var disconnected atomic.Bool
	client.SetOnDisconnect(func(error) { disconnected.Store(true) })
	client.SetOnConnect(func() {})

	// Clean Close does not trigger the connection-lost handler.
	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
	if disconnected.Load() {
		t.Error("OnDisconnect fired for a graceful close")
	}
}
