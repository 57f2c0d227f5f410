package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/farmwatch/farmwatch/internal/logger"
)

// TestResult represents the result of one connection test stage.
type TestResult struct {
	Success   bool   `json:"success"`
	Stage     string `json:"stage"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	State     string `json:"state"` // completed, failed or timeout
	Timestamp string `json:"timestamp"`
}

// TestStage represents a stage in the MQTT test process
type TestStage int

const (
	DNSResolution TestStage = iota
	TCPConnection
	MQTTConnection
	MessagePublish
)

// String returns the string representation of a test stage
func (s TestStage) String() string {
	switch s {
	case DNSResolution:
		return "DNS Resolution"
	case TCPConnection:
		return "TCP Connection"
	case MQTTConnection:
		return "MQTT Connection"
	case MessagePublish:
		return "Message Publishing"
	default:
		return "Unknown Stage"
	}
}

const (
	dnsTimeout  = 5 * time.Second
	tcpTimeout  = 5 * time.Second
	mqttTimeout = 10 * time.Second
	pubTimeout  = 5 * time.Second
)

// defaultPort returns the standard port for a broker scheme.
func defaultPort(scheme string) string {
	switch scheme {
	case "ssl", "mqtts", "tls":
		return "8883"
	case "ws":
		return "80"
	case "wss":
		return "443"
	default:
		return "1883"
	}
}

// brokerHostPort extracts host and host:port from a broker URL.
func brokerHostPort(broker string) (host, hostPort string, err error) {
	u, err := url.Parse(broker)
	if err != nil {
		return "", "", err
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("broker URL %q has no host", broker)
	}
	host = u.Hostname()
	port := u.Port()
	if port == "" {
		port = defaultPort(u.Scheme)
	}
	return host, net.JoinHostPort(host, port), nil
}

// TestConnection runs DNS, TCP, MQTT and publish stages in order, stopping at
// the first failure. resultChan is not closed.
func (c *client) TestConnection(ctx context.Context, resultChan chan<- TestResult) {
	send := func(stage TestStage, msg string, err error) bool {
		r := TestResult{
			Success:   err == nil,
			Stage:     stage.String(),
			Message:   msg,
			State:     "completed",
			Timestamp: time.Now().Format(time.RFC3339),
		}
		if err != nil {
			r.Error = err.Error()
			r.State = "failed"
			if ctx.Err() != nil || strings.Contains(r.Error, "deadline exceeded") {
				r.State = "timeout"
			}
			GetLogger().Warn("mqtt test stage failed", logger.String("stage", r.Stage), logger.Error(err))
		}
		select {
		case <-ctx.Done():
			return false
		case resultChan <- r:
		}
		return err == nil
	}

	host, hostPort, err := brokerHostPort(c.config.Broker)
	if err != nil {
		send(DNSResolution, "Invalid broker URL", err)
		return
	}

	if net.ParseIP(host) == nil {
		dctx, cancel := context.WithTimeout(ctx, dnsTimeout)
		addrs, err := net.DefaultResolver.LookupHost(dctx, host)
		cancel()
		if !send(DNSResolution, fmt.Sprintf("Resolved %s to %s", host, strings.Join(addrs, ", ")), err) {
			return
		}
	}

	tctx, cancel := context.WithTimeout(ctx, tcpTimeout)
	conn, err := (&net.Dialer{}).DialContext(tctx, "tcp", hostPort)
	cancel()
	if err == nil {
		_ = conn.Close()
	}
	if !send(TCPConnection, "TCP connection to "+hostPort+" established", err) {
		return
	}

	if !c.IsConnected() {
		mctx, cancel := context.WithTimeout(ctx, mqttTimeout)
		err = c.Connect(mctx)
		cancel()
	}
	if !send(MQTTConnection, "Connected to MQTT broker", err) {
		return
	}

	payload, _ := json.Marshal(map[string]string{
		"message":   "FarmWatch connection test",
		"timestamp": time.Now().Format(time.RFC3339),
	})
	pctx, cancel := context.WithTimeout(ctx, pubTimeout)
	err = c.PublishWithRetain(pctx, testTopic(c.config.Topic), payload, false)
	cancel()
	send(MessagePublish, "Published test message", err)
}

// testTopic derives the topic used by the publish stage.
func testTopic(baseTopic string) string {
	baseTopic = strings.TrimRight(baseTopic, "/")
	if baseTopic == "" {
		return "farmwatch/test"
	}
	return baseTopic + "/test"
}
