package pubsub

import (
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// logClient is used when no Google Cloud project is configured: events are
// encoded exactly as they would be published, then only logged.
type logClient struct{}

// NewLogClient creates a PubSubClient that logs instead of publishing.
func NewLogClient() PubSubClient {
	return logClient{}
}

func (logClient) SendMessage(topic EventType, data any) error {
	encoded, err := msgpack.Marshal(data)
	if err != nil {
		log.Error("MessagePack marshal error", "error", err)
		return err
	}
	log.Info("Domain event", "topic", topic, "bytes", len(encoded), "data", data)
	return nil
}

func (logClient) ProcessMessage(data []byte, returnValue any) error {
	return decode(data, returnValue)
}

func (logClient) Close() {}
