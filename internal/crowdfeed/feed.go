package crowdfeed

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/jengzang/route-planner-go/internal/models"
)

// DefaultSubject carries crowd batches between planner instances.
const DefaultSubject = "roads.crowd"

// Metrics receives feed connection and publish events.
type Metrics interface {
	FeedPublishedInc()
	FeedPublishErrInc()
	FeedSetConnected(connected bool)
}

// Feed publishes and receives crowd batches over NATS.
type Feed struct {
	nc      *nats.Conn
	subject string
	metrics Metrics
	sub     *nats.Subscription
}

// Connect dials the NATS server at url and returns a feed on subject, or on
// DefaultSubject when subject is empty.
func Connect(url, subject, name string, m Metrics) (*Feed, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if m != nil {
				m.FeedSetConnected(false)
			}
			log.Printf("[CrowdFeed] NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			if m != nil {
				m.FeedSetConnected(true)
			}
			log.Printf("[CrowdFeed] NATS reconnected to %s", c.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.FeedSetConnected(false)
			}
			log.Printf("[CrowdFeed] NATS closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if m != nil {
		m.FeedSetConnected(true)
	}
	return &Feed{nc: nc, subject: subjectName(subject), metrics: m}, nil
}

// PublishCrowd sends batch on the feed subject.
func (f *Feed) PublishCrowd(batch models.CrowdBatch) error {
	b, err := Encode(batch)
	if err != nil {
		return err
	}
	err = f.nc.Publish(f.subject, b)
	if f.metrics != nil {
		if err != nil {
			f.metrics.FeedPublishErrInc()
		} else {
			f.metrics.FeedPublishedInc()
		}
	}
	return err
}

// Subscribe calls handle for every well-formed batch received. Malformed
// messages are logged and dropped.
func (f *Feed) Subscribe(handle func(models.CrowdBatch) error) error {
	sub, err := f.nc.Subscribe(f.subject, func(msg *nats.Msg) {
		batch, err := Decode(msg.Data)
		if err != nil {
			log.Printf("[CrowdFeed] Warning: dropping malformed batch: %v", err)
			return
		}
		if err := handle(batch); err != nil {
			log.Printf("[CrowdFeed] Error: failed to apply batch from %s: %v", batch.Source, err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", f.subject, err)
	}
	f.sub = sub
	return nil
}

// Close unsubscribes and drains the connection.
func (f *Feed) Close() {
	if f.nc == nil {
		return
	}
	if f.sub != nil {
		_ = f.sub.Unsubscribe()
	}
	_ = f.nc.Drain()
	f.nc.Close()
}

// Encode serialises a crowd batch for the wire.
func Encode(batch models.CrowdBatch) ([]byte, error) {
	if batch.Updates == nil {
		batch.Updates = []models.CrowdUpdate{}
	}
	return json.Marshal(batch)
}

// Decode parses a crowd batch received from the wire.
func Decode(data []byte) (models.CrowdBatch, error) {
	var batch models.CrowdBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		return models.CrowdBatch{}, fmt.Errorf("invalid crowd batch: %w", err)
	}
	for _, u := range batch.Updates {
		if u.RoadID <= 0 {
			return models.CrowdBatch{}, fmt.Errorf("invalid crowd batch: road id %d", u.RoadID)
		}
	}
	return batch, nil
}

// subjectName replaces characters NATS does not allow inside subject tokens.
func subjectName(s string) string {
	s = strings.TrimSpace(s)
	repl := strings.NewReplacer(" ", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = strings.Trim(repl.Replace(s), ".")
	if s == "" {
		return DefaultSubject
	}
	return s
}
