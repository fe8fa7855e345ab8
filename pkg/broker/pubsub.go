package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/cashvault-backend/pkg/config"
)

var errProjectIDRequired = errors.New("gcp project id is required")

// PubSubPublisher publishes through one cached Pub/Sub publisher per topic.
type PubSubPublisher struct {
	client    *pubsub.Client
	projectID string
	topics    []string

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
}

// NewPubSubPublisher creates a Pub/Sub v2 client and ensures the topics exist.
func NewPubSubPublisher(ctx context.Context, gcp config.GCPConfig, topics []string) (*PubSubPublisher, error) {
	if strings.TrimSpace(gcp.ProjectID) == "" {
		return nil, errProjectIDRequired
	}
	client, err := pubsub.NewClient(ctx, gcp.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	p := &PubSubPublisher{
		client:     client,
		projectID:  gcp.ProjectID,
		topics:     topics,
		publishers: map[string]*pubsub.Publisher{},
	}
	if err := p.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return p, nil
}

func (p *PubSubPublisher) Publish(ctx context.Context, msg Message) error {
	pub := p.publisher(msg.Topic)
	if pub == nil {
		return fmt.Errorf("topic %q not configured", msg.Topic)
	}
	result := pub.Publish(ctx, &pubsub.Message{
		Data:        msg.Data,
		Attributes:  msg.Attributes,
		OrderingKey: msg.Key,
	})
	if _, err := result.Get(ctx); err != nil {
		if msg.Key != "" {
			pub.ResumePublish(msg.Key)
		}
		return fmt.Errorf("pubsub publish %s: %w", msg.Topic, err)
	}
	return nil
}

// Ping checks every configured topic exists.
func (p *PubSubPublisher) Ping(ctx context.Context) error {
	if p == nil || p.client == nil {
		return errors.New("pubsub client not initialized")
	}
	for _, name := range p.topics {
		fullName := topicResourceName(p.projectID, name)
		if fullName == "" {
			continue
		}
		_, err := p.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: fullName})
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("topic %q does not exist", name)
			}
			return fmt.Errorf("checking topic %q: %w", name, err)
		}
	}
	return nil
}

// Close flushes every publisher and releases the client.
func (p *PubSubPublisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	p.mu.Lock()
	for _, pub := range p.publishers {
		pub.Stop()
	}
	p.publishers = map[string]*pubsub.Publisher{}
	p.mu.Unlock()
	return p.client.Close()
}

func (p *PubSubPublisher) publisher(topic string) *pubsub.Publisher {
	fullName := topicResourceName(p.projectID, topic)
	if fullName == "" {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if pub, ok := p.publishers[fullName]; ok {
		return pub
	}
	pub := p.client.Publisher(fullName)
	pub.EnableMessageOrdering = true
	p.publishers[fullName] = pub
	return pub
}

func topicResourceName(projectID, name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/topics/") {
		return n
	}
	p := strings.TrimSpace(projectID)
	if p == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/topics/%s", p, n)
}
