package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Client struct {
	DB *mongo.Database
}

// New connects to the booking database. connectWait bounds the initial
// handshake; zero falls back to ten seconds.
func New(uri, database string, connectWait time.Duration) (*Client, error) {
	if connectWait <= 0 {
		connectWait = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectWait)
	defer cancel()
	opts := options.Client().
		ApplyURI(uri).
		SetAppName("seabook").
		SetRetryWrites(true)
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Client{DB: m.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}
