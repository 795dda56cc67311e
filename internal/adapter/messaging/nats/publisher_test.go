package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureConn struct {
	msgs []*nats.Msg
	err  error
}

func (c *captureConn) PublishMsg(m *nats.Msg) error {
	c.msgs = append(c.msgs, m)
	return c.err
}

func TestPublisher_Publish(t *testing.T) {
	conn := &captureConn{}
	p := &Publisher{conn: conn, logger: logger.NewNop()}

	err := p.Publish(context.Background(), "listing.created", map[string]string{"listing_id": "l1"})
	require.NoError(t, err)
	require.Len(t, conn.msgs, 1)
	assert.Equal(t, "listing.created", conn.msgs[0].Subject)
	assert.JSONEq(t, `{"listing_id":"l1"}`, string(conn.msgs[0].Data))
}

func TestPublisher_PublishErrors(t *testing.T) {
	conn := &captureConn{err: errors.New("nats: connection closed")}
	p := &Publisher{conn: conn, logger: logger.NewNop()}

	err := p.Publish(context.Background(), "listing.updated", struct{}{})
	assert.ErrorContains(t, err, "connection closed")

	err = p.Publish(context.Background(), "listing.updated", make(chan int))
	assert.ErrorContains(t, err, "marshal")
}
