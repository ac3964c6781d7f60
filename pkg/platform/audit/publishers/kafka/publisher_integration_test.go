//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "firledger/pkg/platform/audit"
	"firledger/pkg/testutil/containers"
)

func TestPublisher_Emit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	broker := containers.NewRedpandaContainer(t)
	ctx := context.Background()
	const topic = "firledger.audit.test"

	pub, err := New(ctx, []string{broker.Broker}, topic, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(pub.Close)

	sent := audit.Event{
		Timestamp: time.Now().UTC(),
		Actor:     "0xjudge",
		FIRID:     "3",
		Action:    string(audit.EventFIRClosed),
		LedgerSeq: 9,
	}
	require.NoError(t, pub.Emit(ctx, sent))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	t.Cleanup(consumer.Close)

	fetchCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(fetchCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "0xjudge", string(records[0].Key), "events are keyed by actor")

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, sent.Action, got.Action)
	assert.Equal(t, sent.FIRID, got.FIRID)
	assert.Equal(t, audit.CategoryCompliance, got.Category, "category filled on emit")
	assert.Equal(t, uint64(9), got.LedgerSeq)
}
