package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestMessageRoundTrip(t *testing.T) {
	job := IngestJob{JobID: "j-1", FileName: "august.pdf", Data: []byte("%PDF-1.4\n")}
	msg, err := NewIngest(job)
	require.NoError(t, err)

	raw, err := serialize(msg)
	require.NoError(t, err)
	back, err := deserialize(raw)
	require.NoError(t, err)

	got, err := DecodeIngest(back)
	require.NoError(t, err)
	assert.Equal(t, job, got)
}

func TestDecodeIngestRejectsOtherTypes(t *testing.T) {
	_, err := DecodeIngest(Message{Type: "email", Body: []byte(`{}`)})
	assert.Error(t, err)
}

func TestInMemoryDeliversInOrder(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q := NewInMemory(4)
	for _, name := range []string{"a.pdf", "b.pdf"} {
		msg, err := NewIngest(IngestJob{JobID: name, FileName: name})
		require.NoError(t, err)
		require.NoError(t, q.Publish(ctx, msg))
	}

	ch, err := q.Consume(ctx)
	require.NoError(t, err)
	var got []string
	for len(got) < 2 {
		select {
		case msg := <-ch:
			job, err := DecodeIngest(msg)
			require.NoError(t, err)
			got = append(got, job.FileName)
		case <-ctx.Done():
			t.Fatal("timed out waiting for messages")
		}
	}
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, got)
}
