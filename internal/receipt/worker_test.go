package receipt

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMessenger struct {
	mu     sync.Mutex
	sent   chan struct{}
	to     []string
	bodies []string
}

func newRecordingMessenger() *recordingMessenger {
	return &recordingMessenger{sent: make(chan struct{}, 16)}
}

func (m *recordingMessenger) SendReply(_ context.Context, to, body string) error {
	m.mu.Lock()
	m.to = append(m.to, to)
	m.bodies = append(m.bodies, body)
	m.mu.Unlock()
	m.sent <- struct{}{}
	return nil
}

func (m *recordingMessenger) snapshot() ([]string, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.to...), append([]string(nil), m.bodies...)
}

func s3Notification(t *testing.T, keys ...string) string {
	t.Helper()
	evt := events.S3Event{}
	for _, key := range keys {
		evt.Records = append(evt.Records, events.S3EventRecord{
			EventName: "ObjectCreated:Put",
			S3: events.S3Entity{
				Bucket: events.S3Bucket{Name: "scontreeno"},
				Object: events.S3Object{Key: key},
			},
		})
	}
	body, err := json.Marshal(evt)
	require.NoError(t, err)
	return string(body)
}

func waitForSend(t *testing.T, m *recordingMessenger) {
	t.Helper()
	select {
	case <-m.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reply send")
	}
}

func TestWorkerProcessesNotification(t *testing.T) {
	queue := NewMemoryQueue(8)
	store := &fakeGetter{data: map[string]string{"111/whatsapp:+15550002222/ab.jpg": "jpeg"}}
	messenger := newRecordingMessenger()
	processor := NewProcessor(store, &fakeAnalyzer{result: resultWithMerchant("Cafe Roma")}, messenger, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	worker := NewWorker(processor, queue, nil, WithWorkerCount(1), WithReceiveWaitSeconds(1))
	worker.Start(ctx)

	require.NoError(t, queue.Send(ctx, s3Notification(t, "111/whatsapp:+15550002222/ab.jpg")))
	waitForSend(t, messenger)

	cancel()
	worker.Wait()

	to, bodies := messenger.snapshot()
	require.Len(t, to, 1)
	assert.Equal(t, "whatsapp:+15550002222", to[0])
	assert.Contains(t, bodies[0], "Cafe Roma")
}

func TestWorkerURLEncodedKey(t *testing.T) {
	queue := NewMemoryQueue(8)
	store := &fakeGetter{data: map[string]string{"111/whatsapp:+15550002222/ab.jpg": "jpeg"}}
	messenger := newRecordingMessenger()
	processor := NewProcessor(store, &fakeAnalyzer{result: resultWithMerchant("Cafe Roma")}, messenger, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	worker := NewWorker(processor, queue, nil, WithWorkerCount(1), WithReceiveWaitSeconds(1))
	worker.Start(ctx)

	// S3 URL-encodes keys in event notifications.
	require.NoError(t, queue.Send(ctx, s3Notification(t, "111/whatsapp%3A%2B15550002222/ab.jpg")))
	waitForSend(t, messenger)

	cancel()
	worker.Wait()

	to, _ := messenger.snapshot()
	require.Len(t, to, 1)
	assert.Equal(t, "whatsapp:+15550002222", to[0])
}

func TestWorkerFallbackOnAnalysisFailure(t *testing.T) {
	queue := NewMemoryQueue(8)
	store := &fakeGetter{data: map[string]string{"111/222/ab.jpg": "jpeg"}}
	messenger := newRecordingMessenger()
	processor := NewProcessor(store, &fakeAnalyzer{err: context.DeadlineExceeded}, messenger, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	worker := NewWorker(processor, queue, nil, WithWorkerCount(1), WithReceiveWaitSeconds(1))
	worker.Start(ctx)

	require.NoError(t, queue.Send(ctx, s3Notification(t, "111/222/ab.jpg")))
	waitForSend(t, messenger)

	cancel()
	worker.Wait()

	_, bodies := messenger.snapshot()
	require.Len(t, bodies, 1)
	assert.Equal(t, FallbackReply, bodies[0])
}

func TestWorkerDiscardsGarbageNotification(t *testing.T) {
	queue := NewMemoryQueue(8)
	messenger := newRecordingMessenger()
	store := &fakeGetter{data: map[string]string{"111/222/ok.jpg": "jpeg"}}
	processor := NewProcessor(store, &fakeAnalyzer{result: resultWithMerchant("Cafe Roma")}, messenger, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	worker := NewWorker(processor, queue, nil, WithWorkerCount(1), WithReceiveWaitSeconds(1))
	worker.Start(ctx)

	require.NoError(t, queue.Send(ctx, "not-json"))
	require.NoError(t, queue.Send(ctx, s3Notification(t))) // no records

	// Follow with a valid notification to prove the worker kept running.
	require.NoError(t, queue.Send(ctx, s3Notification(t, "111/222/ok.jpg")))
	waitForSend(t, messenger)

	cancel()
	worker.Wait()

	to, _ := messenger.snapshot()
	assert.Len(t, to, 1)
}

func TestWorkerOptionsClamp(t *testing.T) {
	cfg := workerConfig{workers: defaultWorkerCount, receiveWaitSecs: defaultWaitSeconds, receiveBatchSize: defaultBatchSize}
	WithWorkerCount(0)(&cfg)
	assert.Equal(t, defaultWorkerCount, cfg.workers)
	WithReceiveWaitSeconds(99)(&cfg)
	assert.Equal(t, maxWaitSeconds, cfg.receiveWaitSecs)
	WithReceiveBatchSize(99)(&cfg)
	assert.Equal(t, maxBatchSize, cfg.receiveBatchSize)
}
