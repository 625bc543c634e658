package seeder

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedGenerator(seed int64) *Generator {
	g := NewGenerator(seed)
	g.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return g
}

func TestGenerator_Deterministic(t *testing.T) {
	a, err := fixedGenerator(7).Payloads(20)
	require.NoError(t, err)
	b, err := fixedGenerator(7).Payloads(20)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestGenerator_PayloadsAreJSONObjects(t *testing.T) {
	payloads, err := fixedGenerator(1).Payloads(50)
	require.NoError(t, err)
	require.Len(t, payloads, 50)

	for _, p := range payloads {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(p), &entry), p)
		assert.NotEmpty(t, entry["insertId"])
		assert.Contains(t, entry["logName"], "cloudaudit.googleapis.com")
		assert.Contains(t, entry, "protoPayload")
	}
}

func TestGenerator_Entry_Kinds(t *testing.T) {
	g := fixedGenerator(3)

	tests := []struct {
		kind     string
		severity string
		logType  string
		hasAuth  bool
	}{
		{KindAdminActivity, "NOTICE", "%2Factivity", true},
		{KindDataAccess, "INFO", "%2Fdata_access", true},
		{KindSystemEvent, "INFO", "%2Fsystem_event", false},
		{KindPolicyDenied, "ERROR", "%2Fpolicy", true},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			entry := g.Entry(tt.kind)
			assert.Equal(t, tt.severity, entry["severity"])
			assert.Contains(t, entry["logName"], tt.logType)

			payload := entry["protoPayload"].(map[string]interface{})
			_, hasAuth := payload["authenticationInfo"]
			assert.Equal(t, tt.hasAuth, hasAuth)
		})
	}
}

func TestGenerator_TimeSpread(t *testing.T) {
	g := fixedGenerator(5)
	now := g.now()

	assert.Equal(t, now.Format(time.RFC3339Nano), g.Entry(KindAdminActivity)["timestamp"])

	g.TimeSpread = time.Hour
	for i := 0; i < 20; i++ {
		ts, err := time.Parse(time.RFC3339Nano, g.Entry(KindAdminActivity)["timestamp"].(string))
		require.NoError(t, err)
		assert.False(t, ts.After(now))
		assert.True(t, ts.After(now.Add(-time.Hour)) || ts.Equal(now.Add(-time.Hour)))
	}
}

func TestGenerator_Payloads_UnknownKind(t *testing.T) {
	_, err := fixedGenerator(1).Payloads(1, "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown event kind "bogus"`)
}

type fakePublisher struct {
	published []string
	failAfter int
}

func (p *fakePublisher) Publish(_ context.Context, subject string, data []byte) error {
	if p.failAfter > 0 && len(p.published) == p.failAfter {
		return errors.New("stream full")
	}
	p.published = append(p.published, subject+" "+string(data))
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func TestPublish(t *testing.T) {
	pub := &fakePublisher{}
	n, err := Publish(context.Background(), pub, "wodle.events.gcp", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"wodle.events.gcp a", "wodle.events.gcp b"}, pub.published)
}

func TestPublish_StopsAtFirstFailure(t *testing.T) {
	pub := &fakePublisher{failAfter: 1}
	n, err := Publish(context.Background(), pub, "s", []string{"a", "b", "c"})
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, err.Error(), "publish payload 1: stream full")
}
