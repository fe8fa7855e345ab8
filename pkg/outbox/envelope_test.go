package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{name: "valid", raw: `{"version":1,"eventId":"e-1","occurredAt":"2026-01-05T09:00:00Z","data":{"vaultId":1}}`},
		{name: "malformed", raw: `{"data":`, wantErr: "decode envelope"},
		{name: "zero version", raw: `{"version":0,"eventId":"e-1","data":{}}`, wantErr: "version"},
		{name: "missing id", raw: `{"version":1,"data":{}}`, wantErr: "eventId"},
		{name: "null data", raw: `{"version":1,"eventId":"e-1","data":null}`, wantErr: "data"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, err := DecodeEnvelope([]byte(tc.raw))
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "e-1", env.EventID)
			assert.JSONEq(t, `{"vaultId":1}`, string(env.Data))
		})
	}
}

func TestSealDefaultsVersionAndTime(t *testing.T) {
	fixed := time.Date(2026, 2, 1, 8, 30, 0, 0, time.FixedZone("UTC-5", -5*3600))
	svc := &Service{now: func() time.Time { return fixed }}

	env, err := svc.seal(DomainEvent{Data: map[string]int{"vaultId": 1}, Actor: ServiceActor("cron-worker")})
	require.NoError(t, err)
	assert.Equal(t, EnvelopeVersion, env.Version)
	assert.NotEmpty(t, env.EventID)
	assert.True(t, env.OccurredAt.Equal(fixed))
	assert.Equal(t, time.UTC, env.OccurredAt.Location())
	assert.Equal(t, "cron-worker", env.Actor.Service)

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	_, err = DecodeEnvelope(raw)
	require.NoError(t, err)
}

func TestSealRejectsNilData(t *testing.T) {
	svc := &Service{now: time.Now}
	_, err := svc.seal(DomainEvent{})
	require.Error(t, err)
}

func TestActors(t *testing.T) {
	assert.Nil(t, OperatorActor(""))
	assert.Nil(t, ServiceActor(""))
	assert.Equal(t, "op-1", OperatorActor("op-1").OperatorID)
}
