package invoke

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxion-eng/fluxion/core/providers"
	"github.com/fluxion-eng/fluxion/core/retry"
)

func caller(p providers.Provider) *Caller {
	return &Caller{Provider: p, Harness: &retry.Harness{MaxAttempts: 3}}
}

func TestTextStripsFences(t *testing.T) {
	fake := providers.NewFake(providers.TextReply("```markdown\n## Summary\nhello\n```"))

	res, err := caller(fake).Text(context.Background(), "writer", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "## Summary\nhello", Clean(res.Reply.Content))
	assert.Equal(t, providers.ModeText, fake.Request(0).Mode)
}

func TestTextRejectsEmptyAndRetries(t *testing.T) {
	fake := providers.NewFake(
		providers.TextReply("   "),
		providers.TextReply("## Summary"),
	)

	res, err := caller(fake).Text(context.Background(), "writer", nil, nil)
	require.NoError(t, err)
	assert.Len(t, res.Attempts, 2)
}

func TestTextValidatorExhaustsHarness(t *testing.T) {
	fake := providers.NewFake(providers.TextReply("nope"))

	_, err := caller(fake).Text(context.Background(), "writer", nil, func(content string) error {
		return fmt.Errorf("missing required heading")
	})
	assert.ErrorIs(t, err, retry.ErrExhausted)
	assert.Equal(t, 3, fake.Calls())
}

func TestJSONExtractsDocument(t *testing.T) {
	fake := providers.NewFake(providers.JSONReply("```json\n{\"name\": \"cooler\"}\n```"))

	doc, _, err := caller(fake).JSON(context.Background(), "builder", nil, nil, nil)
	require.NoError(t, err)

	var out map[string]string
	require.NoError(t, json.Unmarshal(doc, &out))
	assert.Equal(t, "cooler", out["name"])
	assert.Equal(t, providers.ModeJSON, fake.Request(0).Mode)
}

func TestJSONRetriesOnValidatorError(t *testing.T) {
	fake := providers.NewFake(
		providers.JSONReply(`{"count": 1}`),
		providers.JSONReply(`{"count": 2}`),
	)

	doc, res, err := caller(fake).JSON(context.Background(), "builder", nil, nil, func(doc json.RawMessage) error {
		var out map[string]int
		if err := json.Unmarshal(doc, &out); err != nil {
			return err
		}
		if out["count"] < 2 {
			return fmt.Errorf("count too small")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, res.Attempts, 2)
	assert.JSONEq(t, `{"count": 2}`, string(doc))
}

func TestJSONDowngradesAfterTransientStructuredFailure(t *testing.T) {
	fake := providers.NewFakeScript(func(call int, req *providers.Request) (*providers.Reply, error) {
		if call == 0 {
			return nil, errors.New("503 service unavailable")
		}
		if req.Mode != providers.ModeText {
			return nil, fmt.Errorf("expected downgraded text mode, got %s", req.Mode)
		}
		return providers.TextReply("```json\n{\"ok\": true}\n```"), nil
	})

	doc, res, err := caller(fake).JSON(context.Background(), "builder", nil, nil, nil)
	require.NoError(t, err)
	assert.Len(t, res.Attempts, 2)
	assert.JSONEq(t, `{"ok": true}`, string(doc))
}

func TestJSONPermanentErrorAborts(t *testing.T) {
	fake := providers.NewFake().FailWith(providers.Permanent(errors.New("schema rejected")))

	_, _, err := caller(fake).JSON(context.Background(), "builder", nil, nil, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, retry.ErrExhausted)
	assert.Equal(t, 1, fake.Calls())
}

func TestJSONNoDocumentInReply(t *testing.T) {
	fake := providers.NewFake(providers.TextReply("no structure here"))

	_, _, err := caller(fake).JSON(context.Background(), "builder", nil, nil, nil)
	assert.ErrorIs(t, err, retry.ErrExhausted)
}
