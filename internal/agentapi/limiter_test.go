package agentapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHostLimiter(t *testing.T) {
	l := NewHostLimiter(0.001, 2)

	assert.True(t, l.Allow("10.0.0.5:3000"))
	assert.True(t, l.Allow("10.0.0.5:3000"))
	assert.False(t, l.Allow("10.0.0.5:3000"), "burst spent")
	assert.True(t, l.Allow("10.0.0.6:3000"), "hosts are independent")
}

func TestHostLimiter_Unlimited(t *testing.T) {
	l := NewHostLimiter(0, 0)
	for range 100 {
		assert.True(t, l.Allow("fleet"))
	}
}

func TestHostLimiter_Nil(t *testing.T) {
	var l *HostLimiter
	assert.True(t, l.Allow("anything"))
	assert.NoError(t, l.Wait(context.Background(), "anything"))
}
