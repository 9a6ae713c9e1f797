package subscription_test

import (
	"context"
	"testing"

	"github.com/aretw0/grove/internal/subscription"
	"github.com/aretw0/grove/pkg/adapters/memory"
	"github.com/aretw0/grove/pkg/domain"
	"github.com/aretw0/grove/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSubscription struct {
	mock.Mock
}

func (m *mockSubscription) Close() {
	m.Called()
}

func TestBind_ClosesPreviousBinding(t *testing.T) {
	m := subscription.NewManager()
	key := subscription.DocumentKey(domain.EventNodesAdded, "added")

	first := &mockSubscription{}
	first.On("Close").Return().Once()
	second := &mockSubscription{}

	m.Bind(key, func() ports.Subscription {
		first.AssertNotCalled(t, "Close")
		return first
	})
	m.Bind(key, func() ports.Subscription {
		// Unsubscribe happens before the new subscription is made.
		first.AssertNumberOfCalls(t, "Close", 1)
		return second
	})

	assert.Equal(t, 1, m.Len())
	first.AssertExpectations(t)
}

func TestBind_NeverDeliversTwice(t *testing.T) {
	ctx := context.Background()
	doc := memory.NewDocument()
	m := subscription.NewManager()

	calls := 0
	activate := func() {
		m.Bind(subscription.DocumentKey(domain.EventNodesAdded, "added"), func() ports.Subscription {
			return doc.OnNodesAdded(func(ctx context.Context, ev domain.Event) error {
				calls++
				return nil
			})
		})
	}
	activate()
	activate()

	require.NoError(t, doc.AddNodes(ctx, domain.Node{ID: "a"}))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, doc.Subscribers())
}

func TestUnbind(t *testing.T) {
	m := subscription.NewManager()
	sub := &mockSubscription{}
	sub.On("Close").Return().Once()

	key := subscription.GroupKey("g1", "color")
	assert.False(t, m.Unbind(key))

	m.Bind(key, func() ports.Subscription { return sub })
	assert.True(t, m.Bound(key))
	assert.True(t, m.Unbind(key))
	assert.False(t, m.Bound(key))
	sub.AssertExpectations(t)
}

func TestUnbindAll(t *testing.T) {
	m := subscription.NewManager()
	assert.Zero(t, m.UnbindAll(), "empty manager is a no-op")

	for _, key := range []subscription.Key{
		subscription.GroupKey("g2", "color"),
		subscription.DocumentKey(domain.EventNodesRemoved, "removed"),
		subscription.GroupKey("g1", "color"),
	} {
		sub := &mockSubscription{}
		sub.On("Close").Return().Once()
		m.Bind(key, func() ports.Subscription { return sub })
	}

	assert.Equal(t, []subscription.Key{
		subscription.GroupKey("g1", "color"),
		subscription.GroupKey("g2", "color"),
		subscription.DocumentKey(domain.EventNodesRemoved, "removed"),
	}, m.Keys())

	assert.Equal(t, 3, m.UnbindAll())
	assert.Zero(t, m.Len())
}

func TestKeys_DistinguishHandlersOnSameEvent(t *testing.T) {
	m := subscription.NewManager()
	for _, handler := range []string{"removed", "deleted"} {
		sub := &mockSubscription{}
		sub.On("Close").Return()
		m.Bind(subscription.DocumentKey(domain.EventNodesRemoved, handler), func() ports.Subscription { return sub })
	}
	assert.Equal(t, 2, m.Len())
}
