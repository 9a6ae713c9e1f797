package registry

import (
	"context"
	"testing"

	"github.com/aretw0/grove/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPolicy struct {
	mock.Mock
}

func (m *mockPolicy) Sweep(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockPolicy) Report() string {
	return m.Called().String(0)
}

func (m *mockPolicy) Active() bool {
	return m.Called().Bool(0)
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()

	wires := new(mockPolicy)
	wires.On("Sweep", ctx).Return(3, nil).Once()
	r.Register("fixwires", wires)
	r.Register("colorgroups", new(mockPolicy))

	assert.Equal(t, []string{"colorgroups", "fixwires"}, r.Names())

	n, err := r.Sweep(ctx, "fixwires")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	wires.AssertExpectations(t)

	_, err = r.Sweep(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrUnknownPolicy)

	replacement := new(mockPolicy)
	r.Register("fixwires", replacement)
	got, err := r.Get("fixwires")
	require.NoError(t, err)
	assert.Same(t, replacement, got)
}
