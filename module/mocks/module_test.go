package mocks

import (
	"context"
	"errors"
	"testing"

	"github.com/robbyt/go-edgeworker/module"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMocksImplementInterfaces(t *testing.T) {
	var _ module.Module = (*Module)(nil)
	var _ module.Instance = (*Instance)(nil)
}

func TestModuleMock(t *testing.T) {
	t.Parallel()

	inst := new(Instance)
	inst.On("Call", mock.Anything, module.ExportGreet).Return([]byte("hi"), nil)
	inst.On("Close", mock.Anything).Return(nil)

	mod := new(Module)
	mod.On("Ready", mock.Anything).Return(inst, nil).Once()
	mod.On("Ready", mock.Anything).Return(nil, errors.New("load failed")).Once()

	ctx := context.Background()
	got, err := mod.Ready(ctx)
	require.NoError(t, err)
	out, err := got.Call(ctx, module.ExportGreet)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), out)
	require.NoError(t, got.Close(ctx))

	got, err = mod.Ready(ctx)
	require.Error(t, err)
	assert.Nil(t, got)

	mod.AssertExpectations(t)
	inst.AssertExpectations(t)
}
