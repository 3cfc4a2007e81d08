// Package mocks provides testify mocks for the module contract.
package mocks

import (
	"context"

	"github.com/robbyt/go-edgeworker/module"
	"github.com/stretchr/testify/mock"
)

// Module is a mock implementation of module.Module.
type Module struct {
	mock.Mock
}

func (m *Module) Ready(ctx context.Context) (module.Instance, error) {
	args := m.Called(ctx)
	inst, _ := args.Get(0).(module.Instance)
	return inst, args.Error(1)
}

// Instance is a mock implementation of module.Instance.
type Instance struct {
	mock.Mock
}

func (m *Instance) Call(ctx context.Context, export string) ([]byte, error) {
	args := m.Called(ctx, export)
	out, _ := args.Get(0).([]byte)
	return out, args.Error(1)
}

func (m *Instance) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
