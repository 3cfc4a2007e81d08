// Package mocks provides testify mocks for the Extism adapter interfaces.
package mocks

import (
	"context"

	extismSDK "github.com/extism/go-sdk"
	"github.com/robbyt/go-edgeworker/engines/extism/adapters"
	"github.com/stretchr/testify/mock"
)

// CompiledPlugin is a mock implementation of adapters.CompiledPlugin.
type CompiledPlugin struct {
	mock.Mock
}

func (m *CompiledPlugin) Instance(
	ctx context.Context,
	config extismSDK.PluginInstanceConfig,
) (adapters.PluginInstance, error) {
	args := m.Called(ctx, config)
	inst, _ := args.Get(0).(adapters.PluginInstance)
	return inst, args.Error(1)
}

func (m *CompiledPlugin) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// PluginInstance is a mock implementation of adapters.PluginInstance.
type PluginInstance struct {
	mock.Mock
}

func (m *PluginInstance) CallWithContext(
	ctx context.Context,
	name string,
	data []byte,
) (uint32, []byte, error) {
	args := m.Called(ctx, name, data)
	out, _ := args.Get(1).([]byte)
	return args.Get(0).(uint32), out, args.Error(2)
}

func (m *PluginInstance) FunctionExists(name string) bool {
	return m.Called(name).Bool(0)
}

func (m *PluginInstance) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
