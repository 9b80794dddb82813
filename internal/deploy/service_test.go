package deploy

import (
	"context"
	"errors"
	"testing"

	"github.com/compose-network/rollup-deployer/configs"
	"github.com/compose-network/rollup-deployer/internal/deploy/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	fakeRunner struct {
		manifest manifest.Manifest
		err      error
		params   Params
	}

	fakeWriter struct {
		written []manifest.Manifest
	}
)

func (f *fakeRunner) Run(_ context.Context, params Params) (manifest.Manifest, error) {
	f.params = params
	return f.manifest, f.err
}

func (f *fakeWriter) Write(m manifest.Manifest) error {
	f.written = append(f.written, m)
	return nil
}

func completeManifest() manifest.Manifest {
	m := make(manifest.Manifest, len(manifest.Keys))
	for i, key := range manifest.Keys {
		m[key] = deploymentAddress(i)
	}
	return m
}

func TestServiceWritesManifestOnSuccess(t *testing.T) {
	runner := &fakeRunner{manifest: completeManifest()}
	writer := &fakeWriter{}

	m, err := NewService(runner, writer).Deploy(context.Background(), testParams)
	require.NoError(t, err)

	assert.Equal(t, testParams, runner.params)
	require.Len(t, writer.written, 1)
	assert.Equal(t, m, writer.written[0])
}

func TestServiceSkipsManifestOnFailure(t *testing.T) {
	runner := &fakeRunner{err: &StepError{Index: 3, Step: Plan()[3], Err: errors.New("boom")}}
	writer := &fakeWriter{}

	_, err := NewService(runner, writer).Deploy(context.Background(), testParams)

	var stepErr *StepError
	assert.ErrorAs(t, err, &stepErr)
	assert.Empty(t, writer.written)
}

func TestParamsFromConfig(t *testing.T) {
	cfg, err := configs.DefaultConfig()
	require.NoError(t, err)

	params, opts, err := ParamsFromConfig(cfg.Deploy)
	require.NoError(t, err)

	assert.Equal(t, uint(4), params.MaxDepth)
	assert.Equal(t, uint(1), params.MaxDepositSubtreeDepth)
	assert.Equal(t, coordinatorLeaf, params.CoordinatorLeaf)
	assert.Equal(t, emptyLeaf, opts.EmptyLeaf)
	assert.True(t, opts.VerifyLocally)

	cfg.Deploy.CoordinatorLeaf = "0x1234"
	_, _, err = ParamsFromConfig(cfg.Deploy)
	assert.Error(t, err)
}
