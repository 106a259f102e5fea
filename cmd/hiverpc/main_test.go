package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/h2non/gock"
	"github.com/hiverpc/hiverpc/util"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	util.ConfigureTestLogger()
}

const (
	node1 = "http://rpc1.localhost:8090"
	node2 = "http://rpc2.localhost:8090"
)

func memFsWithConfig(t *testing.T, content string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/hiverpc.yaml", []byte(content), 0o644))
	return fs
}

func TestRun_Call(t *testing.T) {
	util.ResetGock()
	defer util.ResetGock()

	gock.New(node1).
		Post("/").
		BodyString(`{"id":0,"jsonrpc":"2.0","method":"condenser_api.get_accounts","params":[["alice"]]}`).
		Reply(200).
		BodyString(`{"jsonrpc":"2.0","id":0,"result":[{"name":"alice"}]}`)

	fs := memFsWithConfig(t, "logLevel: error\nnodes:\n  - "+node1+"\n")
	var out bytes.Buffer
	err := Run(context.Background(), fs, []string{"hiverpc", "--config", "/etc/hiverpc.yaml", "call", "condenser_api", "get_accounts", `[["alice"]]`}, &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), `"name": "alice"`)
	assert.True(t, gock.IsDone())
}

func TestRun_CallNeedsMethod(t *testing.T) {
	var out bytes.Buffer
	err := Run(context.Background(), afero.NewMemMapFs(), []string{"hiverpc", "call", "condenser_api"}, &out)
	assert.ErrorContains(t, err, "usage")
}

func TestRun_CallRejectsBadParams(t *testing.T) {
	var out bytes.Buffer
	err := Run(context.Background(), afero.NewMemMapFs(), []string{"hiverpc", "--node", node1, "call", "condenser_api", "get_accounts", "[oops"}, &out)
	assert.ErrorContains(t, err, "valid JSON")
}

func TestRun_MissingConfigFile(t *testing.T) {
	var out bytes.Buffer
	err := Run(context.Background(), afero.NewMemMapFs(), []string{"hiverpc", "--config", "/nope.yaml", "probe"}, &out)
	assert.ErrorContains(t, err, "does not exist")
}

func TestRun_ProbeAndHealth(t *testing.T) {
	setup := func() {
		util.ResetGock()
		gock.New(node1).
			Post("/").
			Reply(200).
			BodyString(`{"jsonrpc":"2.0","id":0,"result":{"head_block_number":1234567}}`)
		gock.New(node2).
			Post("/").
			Reply(503)
	}

	t.Run("Probe", func(t *testing.T) {
		setup()
		defer util.ResetGock()

		var out bytes.Buffer
		err := Run(context.Background(), afero.NewMemMapFs(), []string{"hiverpc", "--node", node1, "--node", node2, "probe"}, &out)

		require.NoError(t, err)
		assert.Contains(t, out.String(), "1,234,567")
		assert.Contains(t, out.String(), "HTTP 503")
	})

	t.Run("Health", func(t *testing.T) {
		setup()
		defer util.ResetGock()

		var out bytes.Buffer
		err := Run(context.Background(), afero.NewMemMapFs(), []string{"hiverpc", "-n", node1, "-n", node2, "health"}, &out)

		require.NoError(t, err)
		assert.Contains(t, out.String(), "best known head block: 1,234,567")
		assert.Contains(t, out.String(), "rpc2.localhost")
	})

	t.Run("ProbeAllFailing", func(t *testing.T) {
		util.ResetGock()
		defer util.ResetGock()
		gock.New(node2).Post("/").Reply(503)

		var out bytes.Buffer
		err := Run(context.Background(), afero.NewMemMapFs(), []string{"hiverpc", "--node", node2, "probe"}, &out)
		assert.ErrorContains(t, err, "no node answered")
	})
}
