// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package procexec

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCapturesStdout(t *testing.T) {
	result, err := Run(context.Background(), "echo", []string{"hello"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(result.Stdout))
	assert.False(t, result.TimedOut)
}

func TestRunKillsOnTimeout(t *testing.T) {
	result, err := Run(context.Background(), "sleep", []string{"5"}, 50*time.Millisecond)
	require.Error(t, err)
	assert.True(t, result.TimedOut)
}

func TestRunPropagatesNonZeroExit(t *testing.T) {
	_, err := Run(context.Background(), "false", nil, time.Second)
	assert.Error(t, err)
}
