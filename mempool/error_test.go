// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"errors"
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// TestErrToRejectErr ensures errors map to the reject codes and reasons sent
// to peers.
func TestErrToRejectErr(t *testing.T) {
	t.Parallel()

	ruleErr := txRuleError(wire.RejectDust, "output is dust")
	wrapped := fmt.Errorf("accept failed: %w", ruleErr)

	tests := []struct {
		name   string
		err    error
		code   wire.RejectCode
		reason string
	}{
		{"nil", nil, wire.RejectInvalid, "rejected"},
		{"rule error", ruleErr, wire.RejectDust, "output is dust"},
		{"wrapped rule error", wrapped, wire.RejectDust,
			"accept failed: output is dust"},
		{"plain error", errors.New("boom"), wire.RejectInvalid, "boom"},
	}

	for _, test := range tests {
		code, reason := ErrToRejectErr(test.err)
		require.Equal(t, test.code, code, test.name)
		require.Equal(t, test.reason, reason, test.name)
	}
}

// TestRuleError ensures rule errors expose the underlying TxRuleError.
func TestRuleError(t *testing.T) {
	t.Parallel()

	err := error(txRuleError(wire.RejectDuplicate, "already have it"))
	require.Equal(t, "already have it", err.Error())

	var terr TxRuleError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, wire.RejectDuplicate, terr.RejectCode)

	code, ok := extractRejectCode(errors.New("other"))
	require.False(t, ok)
	require.Equal(t, wire.RejectInvalid, code)

	require.Equal(t, "<nil>", RuleError{}.Error())
	require.Equal(t, "assertion failed: bad index",
		AssertError("bad index").Error())
}
