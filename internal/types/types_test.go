package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cuemby/syncctl/internal/types"
)

func TestDerivePairState(t *testing.T) {
	cases := []struct {
		local, remote types.SideState
		want          types.PairState
	}{
		{types.SideSynchronized, types.SideSynchronized, types.StateSynchronized},
		{types.SideCreated, types.SideUnknown, types.StateLocallyCreated},
		{types.SideUnknown, types.SideCreated, types.StateRemotelyCreated},
		{types.SideModified, types.SideSynchronized, types.StateLocallyModified},
		{types.SideSynchronized, types.SideModified, types.StateRemotelyModified},
		{types.SideModified, types.SideModified, types.StateConflicted},
		{types.SideDeleted, types.SideSynchronized, types.StateLocallyDeleted},
		{types.SideSynchronized, types.SideDeleted, types.StateRemotelyDeleted},
		{types.SideUnknown, types.SideUnknown, types.StateUnknown},
	}
	for _, c := range cases {
		got := types.DerivePairState(c.local, c.remote)
		require.Equal(t, c.want, got, "local=%s remote=%s", c.local, c.remote)
	}
}
