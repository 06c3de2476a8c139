package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDocumentPermissionLattice(t *testing.T) {
	require.Greater(t, PermissionOwner.Level(), PermissionEditor.Level())
	require.Greater(t, PermissionEditor.Level(), PermissionViewer.Level())
	require.Greater(t, PermissionViewer.Level(), PermissionNone.Level())

	require.True(t, PermissionOwner.AtLeast(PermissionEditor))
	require.True(t, PermissionEditor.AtLeast(PermissionEditor))
	require.False(t, PermissionViewer.AtLeast(PermissionEditor))
	require.False(t, PermissionNone.AtLeast(PermissionViewer))
}

func TestDocumentPermissionUnknownRanksAsNone(t *testing.T) {
	require.Equal(t, 0, DocumentPermission("superuser").Level())
	require.False(t, DocumentPermission("superuser").Grantable())
	require.False(t, PermissionNone.Grantable())
}

func TestFactUsable(t *testing.T) {
	require.True(t, (&Fact{Status: FactApproved}).Usable())
	require.True(t, (&Fact{Status: FactEdited}).Usable())
	require.False(t, (&Fact{Status: FactPending}).Usable())
	require.False(t, (&Fact{Status: FactRejected}).Usable())
}

func TestUserDisplayName(t *testing.T) {
	u := &User{FirstName: "Ada", LastName: "Marsh", Email: "ada@firm.test"}
	require.Equal(t, "Ada Marsh", u.DisplayName())

	u = &User{Email: "ada@firm.test"}
	require.Equal(t, "ada@firm.test", u.DisplayName())
}
