package policy

import (
	"testing"

	"autotrack/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestRBACMode(t *testing.T) {
	p := New(ModeRBAC)

	assert.True(t, p.CanWrite(models.RoleAdmin))
	assert.True(t, p.CanList(models.RoleAdmin))
	assert.True(t, p.CanExport(models.RoleAdmin))

	assert.False(t, p.CanWrite(models.RoleViewer))
	assert.False(t, p.CanList(models.RoleViewer))
	assert.False(t, p.CanExport(models.RoleViewer))

	// anonymous gets nothing
	assert.False(t, p.CanWrite(""))
	assert.False(t, p.CanList(""))
}

func TestOpenMode(t *testing.T) {
	p := New(ModeOpen)

	assert.True(t, p.CanWrite(models.RoleAdmin))
	assert.True(t, p.CanWrite(models.RoleViewer))
	assert.True(t, p.CanList(models.RoleViewer))
	assert.True(t, p.CanExport(models.RoleViewer))

	assert.False(t, p.CanWrite(""))
}

func TestUnknownModeFallsBackToRBAC(t *testing.T) {
	p := New("whatever")
	assert.Equal(t, ModeRBAC, p.Mode())
	assert.False(t, p.CanWrite(models.RoleViewer))
}
