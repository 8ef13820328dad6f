package settings

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yml")
	s, err := Open(path)
	require.NoError(t, err)
	assert.NoFileExists(t, path)

	_, ok := s.Get(KeyVMX)
	assert.False(t, ok)
}

func TestSetPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yml")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("online_connection_type", "bridged"))
	require.NoError(t, s.Set(KeyVMX, "/vms/dev.vmx"))

	reopened, err := Open(path)
	require.NoError(t, err)
	v, ok := reopened.Get("online_connection_type")
	assert.True(t, ok)
	assert.Equal(t, "bridged", v)
	v, _ = reopened.Get(KeyVMX)
	assert.Equal(t, "/vms/dev.vmx", v)

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), fi.Mode().Perm())
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestOpen_NonStringValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yml")
	require.NoError(t, os.WriteFile(path, []byte("platform: darwin\nip: 10.0.0.7\nretries: 3\nempty:\n"), 0600))

	s, err := Open(path)
	require.NoError(t, err)

	v, _ := s.Get("retries")
	assert.Equal(t, "3", v)
	v, _ = s.Get("ip")
	assert.Equal(t, "10.0.0.7", v)
	_, ok := s.Get("empty")
	assert.False(t, ok)
}

func TestOpen_ValuesKeptAsWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yml")
	require.NoError(t, os.WriteFile(path, []byte("password: 0123\nip: 12345678901234567890\nvmx: 'C:\\VMs\\dev.vmx'\nenabled: yes\n"), 0600))

	s, err := Open(path)
	require.NoError(t, err)

	tests := map[string]string{
		KeyPassword: "0123",
		"ip":        "12345678901234567890",
		KeyVMX:      `C:\VMs\dev.vmx`,
		"enabled":   "yes",
	}
	for key, want := range tests {
		got, ok := s.Get(key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
}

func TestSetRoundTripsNumericLookingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yml")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyPassword, "0123"))
	require.NoError(t, s.Set("ip", "1e3"))

	reopened, err := Open(path)
	require.NoError(t, err)
	v, _ := reopened.Get(KeyPassword)
	assert.Equal(t, "0123", v)
	v, _ = reopened.Get("ip")
	assert.Equal(t, "1e3", v)
}

func TestOpen_NestedValueRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yml")
	require.NoError(t, os.WriteFile(path, []byte("vmx:\n  path: /vms/dev.vmx\n"), 0600))

	_, err := Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vmx must be a single value")
}

func TestOpen_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yml")
	require.NoError(t, os.WriteFile(path, []byte("- a\n- b\n"), 0600))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "settings.yml"))
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyPassword, "secret"))
	require.NoError(t, s.Delete(KeyPassword))
	require.NoError(t, s.Delete("never-set"))

	_, ok := s.Get(KeyPassword)
	assert.False(t, ok)
}
