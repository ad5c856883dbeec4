package cli

import (
	"bytes"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	goEstate "github.com/MrEthical07/goEstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersionPrintsVersion(t *testing.T) {
	stdout, _, err := executeCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", stdout)
}

func TestSettingsDefaults(t *testing.T) {
	v, err := newViper("")
	require.NoError(t, err)

	s, err := loadSettings(v)
	require.NoError(t, err)
	assert.Equal(t, ":5000", s.Listen)
	assert.Equal(t, "http://localhost:8545", s.Engine.Node.URL)
	assert.Equal(t, time.Hour, s.Engine.Session.Lifetime)
	assert.Equal(t, http.SameSiteLaxMode, s.Engine.Session.SameSite)
	assert.Equal(t, "json", s.AuditSink)
	assert.True(t, s.Engine.Audit.Enabled)
}

func TestSettingsFromEnvironment(t *testing.T) {
	t.Setenv("GOESTATE_NODE_URL", "http://127.0.0.1:9545")
	t.Setenv("GOESTATE_NODE_MAIN_ADDRESS", "0x00000000000000000000000000000000000000aa")
	t.Setenv("GOESTATE_SESSION_LIFETIME", "2h")
	t.Setenv("GOESTATE_SESSION_SAME_SITE", "strict")
	t.Setenv("GOESTATE_JWT_SIGNING_METHOD", "hs256")
	t.Setenv("GOESTATE_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("GOESTATE_SECURITY_MAX_LOGIN_ATTEMPTS", "9")

	v, err := newViper("")
	require.NoError(t, err)
	s, err := loadSettings(v)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:9545", s.Engine.Node.URL)
	assert.Equal(t, "0x00000000000000000000000000000000000000aa", s.Engine.Node.MainAddress)
	assert.Equal(t, 2*time.Hour, s.Engine.Session.Lifetime)
	assert.Equal(t, http.SameSiteStrictMode, s.Engine.Session.SameSite)
	assert.Equal(t, "hs256", s.Engine.JWT.SigningMethod)
	assert.Equal(t, []byte("0123456789abcdef0123456789abcdef"), s.Engine.JWT.PrivateKey)
	assert.Equal(t, 9, s.Engine.Security.MaxLoginAttempts)
}

func TestSettingsFromFile(t *testing.T) {
	dir := t.TempDir()
	abiPath := filepath.Join(dir, "abi.json")
	require.NoError(t, os.WriteFile(abiPath, []byte(`[]`), 0o600))

	path := filepath.Join(dir, "goestate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":8080"
contract:
  address: "0x145e9b1Bff2bdD3e64954eb27F46e8F7B0E20a30"
  abi_path: "`+abiPath+`"
audit:
  sink: none
log:
  format: text
`), 0o600))

	v, err := newViper(path)
	require.NoError(t, err)
	s, err := loadSettings(v)
	require.NoError(t, err)

	assert.Equal(t, ":8080", s.Listen)
	assert.Equal(t, "0x145e9b1Bff2bdD3e64954eb27F46e8F7B0E20a30", s.Engine.Contract.Address)
	assert.Equal(t, []byte(`[]`), s.Engine.Contract.ABI)
	assert.False(t, s.Engine.Audit.Enabled)
	assert.Equal(t, "text", s.LogFormat)
}

func TestSettingsRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  string
		val  string
	}{
		{"same site", "GOESTATE_SESSION_SAME_SITE", "sideways"},
		{"log format", "GOESTATE_LOG_FORMAT", "xml"},
		{"log level", "GOESTATE_LOG_LEVEL", "loud"},
		{"audit sink", "GOESTATE_AUDIT_SINK", "kafka"},
		{"signing method", "GOESTATE_JWT_SIGNING_METHOD", "rs256"},
		{"abi path", "GOESTATE_CONTRACT_ABI_PATH", "/does/not/exist.json"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.env, tc.val)
			v, err := newViper("")
			require.NoError(t, err)
			_, err = loadSettings(v)
			assert.Error(t, err)
		})
	}
}

func TestMissingConfigFileFails(t *testing.T) {
	_, err := newViper(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRevokeRequiresAddressArgument(t *testing.T) {
	_, _, err := executeCLI(t, "accounts", "revoke")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestRevokeRejectsMalformedAddress(t *testing.T) {
	t.Setenv("GOESTATE_CONTRACT_ADDRESS", "0x145e9b1Bff2bdD3e64954eb27F46e8F7B0E20a30")
	t.Setenv("GOESTATE_JWT_SIGNING_METHOD", "hs256")
	t.Setenv("GOESTATE_JWT_SECRET", "0123456789abcdef0123456789abcdef")

	_, _, err := executeCLI(t, "accounts", "revoke", "not-an-address")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid address")
}

func TestServeRejectsInvalidEngineConfig(t *testing.T) {
	t.Setenv("GOESTATE_CONTRACT_ADDRESS", "")

	_, _, err := executeCLI(t, "serve", "--dev")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build engine")
}

func TestSecurityReportWarnsWithoutMainAddress(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	logSecurityReport(logger, goEstate.SecurityReport{})
	assert.Contains(t, buf.String(), "main_address_exempt=false")
	assert.Contains(t, buf.String(), "level=WARN")

	buf.Reset()
	logSecurityReport(logger, goEstate.SecurityReport{MainAddressExempt: true})
	assert.NotContains(t, buf.String(), "level=WARN")
}
