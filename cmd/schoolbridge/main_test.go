package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modelYAML = `
name: Four level
thresholds: {emerging: 1, developing: 2, proficient: 4, mastered: 6}
levels:
  - {label: Not Yet, kind: not_started}
  - {label: Beginning, kind: emerging}
  - {label: Developing, kind: developing}
  - {label: Proficient, kind: proficient}
`

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := RootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "absent.env")))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func sqliteEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET_KEY", "cli-secret")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "schoolbridge.db"))
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("LOG_MODE", "production")
}

func TestMigrateThenImportModel(t *testing.T) {
	sqliteEnv(t)

	out, _, err := execute(t, "migrate", "--reference")
	require.NoError(t, err)
	assert.Contains(t, out, "migration complete")

	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(modelYAML), 0o600))
	org := uuid.NewString()

	out, stderr, err := execute(t, "model", "import", path, "--org", org)
	require.NoError(t, err)
	assert.Empty(t, stderr)

	var res struct {
		Created bool `json:"created"`
		Catalog struct {
			Levels []map[string]any `json:"levels"`
		} `json:"catalog"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Created)
	assert.Len(t, res.Catalog.Levels, 4)

	_, stderr, err = execute(t, "model", "import", path, "--org", org)
	require.NoError(t, err)
	assert.Contains(t, stderr, "already existed")
}

func TestRunRejectsBadActor(t *testing.T) {
	sqliteEnv(t)
	_, _, err := execute(t, "run", "--user", "nope", "--org", uuid.NewString())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--user must be a uuid")
}

func TestMissingSecretFailsBeforeWork(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")
	_, _, err := execute(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET_KEY")
}
