//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// runStoreWorkflow imports, lists, reports and clears against one backend.
func runStoreWorkflow(t *testing.T, backend, connStr string) {
	t.Helper()
	env := []string{
		"COHORT_STORE_BACKEND=" + backend,
		"COHORT_STORE_DB_CONNECT=" + connStr,
		"COHORT_CLASS_CACHE_BACKEND=" + backend,
		"COHORT_CLASS_CACHE_DB_CONNECT=" + connStr,
	}

	_, err := runCohortCommand(t, env, "executions", "clear")
	require.NoError(t, err)

	_, err = runCohortCommand(t, env, "executions", "migrate")
	require.NoError(t, err)

	out, err := runCohortCommand(t, env, "executions", "import", testdataPath(t, "pdc-1738.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 3 executions.")

	// Re-importing replaces executions with the same time
	_, err = runCohortCommand(t, env, "executions", "import", testdataPath(t, "pdc-1738.json"))
	require.NoError(t, err)

	out, err = runCohortCommand(t, env, "executions", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Executions: 3")

	out, err = runCohortCommand(t, env, "report",
		"--requester", "cpsid", "--query", "PDC-1738",
		"--groups-file", testdataPath(t, "groups.yaml"), "--output", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "YOU (user)")

	_, err = runCohortCommand(t, env, "classes", "status")
	require.NoError(t, err)

	_, err = runCohortCommand(t, env, "classes", "clear")
	require.NoError(t, err)
}

// TestCohortWithMySQL tests the cohort CLI with a MySQL backend.
func TestCohortWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "cohort",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/cohort?parseTime=true&multiStatements=true", host, port.Port())
	runStoreWorkflow(t, "mysql", connStr)
}

// TestCohortWithPostgres tests the cohort CLI with a PostgreSQL backend.
func TestCohortWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()
	time.Sleep(5 * time.Second)

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())
	runStoreWorkflow(t, "postgresql", connStr)
}
