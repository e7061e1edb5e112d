package db

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/staffdesk/ems/internal/config"
)

func TestDSN(t *testing.T) {
	require.Equal(t, "postgres://u@h/db", DSN(config.DatabaseConfig{DSN: "postgres://u@h/db", Host: "ignored"}))
	require.Equal(t,
		"host=db port=5432 user=ems password=pw dbname=ems sslmode=disable",
		DSN(config.DatabaseConfig{Host: "db", User: "ems", Password: "pw", DBName: "ems"}),
	)
}

func TestMigrationsEmbedded(t *testing.T) {
	content, err := migrationsFS.ReadFile("migrations/0001_init.sql")
	require.NoError(t, err)
	require.Contains(t, string(content), "users_employee_id_key")
	require.Contains(t, string(content), "otp_records")
}

func TestAttendanceMigrationEmbedded(t *testing.T) {
	content, err := migrationsFS.ReadFile("migrations/0002_attendance.sql")
	require.NoError(t, err)
	require.Contains(t, string(content), "attendance_user_date_key")
	require.Contains(t, string(content), "holidays_date_key")
}
