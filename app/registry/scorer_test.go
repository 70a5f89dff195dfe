package registry

import (
	"testing"

	"github.com/jobsift/jobsift/app/database"
)

func completedLog(fetched, created int) database.ImportLog {
	return database.ImportLog{Status: "completed", Fetched: fetched, Created: created}
}

func failedLog() database.ImportLog {
	return database.ImportLog{Status: "failed"}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name           string
		logs           []database.ImportLog
		expectedStatus database.QualityStatus
		expectedPrio   int
	}{
		{
			"no history is unknown",
			nil,
			database.QualityUnknown, 75,
		},
		{
			"all runs succeed with yield",
			[]database.ImportLog{completedLog(10, 4), completedLog(12, 0), completedLog(8, 1)},
			database.QualityHealthy, 100,
		},
		{
			"duplicate-only runs stay healthy",
			[]database.ImportLog{completedLog(10, 0), completedLog(10, 0)},
			database.QualityHealthy, 100,
		},
		{
			"half the runs failing",
			[]database.ImportLog{failedLog(), completedLog(10, 2)},
			database.QualityFailing, 10,
		},
		{
			"a fifth of the runs failing",
			[]database.ImportLog{failedLog(), completedLog(10, 2), completedLog(10, 2), completedLog(10, 2), completedLog(10, 2)},
			database.QualityDegraded, 40,
		},
		{
			"occasional failure is healthy",
			[]database.ImportLog{failedLog(), completedLog(10, 2), completedLog(10, 2), completedLog(10, 2), completedLog(10, 2), completedLog(10, 2)},
			database.QualityHealthy, 100,
		},
		{
			"runs succeed but never fetch anything",
			[]database.ImportLog{completedLog(0, 0), completedLog(0, 0)},
			database.QualityDegraded, 40,
		},
	}

	for _, tt := range tests {
		status, priority := Score(tt.logs)
		if status != tt.expectedStatus {
			t.Errorf("%s: expected status %s, got %s", tt.name, tt.expectedStatus, status)
		}
		if priority != tt.expectedPrio {
			t.Errorf("%s: expected priority %d, got %d", tt.name, tt.expectedPrio, priority)
		}
	}
}
