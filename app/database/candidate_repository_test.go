package database

import (
	"testing"
)

func TestCandidateRepository_UpsertCandidate_KeepsFirstSighting(t *testing.T) {
	db := newTestDB(t)
	runs := NewRunRepository(db)
	repo := NewCandidateRepository(db)

	runID, err := runs.StartRun(RunKindDiscovery, "fintech")
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	created, err := repo.UpsertCandidate(runID, "acme", "Acme Inc")
	if err != nil {
		t.Fatalf("UpsertCandidate failed: %v", err)
	}
	if !created {
		t.Error("Expected first upsert to create the candidate")
	}

	created, err = repo.UpsertCandidate(runID, "acme", "Acme Incorporated")
	if err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}
	if created {
		t.Error("Expected second upsert of the same slug to be a no-op")
	}

	candidates, err := repo.ListCandidates(nil)
	if err != nil {
		t.Fatalf("ListCandidates failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Name != "Acme Inc" {
		t.Errorf("Expected first sighting to win, got %q", candidates[0].Name)
	}
	if candidates[0].Status != CandidateNew {
		t.Errorf("Expected new candidate status, got %s", candidates[0].Status)
	}
}

func TestCandidateRepository_SetCandidateStatus(t *testing.T) {
	db := newTestDB(t)
	runs := NewRunRepository(db)
	repo := NewCandidateRepository(db)

	runID, err := runs.StartRun(RunKindDiscovery, "saas")
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	if _, err := repo.UpsertCandidate(runID, "globex", "Globex"); err != nil {
		t.Fatalf("UpsertCandidate failed: %v", err)
	}

	candidates, err := repo.ListCandidates(nil)
	if err != nil || len(candidates) != 1 {
		t.Fatalf("ListCandidates failed: %v", err)
	}

	if err := repo.SetCandidateStatus(candidates[0].ID, CandidateValid); err != nil {
		t.Fatalf("SetCandidateStatus failed: %v", err)
	}

	got, err := repo.GetCandidate(candidates[0].ID)
	if err != nil || got == nil {
		t.Fatalf("GetCandidate failed: %v", err)
	}
	if got.Status != CandidateValid {
		t.Errorf("Expected valid status, got %s", got.Status)
	}
}
