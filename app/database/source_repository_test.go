package database

import (
	"testing"
	"time"
)

func TestSourceRepository_CreateSource_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewSourceRepository(db)

	id, err := repo.CreateSource(&Source{
		Name:        "Acme Careers",
		SourceType:  SourceTypeATS,
		CompanySlug: "acme",
		Active:      true,
		Tags:        []string{"fintech", "tier-1"},
		Priority:    10,
		RunConfig:   RunConfig{ATS: &ATSRunConfig{PostingAgeDays: 30}},
	})
	if err != nil {
		t.Fatalf("CreateSource failed: %v", err)
	}

	src, err := repo.GetSource(id)
	if err != nil || src == nil {
		t.Fatalf("GetSource failed: %v", err)
	}
	if src.Name != "Acme Careers" {
		t.Errorf("Expected name to persist, got %q", src.Name)
	}
	if src.QualityStatus != QualityUnknown {
		t.Errorf("Expected new source to be unknown quality, got %s", src.QualityStatus)
	}
	if len(src.Tags) != 2 || src.Tags[0] != "fintech" {
		t.Errorf("Expected tags to persist, got %v", src.Tags)
	}
	if src.RunConfig.ATS == nil || src.RunConfig.ATS.PostingAgeDays != 30 {
		t.Errorf("Expected run config to persist, got %+v", src.RunConfig)
	}
}

func TestSourceRepository_CreateSource_DuplicateSlug(t *testing.T) {
	db := newTestDB(t)
	repo := NewSourceRepository(db)

	createTestSource(t, db, "Acme", "acme")

	_, err := repo.CreateSource(&Source{
		Name:        "Acme Again",
		SourceType:  SourceTypeATS,
		CompanySlug: "acme",
		Active:      true,
	})
	if err == nil {
		t.Error("Expected duplicate (type, slug) to be rejected")
	}
}

func TestSourceRepository_ListSources_Filters(t *testing.T) {
	db := newTestDB(t)
	repo := NewSourceRepository(db)

	a := createTestSource(t, db, "Acme", "acme")
	b := createTestSource(t, db, "Globex", "globex")
	c := createTestSource(t, db, "Initech", "initech")

	if err := repo.UpdateTags(a.ID, []string{"fintech"}); err != nil {
		t.Fatalf("UpdateTags failed: %v", err)
	}
	if err := repo.UpdateQuality(b.ID, QualityFailing, 10); err != nil {
		t.Fatalf("UpdateQuality failed: %v", err)
	}
	if err := repo.SetActive(c.ID, false); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}

	byTag, err := repo.ListSources(SourceFilter{Tag: "fintech"})
	if err != nil {
		t.Fatalf("ListSources failed: %v", err)
	}
	if len(byTag) != 1 || byTag[0].ID != a.ID {
		t.Errorf("Expected tag filter to return only Acme, got %d sources", len(byTag))
	}

	byQuality, err := repo.ListSources(SourceFilter{QualityStatus: QualityFailing})
	if err != nil {
		t.Fatalf("ListSources failed: %v", err)
	}
	if len(byQuality) != 1 || byQuality[0].ID != b.ID {
		t.Errorf("Expected quality filter to return only Globex, got %d sources", len(byQuality))
	}

	active, err := repo.ListSources(SourceFilter{ActiveOnly: true})
	if err != nil {
		t.Fatalf("ListSources failed: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("Expected 2 active sources, got %d", len(active))
	}
}

func TestSourceRepository_MarkFetched(t *testing.T) {
	db := newTestDB(t)
	repo := NewSourceRepository(db)

	src := createTestSource(t, db, "Acme", "acme")
	if src.LastFetchedAt != nil {
		t.Fatal("Expected new source to have no fetch timestamp")
	}

	fetched := time.Now().UTC().Truncate(time.Second)
	if err := repo.MarkFetched(src.ID, fetched); err != nil {
		t.Fatalf("MarkFetched failed: %v", err)
	}

	updated, err := repo.GetSource(src.ID)
	if err != nil || updated == nil {
		t.Fatalf("GetSource failed: %v", err)
	}
	if updated.LastFetchedAt == nil {
		t.Fatal("Expected fetch timestamp to be set")
	}
	if !updated.LastFetchedAt.Equal(fetched) {
		t.Errorf("Expected fetch timestamp %v, got %v", fetched, updated.LastFetchedAt)
	}
}
