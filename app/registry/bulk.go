package registry

import (
	"fmt"
	"log/slog"

	"github.com/jobsift/jobsift/app/database"
)

// BulkUpdate describes a mutation applied to a set of sources. Nil fields
// are left untouched.
type BulkUpdate struct {
	Active *bool `json:"active"`
}

// Service exposes the source registry's bulk lifecycle operations. Each
// source's mutation is independent: a failure skips that source and never
// aborts the batch.
type Service struct {
	sources database.SourceStore
}

func NewService(sources database.SourceStore) *Service {
	return &Service{sources: sources}
}

// BulkUpdateSources applies the update across the filtered set and returns
// the affected count.
func (s *Service) BulkUpdateSources(filter database.SourceFilter, update BulkUpdate) (int, error) {
	sources, err := s.sources.ListSources(filter)
	if err != nil {
		return 0, fmt.Errorf("failed to list sources: %w", err)
	}

	affected := 0
	for _, src := range sources {
		if update.Active != nil && *update.Active != src.Active {
			if err := s.sources.SetActive(src.ID, *update.Active); err != nil {
				slog.Warn("Bulk update skipped source", "source", src.Name, "error", err)
				continue
			}
			affected++
		}
	}
	return affected, nil
}

// BulkAddTag adds a tag across the filtered set and returns how many
// sources gained it.
func (s *Service) BulkAddTag(filter database.SourceFilter, tag string) (int, error) {
	if tag == "" {
		return 0, fmt.Errorf("tag must not be empty")
	}

	sources, err := s.sources.ListSources(filter)
	if err != nil {
		return 0, fmt.Errorf("failed to list sources: %w", err)
	}

	affected := 0
	for _, src := range sources {
		if hasTag(src.Tags, tag) {
			continue
		}
		if err := s.sources.UpdateTags(src.ID, append(src.Tags, tag)); err != nil {
			slog.Warn("Bulk tag skipped source", "source", src.Name, "error", err)
			continue
		}
		affected++
	}
	return affected, nil
}

// AddTag adds a tag to one source.
func (s *Service) AddTag(sourceID, tag string) error {
	src, err := s.sources.GetSource(sourceID)
	if err != nil {
		return err
	}
	if src == nil {
		return fmt.Errorf("source %s not found", sourceID)
	}
	if hasTag(src.Tags, tag) {
		return nil
	}
	return s.sources.UpdateTags(sourceID, append(src.Tags, tag))
}

// RemoveTag removes a tag from one source.
func (s *Service) RemoveTag(sourceID, tag string) error {
	src, err := s.sources.GetSource(sourceID)
	if err != nil {
		return err
	}
	if src == nil {
		return fmt.Errorf("source %s not found", sourceID)
	}

	tags := make([]string, 0, len(src.Tags))
	for _, t := range src.Tags {
		if t != tag {
			tags = append(tags, t)
		}
	}
	if len(tags) == len(src.Tags) {
		return nil
	}
	return s.sources.UpdateTags(sourceID, tags)
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
