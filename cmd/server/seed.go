package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talentbridge/match-engine/internal/adapter/repo/postgres"
	"github.com/talentbridge/match-engine/internal/domain"
)

type seedYAML struct {
	Candidates []seedDoc `yaml:"candidates"`
	Jobs       []seedDoc `yaml:"jobs"`
	Mentors    []seedDoc `yaml:"mentors"`
	Mentees    []seedDoc `yaml:"mentees"`
}

type seedDoc struct {
	ID       string         `yaml:"id"`
	Document map[string]any `yaml:"document"`
}

// seedProfilesFromYAML loads profile documents into the portal tables. Dev
// convenience only; the portal owns these tables in real deployments.
func seedProfilesFromYAML(ctx domain.Context, repo *postgres.ProfileRepo, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("seed file not found: %s", path)
		}
		return err
	}
	var doc seedYAML
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("yaml parse: %w", err)
	}

	total := 0
	upsert := func(table string, docs []seedDoc) error {
		for _, d := range docs {
			if d.ID == "" {
				return fmt.Errorf("seed entry in %s missing id", table)
			}
			if err := repo.UpsertDocument(ctx, table, d.ID, d.Document); err != nil {
				return fmt.Errorf("seed %s/%s: %w", table, d.ID, err)
			}
			total++
		}
		return nil
	}
	if err := upsert("candidate_profiles", doc.Candidates); err != nil {
		return err
	}
	if err := upsert("job_postings", doc.Jobs); err != nil {
		return err
	}
	if err := upsert("mentor_profiles", doc.Mentors); err != nil {
		return err
	}
	if err := upsert("mentee_preferences", doc.Mentees); err != nil {
		return err
	}
	if total == 0 {
		return fmt.Errorf("no documents to seed in %s", path)
	}
	return nil
}
