// Package seed loads sites and members from YAML into the database.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"

	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed data/demo.yaml
var demo []byte

type Member struct {
	Name     string `yaml:"name" validate:"required,max=200"`
	Category string `yaml:"category" validate:"required,oneof=staff dl skilled"`
	Active   *bool  `yaml:"active,omitempty"`
}

type Site struct {
	Name    string   `yaml:"name" validate:"required,max=200"`
	Members []Member `yaml:"members" validate:"dive"`
}

type Data struct {
	Sites []Site `yaml:"sites" validate:"required,min=1,dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Store is the part of the repository seeding writes through.
type Store interface {
	GetAllSites(ctx context.Context) ([]*domain.Site, error)
	CreateSite(ctx context.Context, site *domain.Site) error
	CreateMembers(ctx context.Context, members []*domain.Member) error
}

// Demo returns the built-in demo data.
func Demo() (*Data, error) {
	return Load(bytes.NewReader(demo))
}

// Load parses and validates seed data. Unknown keys are an error.
func Load(r io.Reader) (*Data, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var data Data
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}

	if err := validate.Struct(&data); err != nil {
		return nil, fmt.Errorf("seed data validation failed: %w", err)
	}

	return &data, nil
}

// Apply creates every site that does not exist yet together with its
// members. Existing sites are left alone, so seeding twice is harmless.
func Apply(ctx context.Context, store Store, data *Data, logger *zap.Logger) (int, error) {
	existing, err := store.GetAllSites(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list sites: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, s := range existing {
		known[s.Name] = true
	}

	created := 0
	for _, s := range data.Sites {
		if known[s.Name] {
			logger.Info("site already exists, skipping", zap.String("site", s.Name))
			continue
		}

		site := &domain.Site{Name: s.Name}
		if err := store.CreateSite(ctx, site); err != nil {
			return created, fmt.Errorf("failed to create site %q: %w", s.Name, err)
		}

		members := make([]*domain.Member, 0, len(s.Members))
		for _, m := range s.Members {
			active := true
			if m.Active != nil {
				active = *m.Active
			}
			members = append(members, &domain.Member{
				Name:     m.Name,
				Category: domain.Category(m.Category),
				SiteID:   site.ID,
				IsActive: active,
			})
		}
		if len(members) > 0 {
			if err := store.CreateMembers(ctx, members); err != nil {
				return created, fmt.Errorf("failed to create members of %q: %w", s.Name, err)
			}
		}

		known[s.Name] = true
		created++
		logger.Info("site seeded", zap.String("site", s.Name), zap.Int("members", len(members)))
	}

	return created, nil
}
