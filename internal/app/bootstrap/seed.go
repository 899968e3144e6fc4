package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/sardarit-bd/real-estate-punta-backend/internal/domain"
)

// directorySeed mirrors the user and property rows owned by the identity and
// listing services. Operators load it for local runs and backfills.
type directorySeed struct {
	Users []struct {
		ID    string `yaml:"id"`
		Name  string `yaml:"name"`
		Email string `yaml:"email"`
		Role  string `yaml:"role"`
	} `yaml:"users"`
	Properties []struct {
		ID        string `yaml:"id"`
		Title     string `yaml:"title"`
		OwnerID   string `yaml:"owner_id"`
		IsDeleted bool   `yaml:"is_deleted"`
	} `yaml:"properties"`
}

type SeedResult struct {
	Users      int
	Properties int
}

func (r *Runtime) SeedDirectory(ctx context.Context, path string) (SeedResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SeedResult{}, fmt.Errorf("read directory seed: %w", err)
	}
	var seed directorySeed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return SeedResult{}, fmt.Errorf("parse directory seed: %w", err)
	}

	var res SeedResult
	for i, u := range seed.Users {
		id, err := uuid.Parse(u.ID)
		if err != nil {
			return res, fmt.Errorf("users[%d]: invalid id: %w", i, err)
		}
		role := domain.UserRole(u.Role)
		switch role {
		case domain.UserRoleOwner, domain.UserRoleTenant, domain.UserRoleAdmin, domain.UserRoleSuperAdmin:
		default:
			return res, fmt.Errorf("users[%d]: unknown role %q", i, u.Role)
		}
		if err := r.stores.putUser(ctx, domain.User{ID: id, Name: u.Name, Email: u.Email, Role: role}); err != nil {
			return res, err
		}
		res.Users++
	}
	for i, p := range seed.Properties {
		id, err := uuid.Parse(p.ID)
		if err != nil {
			return res, fmt.Errorf("properties[%d]: invalid id: %w", i, err)
		}
		owner, err := uuid.Parse(p.OwnerID)
		if err != nil {
			return res, fmt.Errorf("properties[%d]: invalid owner_id: %w", i, err)
		}
		if err := r.stores.putProperty(ctx, domain.Property{ID: id, Title: p.Title, OwnerID: owner, IsDeleted: p.IsDeleted}); err != nil {
			return res, err
		}
		res.Properties++
	}
	r.logger.InfoContext(ctx, "directory seeded",
		"operation", "seed_directory",
		"outcome", "success",
		"users", res.Users,
		"properties", res.Properties,
	)
	return res, nil
}
