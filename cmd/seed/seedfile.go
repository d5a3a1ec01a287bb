package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"github.com/gotrocks/proportal/internal/auth"
	"github.com/gotrocks/proportal/internal/catalog"
)

type UserSeed struct {
	Email       string `yaml:"email"`
	Name        string `yaml:"name"`
	Role        string `yaml:"role"`
	Language    string `yaml:"language"`
	IsAvailable bool   `yaml:"isAvailable"`
	// Password overrides the -password flag for this user.
	Password string `yaml:"password"`
}

type ProjectSeed struct {
	Name    string `yaml:"name"`
	PO      string `yaml:"po"`
	Address string `yaml:"address"`
	Status  string `yaml:"status"`
}

type ContractorSeed struct {
	Name     string        `yaml:"name"`
	Features []string      `yaml:"features"`
	Users    []UserSeed    `yaml:"users"`
	Projects []ProjectSeed `yaml:"projects"`
}

type SeedFile struct {
	catalog.File `yaml:",inline"`
	Contractors  []ContractorSeed `yaml:"contractors"`
}

func loadSeedFile(path string) (SeedFile, error) {
	var f SeedFile
	b, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	if err := yaml.Unmarshal(b, &f); err != nil {
		return f, fmt.Errorf("parse %s: %w", path, err)
	}
	return f, f.Validate()
}

func (f SeedFile) Validate() error {
	errs := []error{f.File.Validate()}
	emails := map[string]bool{}
	for i, c := range f.Contractors {
		if strings.TrimSpace(c.Name) == "" {
			errs = append(errs, fmt.Errorf("contractors[%d]: name is required", i))
		}
		for j, u := range c.Users {
			email := auth.NormalizeEmail(u.Email)
			switch {
			case email == "":
				errs = append(errs, fmt.Errorf("contractors[%d].users[%d]: email is required", i, j))
			case emails[email]:
				errs = append(errs, fmt.Errorf("contractors[%d].users[%d]: duplicate email %s", i, j, email))
			}
			emails[email] = true
			if u.Role != auth.RoleForeman && u.Role != auth.RoleSupervisor {
				errs = append(errs, fmt.Errorf("contractors[%d].users[%d]: role must be foreman or supervisor", i, j))
			}
			if u.Language != "" && !auth.ValidLanguage(u.Language) {
				errs = append(errs, fmt.Errorf("contractors[%d].users[%d]: language must be en or es", i, j))
			}
		}
		for j, p := range c.Projects {
			if strings.TrimSpace(p.Name) == "" {
				errs = append(errs, fmt.Errorf("contractors[%d].projects[%d]: name is required", i, j))
			}
		}
	}
	return errors.Join(errs...)
}

// Deterministic ids so re-running the seed updates rows in place.

func contractorID(name string) string {
	return uuid.NewSHA1(catalog.Namespace, []byte("contractor:"+strings.ToLower(strings.TrimSpace(name)))).String()
}

func userID(email string) string {
	return uuid.NewSHA1(catalog.Namespace, []byte("user:"+auth.NormalizeEmail(email))).String()
}

func projectID(contractor, name string) string {
	return uuid.NewSHA1(catalog.Namespace, []byte("project:"+contractor+":"+strings.ToLower(strings.TrimSpace(name)))).String()
}
