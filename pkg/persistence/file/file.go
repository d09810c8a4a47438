// Package file provides file-backed process definition storage: one JSON
// file per definition under <root>/processes.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/prosaga/prosaga/pkg/models"
	"github.com/prosaga/prosaga/pkg/persistence"
)

type Persistence struct {
	root     string
	validate *validator.Validate
}

func NewPersistence(root string) *Persistence {
	return &Persistence{
		root:     root,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (p *Persistence) processesDir() string {
	return filepath.Join(p.root, "processes")
}

// validateName rejects names that could escape the storage root.
func (p *Persistence) validateName(name string) error {
	if name == "" {
		return errors.New("process name cannot be empty")
	}

	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return errors.New("process name contains invalid characters")
	}

	return nil
}

func (p *Persistence) ProcessDefinitions(ctx context.Context) ([]*models.ProcessDefinition, error) {
	root := os.DirFS(p.processesDir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to scan processes directory: %w", err)
	}

	definitions := make([]*models.ProcessDefinition, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		definition, err := p.ProcessDefinitionByName(ctx, strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		definitions = append(definitions, definition)
	}

	return definitions, nil
}

func (p *Persistence) ProcessDefinitionByName(_ context.Context, name string) (*models.ProcessDefinition, error) {
	if err := p.validateName(name); err != nil {
		return nil, persistence.NewProcessDefinitionError("GetByName", name, err)
	}

	body, err := os.ReadFile(filepath.Join(p.processesDir(), name+".json")) // #nosec G304 -- name is validated above
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewProcessDefinitionError("GetByName", name, persistence.ErrProcessNotFound)
		}

		return nil, persistence.NewProcessDefinitionError("GetByName", name, err)
	}

	var definition models.ProcessDefinition
	if err := json.Unmarshal(body, &definition); err != nil {
		return nil, persistence.NewProcessDefinitionError("GetByName", name, err)
	}

	if err := definition.Validate(p.validate); err != nil {
		return nil, persistence.NewProcessDefinitionError("GetByName", name, err)
	}

	return &definition, nil
}

func (p *Persistence) SaveProcessDefinition(_ context.Context, definition *models.ProcessDefinition) error {
	if err := p.validateName(definition.Name); err != nil {
		return persistence.NewProcessDefinitionError("Save", definition.Name, err)
	}

	if err := definition.Validate(p.validate); err != nil {
		return persistence.NewProcessDefinitionError("Save", definition.Name, err)
	}

	if err := os.MkdirAll(p.processesDir(), 0750); err != nil {
		return persistence.NewProcessDefinitionError("Save", definition.Name, err)
	}

	data, err := json.MarshalIndent(definition, "", "  ")
	if err != nil {
		return persistence.NewProcessDefinitionError("Save", definition.Name, err)
	}

	path := filepath.Join(p.processesDir(), definition.Name+".json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return persistence.NewProcessDefinitionError("Save", definition.Name, err)
	}

	return nil
}

func (p *Persistence) DeleteProcessDefinition(_ context.Context, name string) error {
	if err := p.validateName(name); err != nil {
		return persistence.NewProcessDefinitionError("Delete", name, err)
	}

	err := os.Remove(filepath.Join(p.processesDir(), name+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.NewProcessDefinitionError("Delete", name, persistence.ErrProcessNotFound)
		}

		return persistence.NewProcessDefinitionError("Delete", name, err)
	}

	return nil
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	info, err := os.Stat(p.root)
	if err != nil {
		return fmt.Errorf("storage root unavailable: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("storage root %s is not a directory", p.root)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

var _ persistence.Persistence = (*Persistence)(nil)
