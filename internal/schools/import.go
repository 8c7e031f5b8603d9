package schools

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/schooldir/internal/domain/repository"
)

// importFile es el formato de `schooldirctl schools import`:
//
//	schools:
//	  - name: Escuela N° 1
//	    city: Rosario
//	    website: https://escuela1.edu.ar
type importFile struct {
	Schools []repository.School `yaml:"schools"`
}

// ParseImport lee el YAML de importación.
func ParseImport(r io.Reader) ([]repository.SchoolInput, error) {
	var f importFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse schools file: %w", err)
	}
	out := make([]repository.SchoolInput, 0, len(f.Schools))
	for _, s := range f.Schools {
		out = append(out, repository.SchoolInput{
			Name:        s.Name,
			City:        s.City,
			Region:      s.Region,
			Kind:        s.Kind,
			Website:     s.Website,
			Description: s.Description,
		})
	}
	return out, nil
}

// Import crea todas las escuelas. Valida todo antes de escribir; si una falla
// la validación no se crea ninguna.
func (s *Service) Import(ctx context.Context, actorID string, in []repository.SchoolInput) (int, error) {
	for i := range in {
		if _, err := normalize(in[i]); err != nil {
			return 0, fmt.Errorf("school #%d: %w", i+1, err)
		}
	}
	for i, sc := range in {
		if _, err := s.Create(ctx, actorID, sc); err != nil {
			return i, fmt.Errorf("school #%d: %w", i+1, err)
		}
	}
	return len(in), nil
}
