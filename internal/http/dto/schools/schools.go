// Package schools contiene los DTOs del directorio de escuelas.
package schools

import "github.com/dropDatabas3/schooldir/internal/domain/repository"

// SchoolRequest es el body de alta/edición (admin).
type SchoolRequest struct {
	Name        string `json:"name"`
	City        string `json:"city"`
	Region      string `json:"region"`
	Kind        string `json:"kind"`
	Website     string `json:"website"`
	Description string `json:"description"`
}

func (r SchoolRequest) Input() repository.SchoolInput {
	return repository.SchoolInput{
		Name:        r.Name,
		City:        r.City,
		Region:      r.Region,
		Kind:        r.Kind,
		Website:     r.Website,
		Description: r.Description,
	}
}

type ListResponse struct {
	Items  []repository.School `json:"items"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

type FavoritesResponse struct {
	Items []repository.School `json:"items"`
}
