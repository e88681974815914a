package view

import "feedreader/internal/domain/entity"

type DTO struct {
	Name      string   `json:"name"`
	Sort      string   `json:"sort"`
	Display   bool     `json:"display"`
	Sources   []string `json:"sources"`
	Entries   int      `json:"entries"`
	Unvisited int      `json:"unvisited"`
	Starred   int      `json:"starred"`
}

func toDTO(v entity.ViewSnapshot) DTO {
	return DTO{
		Name:      v.Name,
		Sort:      v.Sort.String(),
		Display:   v.Display,
		Sources:   v.Sources,
		Entries:   v.Entries,
		Unvisited: v.Unvisited,
		Starred:   v.Starred,
	}
}
