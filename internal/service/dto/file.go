package dto

import "github.com/trackly/trackly-api/internal/domain/model"

type FileList struct {
	Files []*model.File `json:"files"`
	Total int           `json:"total"`
	Skip  int           `json:"skip"`
	Limit int           `json:"limit"`
}
