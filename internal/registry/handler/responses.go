package handler

import (
	"proptoken/internal/registry/models"
	"proptoken/pkg/domain"
)

type AdminResponse struct {
	Admin domain.Identity `json:"admin"`
}

type OwnerResponse struct {
	Owner domain.Identity `json:"owner"`
}

type PropertiesResponse struct {
	Owner      domain.Identity          `json:"owner"`
	Properties []models.PropertyDetails `json:"properties"`
}
