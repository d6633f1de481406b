package dto

import "voice-campaign-api/domain"

type UploadCustomersResponse struct {
	Count     int                     `json:"count"`
	Customers []domain.CustomerRecord `json:"customers"`
}
