package api

import "encoding/json"

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=256"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type sessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
}

type registerResponse struct {
	UserID string `json:"user_id"`
}

type pushRequest struct {
	Rows []map[string]any `json:"rows" validate:"max=10000"`
}

type pushResponse struct {
	Written int `json:"written"`
	Skipped int `json:"skipped"`
}

type pullResponse struct {
	Rows []json.RawMessage `json:"rows"`
}

type presignResponse struct {
	URL string `json:"url"`
}

type statusResponse struct {
	Status string `json:"status"`
}
