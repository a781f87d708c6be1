package models

import "time"

type Driver struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Rating      float64   `json:"rating"`
	RatingCount int       `json:"rating_count"`
	CreatedAt   time.Time `json:"created_at"`
}
