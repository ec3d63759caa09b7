package domain

import (
	"time"

	"github.com/google/uuid"
)

type Site struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Members   []*Member `json:"members,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}
