package models

import (
	"time"

	"github.com/google/uuid"
)

type Reseller struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Login          string
	HashedPassword string
}
