package events

import (
	"time"

	"github.com/google/uuid"
)

func newSubID() string {
	return uuid.New().String()
}

// nowFunc is a seam for deterministic tests.
var nowFunc = time.Now
