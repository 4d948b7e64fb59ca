package links

import (
	"time"

	"github.com/google/uuid"
)

// Link is the persisted association between a short code and its target URL,
// plus usage metadata. CreatedAt never changes after creation; ClickCount only
// moves through the redirect path.
type Link struct {
	ID          uuid.UUID
	Code        string
	LongURL     string
	ClickCount  int64
	LastClicked *time.Time
	CreatedAt   time.Time
}
