package domain

import (
	"fmt"
	"time"
)

// Kind identifies one of the content categories mirrored from upstream.
type Kind string

const (
	KindAudio   Kind = "audio"
	KindVideo   Kind = "video"
	KindPodcast Kind = "podcast"
)

// AllKinds returns every supported kind in a stable order.
func AllKinds() []Kind {
	return []Kind{KindAudio, KindVideo, KindPodcast}
}

// ParseKind validates s as a known kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindAudio, KindVideo, KindPodcast:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) String() string {
	return string(k)
}

// MediaRecord is the locally mirrored copy of one upstream item.
// MediaLink is the reconciliation key.
type MediaRecord struct {
	ID           int64     `db:"id" json:"id"`
	MediaID      int64     `db:"media_id" json:"mediaID"`
	MediaLink    string    `db:"media_link" json:"mediaLink"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	MediaImage   string    `db:"media_image" json:"mediaImage"`
	Author       string    `db:"author" json:"author"`
	Language     string    `db:"language" json:"language"`
	Type         string    `db:"type" json:"type"`
	Categories   []string  `db:"-" json:"categories"`
	CreatedBy    string    `db:"created_by" json:"createdBy"`
	CreatedDate  time.Time `db:"created_date" json:"createdDate"`
	ModifiedBy   string    `db:"modified_by" json:"modifiedBy"`
	ModifiedDate time.Time `db:"modified_date" json:"modifiedDate"`
}

// Outcome tags what a reconciliation did to the store.
type Outcome int

const (
	OutcomeInserted Outcome = iota + 1
	OutcomeUpdated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeUpdated:
		return "updated"
	default:
		return "unknown"
	}
}
