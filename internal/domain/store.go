package domain

// ProgressStore persists watch progress locally (BoltDB + memory).
type ProgressStore interface {
	GetProgress(itemID string) (Progress, bool)
	SaveProgress(p Progress) error
	ListProgress() ([]Progress, error)
	DeleteProgress(itemID string) error

	Close() error
}
