package db

type (
	// Settings is the per-chat policy row.
	Settings struct {
		ID       int64  `db:"id"`
		Enabled  bool   `db:"enabled"`
		Language string `db:"language"`

		// DeleteRestricted overrides the process-wide delete-restricted-
		// commands flag for a single chat.
		DeleteRestricted bool `db:"delete_restricted"`
	}
)
