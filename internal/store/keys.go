package store

// Local storage keys.
const (
	keySession = "session"
	keyUser    = "user"
	keyUI      = "perfect-day-storage"
)

func tasksKey(userID string) string      { return "tasks-" + userID }
func categoriesKey(userID string) string { return "categories-" + userID }
func moodsKey(userID string) string      { return "moods-" + userID }
func routinesKey(userID string) string   { return "routines-" + userID }
func journalKey(userID string) string    { return "journal-" + userID }
func unsyncedKey(userID string) string   { return "unsynced-" + userID }

// userKeys lists every per-user key.
func userKeys(userID string) []string {
	return []string{
		tasksKey(userID),
		categoriesKey(userID),
		moodsKey(userID),
		routinesKey(userID),
		journalKey(userID),
		unsyncedKey(userID),
	}
}
