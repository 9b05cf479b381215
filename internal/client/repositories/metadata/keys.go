package metadata

// Well-known metadata keys.
const (
	KeyLastSyncTime = "last_sync_time"
	KeyAccessToken  = "session.access_token"
	KeyRefreshToken = "session.refresh_token"
	KeyUserID       = "session.user_id"
	KeyEmail        = "session.email"
)

// CollectionKey marks that a collection has been persisted at least once.
func CollectionKey(collection string) string {
	return "collection." + collection + ".initialized"
}
