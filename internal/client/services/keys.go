package services

// identityPrefix groups the keys dropped on sign-out.
const identityPrefix = "identity."

// Metadata keys owned by the services.
const (
	keyLastSyncCount  = "last_sync_count"
	keyLastBackupAt   = "last_backup_at"
	keyIsDirty        = "is_dirty"
	keySubscribed     = "subscribed"
	keyEmail          = "email"
	keyEmailForSignIn = identityPrefix + "email_for_sign_in"
	keyPrincipal      = identityPrefix + "principal"
	keyDeviceID       = "device_id"
	keyLocation       = "location"
	keyMonthlyTimings = "monthly_timings"
)
