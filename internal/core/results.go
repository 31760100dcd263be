package core

import "fmt"

// SyncStatus is the outcome variant of a sync pass. Expected failures travel
// in results, not errors, so callers switch on the variant instead of
// unwrapping error chains.
type SyncStatus int

const (
	// StatusSuccess means the pass completed. An action-sync pass may still
	// have dropped permanently failing actions along the way.
	StatusSuccess SyncStatus = iota
	// StatusError means the remote service or the local store rejected the
	// pass; retrying immediately will not help.
	StatusError
	// StatusNetworkError means the pass hit a transient failure and should
	// be retried later with no data lost.
	StatusNetworkError
)

func (s SyncStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusNetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}

// FullSyncResult is the outcome of one full-sync pass.
type FullSyncResult struct {
	Status SyncStatus
	// Deleted is the number of local bookmarks hard-deleted by
	// reconciliation. Only meaningful on success.
	Deleted int
	// Code is the HTTP status code when Status is StatusError and the
	// remote rejected a page fetch; zero otherwise.
	Code    int
	Message string
}

func fullSyncSuccess(deleted int) FullSyncResult {
	return FullSyncResult{Status: StatusSuccess, Deleted: deleted}
}

func fullSyncError(code int, format string, args ...any) FullSyncResult {
	return FullSyncResult{Status: StatusError, Code: code, Message: fmt.Sprintf(format, args...)}
}

func fullSyncNetworkError(format string, args ...any) FullSyncResult {
	return FullSyncResult{Status: StatusNetworkError, Message: fmt.Sprintf(format, args...)}
}

// ActionSyncResult is the outcome of one action-replay pass. There is no
// error variant: permanent per-action failures are handled inside the pass
// and only a transient stall surfaces.
type ActionSyncResult struct {
	Status SyncStatus
	// Applied counts actions confirmed by the remote during this pass.
	Applied int
	// Dropped counts actions discarded as permanent failures.
	Dropped int
	Message string
}

func actionSyncSuccess(applied, dropped int) ActionSyncResult {
	return ActionSyncResult{Status: StatusSuccess, Applied: applied, Dropped: dropped}
}

func actionSyncNetworkError(applied, dropped int, format string, args ...any) ActionSyncResult {
	return ActionSyncResult{
		Status:  StatusNetworkError,
		Applied: applied,
		Dropped: dropped,
		Message: fmt.Sprintf(format, args...),
	}
}
