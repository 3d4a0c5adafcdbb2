// Package backup tracks Recovery Services backup jobs and operations.
//
// Backup operations started through resource manager answer with an Azure-AsyncOperation
// or Location header. Tracker polls the matching status endpoint until the operation
// leaves the InProgress state and then resolves the backup job it produced.
package backup
