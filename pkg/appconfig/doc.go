// Package appconfig implements the App Configuration commands: key-value and feature
// flag management, file import and export, and the argument validation shared by them.
//
// Key-values are stored through the Store interface. SDKStore implements it on top of
// the azappconfig data plane client; tests use an in-memory store.
//
// Hierarchical files are flattened into keys joined by a separator:
//
//	{"app": {"color": "blue", "ports": [80, 443]}}
//
// imported with separator ":" yields app:color=blue, app:ports:0=80 and app:ports:1=443.
// Export reverses the process.
package appconfig
