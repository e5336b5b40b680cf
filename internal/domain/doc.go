// Package domain holds the data model and error taxonomy shared by the
// orchestrator, its collaborators and the admin surfaces.
package domain
