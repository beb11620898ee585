package fplugin

import "github.com/jward/fplugin/internal/store"

// Public type aliases for the catalog records returned by Status and
// Repositories.

type Repository = store.Repository
type Build = store.Build
type Pass = store.Pass
