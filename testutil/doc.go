// Package testutil builds synthetic survey containers for tests.
package testutil
