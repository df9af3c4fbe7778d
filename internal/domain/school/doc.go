// Package school holds read models for records owned by the surrounding
// school-operations platform: rosters, catalogs and evidence sources. The
// mastery engine only reads these tables.
package school
