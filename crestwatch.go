// Package crestwatch watches Crestron's firmware and software update listing
// and notifies chat channels when the listing changes. It fetches the listing
// page, extracts update records, diffs them against the last persisted
// snapshot and, when the set changed, formats and delivers a message to each
// configured webhook channel.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, sqlite/, slack/).
package crestwatch
